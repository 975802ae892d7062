package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// ProgressBar renders month-by-month download progress on one line.
type ProgressBar struct {
	w         io.Writer
	total     int
	current   int
	label     string
	startTime time.Time
	mu        sync.Mutex
}

// NewProgressBar creates a progress bar for total steps.
func NewProgressBar(w io.Writer, total int) *ProgressBar {
	return &ProgressBar{
		w:         w,
		total:     total,
		startTime: time.Now(),
	}
}

// Update records that current of total steps are done, the last being label.
func (p *ProgressBar) Update(current int, label string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = current
	p.label = label
	p.render()
}

// Finish ends the bar line with a summary.
func (p *ProgressBar) Finish(summary string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.w, "\n%s %s in %s\n", ColorSuccess("✓"), summary, formatDuration(time.Since(p.startTime)))
}

func (p *ProgressBar) render() {
	fmt.Fprint(p.w, "\r\033[K")

	percentage := 100.0
	if p.total > 0 {
		percentage = float64(p.current) / float64(p.total) * 100
	}

	const barWidth = 30
	filled := int(percentage / 100 * barWidth)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	fmt.Fprintf(p.w, "%s %s %3.0f%% [%d/%d] %s - %s",
		ColorProgress("►"),
		bar,
		percentage,
		p.current,
		p.total,
		p.label,
		formatDuration(time.Since(p.startTime)),
	)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
