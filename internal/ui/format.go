package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/mgutz/ansi"
)

var (
	supportsColor = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	ColorSuccess  = colorFunc(ansi.Green)
	ColorError    = colorFunc(ansi.Red)
	ColorWarning  = colorFunc(ansi.Yellow)
	ColorInfo     = colorFunc(ansi.Cyan)
	ColorProgress = colorFunc(ansi.Blue)
	ColorBold     = colorFunc("default+b")
	ColorDim      = colorFunc("default+h")
)

// SetColor overrides terminal detection.
func SetColor(enabled bool) {
	supportsColor = enabled
}

func colorFunc(color string) func(string) string {
	return func(text string) string {
		if supportsColor {
			return ansi.Color(text, color)
		}
		return text
	}
}

// Header writes a boxed title.
func Header(w io.Writer, title string) {
	width := len(title) + 8
	if width < 50 {
		width = 50
	}
	padding := (width - len(title) - 2) / 2

	fmt.Fprintln(w, "\n+"+strings.Repeat("-", width-2)+"+")
	fmt.Fprintf(w, "|%s%s%s|\n",
		strings.Repeat(" ", padding),
		ColorBold(title),
		strings.Repeat(" ", width-2-padding-len(title)),
	)
	fmt.Fprintln(w, "+"+strings.Repeat("-", width-2)+"+")
}

// Success writes a success line.
func Success(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", ColorSuccess("SUCCESS:"), message)
}

// Warning writes a warning line.
func Warning(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", ColorWarning("WARNING:"), ColorWarning(message))
}

// Info writes an informational line.
func Info(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", ColorInfo("INFO:"), message)
}

// Pair is a labelled value for KeyValues.
type Pair struct {
	Key   string
	Value string
}

// KeyValues writes aligned "key: value" lines.
func KeyValues(w io.Writer, pairs ...Pair) {
	width := 0
	for _, p := range pairs {
		if len(p.Key) > width {
			width = len(p.Key)
		}
	}
	for _, p := range pairs {
		fmt.Fprintf(w, "  %s%s  %s\n", ColorDim(p.Key+":"), strings.Repeat(" ", width-len(p.Key)), p.Value)
	}
}
