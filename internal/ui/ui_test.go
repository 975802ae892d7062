package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"flarewatch/internal/flaring"
)

func withoutColor(t *testing.T) {
	t.Helper()
	original := supportsColor
	originalNoColor := color.NoColor
	SetColor(false)
	color.NoColor = true
	t.Cleanup(func() {
		supportsColor = original
		color.NoColor = originalNoColor
	})
}

func TestColorFunc(t *testing.T) {
	original := supportsColor
	defer func() { supportsColor = original }()

	SetColor(true)
	assert.NotEqual(t, "text", ColorSuccess("text"))
	assert.Contains(t, ColorSuccess("text"), "text")

	SetColor(false)
	assert.Equal(t, "text", ColorError("text"))
}

func TestMessages(t *testing.T) {
	withoutColor(t)
	var buf bytes.Buffer

	Header(&buf, "Flaring Report")
	Success(&buf, "done")
	Warning(&buf, "careful")
	Info(&buf, "note")
	KeyValues(&buf, Pair{"a", "1"}, Pair{"longer", "2"})

	out := buf.String()
	assert.Contains(t, out, "Flaring Report")
	assert.Contains(t, out, "SUCCESS: done")
	assert.Contains(t, out, "WARNING: careful")
	assert.Contains(t, out, "INFO: note")
	assert.Contains(t, out, "a:       1")
	assert.Contains(t, out, "longer:  2")
}

func TestProgressBar(t *testing.T) {
	withoutColor(t)
	var buf bytes.Buffer

	bar := NewProgressBar(&buf, 4)
	bar.Update(2, "2020-02")
	assert.Contains(t, buf.String(), " 50% [2/4] 2020-02")

	bar.Finish("4 months gathered")
	assert.Contains(t, buf.String(), "4 months gathered in")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "500ms", formatDuration(500*time.Millisecond))
	assert.Equal(t, "1.5s", formatDuration(1500*time.Millisecond))
	assert.Equal(t, "2m5s", formatDuration(125*time.Second))
	assert.Equal(t, "1h1m", formatDuration(61*time.Minute))
}

func TestRankingTable(t *testing.T) {
	withoutColor(t)
	spud := time.Date(2019, time.May, 2, 0, 0, 0, 0, time.UTC)
	results := []flaring.RankedResult{
		{
			Rank:             1,
			Key:              flaring.GroupKey{WellID: 200, APINo: 33053000200, Pool: "BAKKEN"},
			HasPostGrace:     true,
			GracePeriodEnd:   time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC),
			FlaredAfterGrace: flaring.VolumeFromInt64(40),
			Measures:         flaring.Measures{GasFlared: flaring.VolumeFromInt64(90)},
			SpudDate:         &spud,
		},
		{
			Rank:                      2,
			Key:                       flaring.GroupKey{WellID: 100, APINo: 33053000100, Pool: "BAKKEN"},
			FlaredAfterGrace:          flaring.VolumeFromInt64(0),
			Measures:                  flaring.Measures{GasFlared: flaring.VolumeFromInt64(10)},
			AnchoredAtCollectionStart: true,
		},
	}

	var buf bytes.Buffer
	RankingTable(&buf, results)
	out := buf.String()

	assert.Contains(t, out, "FLARED AFTER GRACE")
	assert.Contains(t, out, "2020-03-01")
	assert.Contains(t, out, "2019-05-02")
	assert.Contains(t, out, "100*")
	assert.Contains(t, out, "1 well(s) first reported in the earliest month collected")
	assert.Less(t, strings.Index(out, "200"), strings.Index(out, "100*"))
}
