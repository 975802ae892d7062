package observability

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{
		Level:    DebugLevel,
		Output:   &buf,
		Encoding: "json",
		Service:  "test-service",
		Version:  "1.0.0",
	})

	logger.Info("test message")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, "test-service", entry["service"])
	assert.Equal(t, "info", entry["level"])
	assert.Contains(t, entry, "ts")
}

func TestLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: InfoLevel, Output: &buf, Encoding: "json"})

	logger.InfoWithFields("grace periods computed", map[string]interface{}{
		"groups":  12,
		"records": 340,
	})
	logger.WithField("stage", "join").Info("joined")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"groups":12`)
	assert.Contains(t, lines[0], `"records":340`)
	assert.Contains(t, lines[1], `"stage":"join"`)
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: WarnLevel, Output: &buf, Encoding: "console"})

	logger.Info("hidden")
	logger.Debugf("hidden %d", 1)
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	child := logger.WithFields(map[string]interface{}{"month": "01-2020"})
	logger.SetLevel(DebugLevel)
	child.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestLogLevelFromString(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
		"bogus":   InfoLevel,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, LogLevelFromString(in))
		})
	}
}

func TestNopLogger(t *testing.T) {
	logger := NewNop()
	logger.Info("discarded")
	logger.WithField("a", 1).ErrorWithFields("discarded", map[string]interface{}{"b": 2})
}
