package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		name     string
		level    string
		expected zerolog.Level
	}{
		{"debug", "debug", zerolog.DebugLevel},
		{"info", "info", zerolog.InfoLevel},
		{"warn", "warn", zerolog.WarnLevel},
		{"warning alias", "WARNING", zerolog.WarnLevel},
		{"error", "error", zerolog.ErrorLevel},
		{"unknown defaults to info", "verbose", zerolog.InfoLevel},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseLevel(tc.level))
		})
	}
}

func TestNewWithWriter_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{Level: "info"}, &buf)

	l.Info().Str("symbol", "AAPL").Msg("planning cycle")

	out := buf.String()
	assert.Contains(t, out, `"message":"planning cycle"`)
	assert.Contains(t, out, `"symbol":"AAPL"`)
	assert.Contains(t, out, `"service":"rebalancer"`)
}

func TestNewWithWriter_PrettyOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{Level: "info", Pretty: true}, &buf)

	l.Info().Msg("test message")

	assert.Contains(t, buf.String(), "test message")
	assert.NotContains(t, buf.String(), `"message"`)
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{Level: "error"}, &buf)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	l.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	l.Error().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
}
