package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWritesToGivenWriterAtLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New("warn", &buf)

	logger.Info("vector index opened")
	assert.Empty(t, buf.String())

	logger.Warn("run history disabled")
	assert.Contains(t, buf.String(), `msg="run history disabled"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelError, ParseLevel("ERROR"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelDebug, ParseLevel("verbose"))
}
