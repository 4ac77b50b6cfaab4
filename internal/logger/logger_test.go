package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn")

	log.Debug("hidden debug")
	log.Info("hidden info")
	log.Warn("visible warning", "entity_id", "acme")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible warning")
	assert.Contains(t, out, "entity_id=acme")
}

func TestSlogLogger_ErrorField(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug")

	log.Error("sink failed", errors.New("connection refused"), "sink", "postgres")

	out := buf.String()
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, `error="connection refused"`)
	assert.Contains(t, out, "sink=postgres")
}

func TestSlogLogger_FatalExits(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")
	code := -1
	log.exit = func(c int) { code = c }

	log.Fatal("bad profiles", errors.New("unknown operator"))

	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "bad profiles")
}

func TestSlogLogger_WithAddsComponentFields(t *testing.T) {
	var buf bytes.Buffer
	var log Logger = New(&buf, "info")

	scoped := log.With("component", "intent")
	scoped.Info("Signal ingested", "entity_id", "acme")
	log.Info("unscoped")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "component=intent")
	assert.Contains(t, lines[0], "entity_id=acme")
	assert.NotContains(t, lines[1], "component=")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
