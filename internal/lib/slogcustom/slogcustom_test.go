package slogcustom

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLogger(t *testing.T, level slog.Level) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var buf bytes.Buffer
	return slog.New(NewPrettyHandler(&buf, level)), &buf
}

func TestPrettyHandler_Line(t *testing.T) {
	log, buf := newLogger(t, slog.LevelInfo)
	log.Info("saved result", "test", "geography.json", "correct", 2)

	line := strings.TrimSpace(buf.String())
	assert.Contains(t, line, "INFO: saved result")
	assert.True(t, strings.HasSuffix(line, "test=geography.json correct=2"), line)
}

func TestPrettyHandler_Level(t *testing.T) {
	log, buf := newLogger(t, slog.LevelWarn)
	log.Info("hidden")
	log.Debug("hidden too")
	assert.Empty(t, buf.String())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "WARN: shown")
}

func TestPrettyHandler_AttrsAndGroups(t *testing.T) {
	log, buf := newLogger(t, slog.LevelDebug)
	log.With("driver", "sqlite").WithGroup("req").Debug("query", "key", "testResults")

	out := buf.String()
	assert.Contains(t, out, "DEBUG: query")
	assert.Contains(t, out, "driver=sqlite")
	assert.Contains(t, out, "req.key=testResults")

	buf.Reset()
	log.Info("grouped", slog.Group("summary", "correct", 1, "total", 3))
	assert.Contains(t, buf.String(), "summary.correct=1 summary.total=3")
}

func TestPrettyHandler_NilLevel(t *testing.T) {
	h := NewPrettyHandler(&bytes.Buffer{}, nil)
	require.NotNil(t, h)
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, h.Enabled(context.Background(), slog.LevelInfo))
}
