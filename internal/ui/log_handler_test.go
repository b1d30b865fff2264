package ui

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTUILogHandlerEnabled(t *testing.T) {
	h := NewTUILogHandler(slog.LevelWarn)
	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}

func TestTUILogHandlerDropsWithoutProgram(t *testing.T) {
	h := NewTUILogHandler(slog.LevelWarn)
	record := slog.NewRecord(time.Now(), slog.LevelWarn, "fetch failed", 0)
	require.NoError(t, h.Handle(context.Background(), record))
}

func TestTUILogHandlerSummary(t *testing.T) {
	h := NewTUILogHandler(slog.LevelWarn)
	derived := h.WithAttrs([]slog.Attr{slog.String("component", "pipeline")}).
		WithGroup("fetch").(*TUILogHandler)

	record := slog.NewRecord(time.Now(), slog.LevelWarn, "refresh failed", 0)
	record.AddAttrs(slog.String("kind", "status"), slog.Int("code", 503))

	assert.Equal(t, "refresh failed (component=pipeline, fetch.kind=status, fetch.code=503)", derived.summary(record))
	assert.Same(t, h.program, derived.program, "derived handlers share the program pointer")

	bare := slog.NewRecord(time.Now(), slog.LevelWarn, "feed slow", 0)
	assert.Equal(t, "feed slow", h.summary(bare))
}
