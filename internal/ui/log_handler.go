package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// logRecordMsg delivers a slog record to the model for display in the
// status bar.
type logRecordMsg struct {
	Summary string
	Level   slog.Level
}

// logRecordFadeMsg clears the status bar message it was scheduled for.
type logRecordFadeMsg struct {
	seq int
}

// logRecordFadeDelay is how long a log line stays in the status bar.
const logRecordFadeDelay = 8 * time.Second

// TUILogHandler is a slog.Handler that routes records into a running
// bubbletea program. Records arriving before SetProgram are dropped.
// Handlers derived via WithAttrs/WithGroup share the program pointer.
type TUILogHandler struct {
	level   slog.Level
	program *atomic.Pointer[tea.Program]
	attrs   []slog.Attr
	groups  []string
}

// NewTUILogHandler creates a handler that delivers records at or above
// level to the program set with SetProgram.
func NewTUILogHandler(level slog.Level) *TUILogHandler {
	return &TUILogHandler{
		level:   level,
		program: &atomic.Pointer[tea.Program]{},
	}
}

// SetProgram sets the program that receives log messages. Safe to call from
// any goroutine.
func (h *TUILogHandler) SetProgram(program *tea.Program) {
	h.program.Store(program)
}

func (h *TUILogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *TUILogHandler) Handle(_ context.Context, record slog.Record) error {
	program := h.program.Load()
	if program == nil {
		return nil
	}
	program.Send(logRecordMsg{Summary: h.summary(record), Level: record.Level})
	return nil
}

// summary formats a record as "message (key=value, ...)".
func (h *TUILogHandler) summary(record slog.Record) string {
	prefix := strings.Join(h.groups, ".")
	if prefix != "" {
		prefix += "."
	}

	var parts []string
	for _, attr := range h.attrs {
		parts = append(parts, fmt.Sprintf("%s=%s", attr.Key, attr.Value))
	}
	record.Attrs(func(attr slog.Attr) bool {
		parts = append(parts, fmt.Sprintf("%s%s=%s", prefix, attr.Key, attr.Value))
		return true
	})

	if len(parts) == 0 {
		return record.Message
	}
	return record.Message + " (" + strings.Join(parts, ", ") + ")"
}

func (h *TUILogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TUILogHandler{
		level:   h.level,
		program: h.program,
		attrs:   append(sliceClone(h.attrs), attrs...),
		groups:  sliceClone(h.groups),
	}
}

func (h *TUILogHandler) WithGroup(name string) slog.Handler {
	return &TUILogHandler{
		level:   h.level,
		program: h.program,
		attrs:   sliceClone(h.attrs),
		groups:  append(sliceClone(h.groups), name),
	}
}

func sliceClone[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
