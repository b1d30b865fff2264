package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/couchcryptid/quakewatch/internal/config"
)

// ParseLevel maps LOG_LEVEL values to slog levels, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewHandler builds a JSON or text handler (LOG_FORMAT) writing to w.
func NewHandler(cfg *config.Config, w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.LogLevel)}
	if cfg.LogFormat == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// NewLogger creates the process logger writing to stderr.
func NewLogger(cfg *config.Config) *slog.Logger {
	return slog.New(NewHandler(cfg, os.Stderr))
}

// OpenLogFile returns a handler writing to LOG_FILE, or a discarding handler
// when no file is configured. The returned func closes the file.
func OpenLogFile(cfg *config.Config) (slog.Handler, func(), error) {
	if cfg.LogFile == "" {
		return slog.NewTextHandler(io.Discard, nil), func() {}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return NewHandler(cfg, f), func() { _ = f.Close() }, nil
}

// FanoutHandler sends each record to every sub-handler enabled for its level.
type FanoutHandler []slog.Handler

func (handlers FanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (handlers FanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, h := range handlers {
		if h.Enabled(ctx, record.Level) {
			if err := h.Handle(ctx, record.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (handlers FanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := make(FanoutHandler, len(handlers))
	for i, h := range handlers {
		derived[i] = h.WithAttrs(attrs)
	}
	return derived
}

func (handlers FanoutHandler) WithGroup(name string) slog.Handler {
	derived := make(FanoutHandler, len(handlers))
	for i, h := range handlers {
		derived[i] = h.WithGroup(name)
	}
	return derived
}
