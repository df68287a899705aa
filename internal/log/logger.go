// Package log wraps slog with the handful of conveniences the services
// need: leveled construction and per-component child loggers.
package log

import (
	"log/slog"
	"os"
	"strings"
)

// New builds a text logger at the given level ("debug", "info", "warn",
// "error"); unknown levels fall back to info.
func New(level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
}

// WithComponent tags a logger with the subsystem emitting the records.
func WithComponent(l *slog.Logger, component string) *slog.Logger {
	return l.With("component", component)
}

func parseLevel(s string) slog.Level {
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
