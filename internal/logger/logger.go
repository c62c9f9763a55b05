package logger

import (
	"io"
	"log/slog"
	"strings"

	"github.com/client-account-ledger/internal/config"
)

// NewLogger creates a JSON slog.Logger writing to w at the configured level.
// The CLI passes os.Stderr because stdout carries the account report.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level := ParseLevel(cfg.Logging.Level)

	opts := &slog.HandlerOptions{
		Level: level,
		// Add source code location to log output
		AddSource: level == slog.LevelDebug,
	}

	handler := slog.NewJSONHandler(w, opts)
	logger := slog.New(handler).With("app", cfg.Application.Name, "env", cfg.Application.Env)

	logger.Debug("logger initialized", "level", level)

	return logger
}

// ParseLevel maps a configured level name to a slog.Level, defaulting to info
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops every record
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
