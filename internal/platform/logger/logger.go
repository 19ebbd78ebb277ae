// Package logger provides structured logging setup for the application.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/batchvox/batchvox/internal/config"
)

// Setup initializes the application's logging based on the provided
// configuration. It creates a structured JSON logger writing to stderr with
// the configured level and installs it as the process default.
//
// An unrecognized level falls back to info with a warning rather than
// failing startup.
func Setup(cfg config.LogConfig) *slog.Logger {
	return New(cfg, os.Stderr)
}

// New builds the logger against an explicit writer. Split out from Setup so
// tests can capture output.
func New(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
		tmp := slog.New(slog.NewTextHandler(os.Stderr, nil))
		tmp.Warn("invalid log level configured, using default level",
			"configured_level", cfg.Level,
			"default_level", "info")
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
