package config

import (
	"log/slog"
	"os"
)

// NewLogger returns the service logger. Production emits JSON, everything
// else a text handler; every record carries the service name so the two
// binaries can share one log stream. LOG_LEVEL may be: debug, info, warn,
// error (default: info).
func NewLogger(env, service string) *slog.Logger {
	level := slog.LevelInfo
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler).With("service", service)
}
