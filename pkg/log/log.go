// Package log configures slog and hands out per-module loggers.
package log

import (
	"log/slog"
	"os"
	"sync"
)

var modules sync.Map // module name -> *slog.Logger

func Setup(logLevel string) {
	var level slog.Level

	switch logLevel {
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
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	// Cached loggers captured the previous default handler.
	modules.Clear()
}

// WithModule returns the logger for module, creating it on first use.
func WithModule(module string) *slog.Logger {
	if logger, ok := modules.Load(module); ok {
		return logger.(*slog.Logger)
	}

	logger, _ := modules.LoadOrStore(module, slog.With("module", module))

	return logger.(*slog.Logger)
}
