package utils

import (
	"io"
	"log/slog"
	"os"
)

// Logger is satisfied by *slog.Logger
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

func NewDiscardLogger() Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewTextLogger writes to stderr, verbose lowers the level to Debug
func NewTextLogger(verbose bool) Logger {
	lvl := slog.LevelInfo
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
