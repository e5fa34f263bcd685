package app

import (
	"io"
	"log/slog"
)

// levelFor maps the validated -log-level strings onto slog levels. The CLI
// rejects anything else before it gets here; unknown strings mean Info.
func levelFor(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newLogger builds the App's isolated logger. The global slog default stays
// untouched, so tests can run several apps side by side without crosstalk.
func newLogger(level, format string, outW io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: levelFor(level)}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(outW, opts))
	}
	return slog.New(slog.NewTextHandler(outW, opts))
}
