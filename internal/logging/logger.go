// Package logging provides structured logging configuration using log/slog.
//
// The parsing packages never log; only the command-line tools do, and they
// configure slog through Setup once at startup. A logger carrying the name
// of the input being processed travels through the context, so every entry
// about one file can be correlated.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup configures the global slog logger based on level and format.
// A nil w selects stderr so that data written to stdout stays clean.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func Setup(w io.Writer, level, format string) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	logger := New(w, level, format)
	slog.SetDefault(logger)
	return logger
}

// New returns a logger writing to w with the given level and format.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel converts a string log level to slog.Level.
// Unknown values map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

type ctxKey struct{}

// WithInput returns a context whose logger tags every entry with the input
// name.
//
// Usage:
//
//	ctx = logging.WithInput(ctx, path)
//	logging.FromContext(ctx).Info("validated", "records", n)
func WithInput(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ctxKey{}, FromContext(ctx).With("input", name))
}

// FromContext returns the logger stored by WithInput, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithFields returns a logger with additional structured fields.
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
