// Package logging configures the process-wide slog handler and carries
// request-scoped loggers through context.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

type loggerKey struct{}

// Setup installs the default slog logger for the given server mode.
// Dev mode logs human-readable text at debug level; everything else logs JSON at info.
func Setup(mode string) *slog.Logger {
	logger := New(os.Stderr, mode)
	slog.SetDefault(logger)
	return logger
}

// New builds a logger writing to w for the given mode.
func New(w io.Writer, mode string) *slog.Logger {
	if mode == "dev" {
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// FromContext extracts the logger from context, falling back to slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}

// ToContext adds the logger to context.
func ToContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}
