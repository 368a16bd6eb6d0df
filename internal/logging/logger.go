// Package logging defines the structured-logging interface used across the
// client. Implementations wrap slog (default) or zerolog.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "chunk encrypted", "transfer_id", id, "chunk_id", n)
type Logger interface {
	// Debug logs high-volume diagnostics such as per-chunk events.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// Supported backends for New.
const (
	BackendSlogText = "text"
	BackendSlogJSON = "json"
	BackendZerolog  = "zerolog"
)

// New builds a Logger writing to w. level is one of debug, info, warn, error.
func New(backend, level string, w io.Writer) (Logger, error) {
	switch strings.ToLower(backend) {
	case BackendSlogText, "":
		lvl, err := parseSlogLevel(level)
		if err != nil {
			return nil, err
		}
		return NewSlogLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))), nil
	case BackendSlogJSON:
		lvl, err := parseSlogLevel(level)
		if err != nil {
			return nil, err
		}
		return NewSlogLogger(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))), nil
	case BackendZerolog:
		return NewZerologWriter(w, level)
	default:
		return nil, fmt.Errorf("unknown log backend %q", backend)
	}
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return NewSlogLogger(slog.New(slog.DiscardHandler))
}

func parseSlogLevel(level string) (slog.Level, error) {
	var lvl slog.Level
	if level == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}
