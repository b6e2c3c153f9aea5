// Package logger provides the structured logging interface used throughout
// the aggregator. It wraps the standard library's log/slog rather than
// pulling in a third-party logging library: every call site this package
// is reconstructed from (cmd/aggregator/main.go, internal/monolith,
// internal/apm) only ever needed leveled, key-value logging, which slog
// already gives us.
package logger

import (
	"context"
	"io"
	"log/slog"
)

// Level is a logging verbosity level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoggerInterface is the contract every component depends on, so call
// sites never need to know the logger is slog-backed.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, kv ...any)
	Info(ctx context.Context, msg string, kv ...any)
	Warn(ctx context.Context, msg string, kv ...any)
	Error(ctx context.Context, msg string, kv ...any)
	With(kv ...any) LoggerInterface
}

// Logger is the concrete LoggerInterface implementation.
type Logger struct {
	sl *slog.Logger
}

// New creates a Logger writing to w at the given level. name becomes the
// "service" attribute on every line; attrs, if non-nil, are merged in as
// additional static fields (e.g. deployment metadata).
func New(w io.Writer, level Level, name string, attrs *map[string]any) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level.slogLevel()})
	sl := slog.New(handler).With("service", name)

	if attrs != nil {
		for k, v := range *attrs {
			sl = sl.With(k, v)
		}
	}

	return &Logger{sl: sl}
}

func (l *Logger) Debug(ctx context.Context, msg string, kv ...any) {
	l.sl.DebugContext(ctx, msg, kv...)
}

func (l *Logger) Info(ctx context.Context, msg string, kv ...any) {
	l.sl.InfoContext(ctx, msg, kv...)
}

func (l *Logger) Warn(ctx context.Context, msg string, kv ...any) {
	l.sl.WarnContext(ctx, msg, kv...)
}

func (l *Logger) Error(ctx context.Context, msg string, kv ...any) {
	l.sl.ErrorContext(ctx, msg, kv...)
}

// With returns a child logger carrying the given key-value pairs on every
// subsequent line, without mutating the receiver.
func (l *Logger) With(kv ...any) LoggerInterface {
	return &Logger{sl: l.sl.With(kv...)}
}
