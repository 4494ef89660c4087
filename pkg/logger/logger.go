package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/lmittmann/tint"
)

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(New(os.Getenv("ENVIRONMENT"), os.Stdout))
}

// New builds a slog logger: colored tint output in development, JSON elsewhere.
func New(env string, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if env == "development" || env == "" {
		level = slog.LevelDebug
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
			AddSource:  true,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
	}))
}

// Setup replaces the process logger.
func Setup(env string) *slog.Logger {
	l := New(env, os.Stdout)
	current.Store(l)
	slog.SetDefault(l)
	return l
}

// SetLogger is used by tests to capture output.
func SetLogger(l *slog.Logger) {
	current.Store(l)
}

func L() *slog.Logger {
	return current.Load()
}

func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	L().Error(msg, args...)
}

func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}

// WarnContext keeps trace correlation when the handler supports it.
func WarnContext(ctx context.Context, msg string, args ...any) {
	L().WarnContext(ctx, msg, args...)
}
