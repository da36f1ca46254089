// Package logger assembles the application slog pipeline: leveled JSON
// output, file rotation, sensitive-attribute masking, and optional Sentry
// forwarding for high-severity records.
package logger

import (
	"io"
	"log/slog"
	"os"

	slogsentry "github.com/samber/slog-sentry/v2"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the logger construction.
type Options struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	SentryEnabled bool
}

// New builds the application logger. When File is set, records are written
// both to stdout and a size-rotated log file.
func New(opts Options) *slog.Logger {
	level := parseLevel(opts.Level)

	out := io.Writer(os.Stdout)
	if opts.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 100),
			MaxBackups: orDefault(opts.MaxBackups, 5),
			MaxAge:     orDefault(opts.MaxAgeDays, 28),
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotated)
	}

	var handler slog.Handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	handler = NewMaskingHandler(handler)

	if opts.SentryEnabled {
		sentryHandler := slogsentry.Option{Level: slog.LevelError}.NewSentryHandler()
		handler = NewFanoutHandler(handler, sentryHandler)
	}

	return slog.New(handler)
}

func parseLevel(raw string) slog.Level {
	switch raw {
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

func orDefault(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}
