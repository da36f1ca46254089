package logger

import (
	"context"
	"errors"
	"log/slog"
)

// FanoutHandler duplicates records to several handlers. Used to keep the
// local JSON stream while also forwarding errors to Sentry.
type FanoutHandler struct {
	handlers []slog.Handler
}

// NewFanoutHandler builds a handler that fans records out to all targets.
func NewFanoutHandler(handlers ...slog.Handler) *FanoutHandler {
	return &FanoutHandler{handlers: handlers}
}

// Enabled reports whether any target handles records at the given level.
func (h *FanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, target := range h.handlers {
		if target.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// WithAttrs returns a new fanout with the attributes applied to every target.
func (h *FanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, target := range h.handlers {
		next[i] = target.WithAttrs(attrs)
	}
	return &FanoutHandler{handlers: next}
}

// WithGroup returns a new fanout with the group applied to every target.
func (h *FanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, target := range h.handlers {
		next[i] = target.WithGroup(name)
	}
	return &FanoutHandler{handlers: next}
}

// Handle delivers the record to every target that accepts its level.
func (h *FanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, target := range h.handlers {
		if !target.Enabled(ctx, record.Level) {
			continue
		}
		if err := target.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
