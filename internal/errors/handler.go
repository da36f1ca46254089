package errors

import (
	"context"
	"errors"
	"log/slog"

	"github.com/getsentry/sentry-go"

	"github.com/strangerpair/roulette-bot/pkg/logger"
	"github.com/strangerpair/roulette-bot/pkg/metrics"
)

// Handler centralizes logging and Sentry reporting for handler failures.
type Handler struct {
	log           *slog.Logger
	sentryEnabled bool
}

// NewHandler builds the central error handler.
func NewHandler(log *slog.Logger, sentryEnabled bool) *Handler {
	if log == nil {
		log = slog.Default()
	}

	return &Handler{
		log:           log,
		sentryEnabled: sentryEnabled,
	}
}

// Handle logs the error and reports operational failures to Sentry. Domain
// rejections are logged at debug level only; they are expected traffic.
func (h *Handler) Handle(ctx context.Context, err error) {
	if err == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if IsDomainRejection(err) {
		h.log.Debug("domain rejection", slog.Any("error", err))
		return
	}

	attrs := []any{slog.Any("error", err)}
	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		attrs = append(attrs, slog.String("correlation_id", correlationID))
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		attrs = append(attrs,
			slog.String("code", appErr.Code),
			slog.String("severity", string(appErr.Severity)),
			slog.Bool("retryable", appErr.Retryable),
		)
		h.log.Error("application error", attrs...)
		metrics.RecordError(appErr.Code, string(appErr.Severity))

		if h.sentryEnabled && (appErr.Severity == SeverityHigh || appErr.Severity == SeverityCritical) {
			h.sendToSentry(err, appErr)
		}
		return
	}

	h.log.Error("unexpected error", attrs...)
	metrics.RecordError("unexpected", string(SeverityHigh))

	if h.sentryEnabled {
		h.sendToSentry(err, nil)
	}
}

func (h *Handler) sendToSentry(err error, appErr *AppError) {
	sentry.WithScope(func(scope *sentry.Scope) {
		if appErr != nil {
			if appErr.Code != "" {
				scope.SetTag("code", appErr.Code)
			}
			if appErr.Severity != "" {
				scope.SetTag("severity", string(appErr.Severity))
			}
		}
		sentry.CaptureException(err)
	})
}
