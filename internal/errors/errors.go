// Package errors defines the application error taxonomy and the central
// error handling pipeline.
package errors

import (
	"errors"
	"fmt"
)

// Domain rejections. All of these are recovered locally and translated into
// an informational reply to the user; none are process-level failures.
var (
	ErrAlreadyQueued        = errors.New("already waiting in the queue")
	ErrAlreadySearching     = errors.New("already searching for a partner")
	ErrAlreadyInChat        = errors.New("already in an active chat")
	ErrNotInChatOrQueue     = errors.New("not in a chat or the waiting queue")
	ErrNotInChat            = errors.New("not in an active chat")
	ErrRateLimited          = errors.New("rate limit exceeded")
	ErrNoActiveChatToReport = errors.New("no active chat to report")
	ErrUserBlocked          = errors.New("user is blocked")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrNotAuthorized        = errors.New("not authorized")
	ErrDeliveryFailed       = errors.New("message delivery failed")
)

// IsDomainRejection reports whether err is one of the expected user-facing
// rejections rather than an operational failure.
func IsDomainRejection(err error) bool {
	for _, sentinel := range []error{
		ErrAlreadyQueued,
		ErrAlreadySearching,
		ErrAlreadyInChat,
		ErrNotInChatOrQueue,
		ErrNotInChat,
		ErrRateLimited,
		ErrNoActiveChatToReport,
		ErrUserBlocked,
		ErrUserNotFound,
		ErrInvalidArgument,
		ErrNotAuthorized,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// Severity ranks operational errors for reporting purposes.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AppError is an operational failure enriched with reporting metadata.
type AppError struct {
	Code      string
	Message   string
	Severity  Severity
	Retryable bool
	cause     error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// NewStorageError wraps a persistence failure. Storage errors are retryable:
// the repository layer retries them once with backoff before surfacing a
// generic failure to the user.
func NewStorageError(op string, cause error) *AppError {
	return &AppError{
		Code:      "E200",
		Message:   fmt.Sprintf("storage error in %s: %v", op, cause),
		Severity:  SeverityHigh,
		Retryable: true,
		cause:     cause,
	}
}

// NewTransportError wraps a Telegram delivery failure. Per-recipient delivery
// failures are non-fatal for broadcast and partner-notify paths.
func NewTransportError(cause error) *AppError {
	return &AppError{
		Code:      "E300",
		Message:   fmt.Sprintf("telegram transport error: %v", cause),
		Severity:  SeverityMedium,
		Retryable: true,
		cause:     cause,
	}
}

// NewConfigError marks a configuration problem detected after startup.
func NewConfigError(msg string) *AppError {
	return &AppError{
		Code:     "E100",
		Message:  msg,
		Severity: SeverityCritical,
	}
}
