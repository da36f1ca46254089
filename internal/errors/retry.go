package errors

import (
	"context"
	"errors"
	"time"
)

const (
	retryAttempts  = 1
	initialBackoff = 100 * time.Millisecond
)

// WithRetry runs fn and retries it once with backoff when the failure is
// marked retryable. Transient storage and transport hiccups get a second
// chance; domain rejections and permanent failures surface immediately.
func WithRetry(ctx context.Context, fn func() error) error {
	if fn == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var err error
	for attempt := 0; attempt <= retryAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err = fn()
		if err == nil || !IsRetryable(err) || attempt == retryAttempts {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(initialBackoff << attempt):
		}
	}

	return err
}

// IsRetryable reports whether the error is worth a second attempt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr.Retryable
	}

	return false
}
