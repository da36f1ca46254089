// Package ratelimit implements the anti-spam throttles: a sliding-window
// message limiter and a per-identity command cooldown.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

// Result captures the outcome of a rate-limit evaluation.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter is a sliding-window counting strategy. A rejected check must not
// record the attempt: only accepted messages consume window capacity.
type Limiter interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
	Reset(ctx context.Context, key string) error
}

// Cooldown tracks the single last-command timestamp per key. Touch reports
// whether the key is past its cooldown and, if so, restarts it.
type Cooldown interface {
	Touch(ctx context.Context, key string, period time.Duration) (bool, error)
	Clear(ctx context.Context, key string) error
}

// ErrLimitExceeded indicates the rate limit has been reached for the key.
var ErrLimitExceeded = errors.New("rate limit exceeded")
