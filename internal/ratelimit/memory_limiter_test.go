package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestLimiter(clock *fakeClock) *MemoryLimiter {
	limiter := NewMemoryLimiter(testLogger())
	limiter.now = clock.Now
	return limiter
}

func TestMemoryLimiter_AllowsWithinLimit(t *testing.T) {
	limiter := newTestLimiter(newFakeClock())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result, err := limiter.Check(ctx, "msg:1", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 5-i-1, result.Remaining)
	}
}

func TestMemoryLimiter_BlocksWhenExceeded(t *testing.T) {
	limiter := newTestLimiter(newFakeClock())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := limiter.Check(ctx, "msg:1", 2, time.Minute)
		require.NoError(t, err)
	}

	result, err := limiter.Check(ctx, "msg:1", 2, time.Minute)
	assert.ErrorIs(t, err, ErrLimitExceeded)
	assert.False(t, result.Allowed)
	assert.Zero(t, result.Remaining)
}

func TestMemoryLimiter_SlidingWindow(t *testing.T) {
	clock := newFakeClock()
	limiter := newTestLimiter(clock)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := limiter.Check(ctx, "msg:1", 2, time.Minute)
		require.NoError(t, err)
	}

	clock.Advance(30 * time.Second)
	_, err := limiter.Check(ctx, "msg:1", 2, time.Minute)
	assert.ErrorIs(t, err, ErrLimitExceeded)

	// the first two entries fall out of the window after a full minute
	clock.Advance(31 * time.Second)
	result, err := limiter.Check(ctx, "msg:1", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestMemoryLimiter_RejectedAttemptNotRecorded(t *testing.T) {
	clock := newFakeClock()
	limiter := newTestLimiter(clock)
	ctx := context.Background()

	_, err := limiter.Check(ctx, "msg:1", 1, time.Minute)
	require.NoError(t, err)

	// hammer the limiter while blocked; none of these may consume capacity
	for i := 0; i < 10; i++ {
		clock.Advance(5 * time.Second)
		_, err := limiter.Check(ctx, "msg:1", 1, time.Minute)
		assert.ErrorIs(t, err, ErrLimitExceeded)
	}

	clock.Advance(11 * time.Second)
	result, err := limiter.Check(ctx, "msg:1", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	limiter := newTestLimiter(newFakeClock())
	ctx := context.Background()

	_, err := limiter.Check(ctx, "msg:1", 1, time.Minute)
	require.NoError(t, err)
	_, err = limiter.Check(ctx, "msg:1", 1, time.Minute)
	assert.ErrorIs(t, err, ErrLimitExceeded)

	result, err := limiter.Check(ctx, "msg:2", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestMemoryLimiter_Reset(t *testing.T) {
	limiter := newTestLimiter(newFakeClock())
	ctx := context.Background()

	_, err := limiter.Check(ctx, "msg:1", 1, time.Minute)
	require.NoError(t, err)
	_, err = limiter.Check(ctx, "msg:1", 1, time.Minute)
	require.ErrorIs(t, err, ErrLimitExceeded)

	require.NoError(t, limiter.Reset(ctx, "msg:1"))

	result, err := limiter.Check(ctx, "msg:1", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestMemoryLimiter_Cleanup(t *testing.T) {
	clock := newFakeClock()
	limiter := newTestLimiter(clock)
	ctx := context.Background()

	_, err := limiter.Check(ctx, "msg:1", 5, time.Minute)
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)
	_, err = limiter.Check(ctx, "msg:2", 5, time.Minute)
	require.NoError(t, err)

	removed := limiter.Cleanup(10 * time.Minute)
	assert.Equal(t, 1, removed)

	removed = limiter.Cleanup(10 * time.Minute)
	assert.Zero(t, removed)
}

func TestMemoryCooldown_Touch(t *testing.T) {
	clock := newFakeClock()
	cooldown := NewMemoryCooldown()
	cooldown.now = clock.Now
	ctx := context.Background()

	allowed, err := cooldown.Touch(ctx, "cmd:1", 3*time.Second)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = cooldown.Touch(ctx, "cmd:1", 3*time.Second)
	require.NoError(t, err)
	assert.False(t, allowed)

	clock.Advance(3 * time.Second)
	allowed, err = cooldown.Touch(ctx, "cmd:1", 3*time.Second)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMemoryCooldown_RejectedTouchDoesNotExtend(t *testing.T) {
	clock := newFakeClock()
	cooldown := NewMemoryCooldown()
	cooldown.now = clock.Now
	ctx := context.Background()

	_, err := cooldown.Touch(ctx, "cmd:1", 10*time.Second)
	require.NoError(t, err)

	clock.Advance(6 * time.Second)
	allowed, err := cooldown.Touch(ctx, "cmd:1", 10*time.Second)
	require.NoError(t, err)
	require.False(t, allowed)

	// elapsed from the original touch, not from the rejected one
	clock.Advance(5 * time.Second)
	allowed, err = cooldown.Touch(ctx, "cmd:1", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMemoryCooldown_Clear(t *testing.T) {
	clock := newFakeClock()
	cooldown := NewMemoryCooldown()
	cooldown.now = clock.Now
	ctx := context.Background()

	_, err := cooldown.Touch(ctx, "cmd:1", time.Minute)
	require.NoError(t, err)

	require.NoError(t, cooldown.Clear(ctx, "cmd:1"))

	allowed, err := cooldown.Touch(ctx, "cmd:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}
