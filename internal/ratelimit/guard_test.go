package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingLimiter struct{}

func (failingLimiter) Check(context.Context, string, int, time.Duration) (*Result, error) {
	return nil, errors.New("backend down")
}

func (failingLimiter) Reset(context.Context, string) error {
	return errors.New("backend down")
}

type failingCooldown struct{}

func (failingCooldown) Touch(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("backend down")
}

func (failingCooldown) Clear(context.Context, string) error {
	return errors.New("backend down")
}

func newTestGuard(clock *fakeClock, settings Settings) *Guard {
	limiter := newTestLimiter(clock)
	cooldown := NewMemoryCooldown()
	cooldown.now = clock.Now
	return NewGuard(limiter, cooldown, settings, testLogger())
}

func TestGuard_AllowMessage(t *testing.T) {
	guard := newTestGuard(newFakeClock(), Settings{MaxMessagesPerMinute: 2, CommandCooldown: 3 * time.Second})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := guard.AllowMessage(ctx, 100)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := guard.AllowMessage(ctx, 100)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestGuard_AllowCommand(t *testing.T) {
	clock := newFakeClock()
	guard := newTestGuard(clock, Settings{MaxMessagesPerMinute: 20, CommandCooldown: 3 * time.Second})
	ctx := context.Background()

	allowed, err := guard.AllowCommand(ctx, 100)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = guard.AllowCommand(ctx, 100)
	require.NoError(t, err)
	assert.False(t, allowed)

	clock.Advance(3 * time.Second)
	allowed, err = guard.AllowCommand(ctx, 100)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestGuard_WhitelistBypassesBothTracks(t *testing.T) {
	guard := newTestGuard(newFakeClock(), Settings{
		MaxMessagesPerMinute: 1,
		CommandCooldown:      time.Minute,
		Whitelist:            []int64{100},
	})
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		allowed, err := guard.AllowMessage(ctx, 100)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = guard.AllowCommand(ctx, 100)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
}

func TestGuard_FailsOpenOnBackendError(t *testing.T) {
	guard := NewGuard(failingLimiter{}, failingCooldown{}, Settings{
		MaxMessagesPerMinute: 1,
		CommandCooldown:      time.Minute,
	}, testLogger())
	ctx := context.Background()

	allowed, err := guard.AllowMessage(ctx, 100)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = guard.AllowCommand(ctx, 100)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestGuard_Reconfigure(t *testing.T) {
	guard := newTestGuard(newFakeClock(), Settings{MaxMessagesPerMinute: 1, CommandCooldown: 3 * time.Second})
	ctx := context.Background()

	_, err := guard.AllowMessage(ctx, 100)
	require.NoError(t, err)

	allowed, err := guard.AllowMessage(ctx, 100)
	require.NoError(t, err)
	require.False(t, allowed)

	guard.Reconfigure(Settings{MaxMessagesPerMinute: 5, CommandCooldown: time.Second})

	allowed, err = guard.AllowMessage(ctx, 100)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, time.Second, guard.CooldownPeriod())
}

func TestGuard_Reset(t *testing.T) {
	guard := newTestGuard(newFakeClock(), Settings{MaxMessagesPerMinute: 1, CommandCooldown: time.Minute})
	ctx := context.Background()

	_, err := guard.AllowMessage(ctx, 100)
	require.NoError(t, err)
	_, err = guard.AllowCommand(ctx, 100)
	require.NoError(t, err)

	require.NoError(t, guard.Reset(ctx, 100))

	allowed, err := guard.AllowMessage(ctx, 100)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = guard.AllowCommand(ctx, 100)
	require.NoError(t, err)
	assert.True(t, allowed)
}
