package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})

	return client, mr
}

func TestRedisLimiter_AllowsWithinLimit(t *testing.T) {
	client, _ := setupTestRedis(t)

	limiter := NewRedisLimiter(client, testLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := limiter.Check(ctx, "msg:1", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}
}

func TestRedisLimiter_BlocksWhenExceeded(t *testing.T) {
	client, _ := setupTestRedis(t)

	limiter := NewRedisLimiter(client, testLogger())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := limiter.Check(ctx, "msg:1", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	result, err := limiter.Check(ctx, "msg:1", 2, time.Minute)
	assert.ErrorIs(t, err, ErrLimitExceeded)
	assert.False(t, result.Allowed)
}

func TestRedisLimiter_SlidingWindow(t *testing.T) {
	client, _ := setupTestRedis(t)

	limiter := NewRedisLimiter(client, testLogger())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := limiter.Check(ctx, "msg:1", 2, time.Second)
		require.NoError(t, err)
	}

	_, err := limiter.Check(ctx, "msg:1", 2, time.Second)
	require.ErrorIs(t, err, ErrLimitExceeded)

	// the script trims on wall-clock scores, so real elapsed time applies
	time.Sleep(1100 * time.Millisecond)

	result, err := limiter.Check(ctx, "msg:1", 2, time.Second)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestRedisLimiter_Reset(t *testing.T) {
	client, _ := setupTestRedis(t)

	limiter := NewRedisLimiter(client, testLogger())
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

func TestRedisCooldown_Touch(t *testing.T) {
	client, mr := setupTestRedis(t)

	cooldown := NewRedisCooldown(client)
	ctx := context.Background()

	allowed, err := cooldown.Touch(ctx, "cmd:1", 3*time.Second)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = cooldown.Touch(ctx, "cmd:1", 3*time.Second)
	require.NoError(t, err)
	assert.False(t, allowed)

	mr.FastForward(3 * time.Second)

	allowed, err = cooldown.Touch(ctx, "cmd:1", 3*time.Second)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisCooldown_Clear(t *testing.T) {
	client, _ := setupTestRedis(t)

	cooldown := NewRedisCooldown(client)
	ctx := context.Background()

	_, err := cooldown.Touch(ctx, "cmd:1", time.Minute)
	require.NoError(t, err)

	require.NoError(t, cooldown.Clear(ctx, "cmd:1"))

	allowed, err := cooldown.Touch(ctx, "cmd:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}
