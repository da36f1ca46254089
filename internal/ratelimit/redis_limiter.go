package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// checkScript trims the window, counts it, and records the new timestamp only
// when under the limit. Running it server-side keeps the window accurate when
// several instances check the same key concurrently.
var checkScript = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
local count = redis.call('ZCARD', KEYS[1])
if count >= tonumber(ARGV[2]) then
	return {0, count}
end
redis.call('ZADD', KEYS[1], ARGV[3], ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return {1, count + 1}
`)

// RedisLimiter implements Limiter using Redis sorted sets and a sliding window.
type RedisLimiter struct {
	client *redis.Client
	log    *slog.Logger
}

var _ Limiter = (*RedisLimiter)(nil)

// NewRedisLimiter creates a Redis-backed Limiter implementation.
func NewRedisLimiter(client *redis.Client, log *slog.Logger) *RedisLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &RedisLimiter{
		client: client,
		log:    log,
	}
}

// Check evaluates the sliding-window limit for the key.
func (l *RedisLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	if l.client == nil {
		return nil, errors.New("redis client is not configured for rate limiting")
	}

	now := time.Now()
	if limit <= 0 {
		return &Result{Allowed: false, ResetAt: now.Add(window)}, ErrLimitExceeded
	}

	cutoff := now.Add(-window).UnixMilli()
	score := now.UnixMilli()

	raw, err := checkScript.Run(ctx, l.client, []string{keyPrefix + key},
		cutoff, limit, score, uuid.NewString(), window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		l.log.Error("rate limiter script failed", slog.String("key", key), slog.Any("error", err))
		return nil, err
	}
	if len(raw) != 2 {
		return nil, errors.New("unexpected rate limiter script reply")
	}

	allowed := raw[0] == 1
	result := &Result{
		Allowed:   allowed,
		Remaining: max(limit-int(raw[1]), 0),
		ResetAt:   now.Add(window),
	}

	if !allowed {
		return result, ErrLimitExceeded
	}

	return result, nil
}

// Reset drops the recorded window for the key.
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, keyPrefix+key).Err()
}

// RedisCooldown implements Cooldown with a NX+TTL marker key.
type RedisCooldown struct {
	client *redis.Client
}

// NewRedisCooldown creates a Redis-backed cooldown tracker.
func NewRedisCooldown(client *redis.Client) *RedisCooldown {
	return &RedisCooldown{client: client}
}

// Touch attempts to arm the cooldown marker. The command is allowed exactly
// when the marker was absent.
func (c *RedisCooldown) Touch(ctx context.Context, key string, period time.Duration) (bool, error) {
	return c.client.SetNX(ctx, "cooldown:"+key, 1, period).Result()
}

// Clear removes the cooldown marker.
func (c *RedisCooldown) Clear(ctx context.Context, key string) error {
	return c.client.Del(ctx, "cooldown:"+key).Err()
}
