// Package usercache provides Redis-backed caching of user profiles so the
// per-message hot path does not hit PostgreSQL for every relay.
package usercache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/strangerpair/roulette-bot/internal/domain"
)

// TTL is deliberately short: the cache only has to absorb message bursts, and
// pairing state must never be stale for long.
const TTL = 30 * time.Second

// Cache stores user profiles in Redis. All methods degrade to no-ops when the
// cache is not configured.
type Cache struct {
	client *redis.Client
}

// NewCache constructs a user cache backed by the provided Redis client.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Get fetches a cached profile, or nil on miss.
func (c *Cache) Get(ctx context.Context, userID int64) (*domain.User, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}

	data, err := c.client.Get(ctx, cacheKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cached user: %w", err)
	}

	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("decode cached user: %w", err)
	}

	return &user, nil
}

// Set stores the profile.
func (c *Cache) Set(ctx context.Context, user *domain.User) error {
	if c == nil || c.client == nil || user == nil {
		return nil
	}

	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user for cache: %w", err)
	}

	if err := c.client.Set(ctx, cacheKey(user.ID), payload, TTL).Err(); err != nil {
		return fmt.Errorf("set cached user: %w", err)
	}

	return nil
}

// Invalidate removes the cached profile. Must be called after any mutation of
// the user row (pairing, unpairing, block state).
func (c *Cache) Invalidate(ctx context.Context, userIDs ...int64) error {
	if c == nil || c.client == nil || len(userIDs) == 0 {
		return nil
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = cacheKey(id)
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate cached users: %w", err)
	}

	return nil
}

func cacheKey(userID int64) string {
	return fmt.Sprintf("user:profile:%d", userID)
}
