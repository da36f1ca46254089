package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type bucket struct {
	stamps []time.Time
}

// MemoryLimiter is the in-process Limiter implementation. It keeps one
// timestamp bucket per key behind a single mutex; buckets are pruned lazily
// on access and swept periodically by the cleaner job.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	log     *slog.Logger
	now     func() time.Time
}

// NewMemoryLimiter returns an in-memory limiter implementation.
func NewMemoryLimiter(log *slog.Logger) *MemoryLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &MemoryLimiter{
		buckets: make(map[string]*bucket),
		log:     log,
		now:     time.Now,
	}
}

// Check enforces a sliding-window limit for the provided key. Entries older
// than the window are evicted before counting; a rejected attempt is not
// recorded.
func (m *MemoryLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	now := m.now()
	windowStart := now.Add(-window)

	m.mu.Lock()
	defer m.mu.Unlock()

	bkt := m.buckets[key]
	if bkt == nil {
		bkt = &bucket{stamps: make([]time.Time, 0, 8)}
		m.buckets[key] = bkt
	}

	bkt.stamps = keepRecent(bkt.stamps, windowStart)
	count := len(bkt.stamps)

	allowed := count < limit
	if allowed {
		bkt.stamps = append(bkt.stamps, now)
		count++
	}

	result := &Result{
		Allowed:   allowed,
		Remaining: max(limit-count, 0),
		ResetAt:   resetAt(bkt.stamps, now, window),
	}

	if !allowed {
		return result, ErrLimitExceeded
	}

	return result, nil
}

// Reset drops all recorded timestamps for the key.
func (m *MemoryLimiter) Reset(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.buckets, key)
	m.mu.Unlock()
	return nil
}

// Cleanup removes buckets whose newest entry is older than maxAge. Invoked
// periodically so idle identities do not pin memory forever.
func (m *MemoryLimiter) Cleanup(maxAge time.Duration) int {
	if maxAge <= 0 {
		return 0
	}

	cutoff := m.now().Add(-maxAge)
	removed := 0

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, bkt := range m.buckets {
		if len(bkt.stamps) == 0 || bkt.stamps[len(bkt.stamps)-1].Before(cutoff) {
			delete(m.buckets, key)
			removed++
		}
	}

	return removed
}

func keepRecent(stamps []time.Time, windowStart time.Time) []time.Time {
	firstIdx := 0
	for firstIdx < len(stamps) && !stamps[firstIdx].After(windowStart) {
		firstIdx++
	}

	if firstIdx == 0 {
		return stamps
	}
	if firstIdx >= len(stamps) {
		return stamps[:0]
	}

	copy(stamps, stamps[firstIdx:])
	return stamps[:len(stamps)-firstIdx]
}

func resetAt(stamps []time.Time, now time.Time, window time.Duration) time.Time {
	if len(stamps) == 0 {
		return now
	}
	return stamps[0].Add(window)
}

// MemoryCooldown is the in-process Cooldown implementation.
type MemoryCooldown struct {
	mu   sync.Mutex
	last map[string]time.Time
	now  func() time.Time
}

// NewMemoryCooldown returns an in-memory cooldown tracker.
func NewMemoryCooldown() *MemoryCooldown {
	return &MemoryCooldown{
		last: make(map[string]time.Time),
		now:  time.Now,
	}
}

// Touch reports whether the cooldown has elapsed for the key and restarts it
// if so. A rejected touch leaves the previous command timestamp in place.
func (c *MemoryCooldown) Touch(ctx context.Context, key string, period time.Duration) (bool, error) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if last, ok := c.last[key]; ok && now.Before(last.Add(period)) {
		return false, nil
	}

	c.last[key] = now
	return true, nil
}

// Clear forgets the last-command timestamp for the key.
func (c *MemoryCooldown) Clear(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.last, key)
	c.mu.Unlock()
	return nil
}

// Cleanup removes entries older than maxAge.
func (c *MemoryCooldown) Cleanup(maxAge time.Duration) int {
	if maxAge <= 0 {
		return 0
	}

	cutoff := c.now().Add(-maxAge)
	removed := 0

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, last := range c.last {
		if last.Before(cutoff) {
			delete(c.last, key)
			removed++
		}
	}

	return removed
}
