package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const messageWindow = time.Minute

// Settings holds the guard's tunables. Swappable at runtime when the
// configuration file is reloaded.
type Settings struct {
	MaxMessagesPerMinute int
	CommandCooldown      time.Duration
	Whitelist            []int64
}

// Guard ties the message window and the command cooldown together into the
// per-identity policy the bot enforces. The two tracks are independent:
// relayed messages never consume command budget and vice versa.
type Guard struct {
	limiter  Limiter
	cooldown Cooldown
	log      *slog.Logger

	mu        sync.RWMutex
	limit     int
	period    time.Duration
	whitelist map[int64]struct{}
}

// NewGuard builds a Guard over the chosen limiter and cooldown backends.
func NewGuard(limiter Limiter, cooldown Cooldown, settings Settings, log *slog.Logger) *Guard {
	if log == nil {
		log = slog.Default()
	}

	g := &Guard{
		limiter:  limiter,
		cooldown: cooldown,
		log:      log,
	}
	g.Reconfigure(settings)

	return g
}

// Reconfigure swaps the guard's tunables.
func (g *Guard) Reconfigure(settings Settings) {
	whitelist := make(map[int64]struct{}, len(settings.Whitelist))
	for _, id := range settings.Whitelist {
		whitelist[id] = struct{}{}
	}

	g.mu.Lock()
	g.limit = settings.MaxMessagesPerMinute
	g.period = settings.CommandCooldown
	g.whitelist = whitelist
	g.mu.Unlock()
}

// AllowMessage reports whether the identity may relay another message within
// the sliding window.
func (g *Guard) AllowMessage(ctx context.Context, userID int64) (bool, error) {
	limit, _, whitelisted := g.snapshot(userID)
	if whitelisted {
		return true, nil
	}

	result, err := g.limiter.Check(ctx, messageKey(userID), limit, messageWindow)
	if err != nil {
		if errors.Is(err, ErrLimitExceeded) {
			return false, nil
		}
		// Backend trouble must not silence the whole chat: fail open.
		g.log.Warn("message limiter unavailable, failing open", slog.Int64("user_id", userID), slog.Any("error", err))
		return true, nil
	}

	return result.Allowed, nil
}

// AllowCommand reports whether the identity's command cooldown has elapsed,
// arming it again when it has.
func (g *Guard) AllowCommand(ctx context.Context, userID int64) (bool, error) {
	_, period, whitelisted := g.snapshot(userID)
	if whitelisted {
		return true, nil
	}

	allowed, err := g.cooldown.Touch(ctx, commandKey(userID), period)
	if err != nil {
		g.log.Warn("command cooldown unavailable, failing open", slog.Int64("user_id", userID), slog.Any("error", err))
		return true, nil
	}

	return allowed, nil
}

// Reset clears both throttle tracks for the identity. Used on block, unblock,
// and administrative resets.
func (g *Guard) Reset(ctx context.Context, userID int64) error {
	limiterErr := g.limiter.Reset(ctx, messageKey(userID))
	cooldownErr := g.cooldown.Clear(ctx, commandKey(userID))
	return errors.Join(limiterErr, cooldownErr)
}

// CooldownPeriod returns the currently configured command cooldown.
func (g *Guard) CooldownPeriod() time.Duration {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.period
}

func (g *Guard) snapshot(userID int64) (limit int, period time.Duration, whitelisted bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.whitelist[userID]
	return g.limit, g.period, ok
}

func messageKey(userID int64) string {
	return fmt.Sprintf("msg:%d", userID)
}

func commandKey(userID int64) string {
	return fmt.Sprintf("cmd:%d", userID)
}
