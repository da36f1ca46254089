// Package handlers contains the asynq task handlers for background
// maintenance.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/strangerpair/roulette-bot/internal/chat"
	"github.com/strangerpair/roulette-bot/internal/jobs"
	"github.com/strangerpair/roulette-bot/internal/repository"
)

// QueueSweepHandler evicts waiting queue entries older than the configured
// TTL and tells each evicted user their search expired.
type QueueSweepHandler struct {
	queue    repository.QueueRepository
	notifier chat.Notifier
	log      *slog.Logger
}

// NewQueueSweepHandler builds the sweep handler.
func NewQueueSweepHandler(queue repository.QueueRepository, notifier chat.Notifier, log *slog.Logger) *QueueSweepHandler {
	if log == nil {
		log = slog.Default()
	}

	return &QueueSweepHandler{queue: queue, notifier: notifier, log: log}
}

// ProcessTask implements asynq.Handler.
func (h *QueueSweepHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.QueueSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.log.ErrorContext(ctx, "queue sweep: failed to decode payload", slog.Any("error", err))
		return err
	}

	if payload.EntryTTL <= 0 {
		return nil
	}

	cutoff := time.Now().UTC().Add(-payload.EntryTTL)
	evicted, err := h.queue.EvictOlderThan(ctx, cutoff)
	if err != nil {
		h.log.ErrorContext(ctx, "queue sweep: eviction failed", slog.Any("error", err))
		return err
	}

	for _, userID := range evicted {
		if notifyErr := h.notifier.SearchExpired(ctx, userID); notifyErr != nil {
			h.log.Warn("queue sweep: failed to notify evicted user",
				slog.Int64("user_id", userID), slog.Any("error", notifyErr))
		}
	}

	if len(evicted) > 0 {
		h.log.InfoContext(ctx, "queue sweep: evicted stale searches",
			slog.Int("evicted", len(evicted)),
			slog.Time("cutoff", cutoff),
		)
	}

	return nil
}

// Sweeper ages out idle per-user throttle state.
type Sweeper interface {
	Cleanup(maxAge time.Duration) int
}

// LimiterCleanupHandler drops throttle buckets for users who went quiet.
type LimiterCleanupHandler struct {
	sweepers []Sweeper
	log      *slog.Logger
}

// NewLimiterCleanupHandler builds the cleanup handler. Pass every in-memory
// throttle store that should be swept; the Redis backend expires keys on its
// own.
func NewLimiterCleanupHandler(log *slog.Logger, sweepers ...Sweeper) *LimiterCleanupHandler {
	if log == nil {
		log = slog.Default()
	}

	return &LimiterCleanupHandler{sweepers: sweepers, log: log}
}

// ProcessTask implements asynq.Handler.
func (h *LimiterCleanupHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.LimiterCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.log.ErrorContext(ctx, "limiter cleanup: failed to decode payload", slog.Any("error", err))
		return err
	}

	removed := 0
	for _, sweeper := range h.sweepers {
		if sweeper == nil {
			continue
		}
		removed += sweeper.Cleanup(payload.MaxAge)
	}

	if removed > 0 {
		h.log.InfoContext(ctx, "limiter cleanup: dropped idle state", slog.Int("removed", removed))
	}

	return nil
}
