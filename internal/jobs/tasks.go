package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TaskTypeQueueSweep     = "maintenance:queue_sweep"
	TaskTypeLimiterCleanup = "maintenance:limiter_cleanup"
)

const (
	QueueDefault = "default"
	QueueLow     = "low"
)

// QueueSweepPayload carries the maximum age a waiting queue entry may reach
// before it is evicted.
type QueueSweepPayload struct {
	EntryTTL time.Duration `json:"entry_ttl"`
}

// LimiterCleanupPayload carries the maximum idle age for rate limiter state.
type LimiterCleanupPayload struct {
	MaxAge time.Duration `json:"max_age"`
}

// NewQueueSweepTask builds the task that evicts stale queue entries.
func NewQueueSweepTask(entryTTL time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(QueueSweepPayload{EntryTTL: entryTTL})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeQueueSweep, payload, asynq.Queue(QueueDefault)), nil
}

// NewLimiterCleanupTask builds the task that drops idle throttle state.
func NewLimiterCleanupTask(maxAge time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(LimiterCleanupPayload{MaxAge: maxAge})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeLimiterCleanup, payload, asynq.Queue(QueueLow)), nil
}
