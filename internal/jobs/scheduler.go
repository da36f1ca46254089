package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const limiterCleanupSchedule = "@every 10m"

// Scheduler periodically enqueues the maintenance tasks.
type Scheduler interface {
	RegisterTasks(sweepSchedule string, entryTTL time.Duration) error
	Run()
	Shutdown()
}

type scheduler struct {
	asynqScheduler *asynq.Scheduler
	log            *slog.Logger
}

// NewScheduler builds a Scheduler backed by asynq.
func NewScheduler(redisOpt asynq.RedisConnOpt, log *slog.Logger) Scheduler {
	return &scheduler{
		asynqScheduler: asynq.NewScheduler(redisOpt, nil),
		log:            log,
	}
}

// RegisterTasks registers the queue sweep on the configured cron schedule and
// the limiter cleanup on a fixed interval. The limiter cleanup uses the same
// TTL as the queue so both kinds of per-user state age out together.
func (s *scheduler) RegisterTasks(sweepSchedule string, entryTTL time.Duration) error {
	sweep, err := NewQueueSweepTask(entryTTL)
	if err != nil {
		return err
	}

	if _, err := s.asynqScheduler.Register(sweepSchedule, sweep); err != nil {
		return err
	}

	cleanup, err := NewLimiterCleanupTask(entryTTL)
	if err != nil {
		return err
	}

	if _, err := s.asynqScheduler.Register(limiterCleanupSchedule, cleanup); err != nil {
		return err
	}

	if s.log != nil {
		s.log.InfoContext(context.Background(), "scheduler: registered maintenance tasks",
			slog.String("sweep_schedule", sweepSchedule),
			slog.Duration("entry_ttl", entryTTL),
		)
	}

	return nil
}

func (s *scheduler) Run() {
	if s.log != nil {
		s.log.InfoContext(context.Background(), "scheduler: starting")
	}

	go func() {
		if err := s.asynqScheduler.Run(); err != nil && s.log != nil {
			s.log.ErrorContext(context.Background(), "scheduler: run failed", "error", err)
		}
	}()
}

func (s *scheduler) Shutdown() {
	if s.log != nil {
		s.log.InfoContext(context.Background(), "scheduler: shutting down")
	}

	s.asynqScheduler.Shutdown()
}
