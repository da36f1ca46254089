// Package moderation implements the admin operations: blocking, broadcast,
// and operator inspection of the directory.
package moderation

import (
	"context"
	"log/slog"

	"github.com/strangerpair/roulette-bot/internal/chat"
	"github.com/strangerpair/roulette-bot/internal/directory"
	"github.com/strangerpair/roulette-bot/internal/domain"
	"github.com/strangerpair/roulette-bot/internal/ratelimit"
	"github.com/strangerpair/roulette-bot/internal/report"
	"github.com/strangerpair/roulette-bot/internal/repository"
	"github.com/strangerpair/roulette-bot/pkg/metrics"
)

// Service composes the directory, session manager, queue, and report registry
// into the operator-facing surface.
type Service struct {
	users    *directory.Service
	sessions repository.SessionRepository
	queue    repository.QueueRepository
	chats    *chat.Service
	reports  *report.Service
	guard    *ratelimit.Guard
	notifier chat.Notifier
	log      *slog.Logger
}

// NewService constructs the moderation service.
func NewService(
	users *directory.Service,
	sessions repository.SessionRepository,
	queue repository.QueueRepository,
	chats *chat.Service,
	reports *report.Service,
	guard *ratelimit.Guard,
	notifier chat.Notifier,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		users:    users,
		sessions: sessions,
		queue:    queue,
		chats:    chats,
		reports:  reports,
		guard:    guard,
		notifier: notifier,
		log:      log,
	}
}

// BlockUser soft-blocks the user, force-ends any active session (the partner
// is notified, the blocked user is not), removes any queue entry, and resets
// their throttles. The flag is written first so a racing match attempt either
// sees it or is torn down right after: block always wins eventually.
func (s *Service) BlockUser(ctx context.Context, userID int64) error {
	if err := s.users.SetBlocked(ctx, userID, true); err != nil {
		return err
	}

	if err := s.chats.ForceDisconnect(ctx, userID); err != nil {
		return err
	}

	if err := s.guard.Reset(ctx, userID); err != nil {
		s.log.Warn("failed to reset throttles on block", slog.Int64("user_id", userID), slog.Any("error", err))
	}

	s.log.Info("user blocked", slog.Int64("user_id", userID))
	return nil
}

// UnblockUser clears the soft-block flag. It does not restore any session the
// user had before being blocked.
func (s *Service) UnblockUser(ctx context.Context, userID int64) error {
	if err := s.users.SetBlocked(ctx, userID, false); err != nil {
		return err
	}

	if err := s.guard.Reset(ctx, userID); err != nil {
		s.log.Warn("failed to reset throttles on unblock", slog.Int64("user_id", userID), slog.Any("error", err))
	}

	s.log.Info("user unblocked", slog.Int64("user_id", userID))
	return nil
}

// Broadcast sends an announcement to every non-blocked user and returns how
// many deliveries succeeded out of how many were attempted. Per-recipient
// failures are counted and logged; they never abort the batch.
func (s *Service) Broadcast(ctx context.Context, text string) (sent, total int, err error) {
	ids, err := s.users.ListActiveIDs(ctx)
	if err != nil {
		return 0, 0, err
	}

	for _, id := range ids {
		if err := s.notifier.Broadcast(ctx, id, text); err != nil {
			metrics.RecordBroadcast("failed")
			s.log.Warn("broadcast delivery failed", slog.Int64("user_id", id), slog.Any("error", err))
			continue
		}

		metrics.RecordBroadcast("sent")
		sent++
	}

	s.log.Info("broadcast finished", slog.Int("recipients", len(ids)), slog.Int("sent", sent))
	return sent, len(ids), nil
}

// Stats returns the aggregate snapshot for operators.
func (s *Service) Stats(ctx context.Context) (*domain.Stats, error) {
	return s.users.Stats(ctx)
}

// ListReports returns open abuse reports, most recent first.
func (s *Service) ListReports(ctx context.Context, limit int) ([]domain.Report, error) {
	return s.reports.ListUnresolved(ctx, limit)
}

// ListSessions returns all active sessions for inspection.
func (s *Service) ListSessions(ctx context.Context) ([]domain.Session, error) {
	return s.sessions.List(ctx)
}

// ListQueue returns the waiting queue in FIFO order.
func (s *Service) ListQueue(ctx context.Context) ([]domain.QueueEntry, error) {
	return s.queue.List(ctx)
}
