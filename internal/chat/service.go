// Package chat implements the session manager: pairing requests, chat
// teardown, and message relay between partners.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/strangerpair/roulette-bot/internal/directory"
	apperrors "github.com/strangerpair/roulette-bot/internal/errors"
	"github.com/strangerpair/roulette-bot/internal/ratelimit"
	"github.com/strangerpair/roulette-bot/internal/repository"
	"github.com/strangerpair/roulette-bot/pkg/metrics"
)

// Outcome describes what a RequestMatch or EndChat call did.
type Outcome struct {
	Matched         bool
	PartnerID       int64
	Queued          bool
	CancelledSearch bool
	EndedChat       bool
}

// Service coordinates the per-identity chat lifecycle:
// idle -> searching -> paired -> idle.
type Service struct {
	users    *directory.Service
	match    repository.MatchStore
	queue    repository.QueueRepository
	guard    *ratelimit.Guard
	notifier Notifier
	log      *slog.Logger
}

// NewService constructs the session manager.
func NewService(
	users *directory.Service,
	match repository.MatchStore,
	queue repository.QueueRepository,
	guard *ratelimit.Guard,
	notifier Notifier,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		users:    users,
		match:    match,
		queue:    queue,
		guard:    guard,
		notifier: notifier,
		log:      log,
	}
}

// RequestMatch pairs the user with the oldest waiting partner, or enqueues
// them when nobody is waiting. Rejections: ErrUserBlocked, ErrAlreadyInChat,
// ErrAlreadySearching.
func (s *Service) RequestMatch(ctx context.Context, userID int64) (*Outcome, error) {
	result, err := s.match.PairOrEnqueue(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyQueued) {
			return nil, apperrors.ErrAlreadySearching
		}
		return nil, err
	}

	if result.Queued {
		if notifyErr := s.notifier.Searching(ctx, userID); notifyErr != nil {
			s.log.Error("failed to confirm search", slog.Int64("user_id", userID), slog.Any("error", notifyErr))
		}
		return &Outcome{Queued: true}, nil
	}

	s.users.Evict(ctx, userID, result.PartnerID)
	metrics.RecordMatch()

	if notifyErr := s.notifier.MatchFound(ctx, userID); notifyErr != nil {
		s.log.Error("failed to notify requester about match", slog.Int64("user_id", userID), slog.Any("error", notifyErr))
	}
	if notifyErr := s.notifier.MatchFound(ctx, result.PartnerID); notifyErr != nil {
		s.log.Error("failed to notify partner about match", slog.Int64("user_id", result.PartnerID), slog.Any("error", notifyErr))
	}

	return &Outcome{Matched: true, PartnerID: result.PartnerID}, nil
}

// EndChat is the single cancellation path: it leaves the queue when the user
// is searching, or tears down the active session when they are paired.
// Calling it while idle fails with ErrNotInChatOrQueue and changes nothing.
func (s *Service) EndChat(ctx context.Context, userID int64) (*Outcome, error) {
	removed, err := s.queue.Remove(ctx, userID)
	if err != nil {
		return nil, err
	}
	if removed {
		if notifyErr := s.notifier.SearchCancelled(ctx, userID); notifyErr != nil {
			s.log.Error("failed to confirm search cancel", slog.Int64("user_id", userID), slog.Any("error", notifyErr))
		}
		return &Outcome{CancelledSearch: true}, nil
	}

	partnerID, err := s.match.Unpair(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotInChat) {
			return nil, apperrors.ErrNotInChatOrQueue
		}
		return nil, err
	}

	s.users.Evict(ctx, userID, partnerID)
	metrics.RecordChatEnded()

	if notifyErr := s.notifier.ChatEnded(ctx, userID); notifyErr != nil {
		s.log.Error("failed to confirm chat end", slog.Int64("user_id", userID), slog.Any("error", notifyErr))
	}
	// The partner may have blocked the bot; their loss, not ours.
	if notifyErr := s.notifier.PartnerLeft(ctx, partnerID); notifyErr != nil {
		s.log.Warn("failed to notify partner about disconnect",
			slog.Int64("partner_id", partnerID), slog.Any("error", notifyErr))
	}

	return &Outcome{EndedChat: true, PartnerID: partnerID}, nil
}

// ForceDisconnect tears down whatever pairing state the user holds without
// notifying them. Used when an admin blocks a user: the partner still gets a
// disconnect notification, the blocked user gets silence.
func (s *Service) ForceDisconnect(ctx context.Context, userID int64) error {
	if _, err := s.queue.Remove(ctx, userID); err != nil {
		return err
	}

	partnerID, err := s.match.Unpair(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotInChat) || errors.Is(err, apperrors.ErrUserNotFound) {
			return nil
		}
		return err
	}

	s.users.Evict(ctx, userID, partnerID)
	metrics.RecordChatEnded()

	if notifyErr := s.notifier.PartnerLeft(ctx, partnerID); notifyErr != nil {
		s.log.Warn("failed to notify partner about forced disconnect",
			slog.Int64("partner_id", partnerID), slog.Any("error", notifyErr))
	}

	return nil
}

// RelayMessage forwards an opaque payload to the sender's current partner.
// Rejections: ErrUserBlocked, ErrNotInChat, ErrRateLimited. A transport
// failure surfaces as ErrDeliveryFailed so the sender learns their message
// did not arrive.
func (s *Service) RelayMessage(ctx context.Context, userID int64, payload Payload) (int64, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return 0, err
	}

	if user.Blocked {
		return 0, apperrors.ErrUserBlocked
	}
	if !user.InChat() {
		return 0, apperrors.ErrNotInChat
	}

	allowed, err := s.guard.AllowMessage(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !allowed {
		metrics.RecordRateLimited("message")
		return 0, apperrors.ErrRateLimited
	}

	partnerID := *user.PartnerID
	if err := s.notifier.Relay(ctx, partnerID, payload); err != nil {
		s.log.Error("failed to relay message",
			slog.Int64("from", userID), slog.Int64("to", partnerID), slog.Any("error", err))
		return partnerID, fmt.Errorf("%w: %w", apperrors.ErrDeliveryFailed, err)
	}

	metrics.RecordRelayedMessage()
	return partnerID, nil
}
