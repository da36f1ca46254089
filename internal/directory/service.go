// Package directory implements the user directory: identity registration,
// block status, and aggregate counters over the persistence layer.
package directory

import (
	"context"
	"log/slog"

	"github.com/strangerpair/roulette-bot/internal/domain"
	"github.com/strangerpair/roulette-bot/internal/repository"
	"github.com/strangerpair/roulette-bot/internal/usercache"
)

// Service provides business operations over users.
type Service struct {
	repo  repository.UserRepository
	cache *usercache.Cache
	log   *slog.Logger
}

// NewService constructs a directory service. cache may be nil.
func NewService(repo repository.UserRepository, cache *usercache.Cache, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Register creates the user on first contact. Safe to call on every update.
func (s *Service) Register(ctx context.Context, userID int64) error {
	created, err := s.repo.CreateIfAbsent(ctx, userID)
	if err != nil {
		return err
	}

	if created {
		s.log.Info("new user registered", slog.Int64("user_id", userID))
	}

	return nil
}

// Get returns the user's profile, served from cache when fresh.
func (s *Service) Get(ctx context.Context, userID int64) (*domain.User, error) {
	if cached, err := s.cache.Get(ctx, userID); err == nil && cached != nil {
		return cached, nil
	} else if err != nil {
		s.log.Warn("user cache read failed", slog.Int64("user_id", userID), slog.Any("error", err))
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, user); err != nil {
		s.log.Warn("user cache write failed", slog.Int64("user_id", userID), slog.Any("error", err))
	}

	return user, nil
}

// IsBlocked reports the user's soft-block flag. Unknown users are not blocked.
func (s *Service) IsBlocked(ctx context.Context, userID int64) (bool, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.Blocked, nil
}

// SetBlocked flips the soft-block flag and invalidates the cached profile.
func (s *Service) SetBlocked(ctx context.Context, userID int64, blocked bool) error {
	if err := s.repo.SetBlocked(ctx, userID, blocked); err != nil {
		return err
	}

	s.Evict(ctx, userID)
	return nil
}

// Evict drops cached profiles after an out-of-band mutation (pairing,
// unpairing) so the next read sees the authoritative row.
func (s *Service) Evict(ctx context.Context, userIDs ...int64) {
	if err := s.cache.Invalidate(ctx, userIDs...); err != nil {
		s.log.Warn("user cache invalidation failed", slog.Any("error", err))
	}
}

// ListActiveIDs returns every non-blocked identity.
func (s *Service) ListActiveIDs(ctx context.Context) ([]int64, error) {
	return s.repo.ListActiveIDs(ctx)
}

// Stats returns the aggregate directory snapshot.
func (s *Service) Stats(ctx context.Context) (*domain.Stats, error) {
	return s.repo.Stats(ctx)
}
