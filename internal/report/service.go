// Package report implements the abuse report registry.
package report

import (
	"context"
	"log/slog"
	"strings"

	"github.com/strangerpair/roulette-bot/internal/directory"
	"github.com/strangerpair/roulette-bot/internal/domain"
	apperrors "github.com/strangerpair/roulette-bot/internal/errors"
	"github.com/strangerpair/roulette-bot/internal/repository"
	"github.com/strangerpair/roulette-bot/pkg/metrics"
)

// DefaultListLimit caps operator report listings.
const DefaultListLimit = 10

// Service files and lists abuse reports.
type Service struct {
	users *directory.Service
	repo  repository.ReportRepository
	log   *slog.Logger
}

// NewService constructs the report registry.
func NewService(users *directory.Service, repo repository.ReportRepository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		users: users,
		repo:  repo,
		log:   log,
	}
}

// File records a report against the reporter's current partner. The reporter
// must be in an active chat; there is nobody else to report.
func (s *Service) File(ctx context.Context, reporterID int64, reason string) (reportedID int64, err error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return 0, apperrors.ErrInvalidArgument
	}

	reporter, err := s.users.Get(ctx, reporterID)
	if err != nil {
		return 0, err
	}
	if !reporter.InChat() {
		return 0, apperrors.ErrNoActiveChatToReport
	}

	reportedID = *reporter.PartnerID
	if err := s.repo.Create(ctx, reporterID, reportedID, reason); err != nil {
		return 0, err
	}

	s.users.Evict(ctx, reportedID)
	metrics.RecordReportFiled()

	s.log.Info("report filed",
		slog.Int64("reporter_id", reporterID),
		slog.Int64("reported_id", reportedID),
		slog.String("reason", reason),
	)

	return reportedID, nil
}

// ListUnresolved returns open reports, most recent first.
func (s *Service) ListUnresolved(ctx context.Context, limit int) ([]domain.Report, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.repo.ListUnresolved(ctx, limit)
}

// Resolve marks the report handled.
func (s *Service) Resolve(ctx context.Context, reportID int64) error {
	return s.repo.Resolve(ctx, reportID)
}
