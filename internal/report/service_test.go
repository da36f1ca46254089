package report

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strangerpair/roulette-bot/internal/directory"
	"github.com/strangerpair/roulette-bot/internal/domain"
	apperrors "github.com/strangerpair/roulette-bot/internal/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeUserRepo struct {
	users map[int64]*domain.User
}

func (r *fakeUserRepo) CreateIfAbsent(ctx context.Context, id int64) (bool, error) {
	if _, ok := r.users[id]; ok {
		return false, nil
	}
	r.users[id] = &domain.User{ID: id}
	return true, nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) SetBlocked(ctx context.Context, id int64, blocked bool) error {
	user, ok := r.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	user.Blocked = blocked
	return nil
}

func (r *fakeUserRepo) ListActiveIDs(ctx context.Context) ([]int64, error) {
	ids := make([]int64, 0, len(r.users))
	for id, user := range r.users {
		if !user.Blocked {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *fakeUserRepo) Stats(ctx context.Context) (*domain.Stats, error) {
	return &domain.Stats{TotalUsers: len(r.users)}, nil
}

type fakeReportRepo struct {
	reports []domain.Report
	nextID  int64
}

func (r *fakeReportRepo) Create(ctx context.Context, reporterID, reportedID int64, reason string) error {
	r.nextID++
	r.reports = append(r.reports, domain.Report{
		ID:         r.nextID,
		ReporterID: reporterID,
		ReportedID: reportedID,
		Reason:     reason,
		CreatedAt:  time.Now(),
	})
	return nil
}

func (r *fakeReportRepo) ListUnresolved(ctx context.Context, limit int) ([]domain.Report, error) {
	var open []domain.Report
	for i := len(r.reports) - 1; i >= 0 && len(open) < limit; i-- {
		if !r.reports[i].Resolved {
			open = append(open, r.reports[i])
		}
	}
	return open, nil
}

func (r *fakeReportRepo) Resolve(ctx context.Context, reportID int64) error {
	for i := range r.reports {
		if r.reports[i].ID == reportID {
			r.reports[i].Resolved = true
			return nil
		}
	}
	return apperrors.ErrUserNotFound
}

func pairedUsers(a, b int64) *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]*domain.User{
		a: {ID: a, PartnerID: &b},
		b: {ID: b, PartnerID: &a},
	}}
}

func newTestService(userRepo *fakeUserRepo, reportRepo *fakeReportRepo) *Service {
	users := directory.NewService(userRepo, nil, testLogger())
	return NewService(users, reportRepo, testLogger())
}

func TestFile_ReportsCurrentPartner(t *testing.T) {
	reportRepo := &fakeReportRepo{}
	svc := newTestService(pairedUsers(1, 2), reportRepo)

	reportedID, err := svc.File(context.Background(), 1, "spam links")
	require.NoError(t, err)
	assert.EqualValues(t, 2, reportedID)

	require.Len(t, reportRepo.reports, 1)
	assert.EqualValues(t, 1, reportRepo.reports[0].ReporterID)
	assert.EqualValues(t, 2, reportRepo.reports[0].ReportedID)
	assert.Equal(t, "spam links", reportRepo.reports[0].Reason)
}

func TestFile_EmptyReason(t *testing.T) {
	svc := newTestService(pairedUsers(1, 2), &fakeReportRepo{})

	_, err := svc.File(context.Background(), 1, "   ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestFile_RequiresActiveChat(t *testing.T) {
	userRepo := &fakeUserRepo{users: map[int64]*domain.User{1: {ID: 1}}}
	svc := newTestService(userRepo, &fakeReportRepo{})

	_, err := svc.File(context.Background(), 1, "rude")
	assert.ErrorIs(t, err, apperrors.ErrNoActiveChatToReport)
}

func TestListUnresolved_AppliesDefaultLimit(t *testing.T) {
	reportRepo := &fakeReportRepo{}
	svc := newTestService(pairedUsers(1, 2), reportRepo)
	ctx := context.Background()

	for i := 0; i < DefaultListLimit+5; i++ {
		_, err := svc.File(ctx, 1, "spam")
		require.NoError(t, err)
	}

	open, err := svc.ListUnresolved(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, open, DefaultListLimit)
}

func TestResolve(t *testing.T) {
	reportRepo := &fakeReportRepo{}
	svc := newTestService(pairedUsers(1, 2), reportRepo)
	ctx := context.Background()

	_, err := svc.File(ctx, 1, "spam")
	require.NoError(t, err)

	require.NoError(t, svc.Resolve(ctx, 1))

	open, err := svc.ListUnresolved(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, open)
}
