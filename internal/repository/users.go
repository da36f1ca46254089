// Package repository contains the PostgreSQL persistence layer. Everything
// that must be atomic across two identities (pairing, unpairing) lives in
// MatchStore as a single transaction; the remaining stores are per-row.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/strangerpair/roulette-bot/internal/domain"
	apperrors "github.com/strangerpair/roulette-bot/internal/errors"
)

// UserRepository defines persistence operations over single users.
type UserRepository interface {
	CreateIfAbsent(ctx context.Context, id int64) (created bool, err error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	SetBlocked(ctx context.Context, id int64, blocked bool) error
	ListActiveIDs(ctx context.Context) ([]int64, error)
	Stats(ctx context.Context) (*domain.Stats, error)
}

type userRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewUserRepository creates the SQL-backed user repository.
func NewUserRepository(db *sql.DB, log *slog.Logger) UserRepository {
	if log == nil {
		log = slog.Default()
	}

	return &userRepository{
		db:  db,
		log: log,
	}
}

// CreateIfAbsent inserts a fresh user row on first contact. Reports whether a
// new row was written.
func (r *userRepository) CreateIfAbsent(ctx context.Context, id int64) (bool, error) {
	const query = `
		INSERT INTO users (id, joined_at)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING
	`

	var inserted int64
	err := apperrors.WithRetry(ctx, func() error {
		res, execErr := r.db.ExecContext(ctx, query, id, time.Now().UTC())
		if execErr != nil {
			return apperrors.NewStorageError("create user", execErr)
		}
		inserted, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		r.log.Error("failed to create user", slog.Int64("user_id", id), slog.Any("error", err))
		return false, err
	}

	return inserted > 0, nil
}

// FindByID retrieves a user row, or ErrUserNotFound.
func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	const query = `
		SELECT id, blocked, partner_id, total_chats, reports_received, joined_at
		FROM users
		WHERE id = $1
	`

	var user domain.User
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Blocked,
		&user.PartnerID,
		&user.TotalChats,
		&user.ReportsReceived,
		&user.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}

		r.log.Error("failed to fetch user", slog.Int64("user_id", id), slog.Any("error", err))
		return nil, apperrors.NewStorageError("select user", err)
	}

	return &user, nil
}

// SetBlocked flips the soft-block flag. Returns ErrUserNotFound for unknown
// identities so admin commands can answer precisely.
func (r *userRepository) SetBlocked(ctx context.Context, id int64, blocked bool) error {
	const query = `UPDATE users SET blocked = $2 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, blocked)
	if err != nil {
		r.log.Error("failed to update block flag", slog.Int64("user_id", id), slog.Any("error", err))
		return apperrors.NewStorageError("update block flag", err)
	}

	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperrors.ErrUserNotFound
	}

	return nil
}

// ListActiveIDs returns every non-blocked identity, for broadcasting.
func (r *userRepository) ListActiveIDs(ctx context.Context) ([]int64, error) {
	const query = `SELECT id FROM users WHERE NOT blocked ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.NewStorageError("list active users", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.NewStorageError("scan active user", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("iterate active users", err)
	}

	return ids, nil
}

// Stats takes a consistent aggregate snapshot for operators.
func (r *userRepository) Stats(ctx context.Context) (*domain.Stats, error) {
	const query = `
		SELECT
			(SELECT count(*) FROM users),
			(SELECT count(*) FROM users WHERE blocked),
			(SELECT count(*) FROM sessions),
			(SELECT count(*) FROM wait_queue),
			(SELECT count(*) FROM reports WHERE NOT resolved)
	`

	var stats domain.Stats
	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalUsers,
		&stats.BlockedUsers,
		&stats.ActiveSessions,
		&stats.QueueDepth,
		&stats.PendingReports,
	)
	if err != nil {
		return nil, apperrors.NewStorageError("aggregate stats", err)
	}

	return &stats, nil
}
