package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/strangerpair/roulette-bot/internal/domain"
	apperrors "github.com/strangerpair/roulette-bot/internal/errors"
)

// QueueRepository maintains the FIFO waiting list. Queue consumption during
// pairing happens inside MatchStore transactions; this repository covers the
// standalone operations (cancel, membership checks, maintenance eviction).
type QueueRepository interface {
	Remove(ctx context.Context, userID int64) (removed bool, err error)
	Contains(ctx context.Context, userID int64) (bool, error)
	List(ctx context.Context) ([]domain.QueueEntry, error)
	EvictOlderThan(ctx context.Context, cutoff time.Time) ([]int64, error)
}

type queueRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewQueueRepository creates the SQL-backed queue repository.
func NewQueueRepository(db *sql.DB, log *slog.Logger) QueueRepository {
	if log == nil {
		log = slog.Default()
	}

	return &queueRepository{
		db:  db,
		log: log,
	}
}

// Remove deletes the user's queue entry. Idempotent: removing an absent entry
// is a no-op reported through the boolean.
func (r *queueRepository) Remove(ctx context.Context, userID int64) (bool, error) {
	const query = `DELETE FROM wait_queue WHERE user_id = $1`

	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		r.log.Error("failed to remove queue entry", slog.Int64("user_id", userID), slog.Any("error", err))
		return false, apperrors.NewStorageError("remove queue entry", err)
	}

	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

// Contains reports queue membership.
func (r *queueRepository) Contains(ctx context.Context, userID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM wait_queue WHERE user_id = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&exists); err != nil {
		return false, apperrors.NewStorageError("check queue membership", err)
	}

	return exists, nil
}

// List returns the queue in FIFO order, for operator inspection.
func (r *queueRepository) List(ctx context.Context) ([]domain.QueueEntry, error) {
	const query = `SELECT user_id, enqueued_at FROM wait_queue ORDER BY enqueued_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.NewStorageError("list queue", err)
	}
	defer rows.Close()

	var entries []domain.QueueEntry
	for rows.Next() {
		var entry domain.QueueEntry
		if err := rows.Scan(&entry.UserID, &entry.EnqueuedAt); err != nil {
			return nil, apperrors.NewStorageError("scan queue entry", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("iterate queue", err)
	}

	return entries, nil
}

// EvictOlderThan deletes entries enqueued before cutoff and returns the
// affected identities so they can be told their search expired.
func (r *queueRepository) EvictOlderThan(ctx context.Context, cutoff time.Time) ([]int64, error) {
	const query = `DELETE FROM wait_queue WHERE enqueued_at < $1 RETURNING user_id`

	rows, err := r.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, apperrors.NewStorageError("evict stale queue entries", err)
	}
	defer rows.Close()

	var evicted []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.NewStorageError("scan evicted entry", err)
		}
		evicted = append(evicted, id)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("iterate evicted entries", err)
	}

	return evicted, nil
}
