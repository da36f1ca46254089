package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/strangerpair/roulette-bot/internal/domain"
	apperrors "github.com/strangerpair/roulette-bot/internal/errors"
)

// SessionRepository reads the active session table. Session rows are written
// and deleted exclusively by MatchStore transactions.
type SessionRepository interface {
	List(ctx context.Context) ([]domain.Session, error)
}

type sessionRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewSessionRepository creates the SQL-backed session repository.
func NewSessionRepository(db *sql.DB, log *slog.Logger) SessionRepository {
	if log == nil {
		log = slog.Default()
	}

	return &sessionRepository{
		db:  db,
		log: log,
	}
}

// List returns all active sessions, oldest first.
func (r *sessionRepository) List(ctx context.Context) ([]domain.Session, error) {
	const query = `SELECT id, user_a, user_b, started_at FROM sessions ORDER BY started_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.NewStorageError("list sessions", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(&s.ID, &s.UserA, &s.UserB, &s.StartedAt); err != nil {
			return nil, apperrors.NewStorageError("scan session", err)
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("iterate sessions", err)
	}

	return sessions, nil
}
