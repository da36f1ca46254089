package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/lib/pq"

	apperrors "github.com/strangerpair/roulette-bot/internal/errors"
)

// MatchResult describes the outcome of a pairing attempt.
type MatchResult struct {
	// Matched is true when a partner was consumed from the queue.
	Matched bool
	// PartnerID is set when Matched.
	PartnerID int64
	// Queued is true when no partner was available and the requester was
	// enqueued instead.
	Queued bool
}

// MatchStore performs the cross-identity mutations that must be atomic: queue
// consumption plus pair formation, and pair teardown. Each operation is one
// PostgreSQL transaction; the row lock on the requester serializes operations
// per identity and FOR UPDATE SKIP LOCKED on the queue head guarantees two
// concurrent searches never consume the same partner.
type MatchStore interface {
	PairOrEnqueue(ctx context.Context, userID int64) (*MatchResult, error)
	Unpair(ctx context.Context, userID int64) (partnerID int64, err error)
}

type matchStore struct {
	db  *sql.DB
	log *slog.Logger
}

// NewMatchStore creates the SQL-backed pairing store.
func NewMatchStore(db *sql.DB, log *slog.Logger) MatchStore {
	if log == nil {
		log = slog.Default()
	}

	return &matchStore{
		db:  db,
		log: log,
	}
}

// PairOrEnqueue attempts to pair userID with the oldest waiting user. When
// the queue is empty the requester is enqueued in the same transaction, so a
// third request can never observe a half-formed pairing or a dequeued-but-
// still-visible partner.
func (s *matchStore) PairOrEnqueue(ctx context.Context, userID int64) (*MatchResult, error) {
	var result *MatchResult

	err := apperrors.WithRetry(ctx, func() error {
		var txErr error
		result, txErr = s.pairOrEnqueueTx(ctx, userID)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *matchStore) pairOrEnqueueTx(ctx context.Context, userID int64) (*MatchResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.NewStorageError("begin pairing tx", err)
	}
	defer s.rollback(tx)

	// Lock the requester row: this serializes concurrent operations from
	// the same identity for the duration of the transaction.
	var blocked bool
	var partnerID *int64
	err = tx.QueryRowContext(ctx,
		`SELECT blocked, partner_id FROM users WHERE id = $1 FOR UPDATE`, userID,
	).Scan(&blocked, &partnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.NewStorageError("lock requester", err)
	}

	switch {
	case blocked:
		return nil, apperrors.ErrUserBlocked
	case partnerID != nil:
		return nil, apperrors.ErrAlreadyInChat
	}

	// Rejecting an already-queued requester before the candidate scan also
	// keeps lock acquisition ordered requester-first, queue-head-second, so
	// two crossing searches cannot deadlock on each other's rows.
	var queued bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM wait_queue WHERE user_id = $1)`, userID,
	).Scan(&queued); err != nil {
		return nil, apperrors.NewStorageError("check queue membership", err)
	}
	if queued {
		return nil, apperrors.ErrAlreadyQueued
	}

	// The requester never enqueues itself before this point, so excluding it
	// from the candidate scan makes a self-match impossible by construction.
	// The scan's blocked filter is only snapshot-fresh: the candidate's user
	// row is locked and re-checked before linking, so a block that lands
	// between scan and link still wins. Entries whose users got blocked
	// mid-scan are consumed and skipped.
	for {
		var candidateID int64
		err = tx.QueryRowContext(ctx, `
			SELECT q.user_id
			FROM wait_queue q
			JOIN users u ON u.id = q.user_id
			WHERE q.user_id <> $1 AND NOT u.blocked
			ORDER BY q.enqueued_at, q.id
			LIMIT 1
			FOR UPDATE OF q SKIP LOCKED
		`, userID).Scan(&candidateID)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			return s.enqueueTx(ctx, tx, userID)
		case err != nil:
			return nil, apperrors.NewStorageError("scan queue head", err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM wait_queue WHERE user_id = $1`, candidateID,
		); err != nil {
			return nil, apperrors.NewStorageError("consume queue entry", err)
		}

		var candidateBlocked bool
		if err := tx.QueryRowContext(ctx,
			`SELECT blocked FROM users WHERE id = $1 FOR UPDATE`, candidateID,
		).Scan(&candidateBlocked); err != nil {
			return nil, apperrors.NewStorageError("lock candidate", err)
		}
		if candidateBlocked {
			continue
		}

		// Both partner pointers and both chat counters move in one statement;
		// there is no observable half-paired state.
		if _, err := tx.ExecContext(ctx, `
			UPDATE users
			SET partner_id = CASE WHEN id = $1 THEN $2::bigint ELSE $1::bigint END,
			    total_chats = total_chats + 1
			WHERE id IN ($1, $2)
		`, userID, candidateID); err != nil {
			return nil, apperrors.NewStorageError("link partners", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (user_a, user_b) VALUES ($1, $2)`, userID, candidateID,
		); err != nil {
			return nil, apperrors.NewStorageError("create session", err)
		}

		if err := tx.Commit(); err != nil {
			return nil, apperrors.NewStorageError("commit pairing", err)
		}

		s.log.Info("matched users", slog.Int64("user_id", userID), slog.Int64("partner_id", candidateID))

		return &MatchResult{Matched: true, PartnerID: candidateID}, nil
	}
}

func (s *matchStore) enqueueTx(ctx context.Context, tx *sql.Tx, userID int64) (*MatchResult, error) {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO wait_queue (user_id) VALUES ($1)`, userID,
	); err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ErrAlreadyQueued
		}
		return nil, apperrors.NewStorageError("enqueue requester", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.NewStorageError("commit enqueue", err)
	}

	return &MatchResult{Queued: true}, nil
}

// Unpair tears down userID's active pairing: clears both partner pointers and
// deletes the session row in one transaction. Returns the former partner.
func (s *matchStore) Unpair(ctx context.Context, userID int64) (int64, error) {
	var partnerID int64

	err := apperrors.WithRetry(ctx, func() error {
		var txErr error
		partnerID, txErr = s.unpairTx(ctx, userID)
		return txErr
	})
	if err != nil {
		return 0, err
	}

	return partnerID, nil
}

func (s *matchStore) unpairTx(ctx context.Context, userID int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, apperrors.NewStorageError("begin unpair tx", err)
	}
	defer s.rollback(tx)

	// Read the partner without locking: grabbing the requester row here would
	// put it ahead of the ordered pair lock below and hand two concurrent
	// /end calls from the two sides of one session an AB/BA cycle.
	var partnerID *int64
	err = tx.QueryRowContext(ctx,
		`SELECT partner_id FROM users WHERE id = $1`, userID,
	).Scan(&partnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperrors.ErrUserNotFound
		}
		return 0, apperrors.NewStorageError("read partner", err)
	}
	if partnerID == nil {
		return 0, apperrors.ErrNotInChat
	}

	// Lock both rows in ascending id order so two concurrent /end calls from
	// the two sides of one session cannot deadlock.
	if _, err := tx.ExecContext(ctx, `
		SELECT id FROM users WHERE id IN ($1, $2) ORDER BY id FOR UPDATE
	`, userID, *partnerID); err != nil {
		return 0, apperrors.NewStorageError("lock pair", err)
	}

	// The unlocked read can go stale while waiting for the pair lock; the
	// concurrent teardown that won has already cleared partner_id.
	var current *int64
	if err := tx.QueryRowContext(ctx,
		`SELECT partner_id FROM users WHERE id = $1`, userID,
	).Scan(&current); err != nil {
		return 0, apperrors.NewStorageError("recheck partner", err)
	}
	if current == nil || *current != *partnerID {
		return 0, apperrors.ErrNotInChat
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET partner_id = NULL WHERE id IN ($1, $2)`, userID, *partnerID,
	); err != nil {
		return 0, apperrors.NewStorageError("unlink partners", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM sessions
		WHERE (user_a = $1 AND user_b = $2) OR (user_a = $2 AND user_b = $1)
	`, userID, *partnerID); err != nil {
		return 0, apperrors.NewStorageError("delete session", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.NewStorageError("commit unpair", err)
	}

	return *partnerID, nil
}

func (s *matchStore) rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		s.log.Error("transaction rollback failed", slog.Any("error", err))
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
