package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/strangerpair/roulette-bot/internal/domain"
	apperrors "github.com/strangerpair/roulette-bot/internal/errors"
)

// ReportRepository stores abuse reports. Rows are append-only except for the
// resolution flag.
type ReportRepository interface {
	Create(ctx context.Context, reporterID, reportedID int64, reason string) error
	ListUnresolved(ctx context.Context, limit int) ([]domain.Report, error)
	Resolve(ctx context.Context, reportID int64) error
}

type reportRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewReportRepository creates the SQL-backed report repository.
func NewReportRepository(db *sql.DB, log *slog.Logger) ReportRepository {
	if log == nil {
		log = slog.Default()
	}

	return &reportRepository{
		db:  db,
		log: log,
	}
}

// Create appends a report and bumps the reported user's counter in the same
// transaction.
func (r *reportRepository) Create(ctx context.Context, reporterID, reportedID int64, reason string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageError("begin report tx", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			r.log.Error("report rollback failed", slog.Any("error", rbErr))
		}
	}()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO reports (reporter_id, reported_id, reason) VALUES ($1, $2, $3)`,
		reporterID, reportedID, reason,
	); err != nil {
		return apperrors.NewStorageError("insert report", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET reports_received = reports_received + 1 WHERE id = $1`, reportedID,
	); err != nil {
		return apperrors.NewStorageError("bump report counter", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStorageError("commit report", err)
	}

	return nil
}

// ListUnresolved returns open reports, most recent first, capped at limit.
func (r *reportRepository) ListUnresolved(ctx context.Context, limit int) ([]domain.Report, error) {
	const query = `
		SELECT id, reporter_id, reported_id, reason, created_at, resolved
		FROM reports
		WHERE NOT resolved
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, apperrors.NewStorageError("list reports", err)
	}
	defer rows.Close()

	var reports []domain.Report
	for rows.Next() {
		var report domain.Report
		if err := rows.Scan(
			&report.ID,
			&report.ReporterID,
			&report.ReportedID,
			&report.Reason,
			&report.CreatedAt,
			&report.Resolved,
		); err != nil {
			return nil, apperrors.NewStorageError("scan report", err)
		}
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("iterate reports", err)
	}

	return reports, nil
}

// Resolve marks a report as handled.
func (r *reportRepository) Resolve(ctx context.Context, reportID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reports SET resolved = TRUE WHERE id = $1`, reportID,
	)
	if err != nil {
		return apperrors.NewStorageError("resolve report", err)
	}

	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperrors.ErrInvalidArgument
	}

	return nil
}
