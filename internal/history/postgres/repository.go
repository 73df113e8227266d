package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/agrigate/agrigate/internal/history"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) HealthCheck(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping history db: %w", err)
	}
	return nil
}

func (r *Repository) RecordInvocation(ctx context.Context, in history.RecordInvocationInput) (history.Invocation, error) {
	query := `
INSERT INTO invocation_history (invocation_id, trace_id, crop, region, start_date, end_date, outcome, error_details, row_count, duration_ms)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING created_at`

	invocation := history.Invocation{
		InvocationID: in.InvocationID,
		TraceID:      in.TraceID,
		Crop:         in.Crop,
		Region:       in.Region,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		Outcome:      in.Outcome,
		ErrorDetails: in.ErrorDetails,
		RowCount:     in.RowCount,
		DurationMs:   in.DurationMs,
	}

	if err := r.db.QueryRowContext(ctx, query,
		in.InvocationID,
		in.TraceID,
		in.Crop,
		in.Region,
		in.StartDate,
		in.EndDate,
		in.Outcome,
		in.ErrorDetails,
		in.RowCount,
		in.DurationMs,
	).Scan(&invocation.CreatedAt); err != nil {
		return history.Invocation{}, fmt.Errorf("record invocation: %w", err)
	}
	return invocation, nil
}

func (r *Repository) ListRecent(ctx context.Context, limit int) ([]history.Invocation, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT invocation_id, trace_id, crop, region, start_date, end_date, outcome, error_details, row_count, duration_ms, created_at
FROM invocation_history
ORDER BY created_at DESC, invocation_id DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent invocations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	invocations := make([]history.Invocation, 0)
	for rows.Next() {
		var invocation history.Invocation
		if err := rows.Scan(
			&invocation.InvocationID,
			&invocation.TraceID,
			&invocation.Crop,
			&invocation.Region,
			&invocation.StartDate,
			&invocation.EndDate,
			&invocation.Outcome,
			&invocation.ErrorDetails,
			&invocation.RowCount,
			&invocation.DurationMs,
			&invocation.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan invocation row: %w", err)
		}
		invocations = append(invocations, invocation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invocation rows: %w", err)
	}
	return invocations, nil
}

func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
DELETE FROM invocation_history
WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete invocations before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted invocations: %w", err)
	}
	return removed, nil
}
