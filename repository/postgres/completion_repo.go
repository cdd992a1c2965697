package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dailydone/backend/domain"
	"github.com/dailydone/backend/repository"
)

type completionRepository struct {
	pool *pgxpool.Pool
}

// NewCompletionRepository returns a Postgres-backed CompletionRepository.
// The task_completions table carries a UNIQUE (task_id, completed_on)
// constraint; Mark leans on it for idempotency.
func NewCompletionRepository(pool *pgxpool.Pool) repository.CompletionRepository {
	return &completionRepository{pool: pool}
}

func (r *completionRepository) IsCompleted(ctx context.Context, taskID, day string) (bool, error) {
	const query = `
	SELECT EXISTS (
		SELECT 1 FROM task_completions
		WHERE task_id = $1 AND completed_on = $2::date
	)
	`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, taskID, day).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *completionRepository) Mark(ctx context.Context, taskID, day string) (*domain.CompletionRecord, error) {
	const query = `
	INSERT INTO task_completions (task_id, completed_on)
	VALUES ($1, $2::date)
	ON CONFLICT (task_id, completed_on)
	DO UPDATE SET completed_at = NOW()
	RETURNING completed_on, completed_at
	`
	return r.scanRecord(ctx, taskID, query, taskID, day)
}

func (r *completionRepository) Unmark(ctx context.Context, taskID, day string) (*domain.CompletionRecord, error) {
	const query = `
	DELETE FROM task_completions
	WHERE task_id = $1 AND completed_on = $2::date
	RETURNING completed_on, completed_at
	`
	record, err := r.scanRecord(ctx, taskID, query, taskID, day)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Nothing to remove is not an error.
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

func (r *completionRepository) List(ctx context.Context, taskID, from, to string) ([]domain.CompletionRecord, error) {
	const query = `
	SELECT completed_on, completed_at
	FROM task_completions
	WHERE task_id = $1
	  AND ($2 = '' OR completed_on >= $2::date)
	  AND ($3 = '' OR completed_on <= $3::date)
	ORDER BY completed_on ASC
	`
	rows, err := r.pool.Query(ctx, query, taskID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.CompletionRecord
	for rows.Next() {
		var (
			record      domain.CompletionRecord
			completedOn time.Time
		)
		if err := rows.Scan(&completedOn, &record.CompletedAt); err != nil {
			return nil, err
		}
		record.TaskID = taskID
		record.CompletedOn = dayString(&completedOn)
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *completionRepository) CompletedOn(ctx context.Context, userID, day string) (map[string]struct{}, error) {
	const query = `
	SELECT tc.task_id
	FROM task_completions tc
	JOIN tasks t ON t.id = tc.task_id
	WHERE t.user_id = $1 AND tc.completed_on = $2::date
	`
	rows, err := r.pool.Query(ctx, query, userID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	completed := make(map[string]struct{})
	for rows.Next() {
		var taskID string
		if err := rows.Scan(&taskID); err != nil {
			return nil, err
		}
		completed[taskID] = struct{}{}
	}
	return completed, rows.Err()
}

func (r *completionRepository) scanRecord(ctx context.Context, taskID, query string, args ...interface{}) (*domain.CompletionRecord, error) {
	var (
		record      domain.CompletionRecord
		completedOn time.Time
	)
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&completedOn, &record.CompletedAt); err != nil {
		return nil, err
	}
	record.TaskID = taskID
	record.CompletedOn = dayString(&completedOn)
	return &record, nil
}
