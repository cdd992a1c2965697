package repository

import (
	"context"

	"github.com/dailydone/backend/domain"
)

// CompletionRepository tracks per-date completion records. Ownership of
// the task is the caller's responsibility; the store only enforces the
// one-record-per-(task, date) invariant.
type CompletionRepository interface {
	IsCompleted(ctx context.Context, taskID, day string) (bool, error)
	// Mark is an idempotent upsert: repeating it for the same (task, day)
	// refreshes the audit timestamp instead of duplicating.
	Mark(ctx context.Context, taskID, day string) (*domain.CompletionRecord, error)
	// Unmark removes the record if present and returns it; (nil, nil)
	// when nothing existed.
	Unmark(ctx context.Context, taskID, day string) (*domain.CompletionRecord, error)
	// List returns the task's completions ordered by date ascending,
	// optionally bounded by from/to (inclusive, "" for unbounded).
	List(ctx context.Context, taskID, from, to string) ([]domain.CompletionRecord, error)
	// CompletedOn returns the IDs of the user's tasks completed on day,
	// letting callers check a whole task list with one query.
	CompletedOn(ctx context.Context, userID, day string) (map[string]struct{}, error)
}
