package repository

import (
	"context"

	"github.com/dailydone/backend/domain"
)

// TaskFilter narrows task listings. Type and Frequency exist so each
// recurrence category can be fetched and counted independently.
type TaskFilter struct {
	UserID    string
	Type      domain.TaskType
	Frequency domain.Frequency
}

type TaskRepository interface {
	// GetOwned fetches a task only if it belongs to userID; a mismatch is
	// reported as domain.ErrTaskNotFound, identical to absence.
	GetOwned(ctx context.Context, id, userID string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	// Delete removes the task and cascades its completion records.
	Delete(ctx context.Context, id, userID string) error
}
