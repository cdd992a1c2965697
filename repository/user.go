package repository

import (
	"context"

	"github.com/dailydone/backend/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	// UpdateProfile persists identity fields and timezone; streak fields
	// are deliberately out of its reach.
	UpdateProfile(ctx context.Context, user *domain.User) error
	// List returns all users; the nightly jobs iterate it.
	List(ctx context.Context) ([]domain.User, error)
	// ApplyStreak persists a streak transition only if the watermark has
	// not already advanced to (or past) the update's date. It reports
	// whether the write won; losing is a clean no-op, which is what makes
	// concurrent job runs for one user safe.
	ApplyStreak(ctx context.Context, userID string, update domain.StreakUpdate) (bool, error)
}
