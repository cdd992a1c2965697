package profile

import (
	"context"

	"go.uber.org/zap"

	"github.com/dailydone/backend/domain"
	"github.com/dailydone/backend/pkg/dates"
	"github.com/dailydone/backend/repository"
)

type UseCase struct {
	users  repository.UserRepository
	logger *zap.Logger
}

func New(users repository.UserRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		logger: logger,
	}
}

func (uc *UseCase) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return uc.users.GetByID(ctx, userID)
}

// UpdateProfile changes username and timezone. Streak fields in the
// request are ignored; only the nightly transition writes them.
func (uc *UseCase) UpdateProfile(ctx context.Context, userID, username, timezone string) (*domain.User, error) {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if username != "" {
		user.Username = username
	}
	if timezone != "" {
		if _, err := dates.LoadLocation(timezone); err != nil {
			return nil, domain.WrapError(domain.ErrCodeInvalid, "invalid timezone", err)
		}
		user.Timezone = timezone
	}

	if err := uc.users.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
