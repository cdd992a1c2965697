package streak

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/dailydone/backend/domain"
	"github.com/dailydone/backend/pkg/dates"
	"github.com/dailydone/backend/repository"
)

// Summarizer is the slice of the due-set resolver the streak machine needs.
type Summarizer interface {
	Summary(ctx context.Context, user *domain.User, day dates.Day) (domain.DueSummary, error)
}

// UseCase applies the nightly streak transition. A transition evaluates
// the single day before the user's current local day: after a multi-day
// gap only that most recent day is judged, earlier skipped days are
// neither credited nor held against the user.
type UseCase struct {
	users    repository.UserRepository
	resolver Summarizer
	logger   *zap.Logger

	// group serializes concurrent transitions for the same user within
	// this process; the watermark-guarded update covers the cross-process
	// case.
	group singleflight.Group
}

func New(users repository.UserRepository, resolver Summarizer, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		resolver: resolver,
		logger:   logger,
	}
}

// Result reports what a transition did for one user.
type Result struct {
	Outcome domain.StreakOutcome
	Applied bool
}

// ProcessUser runs the transition for one user at instant now. It is
// idempotent under arbitrary re-invocation: a second run within the same
// local day is a no-op, as is losing the watermark race to a concurrent
// run. A resolver failure leaves the watermark untouched so the day is
// retried on the next invocation instead of being silently absorbed.
func (uc *UseCase) ProcessUser(ctx context.Context, user domain.User, now time.Time) (Result, error) {
	v, err, _ := uc.group.Do(user.ID, func() (interface{}, error) {
		return uc.processLocked(ctx, user, now)
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

func (uc *UseCase) processLocked(ctx context.Context, user domain.User, now time.Time) (Result, error) {
	todayLocal, err := dates.Local(user.Timezone, now)
	if err != nil {
		return Result{}, domain.WrapError(domain.ErrCodeInvalid, "invalid timezone", err)
	}

	if !user.NeedsStreakRun(todayLocal) {
		return Result{}, nil
	}

	prevDate := todayLocal.Prev()
	summary, err := uc.resolver.Summary(ctx, &user, prevDate)
	if err != nil {
		return Result{}, err
	}

	update := user.NextStreak(summary, todayLocal)
	applied, err := uc.users.ApplyStreak(ctx, user.ID, update)
	if err != nil {
		return Result{}, domain.WrapError(domain.ErrCodeUnavailable, "streak update failed", err)
	}
	if !applied {
		// Another run already advanced the watermark for this day.
		uc.logger.Debug("streak update lost watermark race",
			zap.String("user_id", user.ID),
			zap.String("date", update.LastProcessedDate))
		return Result{Outcome: update.Outcome, Applied: false}, nil
	}

	uc.logger.Info("streak transition applied",
		zap.String("user_id", user.ID),
		zap.String("outcome", string(update.Outcome)),
		zap.String("prev_date", prevDate.String()),
		zap.Int("streak_current", update.Current),
		zap.Int("streak_best", update.Best))

	return Result{Outcome: update.Outcome, Applied: true}, nil
}
