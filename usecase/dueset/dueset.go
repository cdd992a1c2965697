package dueset

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dailydone/backend/domain"
	"github.com/dailydone/backend/pkg/dates"
	"github.com/dailydone/backend/repository"
)

// UseCase resolves which of a user's tasks are due on a day and which of
// those are missed. It is the only consumer of the recurrence predicate
// on the read side; the streak job, the reminder selector and the UI
// summary endpoint all go through it so their answers cannot drift.
type UseCase struct {
	tasks       repository.TaskRepository
	completions repository.CompletionRepository
	logger      *zap.Logger
}

func New(tasks repository.TaskRepository, completions repository.CompletionRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:       tasks,
		completions: completions,
		logger:      logger,
	}
}

// Summary computes the per-category due/missed counts for the user on the
// given day. Each category is fetched, filtered and counted on its own
// and the results summed by the caller through DueSummary's totals; the
// four lookups are sequential, explicitly awaited compositions.
func (uc *UseCase) Summary(ctx context.Context, user *domain.User, day dates.Day) (domain.DueSummary, error) {
	if user == nil {
		return domain.DueSummary{}, domain.ErrInvalidPayload
	}

	loc, err := dates.LoadLocation(user.Timezone)
	if err != nil {
		return domain.DueSummary{}, domain.WrapError(domain.ErrCodeInvalid, "invalid timezone", err)
	}

	completed, err := uc.completions.CompletedOn(ctx, user.ID, day.String())
	if err != nil {
		return domain.DueSummary{}, domain.WrapError(domain.ErrCodeUnavailable, "completion lookup failed", err)
	}

	var summary domain.DueSummary
	categories := []struct {
		filter repository.TaskFilter
		out    *domain.CategoryCount
	}{
		{repository.TaskFilter{UserID: user.ID, Type: domain.TypeOneTime}, &summary.OneTime},
		{repository.TaskFilter{UserID: user.ID, Type: domain.TypeRecurring, Frequency: domain.FrequencyDaily}, &summary.Daily},
		{repository.TaskFilter{UserID: user.ID, Type: domain.TypeRecurring, Frequency: domain.FrequencyWeekly}, &summary.Weekly},
		{repository.TaskFilter{UserID: user.ID, Type: domain.TypeRecurring, Frequency: domain.FrequencyMonthly}, &summary.Monthly},
	}

	for _, category := range categories {
		count, err := uc.countCategory(ctx, category.filter, day, loc, completed)
		if err != nil {
			return domain.DueSummary{}, err
		}
		*category.out = count
	}

	return summary, nil
}

// DueTasks returns the tasks due on day along with the set of the user's
// task IDs already completed that day. The reminder selector and the
// UI due-list both build on it.
func (uc *UseCase) DueTasks(ctx context.Context, user *domain.User, day dates.Day) ([]domain.Task, map[string]struct{}, error) {
	if user == nil {
		return nil, nil, domain.ErrInvalidPayload
	}

	loc, err := dates.LoadLocation(user.Timezone)
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrCodeInvalid, "invalid timezone", err)
	}

	all, err := uc.tasks.List(ctx, repository.TaskFilter{UserID: user.ID})
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrCodeUnavailable, "task lookup failed", err)
	}

	completed, err := uc.completions.CompletedOn(ctx, user.ID, day.String())
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrCodeUnavailable, "completion lookup failed", err)
	}

	var due []domain.Task
	for i := range all {
		if all[i].DueOn(day, loc) {
			due = append(due, all[i])
		}
	}
	return due, completed, nil
}

func (uc *UseCase) countCategory(ctx context.Context, filter repository.TaskFilter, day dates.Day, loc *time.Location, completed map[string]struct{}) (domain.CategoryCount, error) {
	tasks, err := uc.tasks.List(ctx, filter)
	if err != nil {
		return domain.CategoryCount{}, domain.WrapError(domain.ErrCodeUnavailable, "task lookup failed", err)
	}

	var count domain.CategoryCount
	for i := range tasks {
		if !tasks[i].DueOn(day, loc) {
			continue
		}
		count.Due++
		if _, ok := completed[tasks[i].ID]; !ok {
			count.Missed++
		}
	}
	return count, nil
}
