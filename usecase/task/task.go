package task

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dailydone/backend/domain"
	"github.com/dailydone/backend/pkg/dates"
	"github.com/dailydone/backend/repository"
)

type UseCase struct {
	tasks       repository.TaskRepository
	completions repository.CompletionRepository
	users       repository.UserRepository
	logger      *zap.Logger
}

func New(tasks repository.TaskRepository, completions repository.CompletionRepository, users repository.UserRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:       tasks,
		completions: completions,
		users:       users,
		logger:      logger,
	}
}

func (uc *UseCase) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	return uc.tasks.List(ctx, filter)
}

func (uc *UseCase) GetTask(ctx context.Context, id, userID string) (*domain.Task, error) {
	return uc.tasks.GetOwned(ctx, id, userID)
}

func (uc *UseCase) CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if err := validate(task); err != nil {
		return nil, err
	}
	return uc.tasks.Create(ctx, task)
}

func (uc *UseCase) UpdateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if err := validate(task); err != nil {
		return nil, err
	}
	if err := uc.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (uc *UseCase) DeleteTask(ctx context.Context, id, userID string) error {
	return uc.tasks.Delete(ctx, id, userID)
}

// Complete marks the task done for the given day ("" means today in the
// owner's timezone). The upsert makes repeated calls collapse into one
// record. Streak fields are never touched here; the nightly transition
// owns them.
func (uc *UseCase) Complete(ctx context.Context, taskID, userID, day string) (*domain.CompletionRecord, error) {
	day, err := uc.resolveDay(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	if _, err := uc.tasks.GetOwned(ctx, taskID, userID); err != nil {
		return nil, err
	}
	return uc.completions.Mark(ctx, taskID, day)
}

// Uncomplete removes the completion record for the day if present; a
// missing record returns (nil, nil), not an error.
func (uc *UseCase) Uncomplete(ctx context.Context, taskID, userID, day string) (*domain.CompletionRecord, error) {
	day, err := uc.resolveDay(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	if _, err := uc.tasks.GetOwned(ctx, taskID, userID); err != nil {
		return nil, err
	}
	return uc.completions.Unmark(ctx, taskID, day)
}

func (uc *UseCase) IsComplete(ctx context.Context, taskID, userID, day string) (bool, error) {
	day, err := uc.resolveDay(ctx, userID, day)
	if err != nil {
		return false, err
	}
	if _, err := uc.tasks.GetOwned(ctx, taskID, userID); err != nil {
		return false, err
	}
	return uc.completions.IsCompleted(ctx, taskID, day)
}

func (uc *UseCase) Completions(ctx context.Context, taskID, userID, from, to string) ([]domain.CompletionRecord, error) {
	if _, err := uc.tasks.GetOwned(ctx, taskID, userID); err != nil {
		return nil, err
	}
	for _, bound := range []string{from, to} {
		if bound == "" {
			continue
		}
		if _, err := dates.Parse(bound); err != nil {
			return nil, domain.WrapError(domain.ErrCodeInvalid, "invalid date bound", err)
		}
	}
	return uc.completions.List(ctx, taskID, from, to)
}

func (uc *UseCase) resolveDay(ctx context.Context, userID, day string) (string, error) {
	if day != "" {
		if _, err := dates.Parse(day); err != nil {
			return "", domain.WrapError(domain.ErrCodeInvalid, "invalid date", err)
		}
		return day, nil
	}

	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	today, err := dates.Local(user.Timezone, time.Now())
	if err != nil {
		return "", domain.WrapError(domain.ErrCodeInvalid, "invalid timezone", err)
	}
	return today.String(), nil
}

// validate is the single admission gate for recurrence configuration.
// Anything it rejects can never reach the due predicate, which is why
// the predicate itself only needs fail-closed defaults.
func validate(task *domain.Task) error {
	if task == nil || task.Title == "" || task.UserID == "" {
		return domain.ErrInvalidPayload
	}
	if task.ReminderLeadMinutes < 0 {
		return invalid("reminder lead minutes must be non-negative")
	}
	if task.TimeOfDay != "" {
		if _, _, err := domain.ParseClock(task.TimeOfDay); err != nil {
			return invalid(err.Error())
		}
	}

	switch task.Type {
	case domain.TypeOneTime:
		if task.DueAt == nil {
			return invalid("one-time task requires due_at")
		}
		return nil
	case domain.TypeRecurring:
		return validateRecurrence(task)
	default:
		return invalid(fmt.Sprintf("unknown task type %q", task.Type))
	}
}

func validateRecurrence(task *domain.Task) error {
	switch task.Frequency {
	case domain.FrequencyDaily, domain.FrequencyWeekly, domain.FrequencyMonthly:
	default:
		return invalid(fmt.Sprintf("unknown recurrence frequency %q", task.Frequency))
	}

	if task.Interval < 1 {
		return invalid("recurrence interval must be >= 1")
	}

	start, err := dates.Parse(task.StartDate)
	if err != nil {
		return invalid("recurrence start date is required")
	}
	if task.EndDate != "" {
		end, err := dates.Parse(task.EndDate)
		if err != nil {
			return invalid("malformed recurrence end date")
		}
		if end.Before(start) {
			return invalid("recurrence end date precedes start date")
		}
	}
	if task.AnchorDate != "" {
		if _, err := dates.Parse(task.AnchorDate); err != nil {
			return invalid("malformed recurrence anchor date")
		}
	}

	for _, wd := range task.ByWeekday {
		if wd < 1 || wd > 7 {
			return invalid(fmt.Sprintf("weekday %d outside 1..7", wd))
		}
	}
	for _, md := range task.ByMonthday {
		if md < 1 || md > 31 {
			return invalid(fmt.Sprintf("monthday %d outside 1..31", md))
		}
	}
	return nil
}

func invalid(message string) error {
	return domain.WrapError(domain.ErrCodeInvalid, "invalid recurrence configuration", fmt.Errorf("%s", message))
}
