package reminder

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/dailydone/backend/domain"
	"github.com/dailydone/backend/pkg/dates"
)

// DueLister is the slice of the due-set resolver the selector needs.
type DueLister interface {
	DueTasks(ctx context.Context, user *domain.User, day dates.Day) ([]domain.Task, map[string]struct{}, error)
}

// Reminder pairs a task with its computed remind instant.
type Reminder struct {
	Task     domain.Task
	User     domain.User
	RemindAt time.Time
}

// UseCase selects tasks whose remind time falls inside a forward-looking
// polling window. The dispatcher must poll at an interval no longer than
// the window or reminders fall between runs.
type UseCase struct {
	resolver DueLister
	logger   *zap.Logger
}

func New(resolver DueLister, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		resolver: resolver,
		logger:   logger,
	}
}

// UpcomingForUser returns the user's reminders with now <= remindAt <
// now+window, ordered by remind time ascending. A task qualifies when it
// is due today in the user's zone, has reminders enabled, is not yet
// completed today, and carries a parsable time-of-day.
func (uc *UseCase) UpcomingForUser(ctx context.Context, user domain.User, now time.Time, window time.Duration) ([]Reminder, error) {
	loc, err := dates.LoadLocation(user.Timezone)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "invalid timezone", err)
	}

	today := dates.FromTime(now.In(loc))
	due, completed, err := uc.resolver.DueTasks(ctx, &user, today)
	if err != nil {
		return nil, err
	}

	var upcoming []Reminder
	for _, task := range due {
		if !task.ReminderEnabled {
			continue
		}
		if _, done := completed[task.ID]; done {
			continue
		}

		hour, minute, err := domain.ParseClock(task.TimeOfDay)
		if err != nil {
			uc.logger.Warn("skipping reminder with malformed time of day",
				zap.String("task_id", task.ID),
				zap.String("time_of_day", task.TimeOfDay))
			continue
		}

		remindAt := today.At(hour, minute, loc).Add(-time.Duration(task.ReminderLeadMinutes) * time.Minute)
		// Half-open window: a remindAt exactly at now fires, one exactly
		// at now+window waits for the next poll.
		if remindAt.Before(now) || !remindAt.Before(now.Add(window)) {
			continue
		}

		upcoming = append(upcoming, Reminder{Task: task, User: user, RemindAt: remindAt})
	}

	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].RemindAt.Before(upcoming[j].RemindAt)
	})
	return upcoming, nil
}
