package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dailydone/backend/internal/infrastructure/mail"
	"github.com/dailydone/backend/internal/infrastructure/outbox"
	"github.com/dailydone/backend/repository"
	reminderUC "github.com/dailydone/backend/usecase/reminder"
)

// ReminderJobConfig controls the reminder poller and the retry drainer.
type ReminderJobConfig struct {
	Interval       time.Duration
	Window         time.Duration
	UserTimeout    time.Duration
	FanOut         int
	DrainInterval  time.Duration
	DrainBatch     int
	MaxRetries     int
	RetentionHours int
}

// ReminderJob polls for reminders falling inside the upcoming window and
// delivers them by mail. Failed deliveries land in the outbox, which a
// second schedule drains with bounded retries. Delivery is best-effort:
// dropping a notification never touches completion or streak state.
type ReminderJob struct {
	users     repository.UserRepository
	reminders *reminderUC.UseCase
	mailer    mail.Mailer
	outbox    *outbox.Store
	logger    *zap.Logger
	cron      *cron.Cron
	cfg       ReminderJobConfig
}

func NewReminderJob(
	users repository.UserRepository,
	reminders *reminderUC.UseCase,
	mailer mail.Mailer,
	ob *outbox.Store,
	logger *zap.Logger,
	cfg ReminderJobConfig,
) *ReminderJob {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Minute
	}
	if cfg.Window < cfg.Interval {
		// A window shorter than the poll interval leaves gaps where a
		// reminder is never observed.
		cfg.Window = cfg.Interval
	}
	if cfg.UserTimeout <= 0 {
		cfg.UserTimeout = 15 * time.Second
	}
	if cfg.FanOut <= 0 {
		cfg.FanOut = 8
	}
	if cfg.DrainInterval <= 0 {
		cfg.DrainInterval = time.Minute
	}
	if cfg.DrainBatch <= 0 {
		cfg.DrainBatch = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetentionHours <= 0 {
		cfg.RetentionHours = 24
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	job := &ReminderJob{
		users:     users,
		reminders: reminders,
		mailer:    mailer,
		outbox:    ob,
		logger:    logger,
		cfg:       cfg,
		cron:      cron.New(cron.WithSeconds()),
	}

	_, _ = job.cron.AddFunc(fmt.Sprintf("@every %s", cfg.Interval), func() {
		if err := job.Poll(context.Background()); err != nil {
			job.logger.Error("reminder poll finished with errors", zap.Error(err))
		}
	})
	_, _ = job.cron.AddFunc(fmt.Sprintf("@every %s", cfg.DrainInterval), func() {
		job.Drain(context.Background())
	})

	return job
}

// Start launches both schedules.
func (j *ReminderJob) Start() {
	if j == nil || j.cron == nil {
		return
	}
	j.cron.Start()
	j.logger.Info("reminder job started",
		zap.Duration("interval", j.cfg.Interval),
		zap.Duration("window", j.cfg.Window))
}

// Stop gracefully stops the schedules. Undelivered reminders stay in the
// outbox and survive the restart.
func (j *ReminderJob) Stop(ctx context.Context) {
	if j == nil || j.cron == nil {
		return
	}
	stopCtx := j.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	j.logger.Info("reminder job stopped")
}

// Poll computes the upcoming window for every user and delivers the
// reminders that fall inside it.
func (j *ReminderJob) Poll(ctx context.Context) error {
	users, err := j.users.List(ctx)
	if err != nil {
		return err
	}

	now := time.Now()

	var (
		mu   sync.Mutex
		merr *multierror.Error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.cfg.FanOut)

	for _, user := range users {
		user := user
		g.Go(func() error {
			userCtx, cancel := context.WithTimeout(gctx, j.cfg.UserTimeout)
			defer cancel()

			upcoming, err := j.reminders.UpcomingForUser(userCtx, user, now, j.cfg.Window)
			if err != nil {
				j.logger.Error("reminder selection failed",
					zap.String("user_id", user.ID),
					zap.Error(err))
				mu.Lock()
				merr = multierror.Append(merr, err)
				mu.Unlock()
				return nil
			}

			for _, r := range upcoming {
				j.deliver(r)
			}
			return nil
		})
	}

	_ = g.Wait()
	return merr.ErrorOrNil()
}

func (j *ReminderJob) deliver(r reminderUC.Reminder) {
	subject, body := composeReminder(r)
	if err := j.mailer.Send(r.User.Email, subject, body); err != nil {
		j.logger.Warn("reminder delivery failed, queuing for retry",
			zap.String("user_id", r.User.ID),
			zap.String("task_id", r.Task.ID),
			zap.Error(err))
		if qErr := j.outbox.Enqueue(outbox.Notification{
			UserID:   r.User.ID,
			Email:    r.User.Email,
			TaskID:   r.Task.ID,
			Subject:  subject,
			Body:     body,
			RemindAt: r.RemindAt,
		}); qErr != nil {
			j.logger.Error("outbox enqueue failed", zap.Error(qErr))
		}
		return
	}
	j.logger.Debug("reminder delivered",
		zap.String("user_id", r.User.ID),
		zap.String("task_id", r.Task.ID))
}

// Drain retries queued notifications, dropping any that exhausted their
// retry budget, then expires entries older than the retention horizon.
func (j *ReminderJob) Drain(ctx context.Context) {
	pending, err := j.outbox.GetBatch(j.cfg.DrainBatch)
	if err != nil {
		j.logger.Error("outbox read failed", zap.Error(err))
		return
	}

	for _, n := range pending {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := j.mailer.Send(n.Email, n.Subject, n.Body); err == nil {
			if err := j.outbox.Remove(n); err != nil {
				j.logger.Error("outbox remove failed", zap.String("id", n.ID), zap.Error(err))
			}
			continue
		}

		n.Retries++
		if n.Retries >= j.cfg.MaxRetries {
			j.logger.Warn("dropping reminder after max retries",
				zap.String("id", n.ID),
				zap.String("user_id", n.UserID),
				zap.Int("retries", n.Retries))
			if err := j.outbox.Remove(n); err != nil {
				j.logger.Error("outbox remove failed", zap.String("id", n.ID), zap.Error(err))
			}
			continue
		}
		if err := j.outbox.Requeue(n); err != nil {
			j.logger.Error("outbox requeue failed", zap.String("id", n.ID), zap.Error(err))
		}
	}

	horizon := time.Now().Add(-time.Duration(j.cfg.RetentionHours) * time.Hour)
	if err := j.outbox.Cleanup(horizon); err != nil {
		j.logger.Error("outbox cleanup failed", zap.Error(err))
	}
}

func composeReminder(r reminderUC.Reminder) (subject, body string) {
	subject = fmt.Sprintf("Reminder: %s", r.Task.Title)
	body = fmt.Sprintf("Your task %q is due today at %s.", r.Task.Title, r.Task.TimeOfDay)
	return subject, body
}
