package services

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dailydone/backend/domain"
	"github.com/dailydone/backend/repository"
	streakUC "github.com/dailydone/backend/usecase/streak"
)

// StreakJobConfig controls the nightly streak scheduler.
type StreakJobConfig struct {
	CronSpec    string
	UserTimeout time.Duration
	FanOut      int
}

// StreakJob runs the per-user streak transition on a cron schedule.
// Users fan out on a bounded errgroup; each failure is logged and
// collected but never halts the remaining users, and users whose
// watermark is already current are cheap no-ops — so the schedule can be
// aggressive (hourly catches every timezone's midnight) without risk of
// double-processing.
type StreakJob struct {
	users   repository.UserRepository
	streaks *streakUC.UseCase
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     StreakJobConfig
}

func NewStreakJob(users repository.UserRepository, streaks *streakUC.UseCase, logger *zap.Logger, cfg StreakJobConfig) *StreakJob {
	if cfg.CronSpec == "" {
		cfg.CronSpec = "0 5 * * * *"
	}
	if cfg.UserTimeout <= 0 {
		cfg.UserTimeout = 15 * time.Second
	}
	if cfg.FanOut <= 0 {
		cfg.FanOut = 8
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	job := &StreakJob{
		users:   users,
		streaks: streaks,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	_, _ = job.cron.AddFunc(cfg.CronSpec, func() {
		if err := job.Run(context.Background()); err != nil {
			job.logger.Error("streak run finished with errors", zap.Error(err))
		}
	})

	return job
}

// Start launches the cron scheduler.
func (j *StreakJob) Start() {
	if j == nil || j.cron == nil {
		return
	}
	j.cron.Start()
	j.logger.Info("streak job started", zap.String("spec", j.cfg.CronSpec))
}

// Stop gracefully stops the scheduler. Users already transitioned keep
// their state; the watermark makes the interrupted remainder pick up on
// the next run.
func (j *StreakJob) Stop(ctx context.Context) {
	if j == nil || j.cron == nil {
		return
	}
	stopCtx := j.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	j.logger.Info("streak job stopped")
}

// Run processes every user once for the current instant. Safe to invoke
// at any frequency.
func (j *StreakJob) Run(ctx context.Context) error {
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

			if _, err := j.streaks.ProcessUser(userCtx, user, now); err != nil {
				j.logger.Error("streak transition failed",
					zap.String("user_id", user.ID),
					zap.Error(err))
				mu.Lock()
				merr = multierror.Append(merr, err)
				mu.Unlock()
			}
			// Collected, not returned: one user's failure must not stop
			// the rest of the batch.
			return nil
		})
	}

	_ = g.Wait()
	return merr.ErrorOrNil()
}

// ProcessSingle exposes the per-user transition for manual invocation
// (admin tooling, tests).
func (j *StreakJob) ProcessSingle(ctx context.Context, user domain.User) (streakUC.Result, error) {
	return j.streaks.ProcessUser(ctx, user, time.Now())
}
