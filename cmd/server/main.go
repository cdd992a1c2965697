package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/dailydone/backend/api/handler"
	"github.com/dailydone/backend/internal/config"
	"github.com/dailydone/backend/internal/infrastructure/mail"
	"github.com/dailydone/backend/internal/infrastructure/monitor"
	"github.com/dailydone/backend/internal/infrastructure/outbox"
	pgInfra "github.com/dailydone/backend/internal/infrastructure/postgres"
	redisInfra "github.com/dailydone/backend/internal/infrastructure/redis"
	"github.com/dailydone/backend/internal/middleware"
	"github.com/dailydone/backend/internal/router"
	"github.com/dailydone/backend/internal/services"
	"github.com/dailydone/backend/internal/services/lifecycle"
	"github.com/dailydone/backend/pkg/httpcontext"
	"github.com/dailydone/backend/pkg/logger"
	"github.com/dailydone/backend/repository/postgres"
	redisRepo "github.com/dailydone/backend/repository/redis"
	authUC "github.com/dailydone/backend/usecase/auth"
	"github.com/dailydone/backend/usecase/dueset"
	profileUC "github.com/dailydone/backend/usecase/profile"
	reminderUC "github.com/dailydone/backend/usecase/reminder"
	streakUC "github.com/dailydone/backend/usecase/streak"
	taskUC "github.com/dailydone/backend/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	outboxStore, err := outbox.Open(cfg.Outbox.Path)
	if err != nil {
		zapLogger.Fatal("failed to open reminder outbox", zap.Error(err))
	}
	manager.Register("outbox", func(ctx context.Context) error {
		return outboxStore.Close()
	})

	mon := monitor.New(pool, redisClient, outboxStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	userRepo := postgres.NewUserRepository(pool)
	taskRepo := postgres.NewTaskRepository(pool)
	completionRepo := postgres.NewCompletionRepository(pool)
	sessionRepo := redisRepo.NewSessionRepository(redisClient, cfg.JWT.SessionTTL)

	duesetUseCase := dueset.New(taskRepo, completionRepo, zapLogger)
	streakUseCase := streakUC.New(userRepo, duesetUseCase, zapLogger)
	reminderUseCase := reminderUC.New(duesetUseCase, zapLogger)
	authUseCase := authUC.New(userRepo, sessionRepo, cfg.JWT.Secret, cfg.JWT.Issuer, zapLogger)
	profileUseCase := profileUC.New(userRepo, zapLogger)
	taskUseCase := taskUC.New(taskRepo, completionRepo, userRepo, zapLogger)

	var mailer mail.Mailer
	if cfg.SMTP.Enabled {
		mailer = mail.NewSMTP(cfg.SMTP)
	} else {
		mailer = mail.NewLog(zapLogger)
	}

	streakJob := services.NewStreakJob(userRepo, streakUseCase, zapLogger, services.StreakJobConfig{
		CronSpec:    cfg.Jobs.StreakCronSpec,
		UserTimeout: cfg.Jobs.UserTimeout,
		FanOut:      cfg.Jobs.FanOut,
	})
	streakJob.Start()
	manager.Register("streak_job", func(ctx context.Context) error {
		streakJob.Stop(ctx)
		return nil
	})

	reminderJob := services.NewReminderJob(userRepo, reminderUseCase, mailer, outboxStore, zapLogger, services.ReminderJobConfig{
		Interval:       cfg.Jobs.ReminderInterval,
		Window:         cfg.Jobs.ReminderWindow,
		UserTimeout:    cfg.Jobs.UserTimeout,
		FanOut:         cfg.Jobs.FanOut,
		DrainInterval:  cfg.Outbox.DrainInterval,
		MaxRetries:     cfg.Outbox.MaxRetries,
		RetentionHours: cfg.Outbox.RetentionHours,
	})
	reminderJob.Start()
	manager.Register("reminder_job", func(ctx context.Context) error {
		reminderJob.Stop(ctx)
		return nil
	})

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:    apiHandler.NewAuthHandler(authUseCase, cfg.JWT.SessionTTL, ctxAdapter, zapLogger),
		Profile: apiHandler.NewProfileHandler(profileUseCase, ctxAdapter, zapLogger),
		Task:    apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Summary: apiHandler.NewSummaryHandler(userRepo, duesetUseCase, ctxAdapter, zapLogger),
		Health:  apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
