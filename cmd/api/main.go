package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crm_pipeline_backend/internal/calendar"
	"crm_pipeline_backend/internal/contacts"
	contactscache "crm_pipeline_backend/internal/contacts/cache"
	"crm_pipeline_backend/internal/events"
	apphttp "crm_pipeline_backend/internal/http"
	"crm_pipeline_backend/internal/http/router"
	"crm_pipeline_backend/internal/notification"
	"crm_pipeline_backend/internal/pipelines"
	"crm_pipeline_backend/internal/scheduler"
	"crm_pipeline_backend/migrations"
	"crm_pipeline_backend/platform/config"
	"crm_pipeline_backend/platform/db"
	"crm_pipeline_backend/platform/logger"
	"crm_pipeline_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS, ".")
	}); err != nil {
		log.DatabaseError("run migrations", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.DatabaseError("connect", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Stage-board cache and reminder queue share the redis instance; both are
	// optional and the API degrades gracefully without them.
	board, closeRedis := initStageBoard(cfg, log)
	if closeRedis != nil {
		defer closeRedis()
	}

	reminderScheduler, closeScheduler := initReminderScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}
	if reminderScheduler != nil {
		scheduler.RegisterSubscribers(eventBus, reminderScheduler, cfg.GetReminderLeadTime(), log)
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	pipelinesModule := pipelines.NewModule(pool, val)
	contactsModule := contacts.NewModule(pool, val, board, eventBus, log)
	calendarModule := calendar.NewModule(pool, val, eventBus, log)

	// Notification module subscribes to domain events (not HTTP-facing)
	var sender notification.Sender
	if cfg.GetEmailEnabled() {
		sender = notification.NewSMTPSender(cfg)
	} else {
		sender = notification.NewNoopSender(log)
	}
	notification.NewSubscribers(sender, contactsModule.Repository(), cfg, log).Register(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			pipelinesModule,
			contactsModule,
			calendarModule,
		},
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router.New(app),
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initStageBoard(cfg *config.Config, log *logger.Logger) (contactscache.Board, func()) {
	if !cfg.IsRedisEnabled() {
		log.Warn("REDIS_ADDR not configured; stage-board cache disabled")
		return contactscache.NoopBoard{}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.GetRedisPassword(),
	})

	return contactscache.NewRedisBoard(client, cfg.GetStageBoardCacheTTL(), log), func() {
		_ = client.Close()
	}
}

func initReminderScheduler(cfg *config.Config, log *logger.Logger) (scheduler.ReminderScheduler, func()) {
	if !cfg.IsRedisEnabled() {
		log.Warn("REDIS_ADDR not configured; meeting reminders disabled")
		return nil, nil
	}

	reminderClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize reminder scheduler client", "error", err)
		return nil, nil
	}

	return reminderClient, func() {
		_ = reminderClient.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
