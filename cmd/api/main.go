package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"venue_crm_backend/internal/adapters"
	"venue_crm_backend/internal/contacts"
	"venue_crm_backend/internal/email"
	"venue_crm_backend/internal/events"
	apphttp "venue_crm_backend/internal/http"
	"venue_crm_backend/internal/http/router"
	"venue_crm_backend/internal/notification"
	"venue_crm_backend/internal/opportunities"
	"venue_crm_backend/internal/progression"
	"venue_crm_backend/internal/scheduler"
	"venue_crm_backend/internal/webhook"
	"venue_crm_backend/migrations"
	"venue_crm_backend/platform/config"
	"venue_crm_backend/platform/db"
	"venue_crm_backend/platform/logger"
	"venue_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
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
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
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
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Background job client for deferred bulk runs (optional, Redis-backed)
	jobClient, closeJobClient := initJobClient(cfg, log)
	if closeJobClient != nil {
		defer closeJobClient()
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	contactsModule := contacts.NewModule(pool, eventBus, val, log)

	progressionModule := progression.NewModule(
		pool,
		contactsModule.Repository(),
		contactsModule.InteractionsRepository(),
		eventBus,
		val,
		cfg,
		log,
	)

	// Wire progression into the interaction write path so every recorded
	// interaction is followed by a synchronous evaluation for that contact.
	contactsModule.SetProgressionEvaluator(adapters.NewProgressionEvaluator(progressionModule.Service()))

	if jobClient != nil {
		progressionModule.Service().SetBulkScheduler(adapters.NewBulkSchedulerAdapter(jobClient))
		contactsModule.SetRecalcScheduler(adapters.NewRecalcSchedulerAdapter(jobClient))
	}

	opportunitiesModule := opportunities.NewModule(pool, contactsModule.Repository(), val, log)

	contactGateway := adapters.NewContactGateway(contactsModule.Service(), contactsModule.Repository())
	webhookModule := webhook.NewModule(pool, contactGateway, eventBus, val, log)

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.NewModule(email.NewSMTPSender(cfg), contactsModule.Repository(), cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			contactsModule,
			progressionModule,
			opportunitiesModule,
			webhookModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initJobClient(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; deferred bulk runs disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize background job client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
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
