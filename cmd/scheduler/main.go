package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"venue_crm_backend/internal/adapters"
	"venue_crm_backend/internal/contacts"
	"venue_crm_backend/internal/email"
	"venue_crm_backend/internal/events"
	"venue_crm_backend/internal/notification"
	"venue_crm_backend/internal/progression"
	"venue_crm_backend/internal/scheduler"
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

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	// Worker-side wiring: the same contacts and progression services the API
	// uses, minus the HTTP handlers.
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
	contactsModule.SetProgressionEvaluator(adapters.NewProgressionEvaluator(progressionModule.Service()))

	// Notifications fire from worker-side recalculations and progressions too.
	notificationModule := notification.NewModule(email.NewSMTPSender(cfg), contactsModule.Repository(), cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	worker, err := scheduler.NewWorker(cfg, progressionModule.Service(), contactsModule.ScoringService(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	if err := worker.Run(ctx); err != nil {
		log.Error("scheduler worker stopped with error", "error", err)
		panic("scheduler worker stopped with error: " + err.Error())
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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
