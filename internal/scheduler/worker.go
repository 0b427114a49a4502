package scheduler

import (
	"context"
	"fmt"

	"venue_crm_backend/internal/contacts/scoring"
	progressionservice "venue_crm_backend/internal/progression/service"
	"venue_crm_backend/platform/config"
	"venue_crm_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Worker consumes background tasks from Redis and executes them.
type Worker struct {
	server      *asynq.Server
	mux         *asynq.ServeMux
	progression *progressionservice.Service
	scoring     *scoring.Service
	log         *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, progression *progressionservice.Service, scoringSvc *scoring.Service, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 5
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queue: 1},
	})

	w := &Worker{
		server:      server,
		mux:         asynq.NewServeMux(),
		progression: progression,
		scoring:     scoringSvc,
		log:         log,
	}

	w.mux.HandleFunc(TaskBulkProgression, w.handleBulkProgression)
	w.mux.HandleFunc(TaskHeatRecalc, w.handleHeatRecalc)

	return w, nil
}

// Run starts the worker and blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		w.log.Info("shutting down scheduler worker")
		w.server.Shutdown()
	}()

	w.log.Info("scheduler worker started")
	return w.server.Run(w.mux)
}

func (w *Worker) handleBulkProgression(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseBulkProgressionPayload(task)
	if err != nil {
		return fmt.Errorf("parse bulk progression payload: %w", err)
	}

	tenantID, err := uuid.Parse(payload.OrganizationID)
	if err != nil {
		return fmt.Errorf("invalid organization id %q: %w", payload.OrganizationID, err)
	}

	report, err := w.progression.RunBulk(ctx, tenantID)
	if err != nil {
		w.log.Error("scheduled bulk progression run failed", "tenant_id", tenantID, "error", err)
		return err
	}

	w.log.Info("scheduled bulk progression run completed",
		"tenant_id", tenantID,
		"total_evaluated", report.TotalEvaluated,
		"progressions_made", report.ProgressionsMade,
	)
	return nil
}

func (w *Worker) handleHeatRecalc(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseHeatRecalcPayload(task)
	if err != nil {
		return fmt.Errorf("parse heat recalc payload: %w", err)
	}

	contactID, err := uuid.Parse(payload.ContactID)
	if err != nil {
		return fmt.Errorf("invalid contact id %q: %w", payload.ContactID, err)
	}
	tenantID, err := uuid.Parse(payload.OrganizationID)
	if err != nil {
		return fmt.Errorf("invalid organization id %q: %w", payload.OrganizationID, err)
	}

	result, err := w.scoring.Recalculate(ctx, contactID, tenantID)
	if err != nil {
		w.log.Error("background heat recalculation failed", "contact_id", contactID, "error", err)
		return err
	}

	w.log.Info("background heat recalculation completed",
		"contact_id", contactID,
		"score", result.Score,
		"heat", result.Heat,
	)
	return nil
}
