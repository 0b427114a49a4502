package adapters

import (
	"context"
	"time"

	"venue_crm_backend/internal/scheduler"

	"github.com/google/uuid"
)

// BulkSchedulerAdapter bridges the asynq client into the progression
// service's BulkScheduler port.
type BulkSchedulerAdapter struct {
	client *scheduler.Client
}

func NewBulkSchedulerAdapter(client *scheduler.Client) *BulkSchedulerAdapter {
	return &BulkSchedulerAdapter{client: client}
}

func (a *BulkSchedulerAdapter) ScheduleBulkRun(ctx context.Context, tenantID uuid.UUID, runAt time.Time) error {
	return a.client.ScheduleBulkProgression(ctx, scheduler.BulkProgressionPayload{
		OrganizationID: tenantID.String(),
	}, runAt)
}
