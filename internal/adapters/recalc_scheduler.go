package adapters

import (
	"context"

	"venue_crm_backend/internal/scheduler"

	"github.com/google/uuid"
)

// RecalcSchedulerAdapter bridges the asynq client into the contacts
// service's RecalcScheduler port.
type RecalcSchedulerAdapter struct {
	client *scheduler.Client
}

func NewRecalcSchedulerAdapter(client *scheduler.Client) *RecalcSchedulerAdapter {
	return &RecalcSchedulerAdapter{client: client}
}

func (a *RecalcSchedulerAdapter) EnqueueRecalc(ctx context.Context, contactID uuid.UUID, tenantID uuid.UUID) error {
	return a.client.EnqueueHeatRecalc(ctx, scheduler.HeatRecalcPayload{
		ContactID:      contactID.String(),
		OrganizationID: tenantID.String(),
	})
}
