// Package ports declares the interfaces the contacts module needs from other
// bounded contexts, keeping the dependency direction inward.
package ports

import (
	"context"

	"github.com/google/uuid"
)

// ProgressionEvaluator runs a single-contact stage progression evaluation.
// Implemented by the progression module; invoked synchronously after a heat
// recalculation so the LEAD_HEAT_INCREASE trigger reads fresh data.
type ProgressionEvaluator interface {
	EvaluateContact(ctx context.Context, contactID uuid.UUID, tenantID uuid.UUID) error
}
