// Package adapters contains small anti-corruption adapters that translate
// between bounded contexts, so each module depends only on its own ports.
package adapters

import (
	"context"

	"venue_crm_backend/internal/contacts/ports"
	"venue_crm_backend/internal/progression/service"

	"github.com/google/uuid"
)

// ProgressionEvaluatorAdapter exposes the progression service through the
// contacts module's ProgressionEvaluator port.
type ProgressionEvaluatorAdapter struct {
	svc *service.Service
}

// NewProgressionEvaluator wraps the progression service.
func NewProgressionEvaluator(svc *service.Service) *ProgressionEvaluatorAdapter {
	return &ProgressionEvaluatorAdapter{svc: svc}
}

// EvaluateContact runs a single-contact evaluation, discarding the diagnostic
// result the contacts module has no use for.
func (a *ProgressionEvaluatorAdapter) EvaluateContact(ctx context.Context, contactID uuid.UUID, tenantID uuid.UUID) error {
	_, err := a.svc.EvaluateContact(ctx, contactID, tenantID)
	return err
}

var _ ports.ProgressionEvaluator = (*ProgressionEvaluatorAdapter)(nil)
