// Package service implements the opportunity use cases: CRUD, stage moves,
// and the pipeline forecast.
package service

import (
	"context"
	"fmt"

	contactrepo "venue_crm_backend/internal/contacts/repository"
	"venue_crm_backend/internal/opportunities/domain"
	"venue_crm_backend/internal/opportunities/repository"
	"venue_crm_backend/platform/apperr"
	"venue_crm_backend/platform/logger"

	"github.com/google/uuid"
)

// Service orchestrates opportunity use cases.
type Service struct {
	opportunities repository.OpportunitiesRepository
	contacts      contactrepo.ContactsRepository
	log           *logger.Logger
}

// New creates a new opportunities service.
func New(opportunities repository.OpportunitiesRepository, contacts contactrepo.ContactsRepository, log *logger.Logger) *Service {
	return &Service{opportunities: opportunities, contacts: contacts, log: log}
}

// Create stores a new opportunity after verifying the contact exists.
func (s *Service) Create(ctx context.Context, params repository.CreateOpportunityParams) (domain.Opportunity, error) {
	if params.Probability < 0 || params.Probability > 100 {
		return domain.Opportunity{}, apperr.Validation("probability must be between 0 and 100")
	}
	if params.ValueCents < 0 {
		return domain.Opportunity{}, apperr.Validation("value must not be negative")
	}
	if _, err := s.contacts.GetByID(ctx, params.ContactID, params.OrganizationID); err != nil {
		return domain.Opportunity{}, err
	}
	return s.opportunities.Create(ctx, params)
}

// Get retrieves an opportunity by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (domain.Opportunity, error) {
	return s.opportunities.GetByID(ctx, id, tenantID)
}

// List returns opportunities, optionally filtered by stage.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, stage string) ([]domain.Opportunity, error) {
	if stage != "" && !domain.IsKnownStage(stage) {
		return nil, apperr.Validation(fmt.Sprintf("unknown stage %q", stage))
	}
	return s.opportunities.List(ctx, tenantID, stage)
}

// ListByContact returns a contact's opportunities.
func (s *Service) ListByContact(ctx context.Context, contactID uuid.UUID, tenantID uuid.UUID) ([]domain.Opportunity, error) {
	if _, err := s.contacts.GetByID(ctx, contactID, tenantID); err != nil {
		return nil, err
	}
	return s.opportunities.ListByContact(ctx, contactID, tenantID)
}

// Update applies partial field updates.
func (s *Service) Update(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, params repository.UpdateOpportunityParams) (domain.Opportunity, error) {
	if params.Probability != nil && (*params.Probability < 0 || *params.Probability > 100) {
		return domain.Opportunity{}, apperr.Validation("probability must be between 0 and 100")
	}
	if params.ValueCents != nil && *params.ValueCents < 0 {
		return domain.Opportunity{}, apperr.Validation("value must not be negative")
	}
	return s.opportunities.Update(ctx, id, tenantID, params)
}

// MoveStage moves an opportunity to a new stage. Closed opportunities cannot
// be moved again.
func (s *Service) MoveStage(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, stage string) (domain.Opportunity, error) {
	if !domain.IsKnownStage(stage) {
		return domain.Opportunity{}, apperr.Validation(fmt.Sprintf("unknown stage %q", stage))
	}

	current, err := s.opportunities.GetByID(ctx, id, tenantID)
	if err != nil {
		return domain.Opportunity{}, err
	}
	if domain.IsClosedStage(current.Stage) {
		return domain.Opportunity{}, apperr.Conflict("opportunity is already closed")
	}

	updated, err := s.opportunities.UpdateStage(ctx, id, tenantID, stage)
	if err != nil {
		return domain.Opportunity{}, err
	}

	s.log.Info("opportunity stage moved",
		"opportunity_id", id,
		"from_stage", current.Stage,
		"to_stage", stage,
	)
	return updated, nil
}

// Delete removes an opportunity.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) error {
	return s.opportunities.Delete(ctx, id, tenantID)
}

// Forecast is the pipeline summary: per-stage totals plus an open-pipeline
// weighted total (closed stages excluded from the weighted figure).
type Forecast struct {
	Stages                 []repository.StageTotal `json:"stages"`
	OpenValueCents         int64                   `json:"openValueCents"`
	OpenWeightedValueCents int64                   `json:"openWeightedValueCents"`
	WonValueCents          int64                   `json:"wonValueCents"`
}

// Forecast aggregates the organization's pipeline.
func (s *Service) Forecast(ctx context.Context, tenantID uuid.UUID) (Forecast, error) {
	totals, err := s.opportunities.ForecastByStage(ctx, tenantID)
	if err != nil {
		return Forecast{}, err
	}

	forecast := Forecast{Stages: totals}
	for _, total := range totals {
		switch {
		case total.Stage == domain.StageClosedWon:
			forecast.WonValueCents += total.ValueCents
		case !domain.IsClosedStage(total.Stage):
			forecast.OpenValueCents += total.ValueCents
			forecast.OpenWeightedValueCents += total.WeightedValueCents
		}
	}
	return forecast, nil
}
