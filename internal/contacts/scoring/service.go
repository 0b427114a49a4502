package scoring

import (
	"context"
	"time"

	"venue_crm_backend/internal/contacts/domain"
	"venue_crm_backend/internal/contacts/repository"
	"venue_crm_backend/internal/events"
	"venue_crm_backend/platform/logger"

	"github.com/google/uuid"
)

// Service recomputes and persists contact heat scores. The callers must
// sequence "write interaction -> recalculate -> evaluate progression" for a
// given contact; the service itself performs a single read-compute-write.
type Service struct {
	contacts     repository.ContactsRepository
	interactions repository.InteractionsRepository
	bus          events.Bus
	log          *logger.Logger
}

// New creates a new scoring service.
func New(contacts repository.ContactsRepository, interactions repository.InteractionsRepository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{contacts: contacts, interactions: interactions, bus: bus, log: log}
}

// Recalculate recomputes the score in simple mode and persists it.
// Used for every automatic recalculation after interaction create/delete.
func (s *Service) Recalculate(ctx context.Context, contactID uuid.UUID, tenantID uuid.UUID) (Result, error) {
	return s.recalculate(ctx, contactID, tenantID, func(history []domain.Interaction) Result {
		return Compute(history)
	})
}

// RecalculateAdvanced recomputes the score with the advanced modifiers and
// persists it. Triggered manually by an authorized actor.
func (s *Service) RecalculateAdvanced(ctx context.Context, contactID uuid.UUID, tenantID uuid.UUID, cfg Config) (Result, error) {
	now := time.Now().UTC()
	return s.recalculate(ctx, contactID, tenantID, func(history []domain.Interaction) Result {
		return ComputeAdvanced(history, cfg, now)
	})
}

func (s *Service) recalculate(ctx context.Context, contactID uuid.UUID, tenantID uuid.UUID, compute func([]domain.Interaction) Result) (Result, error) {
	contact, err := s.contacts.GetByID(ctx, contactID, tenantID)
	if err != nil {
		return Result{}, err
	}

	history, err := s.interactions.ListByContact(ctx, contactID, tenantID)
	if err != nil {
		return Result{}, err
	}

	result := compute(history)

	if err := s.contacts.UpdateHeat(ctx, contactID, tenantID, result.Score, result.Heat); err != nil {
		return Result{}, err
	}

	if contact.LeadHeat != result.Heat {
		s.log.Info("contact heat changed",
			"contact_id", contactID,
			"old_heat", contact.LeadHeat,
			"new_heat", result.Heat,
			"score", result.Score,
		)
		s.bus.Publish(ctx, events.ContactHeatChanged{
			BaseEvent: events.NewBaseEvent(),
			ContactID: contactID,
			TenantID:  tenantID,
			OldHeat:   string(contact.LeadHeat),
			NewHeat:   string(result.Heat),
			Score:     result.Score,
		})

		if result.Heat == domain.HeatHot {
			s.bus.Publish(ctx, events.ContactBecameHot{
				BaseEvent: events.NewBaseEvent(),
				ContactID: contactID,
				TenantID:  tenantID,
				Score:     result.Score,
			})
		}
	}

	return result, nil
}
