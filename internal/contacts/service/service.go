// Package service implements the contacts use cases: contact CRUD, the
// interaction log, and manual stage overrides. Every interaction write is
// followed by a simple-mode heat recalculation before anything else observes
// the contact.
package service

import (
	"context"
	"fmt"
	"time"

	"venue_crm_backend/internal/contacts/domain"
	"venue_crm_backend/internal/contacts/ports"
	"venue_crm_backend/internal/contacts/repository"
	"venue_crm_backend/internal/contacts/scoring"
	"venue_crm_backend/internal/events"
	"venue_crm_backend/platform/apperr"
	"venue_crm_backend/platform/logger"
	"venue_crm_backend/platform/phone"

	"github.com/google/uuid"
)

// RecalcScheduler defers a heat recalculation to the background job system.
type RecalcScheduler interface {
	EnqueueRecalc(ctx context.Context, contactID uuid.UUID, tenantID uuid.UUID) error
}

// Service orchestrates contact and interaction use cases.
type Service struct {
	contacts     repository.ContactsRepository
	interactions repository.InteractionsRepository
	scoring      *scoring.Service
	bus          events.Bus
	log          *logger.Logger

	// progression is optional; when set, interaction writes trigger a
	// synchronous single-contact evaluation after the recalc.
	progression ports.ProgressionEvaluator

	// recalcScheduler is optional; when unset, async recalc requests are
	// rejected.
	recalcScheduler RecalcScheduler
}

// New creates a new contacts service.
func New(contacts repository.ContactsRepository, interactions repository.InteractionsRepository, scoringSvc *scoring.Service, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		contacts:     contacts,
		interactions: interactions,
		scoring:      scoringSvc,
		bus:          bus,
		log:          log,
	}
}

// SetProgressionEvaluator wires the progression module in after construction
// (the two modules reference each other through ports only).
func (s *Service) SetProgressionEvaluator(evaluator ports.ProgressionEvaluator) {
	s.progression = evaluator
}

// SetRecalcScheduler wires the background job client. Called from the
// composition root when Redis is configured.
func (s *Service) SetRecalcScheduler(scheduler RecalcScheduler) {
	s.recalcScheduler = scheduler
}

// CreateContact creates a contact in the UNQUALIFIED stage.
func (s *Service) CreateContact(ctx context.Context, params repository.CreateContactParams) (domain.Contact, error) {
	if params.Phone != nil {
		normalized := phone.NormalizeE164(*params.Phone)
		params.Phone = &normalized
	}

	contact, err := s.contacts.Create(ctx, params)
	if err != nil {
		return domain.Contact{}, err
	}

	source := ""
	if contact.Source != nil {
		source = *contact.Source
	}
	s.bus.Publish(ctx, events.ContactCreated{
		BaseEvent: events.NewBaseEvent(),
		ContactID: contact.ID,
		TenantID:  contact.OrganizationID,
		Source:    source,
	})

	return contact, nil
}

// GetContact retrieves a contact by ID.
func (s *Service) GetContact(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (domain.Contact, error) {
	return s.contacts.GetByID(ctx, id, tenantID)
}

// ListContacts retrieves contacts with filters and pagination.
func (s *Service) ListContacts(ctx context.Context, tenantID uuid.UUID, params repository.ListContactsParams) ([]domain.Contact, int, error) {
	return s.contacts.List(ctx, tenantID, params)
}

// UpdateContact applies partial updates to a contact's own fields. Derived
// fields and status are not touched here.
func (s *Service) UpdateContact(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, params repository.UpdateContactParams) (domain.Contact, error) {
	if params.Phone != nil {
		normalized := phone.NormalizeE164(*params.Phone)
		params.Phone = &normalized
	}
	return s.contacts.Update(ctx, id, tenantID, params)
}

// OverrideStage moves a contact to an explicit stage, bypassing the rules
// engine. The audit record is distinguishable from automated progressions.
func (s *Service) OverrideStage(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, toStage string, actorID uuid.UUID) (domain.Contact, error) {
	if !domain.IsKnownStage(toStage) {
		return domain.Contact{}, apperr.Validation(fmt.Sprintf("unknown stage %q", toStage))
	}

	contact, err := s.contacts.GetByID(ctx, id, tenantID)
	if err != nil {
		return domain.Contact{}, err
	}
	if contact.Status == toStage {
		return contact, nil
	}

	if err := s.contacts.UpdateStatus(ctx, id, tenantID, toStage); err != nil {
		return domain.Contact{}, err
	}

	_, err = s.interactions.Insert(ctx, repository.CreateInteractionParams{
		ContactID:      id,
		OrganizationID: tenantID,
		Type:           domain.InteractionStageProgression,
		Metadata: map[string]any{
			"fromStage": contact.Status,
			"toStage":   toStage,
			"automated": false,
			"actorId":   actorID.String(),
		},
	})
	if err != nil {
		// The stage change is already committed; surface the audit failure
		// rather than leaving it silent.
		return domain.Contact{}, fmt.Errorf("append stage override audit: %w", err)
	}

	s.bus.Publish(ctx, events.StageProgressed{
		BaseEvent: events.NewBaseEvent(),
		ContactID: id,
		TenantID:  tenantID,
		FromStage: contact.Status,
		ToStage:   toStage,
		Automated: false,
	})

	contact.Status = toStage
	return contact, nil
}

// RecordInteraction appends an interaction event, recalculates the heat score
// in simple mode, and then runs a progression evaluation for the contact.
// The three steps are strictly sequenced; they must never run concurrently
// for the same contact.
func (s *Service) RecordInteraction(ctx context.Context, params repository.CreateInteractionParams) (domain.Interaction, error) {
	if !domain.IsKnownInteractionType(params.Type) {
		return domain.Interaction{}, apperr.Validation(fmt.Sprintf("unknown interaction type %q", params.Type))
	}

	// Fail fast on a missing contact before writing anything.
	if _, err := s.contacts.GetByID(ctx, params.ContactID, params.OrganizationID); err != nil {
		return domain.Interaction{}, err
	}

	interaction, err := s.interactions.Insert(ctx, params)
	if err != nil {
		return domain.Interaction{}, err
	}

	if err := s.contacts.TouchLastInteraction(ctx, params.ContactID, params.OrganizationID, time.Now().UTC()); err != nil {
		s.log.Error("touch last interaction failed", "contact_id", params.ContactID, "error", err)
	}

	if _, err := s.scoring.Recalculate(ctx, params.ContactID, params.OrganizationID); err != nil {
		return domain.Interaction{}, fmt.Errorf("recalculate after interaction create: %w", err)
	}

	platformTag := ""
	if interaction.Platform != nil {
		platformTag = *interaction.Platform
	}
	s.bus.Publish(ctx, events.InteractionRecorded{
		BaseEvent:       events.NewBaseEvent(),
		ContactID:       interaction.ContactID,
		InteractionID:   interaction.ID,
		TenantID:        interaction.OrganizationID,
		InteractionType: interaction.Type,
		Platform:        platformTag,
	})

	if s.progression != nil {
		if err := s.progression.EvaluateContact(ctx, params.ContactID, params.OrganizationID); err != nil {
			// Progression failures never fail the interaction write.
			s.log.Error("progression evaluation failed", "contact_id", params.ContactID, "error", err)
		}
	}

	return interaction, nil
}

// ListInteractions returns a contact's full interaction history.
func (s *Service) ListInteractions(ctx context.Context, contactID uuid.UUID, tenantID uuid.UUID) ([]domain.Interaction, error) {
	if _, err := s.contacts.GetByID(ctx, contactID, tenantID); err != nil {
		return nil, err
	}
	return s.interactions.ListByContact(ctx, contactID, tenantID)
}

// DeleteInteraction removes an interaction and recalculates the contact's
// heat score in simple mode.
func (s *Service) DeleteInteraction(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) error {
	interaction, err := s.interactions.GetByID(ctx, id, tenantID)
	if err != nil {
		return err
	}

	if err := s.interactions.Delete(ctx, id, tenantID); err != nil {
		return err
	}

	if _, err := s.scoring.Recalculate(ctx, interaction.ContactID, tenantID); err != nil {
		return fmt.Errorf("recalculate after interaction delete: %w", err)
	}

	s.bus.Publish(ctx, events.InteractionDeleted{
		BaseEvent:       events.NewBaseEvent(),
		ContactID:       interaction.ContactID,
		InteractionID:   id,
		TenantID:        tenantID,
		InteractionType: interaction.Type,
	})

	return nil
}

// RecalculateHeat recomputes a contact's heat on demand. Advanced mode with a
// custom config is reserved for authorized actors; the handler enforces that.
func (s *Service) RecalculateHeat(ctx context.Context, contactID uuid.UUID, tenantID uuid.UUID, advanced bool, cfg scoring.Config) (scoring.Result, error) {
	if advanced {
		return s.scoring.RecalculateAdvanced(ctx, contactID, tenantID, cfg)
	}
	return s.scoring.Recalculate(ctx, contactID, tenantID)
}

// EnqueueRecalculation defers a simple-mode recalculation to the background
// worker. The contact is checked up front so a bad ID fails the request, not
// the job.
func (s *Service) EnqueueRecalculation(ctx context.Context, contactID uuid.UUID, tenantID uuid.UUID) error {
	if s.recalcScheduler == nil {
		return apperr.Conflict("background job system is not configured")
	}

	if _, err := s.contacts.GetByID(ctx, contactID, tenantID); err != nil {
		return err
	}

	if err := s.recalcScheduler.EnqueueRecalc(ctx, contactID, tenantID); err != nil {
		return fmt.Errorf("enqueue heat recalculation: %w", err)
	}

	s.log.Info("heat recalculation enqueued", "contact_id", contactID, "tenant_id", tenantID)
	return nil
}
