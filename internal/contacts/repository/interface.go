package repository

import (
	"context"
	"time"

	"venue_crm_backend/internal/contacts/domain"

	"github.com/google/uuid"
)

// CreateContactParams carries the caller-supplied fields for a new contact.
// Derived fields (heat) and the initial stage are set by the repository.
type CreateContactParams struct {
	OrganizationID  uuid.UUID
	Name            string
	Email           *string
	Phone           *string
	Source          *string
	AssignedAgentID *uuid.UUID
}

// UpdateContactParams carries optional field updates; nil means unchanged.
type UpdateContactParams struct {
	Name            *string
	Email           *string
	Phone           *string
	Source          *string
	AssignedAgentID *uuid.UUID
}

// ListContactsParams filters and pages the contact list.
type ListContactsParams struct {
	Status string
	Heat   string
	Search string
	Limit  int
	Offset int
}

// ContactsRepository is the persistence boundary for contacts.
type ContactsRepository interface {
	Create(ctx context.Context, params CreateContactParams) (domain.Contact, error)
	GetByID(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) (domain.Contact, error)
	List(ctx context.Context, organizationID uuid.UUID, params ListContactsParams) ([]domain.Contact, int, error)
	Update(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, params UpdateContactParams) (domain.Contact, error)

	// UpdateHeat persists a recalculated score/heat pair.
	UpdateHeat(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, score float64, heat domain.Heat) error

	// UpdateStatus moves the contact to a new pipeline stage.
	UpdateStatus(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, status string) error

	// TouchLastInteraction bumps last_interaction_at.
	TouchLastInteraction(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, at time.Time) error

	// FindByEmail looks a contact up by exact email match. Used by webhook
	// ingestion to attach events to existing contacts.
	FindByEmail(ctx context.Context, organizationID uuid.UUID, email string) (domain.Contact, error)

	// ListNonTerminal returns contacts eligible for automated progression
	// (status is not CUSTOMER or LOST), capped at limit.
	ListNonTerminal(ctx context.Context, organizationID uuid.UUID, limit int) ([]domain.Contact, error)
}

// CreateInteractionParams carries the fields for a new interaction event.
type CreateInteractionParams struct {
	ContactID      uuid.UUID
	OrganizationID uuid.UUID
	Type           string
	Platform       *string
	Metadata       map[string]any
}

// InteractionsRepository is the append-only persistence boundary for
// interaction events.
type InteractionsRepository interface {
	Insert(ctx context.Context, params CreateInteractionParams) (domain.Interaction, error)
	GetByID(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) (domain.Interaction, error)
	ListByContact(ctx context.Context, contactID uuid.UUID, organizationID uuid.UUID) ([]domain.Interaction, error)
	Delete(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) error
}
