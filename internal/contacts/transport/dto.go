// Package transport defines the HTTP request and response shapes for the
// contacts module.
package transport

import (
	"time"

	"venue_crm_backend/internal/contacts/domain"
	"venue_crm_backend/internal/contacts/repository"
	"venue_crm_backend/internal/contacts/scoring"

	"github.com/google/uuid"
)

// Request DTOs

type CreateContactRequest struct {
	Name            string     `json:"name" validate:"required,min=1,max=200"`
	Email           *string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone           *string    `json:"phone,omitempty" validate:"omitempty,min=5,max=20"`
	Source          *string    `json:"source,omitempty" validate:"omitempty,max=100"`
	AssignedAgentID *uuid.UUID `json:"assignedAgentId,omitempty"`
}

type UpdateContactRequest struct {
	Name            *string    `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Email           *string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone           *string    `json:"phone,omitempty" validate:"omitempty,min=5,max=20"`
	Source          *string    `json:"source,omitempty" validate:"omitempty,max=100"`
	AssignedAgentID *uuid.UUID `json:"assignedAgentId,omitempty"`
}

type OverrideStageRequest struct {
	Stage string `json:"stage" validate:"required,oneof=UNQUALIFIED PROSPECT LEAD QUALIFIED CUSTOMER LOST"`
}

type CreateInteractionRequest struct {
	Type     string         `json:"type" validate:"required,min=1,max=50"`
	Platform *string        `json:"platform,omitempty" validate:"omitempty,max=50"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// RecalculateRequest selects the scoring mode. Advanced mode accepts an
// optional config; omitted knobs fall back to the engine defaults. Async
// defers a simple-mode recalculation to the background worker.
type RecalculateRequest struct {
	Advanced bool            `json:"advanced"`
	Async    bool            `json:"async"`
	Config   *scoring.Config `json:"config,omitempty"`
}

// RecalculateQueuedResponse acknowledges a deferred recalculation.
type RecalculateQueuedResponse struct {
	ContactID uuid.UUID `json:"contactId"`
	Queued    bool      `json:"queued"`
}

// Response DTOs

type ContactResponse struct {
	ID                uuid.UUID   `json:"id"`
	OrganizationID    uuid.UUID   `json:"organizationId"`
	Name              string      `json:"name"`
	Email             *string     `json:"email,omitempty"`
	Phone             *string     `json:"phone,omitempty"`
	Source            *string     `json:"source,omitempty"`
	LeadHeatScore     float64     `json:"leadHeatScore"`
	LeadHeat          domain.Heat `json:"leadHeat"`
	Status            string      `json:"status"`
	AssignedAgentID   *uuid.UUID  `json:"assignedAgentId,omitempty"`
	LastInteractionAt *time.Time  `json:"lastInteractionAt,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

type ContactListResponse struct {
	Items []ContactResponse `json:"items"`
	Total int               `json:"total"`
}

type InteractionResponse struct {
	ID        uuid.UUID      `json:"id"`
	ContactID uuid.UUID      `json:"contactId"`
	Type      string         `json:"type"`
	Platform  *string        `json:"platform,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Mapping helpers

func ToContactResponse(c domain.Contact) ContactResponse {
	return ContactResponse{
		ID:                c.ID,
		OrganizationID:    c.OrganizationID,
		Name:              c.Name,
		Email:             c.Email,
		Phone:             c.Phone,
		Source:            c.Source,
		LeadHeatScore:     c.LeadHeatScore,
		LeadHeat:          c.LeadHeat,
		Status:            c.Status,
		AssignedAgentID:   c.AssignedAgentID,
		LastInteractionAt: c.LastInteractionAt,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

func ToContactListResponse(contacts []domain.Contact, total int) ContactListResponse {
	items := make([]ContactResponse, 0, len(contacts))
	for _, c := range contacts {
		items = append(items, ToContactResponse(c))
	}
	return ContactListResponse{Items: items, Total: total}
}

func ToInteractionResponse(i domain.Interaction) InteractionResponse {
	return InteractionResponse{
		ID:        i.ID,
		ContactID: i.ContactID,
		Type:      i.Type,
		Platform:  i.Platform,
		Metadata:  i.Metadata,
		CreatedAt: i.CreatedAt,
	}
}

func ToInteractionListResponse(interactions []domain.Interaction) []InteractionResponse {
	items := make([]InteractionResponse, 0, len(interactions))
	for _, i := range interactions {
		items = append(items, ToInteractionResponse(i))
	}
	return items
}

// ToCreateParams converts the request into repository parameters.
func (r CreateContactRequest) ToCreateParams(organizationID uuid.UUID) repository.CreateContactParams {
	return repository.CreateContactParams{
		OrganizationID:  organizationID,
		Name:            r.Name,
		Email:           r.Email,
		Phone:           r.Phone,
		Source:          r.Source,
		AssignedAgentID: r.AssignedAgentID,
	}
}

// ToUpdateParams converts the request into repository parameters.
func (r UpdateContactRequest) ToUpdateParams() repository.UpdateContactParams {
	return repository.UpdateContactParams{
		Name:            r.Name,
		Email:           r.Email,
		Phone:           r.Phone,
		Source:          r.Source,
		AssignedAgentID: r.AssignedAgentID,
	}
}
