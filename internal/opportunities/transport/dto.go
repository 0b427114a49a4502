// Package transport defines the HTTP request and response shapes for the
// opportunities module.
package transport

import (
	"time"

	"venue_crm_backend/internal/opportunities/domain"
	"venue_crm_backend/internal/opportunities/repository"

	"github.com/google/uuid"
)

type CreateOpportunityRequest struct {
	ContactID   uuid.UUID  `json:"contactId" validate:"required"`
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	ValueCents  int64      `json:"valueCents" validate:"gte=0"`
	Probability int        `json:"probability" validate:"gte=0,lte=100"`
	EventDate   *time.Time `json:"eventDate,omitempty"`
}

type UpdateOpportunityRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	ValueCents  *int64     `json:"valueCents,omitempty" validate:"omitempty,gte=0"`
	Probability *int       `json:"probability,omitempty" validate:"omitempty,gte=0,lte=100"`
	EventDate   *time.Time `json:"eventDate,omitempty"`
}

type MoveStageRequest struct {
	Stage string `json:"stage" validate:"required,oneof=PROSPECT QUALIFIED PROPOSAL NEGOTIATION CLOSED_WON CLOSED_LOST"`
}

type OpportunityResponse struct {
	ID                 uuid.UUID  `json:"id"`
	ContactID          uuid.UUID  `json:"contactId"`
	Title              string     `json:"title"`
	Stage              string     `json:"stage"`
	ValueCents         int64      `json:"valueCents"`
	Probability        int        `json:"probability"`
	WeightedValueCents int64      `json:"weightedValueCents"`
	EventDate          *time.Time `json:"eventDate,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

func ToOpportunityResponse(o domain.Opportunity) OpportunityResponse {
	return OpportunityResponse{
		ID:                 o.ID,
		ContactID:          o.ContactID,
		Title:              o.Title,
		Stage:              o.Stage,
		ValueCents:         o.ValueCents,
		Probability:        o.Probability,
		WeightedValueCents: o.WeightedValueCents(),
		EventDate:          o.EventDate,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

func ToOpportunityListResponse(opportunities []domain.Opportunity) []OpportunityResponse {
	items := make([]OpportunityResponse, 0, len(opportunities))
	for _, o := range opportunities {
		items = append(items, ToOpportunityResponse(o))
	}
	return items
}

// ToCreateParams converts the request into repository parameters.
func (r CreateOpportunityRequest) ToCreateParams(organizationID uuid.UUID) repository.CreateOpportunityParams {
	return repository.CreateOpportunityParams{
		OrganizationID: organizationID,
		ContactID:      r.ContactID,
		Title:          r.Title,
		ValueCents:     r.ValueCents,
		Probability:    r.Probability,
		EventDate:      r.EventDate,
	}
}

// ToUpdateParams converts the request into repository parameters.
func (r UpdateOpportunityRequest) ToUpdateParams() repository.UpdateOpportunityParams {
	return repository.UpdateOpportunityParams{
		Title:       r.Title,
		ValueCents:  r.ValueCents,
		Probability: r.Probability,
		EventDate:   r.EventDate,
	}
}
