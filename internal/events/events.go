// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"venue_crm_backend/platform/events"
	"venue_crm_backend/platform/logger"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = func(log *logger.Logger) *InMemoryBus { return events.NewInMemoryBus(log) }
)

// =============================================================================
// Contacts Domain Events
// =============================================================================

// ContactCreated is published when a new contact is created.
type ContactCreated struct {
	BaseEvent
	ContactID uuid.UUID `json:"contactId"`
	TenantID  uuid.UUID `json:"tenantId"`
	Source    string    `json:"source,omitempty"`
}

func (e ContactCreated) EventName() string { return "contacts.contact.created" }

// InteractionRecorded is published after an interaction is written and the
// contact's heat score has been recalculated.
type InteractionRecorded struct {
	BaseEvent
	ContactID       uuid.UUID `json:"contactId"`
	InteractionID   uuid.UUID `json:"interactionId"`
	TenantID        uuid.UUID `json:"tenantId"`
	InteractionType string    `json:"interactionType"`
	Platform        string    `json:"platform,omitempty"`
}

func (e InteractionRecorded) EventName() string { return "contacts.interaction.recorded" }

// InteractionDeleted is published after an interaction is removed and the
// contact's heat score has been recalculated.
type InteractionDeleted struct {
	BaseEvent
	ContactID       uuid.UUID `json:"contactId"`
	InteractionID   uuid.UUID `json:"interactionId"`
	TenantID        uuid.UUID `json:"tenantId"`
	InteractionType string    `json:"interactionType"`
}

func (e InteractionDeleted) EventName() string { return "contacts.interaction.deleted" }

// ContactHeatChanged is published when a recalculation lands on a different
// heat level than the one stored before.
type ContactHeatChanged struct {
	BaseEvent
	ContactID uuid.UUID `json:"contactId"`
	TenantID  uuid.UUID `json:"tenantId"`
	OldHeat   string    `json:"oldHeat"`
	NewHeat   string    `json:"newHeat"`
	Score     float64   `json:"score"`
}

func (e ContactHeatChanged) EventName() string { return "contacts.heat.changed" }

// ContactBecameHot is published when a recalculation crosses into HOT from a
// lower level. Drives the sales-team notification.
type ContactBecameHot struct {
	BaseEvent
	ContactID uuid.UUID `json:"contactId"`
	TenantID  uuid.UUID `json:"tenantId"`
	Score     float64   `json:"score"`
}

func (e ContactBecameHot) EventName() string { return "contacts.heat.hot" }

// =============================================================================
// Progression Domain Events
// =============================================================================

// StageProgressed is published when a contact's pipeline stage changes,
// either by the rules engine (Automated=true) or a manual override.
type StageProgressed struct {
	BaseEvent
	ContactID uuid.UUID  `json:"contactId"`
	TenantID  uuid.UUID  `json:"tenantId"`
	FromStage string     `json:"fromStage"`
	ToStage   string     `json:"toStage"`
	RuleID    *uuid.UUID `json:"ruleId,omitempty"`
	RuleName  string     `json:"ruleName,omitempty"`
	Automated bool       `json:"automated"`
}

func (e StageProgressed) EventName() string { return "progression.stage.progressed" }

// =============================================================================
// Webhook Domain Events
// =============================================================================

// WebhookInteractionIngested is published when a social platform webhook is
// translated into an interaction.
type WebhookInteractionIngested struct {
	BaseEvent
	ContactID uuid.UUID `json:"contactId"`
	TenantID  uuid.UUID `json:"tenantId"`
	Platform  string    `json:"platform"`
	EventKind string    `json:"eventKind"`
}

func (e WebhookInteractionIngested) EventName() string { return "webhook.interaction.ingested" }
