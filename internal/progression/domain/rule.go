// Package domain holds the stage progression rule types. A rule's trigger
// condition is stored as an untyped JSON payload; each trigger type decodes
// it into its own narrow condition struct before evaluation.
package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Trigger types a rule can use.
const (
	TriggerInteractionCount = "INTERACTION_COUNT"
	TriggerTimeBased        = "TIME_BASED"
	TriggerLeadHeatIncrease = "LEAD_HEAT_INCREASE"
	TriggerFormSubmission   = "FORM_SUBMISSION"
	TriggerEmailEngagement  = "EMAIL_ENGAGEMENT"
)

var knownTriggerTypes = map[string]struct{}{
	TriggerInteractionCount: {},
	TriggerTimeBased:        {},
	TriggerLeadHeatIncrease: {},
	TriggerFormSubmission:   {},
	TriggerEmailEngagement:  {},
}

// IsKnownTriggerType reports whether the trigger type belongs to the fixed
// enumeration. The engine treats unknown types as non-matching; the boundary
// rejects them on rule create/update.
func IsKnownTriggerType(triggerType string) bool {
	_, ok := knownTriggerTypes[triggerType]
	return ok
}

// StageProgressionRule is a configurable condition-action pair that moves a
// contact one stage forward when its trigger predicate holds.
type StageProgressionRule struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	FromStage      string
	ToStage        string
	TriggerType    string

	// TriggerCondition is the raw payload; its shape depends on TriggerType.
	TriggerCondition json.RawMessage

	Priority  int
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// InteractionCountCondition matches when enough interactions of the listed
// types exist.
type InteractionCountCondition struct {
	InteractionTypes []string `json:"interactionTypes"`
	MinCount         int      `json:"minCount"`
}

// TimeBasedCondition matches stale contacts with unanswered outreach.
type TimeBasedCondition struct {
	DaysSinceLastInteraction float64 `json:"daysSinceLastInteraction"`
	NoResponseToEmails       int     `json:"noResponseToEmails"`
}

// LeadHeatIncreaseCondition matches when the contact is hot enough and has
// every required interaction type in its history.
type LeadHeatIncreaseCondition struct {
	MinHeatLevel         string   `json:"minHeatLevel"`
	RequiredInteractions []string `json:"requiredInteractions"`
}

// EmailEngagementCondition matches on a raw count of engagement events
// (opens, clicks, replies), not a weighted score.
type EmailEngagementCondition struct {
	MinEngagementScore int `json:"minEngagementScore"`
}

// DecodeInteractionCount parses and validates an INTERACTION_COUNT payload.
func DecodeInteractionCount(raw json.RawMessage) (InteractionCountCondition, error) {
	var cond InteractionCountCondition
	if err := json.Unmarshal(raw, &cond); err != nil {
		return InteractionCountCondition{}, fmt.Errorf("decode INTERACTION_COUNT condition: %w", err)
	}
	if len(cond.InteractionTypes) == 0 {
		return InteractionCountCondition{}, fmt.Errorf("INTERACTION_COUNT condition: interactionTypes is required")
	}
	if cond.MinCount < 1 {
		return InteractionCountCondition{}, fmt.Errorf("INTERACTION_COUNT condition: minCount must be at least 1")
	}
	return cond, nil
}

// DecodeTimeBased parses and validates a TIME_BASED payload.
func DecodeTimeBased(raw json.RawMessage) (TimeBasedCondition, error) {
	var cond TimeBasedCondition
	if err := json.Unmarshal(raw, &cond); err != nil {
		return TimeBasedCondition{}, fmt.Errorf("decode TIME_BASED condition: %w", err)
	}
	if cond.DaysSinceLastInteraction < 0 {
		return TimeBasedCondition{}, fmt.Errorf("TIME_BASED condition: daysSinceLastInteraction must not be negative")
	}
	if cond.NoResponseToEmails < 0 {
		return TimeBasedCondition{}, fmt.Errorf("TIME_BASED condition: noResponseToEmails must not be negative")
	}
	return cond, nil
}

// DecodeLeadHeatIncrease parses and validates a LEAD_HEAT_INCREASE payload.
func DecodeLeadHeatIncrease(raw json.RawMessage) (LeadHeatIncreaseCondition, error) {
	var cond LeadHeatIncreaseCondition
	if err := json.Unmarshal(raw, &cond); err != nil {
		return LeadHeatIncreaseCondition{}, fmt.Errorf("decode LEAD_HEAT_INCREASE condition: %w", err)
	}
	switch cond.MinHeatLevel {
	case "COLD", "WARM", "HOT":
	default:
		return LeadHeatIncreaseCondition{}, fmt.Errorf("LEAD_HEAT_INCREASE condition: unknown heat level %q", cond.MinHeatLevel)
	}
	return cond, nil
}

// DecodeEmailEngagement parses and validates an EMAIL_ENGAGEMENT payload.
func DecodeEmailEngagement(raw json.RawMessage) (EmailEngagementCondition, error) {
	var cond EmailEngagementCondition
	if err := json.Unmarshal(raw, &cond); err != nil {
		return EmailEngagementCondition{}, fmt.Errorf("decode EMAIL_ENGAGEMENT condition: %w", err)
	}
	if cond.MinEngagementScore < 1 {
		return EmailEngagementCondition{}, fmt.Errorf("EMAIL_ENGAGEMENT condition: minEngagementScore must be at least 1")
	}
	return cond, nil
}

// ValidateCondition checks that the payload decodes for the given trigger
// type. Used at the boundary on rule create/update; FORM_SUBMISSION takes no
// condition.
func ValidateCondition(triggerType string, raw json.RawMessage) error {
	switch triggerType {
	case TriggerInteractionCount:
		_, err := DecodeInteractionCount(raw)
		return err
	case TriggerTimeBased:
		_, err := DecodeTimeBased(raw)
		return err
	case TriggerLeadHeatIncrease:
		_, err := DecodeLeadHeatIncrease(raw)
		return err
	case TriggerEmailEngagement:
		_, err := DecodeEmailEngagement(raw)
		return err
	case TriggerFormSubmission:
		return nil
	default:
		return fmt.Errorf("unknown trigger type %q", triggerType)
	}
}
