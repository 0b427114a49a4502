// Package domain holds the contact bounded context's core types: pipeline
// stages, lead heat classification, and the interaction event vocabulary.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Pipeline stages a contact moves through. Transitions happen via the stage
// progression engine or an explicit manual override; the override is recorded
// in the audit trail as a non-automated change.
const (
	StageUnqualified = "UNQUALIFIED"
	StageProspect    = "PROSPECT"
	StageLead        = "LEAD"
	StageQualified   = "QUALIFIED"
	StageCustomer    = "CUSTOMER"
	StageLost        = "LOST"
)

var knownStages = map[string]struct{}{
	StageUnqualified: {},
	StageProspect:    {},
	StageLead:        {},
	StageQualified:   {},
	StageCustomer:    {},
	StageLost:        {},
}

// IsKnownStage reports whether stage is a valid pipeline stage.
func IsKnownStage(stage string) bool {
	_, ok := knownStages[stage]
	return ok
}

// IsTerminalStage reports whether a contact in this stage is excluded from
// automated progression (the bulk runner skips these).
func IsTerminalStage(stage string) bool {
	return stage == StageCustomer || stage == StageLost
}

// Heat is the qualitative urgency classification of a contact.
type Heat string

const (
	HeatCold Heat = "COLD"
	HeatWarm Heat = "WARM"
	HeatHot  Heat = "HOT"
)

// Classification thresholds. Fixed constants in both scoring modes.
const (
	HotThreshold  = 16.0
	WarmThreshold = 6.0
)

// HeatForScore maps a non-negative score to its heat level.
func HeatForScore(score float64) Heat {
	switch {
	case score >= HotThreshold:
		return HeatHot
	case score >= WarmThreshold:
		return HeatWarm
	default:
		return HeatCold
	}
}

// heatOrdinals orders heat levels for rule comparisons (COLD < WARM < HOT).
var heatOrdinals = map[Heat]int{
	HeatCold: 1,
	HeatWarm: 2,
	HeatHot:  3,
}

// Ordinal returns the numeric rank of the heat level, or 0 for unknown values.
func (h Heat) Ordinal() int {
	return heatOrdinals[h]
}

// AtLeast reports whether h is at or above the required heat level.
func (h Heat) AtLeast(required Heat) bool {
	return h.Ordinal() >= required.Ordinal()
}

// Contact is a sales lead for the venue.
type Contact struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	Email          *string
	Phone          *string
	Source         *string

	// Derived fields, recomputed whenever the interaction set changes.
	LeadHeatScore float64
	LeadHeat      Heat

	Status            string
	AssignedAgentID   *uuid.UUID
	LastInteractionAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
