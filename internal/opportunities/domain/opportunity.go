// Package domain holds the opportunity types used for deal tracking and
// revenue forecasting.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Opportunity stages. CLOSED_WON and CLOSED_LOST are terminal.
const (
	StageProspect    = "PROSPECT"
	StageQualified   = "QUALIFIED"
	StageProposal    = "PROPOSAL"
	StageNegotiation = "NEGOTIATION"
	StageClosedWon   = "CLOSED_WON"
	StageClosedLost  = "CLOSED_LOST"
)

var knownStages = map[string]struct{}{
	StageProspect:    {},
	StageQualified:   {},
	StageProposal:    {},
	StageNegotiation: {},
	StageClosedWon:   {},
	StageClosedLost:  {},
}

// IsKnownStage reports whether stage is a valid opportunity stage.
func IsKnownStage(stage string) bool {
	_, ok := knownStages[stage]
	return ok
}

// IsClosedStage reports whether the stage is terminal.
func IsClosedStage(stage string) bool {
	return stage == StageClosedWon || stage == StageClosedLost
}

// Opportunity is a potential booking tied to a contact. ValueCents is the
// expected deal size; Probability is the close chance in whole percent.
type Opportunity struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	ContactID      uuid.UUID
	Title          string
	Stage          string
	ValueCents     int64
	Probability    int
	EventDate      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// WeightedValueCents is the probability-weighted deal value used in
// forecasting, truncated to whole cents.
func (o Opportunity) WeightedValueCents() int64 {
	return o.ValueCents * int64(o.Probability) / 100
}
