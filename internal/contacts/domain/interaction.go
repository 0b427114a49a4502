package domain

import (
	"time"

	"github.com/google/uuid"
)

// Interaction event types. Social and engagement types carry scoring weight;
// the progression-domain types (FORM_SUBMITTED, EMAIL_SENT, ...) exist for
// rule evaluation and score zero.
const (
	InteractionSocialFollow  = "SOCIAL_FOLLOW"
	InteractionSocialLike    = "SOCIAL_LIKE"
	InteractionSocialComment = "SOCIAL_COMMENT"
	InteractionSocialMessage = "SOCIAL_MESSAGE"
	InteractionWebsiteVisit  = "WEBSITE_VISIT"
	InteractionInfoRequest   = "INFO_REQUEST"
	InteractionPriceQuote    = "PRICE_QUOTE"
	InteractionSiteVisit     = "SITE_VISIT"
	InteractionEmailOpen     = "EMAIL_OPEN"
	InteractionEmailClick    = "EMAIL_CLICK"
	InteractionPhoneCall     = "PHONE_CALL"
	InteractionMeeting       = "MEETING"
	InteractionOther         = "OTHER"

	InteractionFormSubmitted    = "FORM_SUBMITTED"
	InteractionEmailSent        = "EMAIL_SENT"
	InteractionEmailOpened      = "EMAIL_OPENED"
	InteractionEmailClicked     = "EMAIL_CLICKED"
	InteractionEmailReplied     = "EMAIL_REPLIED"
	InteractionMeetingScheduled = "MEETING_SCHEDULED"

	// InteractionStageProgression is the audit record appended by the
	// progression engine (and by manual stage overrides).
	InteractionStageProgression = "STAGE_PROGRESSION"
)

// interactionWeights is the single shared weight table used by both the
// simple and advanced scoring paths. Types absent from the table (including
// every progression-domain type) contribute zero.
var interactionWeights = map[string]float64{
	InteractionSocialFollow:  1,
	InteractionSocialLike:    1,
	InteractionSocialComment: 2,
	InteractionSocialMessage: 3,
	InteractionWebsiteVisit:  2,
	InteractionInfoRequest:   5,
	InteractionPriceQuote:    8,
	InteractionSiteVisit:     10,
	InteractionEmailOpen:     1,
	InteractionEmailClick:    2,
	InteractionPhoneCall:     5,
	InteractionMeeting:       8,
	InteractionOther:         1,
}

// InteractionWeight returns the scoring weight for an interaction type.
// Unknown types score 0; this must never be an error path.
func InteractionWeight(interactionType string) float64 {
	return interactionWeights[interactionType]
}

var knownInteractionTypes = func() map[string]struct{} {
	known := map[string]struct{}{
		InteractionFormSubmitted:    {},
		InteractionEmailSent:        {},
		InteractionEmailOpened:      {},
		InteractionEmailClicked:     {},
		InteractionEmailReplied:     {},
		InteractionMeetingScheduled: {},
		InteractionStageProgression: {},
	}
	for t := range interactionWeights {
		known[t] = struct{}{}
	}
	return known
}()

// IsKnownInteractionType reports whether the type belongs to the fixed
// enumeration. The boundary rejects unknown types on create; the engines
// themselves tolerate them.
func IsKnownInteractionType(interactionType string) bool {
	_, ok := knownInteractionTypes[interactionType]
	return ok
}

// Interaction is a single recorded touchpoint between the business and a
// contact. Immutable once written.
type Interaction struct {
	ID             uuid.UUID
	ContactID      uuid.UUID
	OrganizationID uuid.UUID
	Type           string
	Platform       *string
	Metadata       map[string]any
	CreatedAt      time.Time
}

// Age returns how old the interaction is at the reference time. A zero
// CreatedAt is treated as "now" so decay arithmetic stays defined.
func (i Interaction) Age(now time.Time) time.Duration {
	if i.CreatedAt.IsZero() {
		return 0
	}
	age := now.Sub(i.CreatedAt)
	if age < 0 {
		return 0
	}
	return age
}
