// Package engine implements the stage progression decision logic as a pure
// computation over a contact, its interaction history, and the applicable
// rules. Persistence and event publishing live in the service layer.
package engine

import (
	"sort"
	"time"

	contactdomain "venue_crm_backend/internal/contacts/domain"
	"venue_crm_backend/internal/progression/domain"

	"github.com/google/uuid"
)

// Result describes the outcome of a single-contact evaluation. When no rule
// matched, Reason carries a diagnostic and RulesEvaluated the count of rules
// whose predicate ran.
type Result struct {
	Progressed     bool      `json:"progressed"`
	FromStage      string    `json:"fromStage,omitempty"`
	ToStage        string    `json:"toStage,omitempty"`
	RuleID         uuid.UUID `json:"ruleId,omitempty"`
	RuleName       string    `json:"ruleName,omitempty"`
	RulesEvaluated int       `json:"rulesEvaluated"`
	Reason         string    `json:"reason,omitempty"`
}

// Evaluate picks the winning rule for a contact, if any. Rules whose
// fromStage does not equal the contact's status or that are inactive are
// skipped; the rest are evaluated in descending priority order (stable on
// ties) and the first match wins. A malformed condition makes its rule
// non-matching, never an error.
func Evaluate(contact contactdomain.Contact, interactions []contactdomain.Interaction, rules []domain.StageProgressionRule, now time.Time) Result {
	applicable := make([]domain.StageProgressionRule, 0, len(rules))
	for _, rule := range rules {
		if rule.IsActive && rule.FromStage == contact.Status {
			applicable = append(applicable, rule)
		}
	}

	if len(applicable) == 0 {
		return Result{Progressed: false, Reason: "no applicable rules"}
	}

	sort.SliceStable(applicable, func(i, j int) bool {
		return applicable[i].Priority > applicable[j].Priority
	})

	for i, rule := range applicable {
		if conditionHolds(rule, contact, interactions, now) {
			return Result{
				Progressed:     true,
				FromStage:      contact.Status,
				ToStage:        rule.ToStage,
				RuleID:         rule.ID,
				RuleName:       rule.Name,
				RulesEvaluated: i + 1,
			}
		}
	}

	return Result{
		Progressed:     false,
		RulesEvaluated: len(applicable),
		Reason:         "no rule matched",
	}
}

func conditionHolds(rule domain.StageProgressionRule, contact contactdomain.Contact, interactions []contactdomain.Interaction, now time.Time) bool {
	switch rule.TriggerType {
	case domain.TriggerInteractionCount:
		cond, err := domain.DecodeInteractionCount(rule.TriggerCondition)
		if err != nil {
			return false
		}
		return matchInteractionCount(cond, interactions)
	case domain.TriggerTimeBased:
		cond, err := domain.DecodeTimeBased(rule.TriggerCondition)
		if err != nil {
			return false
		}
		return matchTimeBased(cond, interactions, now)
	case domain.TriggerLeadHeatIncrease:
		cond, err := domain.DecodeLeadHeatIncrease(rule.TriggerCondition)
		if err != nil {
			return false
		}
		return matchLeadHeatIncrease(cond, contact, interactions)
	case domain.TriggerFormSubmission:
		return matchFormSubmission(interactions)
	case domain.TriggerEmailEngagement:
		cond, err := domain.DecodeEmailEngagement(rule.TriggerCondition)
		if err != nil {
			return false
		}
		return matchEmailEngagement(cond, interactions)
	default:
		// Unknown trigger types never match.
		return false
	}
}

func matchInteractionCount(cond domain.InteractionCountCondition, interactions []contactdomain.Interaction) bool {
	wanted := make(map[string]struct{}, len(cond.InteractionTypes))
	for _, t := range cond.InteractionTypes {
		wanted[t] = struct{}{}
	}

	count := 0
	for _, interaction := range interactions {
		if _, ok := wanted[interaction.Type]; ok {
			count++
		}
	}
	return count >= cond.MinCount
}

func matchTimeBased(cond domain.TimeBasedCondition, interactions []contactdomain.Interaction, now time.Time) bool {
	// With zero interactions there is no "last interaction" to measure from.
	if len(interactions) == 0 {
		return false
	}

	var latest time.Time
	for _, interaction := range interactions {
		if interaction.CreatedAt.After(latest) {
			latest = interaction.CreatedAt
		}
	}

	daysSince := now.Sub(latest).Hours() / 24
	if daysSince < cond.DaysSinceLastInteraction {
		return false
	}

	return countUnansweredEmails(interactions) >= cond.NoResponseToEmails
}

// countUnansweredEmails counts EMAIL_SENT events with no later EMAIL_REPLIED.
// A single reply answers every email sent before it; replies are not
// correlated to individual emails beyond timestamp ordering.
func countUnansweredEmails(interactions []contactdomain.Interaction) int {
	var lastReply time.Time
	for _, interaction := range interactions {
		if interaction.Type == contactdomain.InteractionEmailReplied && interaction.CreatedAt.After(lastReply) {
			lastReply = interaction.CreatedAt
		}
	}

	unanswered := 0
	for _, interaction := range interactions {
		if interaction.Type == contactdomain.InteractionEmailSent && interaction.CreatedAt.After(lastReply) {
			unanswered++
		}
	}
	return unanswered
}

func matchLeadHeatIncrease(cond domain.LeadHeatIncreaseCondition, contact contactdomain.Contact, interactions []contactdomain.Interaction) bool {
	if !contact.LeadHeat.AtLeast(contactdomain.Heat(cond.MinHeatLevel)) {
		return false
	}

	seen := make(map[string]struct{}, len(interactions))
	for _, interaction := range interactions {
		seen[interaction.Type] = struct{}{}
	}
	for _, required := range cond.RequiredInteractions {
		if _, ok := seen[required]; !ok {
			return false
		}
	}
	return true
}

func matchFormSubmission(interactions []contactdomain.Interaction) bool {
	for _, interaction := range interactions {
		if interaction.Type == contactdomain.InteractionFormSubmitted {
			return true
		}
	}
	return false
}

func matchEmailEngagement(cond domain.EmailEngagementCondition, interactions []contactdomain.Interaction) bool {
	count := 0
	for _, interaction := range interactions {
		switch interaction.Type {
		case contactdomain.InteractionEmailOpened,
			contactdomain.InteractionEmailClicked,
			contactdomain.InteractionEmailReplied:
			count++
		}
	}
	return count >= cond.MinEngagementScore
}
