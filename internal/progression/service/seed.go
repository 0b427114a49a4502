package service

import (
	"context"
	"encoding/json"

	"venue_crm_backend/internal/contacts/domain"
	progdomain "venue_crm_backend/internal/progression/domain"
	"venue_crm_backend/internal/progression/repository"

	"github.com/google/uuid"
)

// defaultRules is the fixed starter rule set seeded once per organization.
var defaultRules = []struct {
	Name        string
	FromStage   string
	ToStage     string
	TriggerType string
	Condition   string
	Priority    int
}{
	{
		Name:        "Form submission qualifies prospect",
		FromStage:   domain.StageUnqualified,
		ToStage:     domain.StageProspect,
		TriggerType: progdomain.TriggerFormSubmission,
		Condition:   "{}",
		Priority:    100,
	},
	{
		Name:        "Site visit fast-track",
		FromStage:   domain.StageProspect,
		ToStage:     domain.StageQualified,
		TriggerType: progdomain.TriggerLeadHeatIncrease,
		Condition:   `{"minHeatLevel":"HOT","requiredInteractions":["SITE_VISIT"]}`,
		Priority:    95,
	},
	{
		Name:        "Email engagement advances prospect",
		FromStage:   domain.StageProspect,
		ToStage:     domain.StageLead,
		TriggerType: progdomain.TriggerEmailEngagement,
		Condition:   `{"minEngagementScore":3}`,
		Priority:    90,
	},
	{
		Name:        "Quoted warm lead qualifies",
		FromStage:   domain.StageLead,
		ToStage:     domain.StageQualified,
		TriggerType: progdomain.TriggerLeadHeatIncrease,
		Condition:   `{"minHeatLevel":"WARM","requiredInteractions":["PRICE_QUOTE"]}`,
		Priority:    80,
	},
	{
		Name:        "Stale unqualified contact is lost",
		FromStage:   domain.StageUnqualified,
		ToStage:     domain.StageLost,
		TriggerType: progdomain.TriggerTimeBased,
		Condition:   `{"daysSinceLastInteraction":30,"noResponseToEmails":2}`,
		Priority:    10,
	},
}

// SeedDefaults installs the starter rule set for an organization that has no
// rules yet. Safe to call repeatedly: a non-empty rule set makes it a no-op.
func (s *Service) SeedDefaults(ctx context.Context, tenantID uuid.UUID) (int, error) {
	count, err := s.rules.Count(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	created := 0
	for _, seed := range defaultRules {
		_, err := s.rules.Create(ctx, repository.CreateRuleParams{
			OrganizationID:   tenantID,
			Name:             seed.Name,
			FromStage:        seed.FromStage,
			ToStage:          seed.ToStage,
			TriggerType:      seed.TriggerType,
			TriggerCondition: json.RawMessage(seed.Condition),
			Priority:         seed.Priority,
			IsActive:         true,
		})
		if err != nil {
			return created, err
		}
		created++
	}

	s.log.Info("default progression rules seeded", "tenant_id", tenantID, "count", created)
	return created, nil
}
