// Package transport defines the HTTP request and response shapes for the
// progression module.
package transport

import (
	"encoding/json"
	"time"

	"venue_crm_backend/internal/progression/domain"
	"venue_crm_backend/internal/progression/repository"

	"github.com/google/uuid"
)

type CreateRuleRequest struct {
	Name             string          `json:"name" validate:"required,min=1,max=200"`
	FromStage        string          `json:"fromStage" validate:"required,oneof=UNQUALIFIED PROSPECT LEAD QUALIFIED CUSTOMER LOST"`
	ToStage          string          `json:"toStage" validate:"required,oneof=UNQUALIFIED PROSPECT LEAD QUALIFIED CUSTOMER LOST"`
	TriggerType      string          `json:"triggerType" validate:"required,oneof=INTERACTION_COUNT TIME_BASED LEAD_HEAT_INCREASE FORM_SUBMISSION EMAIL_ENGAGEMENT"`
	TriggerCondition json.RawMessage `json:"triggerCondition,omitempty"`
	Priority         int             `json:"priority" validate:"gte=0,lte=1000"`
	IsActive         *bool           `json:"isActive,omitempty"`
}

type UpdateRuleRequest struct {
	Name             *string         `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	FromStage        *string         `json:"fromStage,omitempty" validate:"omitempty,oneof=UNQUALIFIED PROSPECT LEAD QUALIFIED CUSTOMER LOST"`
	ToStage          *string         `json:"toStage,omitempty" validate:"omitempty,oneof=UNQUALIFIED PROSPECT LEAD QUALIFIED CUSTOMER LOST"`
	TriggerType      *string         `json:"triggerType,omitempty" validate:"omitempty,oneof=INTERACTION_COUNT TIME_BASED LEAD_HEAT_INCREASE FORM_SUBMISSION EMAIL_ENGAGEMENT"`
	TriggerCondition json.RawMessage `json:"triggerCondition,omitempty"`
	Priority         *int            `json:"priority,omitempty" validate:"omitempty,gte=0,lte=1000"`
	IsActive         *bool           `json:"isActive,omitempty"`
}

type RuleResponse struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	FromStage        string          `json:"fromStage"`
	ToStage          string          `json:"toStage"`
	TriggerType      string          `json:"triggerType"`
	TriggerCondition json.RawMessage `json:"triggerCondition"`
	Priority         int             `json:"priority"`
	IsActive         bool            `json:"isActive"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

type SeedResponse struct {
	Created int `json:"created"`
}

type ScheduleRunRequest struct {
	DelayMinutes int `json:"delayMinutes" validate:"gte=0,lte=10080"`
}

type ScheduleRunResponse struct {
	RunAt time.Time `json:"runAt"`
}

func ToRuleResponse(rule domain.StageProgressionRule) RuleResponse {
	return RuleResponse{
		ID:               rule.ID,
		Name:             rule.Name,
		FromStage:        rule.FromStage,
		ToStage:          rule.ToStage,
		TriggerType:      rule.TriggerType,
		TriggerCondition: rule.TriggerCondition,
		Priority:         rule.Priority,
		IsActive:         rule.IsActive,
		CreatedAt:        rule.CreatedAt,
		UpdatedAt:        rule.UpdatedAt,
	}
}

func ToRuleListResponse(rules []domain.StageProgressionRule) []RuleResponse {
	items := make([]RuleResponse, 0, len(rules))
	for _, rule := range rules {
		items = append(items, ToRuleResponse(rule))
	}
	return items
}

// ToCreateParams converts the request into repository parameters.
func (r CreateRuleRequest) ToCreateParams(organizationID uuid.UUID) repository.CreateRuleParams {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return repository.CreateRuleParams{
		OrganizationID:   organizationID,
		Name:             r.Name,
		FromStage:        r.FromStage,
		ToStage:          r.ToStage,
		TriggerType:      r.TriggerType,
		TriggerCondition: r.TriggerCondition,
		Priority:         r.Priority,
		IsActive:         active,
	}
}

// ToUpdateParams converts the request into repository parameters.
func (r UpdateRuleRequest) ToUpdateParams() repository.UpdateRuleParams {
	return repository.UpdateRuleParams{
		Name:             r.Name,
		FromStage:        r.FromStage,
		ToStage:          r.ToStage,
		TriggerType:      r.TriggerType,
		TriggerCondition: r.TriggerCondition,
		Priority:         r.Priority,
		IsActive:         r.IsActive,
	}
}
