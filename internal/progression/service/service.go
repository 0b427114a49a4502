// Package service implements the progression use cases: rule management,
// single-contact evaluation with its side effects, and the bulk runner.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	contactdomain "venue_crm_backend/internal/contacts/domain"
	contactrepo "venue_crm_backend/internal/contacts/repository"
	"venue_crm_backend/internal/events"
	"venue_crm_backend/internal/progression/domain"
	"venue_crm_backend/internal/progression/engine"
	"venue_crm_backend/internal/progression/repository"
	"venue_crm_backend/platform/apperr"
	"venue_crm_backend/platform/config"
	"venue_crm_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// BulkScheduler defers a bulk run to the background job system.
type BulkScheduler interface {
	ScheduleBulkRun(ctx context.Context, tenantID uuid.UUID, runAt time.Time) error
}

// Service orchestrates rule storage, the pure engine, and the contact store.
type Service struct {
	rules        repository.RulesRepository
	contacts     contactrepo.ContactsRepository
	interactions contactrepo.InteractionsRepository
	bus          events.Bus
	cfg          config.ProgressionConfig
	log          *logger.Logger
	scheduler    BulkScheduler
}

// SetBulkScheduler wires the background job client. Called from the
// composition root; when unset, deferred runs are rejected.
func (s *Service) SetBulkScheduler(scheduler BulkScheduler) {
	s.scheduler = scheduler
}

// New creates a new progression service.
func New(rules repository.RulesRepository, contacts contactrepo.ContactsRepository, interactions contactrepo.InteractionsRepository, bus events.Bus, cfg config.ProgressionConfig, log *logger.Logger) *Service {
	return &Service{
		rules:        rules,
		contacts:     contacts,
		interactions: interactions,
		bus:          bus,
		cfg:          cfg,
		log:          log,
	}
}

// Rule management

// CreateRule validates and stores a new rule.
func (s *Service) CreateRule(ctx context.Context, params repository.CreateRuleParams) (domain.StageProgressionRule, error) {
	if err := validateRuleFields(params.FromStage, params.ToStage, params.TriggerType, params.TriggerCondition); err != nil {
		return domain.StageProgressionRule{}, err
	}
	return s.rules.Create(ctx, params)
}

// GetRule retrieves a rule by ID.
func (s *Service) GetRule(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (domain.StageProgressionRule, error) {
	return s.rules.GetByID(ctx, id, tenantID)
}

// ListRules returns all of the organization's rules.
func (s *Service) ListRules(ctx context.Context, tenantID uuid.UUID) ([]domain.StageProgressionRule, error) {
	return s.rules.List(ctx, tenantID)
}

// UpdateRule validates and applies a partial rule update.
func (s *Service) UpdateRule(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, params repository.UpdateRuleParams) (domain.StageProgressionRule, error) {
	current, err := s.rules.GetByID(ctx, id, tenantID)
	if err != nil {
		return domain.StageProgressionRule{}, err
	}

	// Validate against the merged state so a condition change is checked
	// against the effective trigger type.
	fromStage := current.FromStage
	if params.FromStage != nil {
		fromStage = *params.FromStage
	}
	toStage := current.ToStage
	if params.ToStage != nil {
		toStage = *params.ToStage
	}
	triggerType := current.TriggerType
	if params.TriggerType != nil {
		triggerType = *params.TriggerType
	}
	condition := current.TriggerCondition
	if len(params.TriggerCondition) > 0 {
		condition = params.TriggerCondition
	}
	if err := validateRuleFields(fromStage, toStage, triggerType, condition); err != nil {
		return domain.StageProgressionRule{}, err
	}

	return s.rules.Update(ctx, id, tenantID, params)
}

// DeleteRule removes a rule.
func (s *Service) DeleteRule(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) error {
	return s.rules.Delete(ctx, id, tenantID)
}

func validateRuleFields(fromStage, toStage, triggerType string, condition json.RawMessage) error {
	if !contactdomain.IsKnownStage(fromStage) {
		return apperr.Validation(fmt.Sprintf("unknown fromStage %q", fromStage))
	}
	if !contactdomain.IsKnownStage(toStage) {
		return apperr.Validation(fmt.Sprintf("unknown toStage %q", toStage))
	}
	if !domain.IsKnownTriggerType(triggerType) {
		return apperr.Validation(fmt.Sprintf("unknown trigger type %q", triggerType))
	}
	if err := domain.ValidateCondition(triggerType, condition); err != nil {
		return apperr.Validation(err.Error())
	}
	return nil
}

// Evaluation

// EvaluateContact runs a single-contact evaluation and applies the winning
// rule, if any: patch the stage, append the audit record, publish the event.
func (s *Service) EvaluateContact(ctx context.Context, contactID uuid.UUID, tenantID uuid.UUID) (engine.Result, error) {
	contact, err := s.contacts.GetByID(ctx, contactID, tenantID)
	if err != nil {
		return engine.Result{}, err
	}

	if contactdomain.IsTerminalStage(contact.Status) {
		return engine.Result{Progressed: false, Reason: "contact is in a terminal stage"}, nil
	}

	rules, err := s.rules.ListActiveByFromStage(ctx, tenantID, contact.Status)
	if err != nil {
		return engine.Result{}, err
	}

	history, err := s.interactions.ListByContact(ctx, contactID, tenantID)
	if err != nil {
		return engine.Result{}, err
	}

	result := engine.Evaluate(contact, history, rules, time.Now().UTC())
	if !result.Progressed {
		return result, nil
	}

	if err := s.applyProgression(ctx, contact, rules, result); err != nil {
		return engine.Result{}, err
	}
	return result, nil
}

func (s *Service) applyProgression(ctx context.Context, contact contactdomain.Contact, rules []domain.StageProgressionRule, result engine.Result) error {
	if err := s.contacts.UpdateStatus(ctx, contact.ID, contact.OrganizationID, result.ToStage); err != nil {
		return fmt.Errorf("apply progression: %w", err)
	}

	var winning *domain.StageProgressionRule
	for i := range rules {
		if rules[i].ID == result.RuleID {
			winning = &rules[i]
			break
		}
	}

	metadata := map[string]any{
		"ruleId":    result.RuleID.String(),
		"fromStage": result.FromStage,
		"toStage":   result.ToStage,
		"automated": true,
	}
	if winning != nil {
		metadata["triggerType"] = winning.TriggerType
		metadata["triggerCondition"] = json.RawMessage(winning.TriggerCondition)
	}

	if _, err := s.interactions.Insert(ctx, contactrepo.CreateInteractionParams{
		ContactID:      contact.ID,
		OrganizationID: contact.OrganizationID,
		Type:           contactdomain.InteractionStageProgression,
		Metadata:       metadata,
	}); err != nil {
		return fmt.Errorf("append progression audit: %w", err)
	}

	s.log.Info("contact progressed",
		"contact_id", contact.ID,
		"from_stage", result.FromStage,
		"to_stage", result.ToStage,
		"rule_id", result.RuleID,
	)

	ruleID := result.RuleID
	s.bus.Publish(ctx, events.StageProgressed{
		BaseEvent: events.NewBaseEvent(),
		ContactID: contact.ID,
		TenantID:  contact.OrganizationID,
		FromStage: result.FromStage,
		ToStage:   result.ToStage,
		RuleID:    &ruleID,
		RuleName:  result.RuleName,
		Automated: true,
	})

	return nil
}

// Bulk runner

// ContactResult is one contact's outcome inside a bulk report.
type ContactResult struct {
	ContactID  uuid.UUID `json:"contactId"`
	Progressed bool      `json:"progressed"`
	FromStage  string    `json:"fromStage,omitempty"`
	ToStage    string    `json:"toStage,omitempty"`
	RuleID     uuid.UUID `json:"ruleId,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// BulkReport summarizes a bulk run over all non-terminal contacts.
type BulkReport struct {
	TotalEvaluated   int             `json:"totalEvaluated"`
	ProgressionsMade int             `json:"progressionsMade"`
	Results          []ContactResult `json:"results"`
}

// RunBulk evaluates every non-terminal contact of the organization. Contacts
// are evaluated independently, at most cfg.GetBulkConcurrency() at a time; a
// failure on one contact is captured in its result and never aborts the rest.
// Evaluation within one contact is never parallelized.
func (s *Service) RunBulk(ctx context.Context, tenantID uuid.UUID) (BulkReport, error) {
	contacts, err := s.contacts.ListNonTerminal(ctx, tenantID, s.cfg.GetBulkBatchSize())
	if err != nil {
		return BulkReport{}, err
	}

	concurrency := s.cfg.GetBulkConcurrency()
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]ContactResult, len(contacts))
	var mu sync.Mutex
	progressions := 0

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)

	for i, contact := range contacts {
		group.Go(func() error {
			outcome := ContactResult{ContactID: contact.ID}

			result, err := s.EvaluateContact(groupCtx, contact.ID, tenantID)
			if err != nil {
				outcome.Error = err.Error()
				s.log.Error("bulk evaluation failed for contact", "contact_id", contact.ID, "error", err)
			} else {
				outcome.Progressed = result.Progressed
				outcome.FromStage = result.FromStage
				outcome.ToStage = result.ToStage
				outcome.RuleID = result.RuleID
			}

			mu.Lock()
			results[i] = outcome
			if outcome.Progressed {
				progressions++
			}
			mu.Unlock()

			// Per-contact errors are isolated; only report them.
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return BulkReport{}, err
	}

	report := BulkReport{
		TotalEvaluated:   len(contacts),
		ProgressionsMade: progressions,
		Results:          results,
	}

	s.log.Info("bulk progression run finished",
		"tenant_id", tenantID,
		"total_evaluated", report.TotalEvaluated,
		"progressions_made", report.ProgressionsMade,
	)

	return report, nil
}

// ScheduleBulkRun enqueues a bulk run to execute at runAt instead of
// running it inline.
func (s *Service) ScheduleBulkRun(ctx context.Context, tenantID uuid.UUID, runAt time.Time) error {
	if s.scheduler == nil {
		return apperr.Conflict("background job system is not configured")
	}
	if err := s.scheduler.ScheduleBulkRun(ctx, tenantID, runAt); err != nil {
		return fmt.Errorf("schedule bulk run: %w", err)
	}

	s.log.Info("bulk progression run scheduled", "tenant_id", tenantID, "run_at", runAt)
	return nil
}
