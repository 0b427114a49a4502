package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	contactdomain "venue_crm_backend/internal/contacts/domain"
	contactrepo "venue_crm_backend/internal/contacts/repository"
	"venue_crm_backend/internal/events"
	"venue_crm_backend/internal/progression/domain"
	"venue_crm_backend/internal/progression/repository"
	"venue_crm_backend/platform/apperr"
	"venue_crm_backend/platform/logger"

	"github.com/google/uuid"
)

// In-memory fakes for the repository boundaries.

type fakeRules struct {
	rules []domain.StageProgressionRule
}

func (f *fakeRules) Create(_ context.Context, params repository.CreateRuleParams) (domain.StageProgressionRule, error) {
	rule := domain.StageProgressionRule{
		ID:               uuid.New(),
		OrganizationID:   params.OrganizationID,
		Name:             params.Name,
		FromStage:        params.FromStage,
		ToStage:          params.ToStage,
		TriggerType:      params.TriggerType,
		TriggerCondition: params.TriggerCondition,
		Priority:         params.Priority,
		IsActive:         params.IsActive,
		CreatedAt:        time.Now().UTC(),
		UpdatedAt:        time.Now().UTC(),
	}
	f.rules = append(f.rules, rule)
	return rule, nil
}

func (f *fakeRules) GetByID(_ context.Context, id uuid.UUID, _ uuid.UUID) (domain.StageProgressionRule, error) {
	for _, rule := range f.rules {
		if rule.ID == id {
			return rule, nil
		}
	}
	return domain.StageProgressionRule{}, apperr.NotFound("progression rule not found")
}

func (f *fakeRules) List(_ context.Context, _ uuid.UUID) ([]domain.StageProgressionRule, error) {
	return f.rules, nil
}

func (f *fakeRules) Update(_ context.Context, id uuid.UUID, _ uuid.UUID, params repository.UpdateRuleParams) (domain.StageProgressionRule, error) {
	for i := range f.rules {
		if f.rules[i].ID == id {
			if params.Name != nil {
				f.rules[i].Name = *params.Name
			}
			if params.IsActive != nil {
				f.rules[i].IsActive = *params.IsActive
			}
			return f.rules[i], nil
		}
	}
	return domain.StageProgressionRule{}, apperr.NotFound("progression rule not found")
}

func (f *fakeRules) Delete(_ context.Context, id uuid.UUID, _ uuid.UUID) error {
	for i := range f.rules {
		if f.rules[i].ID == id {
			f.rules = append(f.rules[:i], f.rules[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("progression rule not found")
}

func (f *fakeRules) ListActiveByFromStage(_ context.Context, _ uuid.UUID, fromStage string) ([]domain.StageProgressionRule, error) {
	matching := make([]domain.StageProgressionRule, 0)
	for _, rule := range f.rules {
		if rule.IsActive && rule.FromStage == fromStage {
			matching = append(matching, rule)
		}
	}
	return matching, nil
}

func (f *fakeRules) Count(_ context.Context, _ uuid.UUID) (int, error) {
	return len(f.rules), nil
}

type fakeContacts struct {
	mu       sync.Mutex
	contacts map[uuid.UUID]contactdomain.Contact
	statuses map[uuid.UUID]string

	// failGet forces GetByID errors while ListNonTerminal still returns the
	// contact, simulating a load failure mid bulk run.
	failGet map[uuid.UUID]bool
}

func newFakeContacts(contacts ...contactdomain.Contact) *fakeContacts {
	f := &fakeContacts{
		contacts: make(map[uuid.UUID]contactdomain.Contact),
		statuses: make(map[uuid.UUID]string),
		failGet:  make(map[uuid.UUID]bool),
	}
	for _, c := range contacts {
		f.contacts[c.ID] = c
	}
	return f
}

func (f *fakeContacts) Create(_ context.Context, _ contactrepo.CreateContactParams) (contactdomain.Contact, error) {
	panic("not used")
}

func (f *fakeContacts) GetByID(_ context.Context, id uuid.UUID, _ uuid.UUID) (contactdomain.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet[id] {
		return contactdomain.Contact{}, apperr.NotFound("contact not found")
	}
	contact, ok := f.contacts[id]
	if !ok {
		return contactdomain.Contact{}, apperr.NotFound("contact not found")
	}
	return contact, nil
}

func (f *fakeContacts) List(_ context.Context, _ uuid.UUID, _ contactrepo.ListContactsParams) ([]contactdomain.Contact, int, error) {
	panic("not used")
}

func (f *fakeContacts) Update(_ context.Context, _ uuid.UUID, _ uuid.UUID, _ contactrepo.UpdateContactParams) (contactdomain.Contact, error) {
	panic("not used")
}

func (f *fakeContacts) UpdateHeat(_ context.Context, _ uuid.UUID, _ uuid.UUID, _ float64, _ contactdomain.Heat) error {
	return nil
}

func (f *fakeContacts) UpdateStatus(_ context.Context, id uuid.UUID, _ uuid.UUID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	contact, ok := f.contacts[id]
	if !ok {
		return apperr.NotFound("contact not found")
	}
	contact.Status = status
	f.contacts[id] = contact
	f.statuses[id] = status
	return nil
}

func (f *fakeContacts) TouchLastInteraction(_ context.Context, _ uuid.UUID, _ uuid.UUID, _ time.Time) error {
	return nil
}

func (f *fakeContacts) FindByEmail(_ context.Context, _ uuid.UUID, _ string) (contactdomain.Contact, error) {
	return contactdomain.Contact{}, apperr.NotFound("contact not found")
}

func (f *fakeContacts) ListNonTerminal(_ context.Context, _ uuid.UUID, _ int) ([]contactdomain.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]contactdomain.Contact, 0, len(f.contacts))
	for _, contact := range f.contacts {
		if !contactdomain.IsTerminalStage(contact.Status) {
			out = append(out, contact)
		}
	}
	return out, nil
}

type fakeInteractions struct {
	mu       sync.Mutex
	byID     map[uuid.UUID][]contactdomain.Interaction
	appended []contactrepo.CreateInteractionParams
}

func newFakeInteractions() *fakeInteractions {
	return &fakeInteractions{byID: make(map[uuid.UUID][]contactdomain.Interaction)}
}

func (f *fakeInteractions) add(contactID uuid.UUID, interactionType string, at time.Time) {
	f.byID[contactID] = append(f.byID[contactID], contactdomain.Interaction{
		ID:        uuid.New(),
		ContactID: contactID,
		Type:      interactionType,
		CreatedAt: at,
	})
}

func (f *fakeInteractions) Insert(_ context.Context, params contactrepo.CreateInteractionParams) (contactdomain.Interaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, params)
	interaction := contactdomain.Interaction{
		ID:        uuid.New(),
		ContactID: params.ContactID,
		Type:      params.Type,
		Metadata:  params.Metadata,
		CreatedAt: time.Now().UTC(),
	}
	f.byID[params.ContactID] = append(f.byID[params.ContactID], interaction)
	return interaction, nil
}

func (f *fakeInteractions) GetByID(_ context.Context, _ uuid.UUID, _ uuid.UUID) (contactdomain.Interaction, error) {
	panic("not used")
}

func (f *fakeInteractions) ListByContact(_ context.Context, contactID uuid.UUID, _ uuid.UUID) ([]contactdomain.Interaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]contactdomain.Interaction(nil), f.byID[contactID]...), nil
}

func (f *fakeInteractions) Delete(_ context.Context, _ uuid.UUID, _ uuid.UUID) error {
	panic("not used")
}

type fakeProgressionConfig struct {
	concurrency int
	batchSize   int
}

func (c fakeProgressionConfig) GetBulkConcurrency() int { return c.concurrency }
func (c fakeProgressionConfig) GetBulkBatchSize() int   { return c.batchSize }

func newTestService(rules *fakeRules, contacts *fakeContacts, interactions *fakeInteractions) *Service {
	log := logger.New("development")
	bus := events.NewInMemoryBus(log)
	return New(rules, contacts, interactions, bus, fakeProgressionConfig{concurrency: 4, batchSize: 100}, log)
}

func TestEvaluateContact_AppliesWinningRuleWithAudit(t *testing.T) {
	tenantID := uuid.New()
	contact := contactdomain.Contact{
		ID:             uuid.New(),
		OrganizationID: tenantID,
		Status:         contactdomain.StageUnqualified,
		LeadHeat:       contactdomain.HeatCold,
	}

	contacts := newFakeContacts(contact)
	interactions := newFakeInteractions()
	interactions.add(contact.ID, contactdomain.InteractionInfoRequest, time.Now().Add(-time.Hour))
	interactions.add(contact.ID, contactdomain.InteractionInfoRequest, time.Now().Add(-30*time.Minute))

	rules := &fakeRules{}
	svc := newTestService(rules, contacts, interactions)

	rule, err := svc.CreateRule(context.Background(), repository.CreateRuleParams{
		OrganizationID:   tenantID,
		Name:             "Two info requests advance",
		FromStage:        contactdomain.StageUnqualified,
		ToStage:          contactdomain.StageProspect,
		TriggerType:      domain.TriggerInteractionCount,
		TriggerCondition: json.RawMessage(`{"interactionTypes":["INFO_REQUEST"],"minCount":2}`),
		Priority:         50,
		IsActive:         true,
	})
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}

	result, err := svc.EvaluateContact(context.Background(), contact.ID, tenantID)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if !result.Progressed {
		t.Fatal("expected a progression")
	}
	if result.ToStage != contactdomain.StageProspect {
		t.Fatalf("expected PROSPECT, got %s", result.ToStage)
	}
	if got := contacts.statuses[contact.ID]; got != contactdomain.StageProspect {
		t.Fatalf("expected status persisted as PROSPECT, got %q", got)
	}

	if len(interactions.appended) != 1 {
		t.Fatalf("expected exactly one audit interaction, got %d", len(interactions.appended))
	}
	audit := interactions.appended[0]
	if audit.Type != contactdomain.InteractionStageProgression {
		t.Fatalf("expected STAGE_PROGRESSION audit type, got %s", audit.Type)
	}
	if audit.Metadata["automated"] != true {
		t.Fatalf("expected automated:true metadata, got %v", audit.Metadata["automated"])
	}
	if audit.Metadata["ruleId"] != rule.ID.String() {
		t.Fatalf("expected ruleId %s, got %v", rule.ID, audit.Metadata["ruleId"])
	}
	if audit.Metadata["triggerType"] != domain.TriggerInteractionCount {
		t.Fatalf("expected triggerType in audit metadata, got %v", audit.Metadata["triggerType"])
	}
}

func TestEvaluateContact_TerminalStageShortCircuits(t *testing.T) {
	tenantID := uuid.New()
	contact := contactdomain.Contact{
		ID:             uuid.New(),
		OrganizationID: tenantID,
		Status:         contactdomain.StageCustomer,
	}

	svc := newTestService(&fakeRules{}, newFakeContacts(contact), newFakeInteractions())

	result, err := svc.EvaluateContact(context.Background(), contact.ID, tenantID)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if result.Progressed {
		t.Fatal("expected no progression for a terminal-stage contact")
	}
	if result.Reason == "" {
		t.Fatal("expected a diagnostic reason")
	}
}

func TestCreateRule_RejectsInvalidInput(t *testing.T) {
	svc := newTestService(&fakeRules{}, newFakeContacts(), newFakeInteractions())

	cases := []repository.CreateRuleParams{
		{FromStage: "NONSENSE", ToStage: contactdomain.StageLead, TriggerType: domain.TriggerFormSubmission},
		{FromStage: contactdomain.StageProspect, ToStage: "NONSENSE", TriggerType: domain.TriggerFormSubmission},
		{FromStage: contactdomain.StageProspect, ToStage: contactdomain.StageLead, TriggerType: "WEATHER_BASED"},
		{
			FromStage:        contactdomain.StageProspect,
			ToStage:          contactdomain.StageLead,
			TriggerType:      domain.TriggerInteractionCount,
			TriggerCondition: json.RawMessage(`{"minCount":0}`),
		},
	}

	for i, params := range cases {
		if _, err := svc.CreateRule(context.Background(), params); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestRunBulk_IsolatesPerContactFailures(t *testing.T) {
	tenantID := uuid.New()

	healthy := contactdomain.Contact{
		ID:             uuid.New(),
		OrganizationID: tenantID,
		Status:         contactdomain.StageUnqualified,
	}
	quiet := contactdomain.Contact{
		ID:             uuid.New(),
		OrganizationID: tenantID,
		Status:         contactdomain.StageUnqualified,
	}
	contacts := newFakeContacts(healthy, quiet)

	interactions := newFakeInteractions()
	interactions.add(healthy.ID, contactdomain.InteractionFormSubmitted, time.Now().Add(-time.Hour))

	rules := &fakeRules{}
	svc := newTestService(rules, contacts, interactions)

	if _, err := svc.CreateRule(context.Background(), repository.CreateRuleParams{
		OrganizationID: tenantID,
		Name:           "Form submission advances",
		FromStage:      contactdomain.StageUnqualified,
		ToStage:        contactdomain.StageProspect,
		TriggerType:    domain.TriggerFormSubmission,
		Priority:       100,
		IsActive:       true,
	}); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	report, err := svc.RunBulk(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("bulk run: %v", err)
	}

	if report.TotalEvaluated != 2 {
		t.Fatalf("expected 2 contacts evaluated, got %d", report.TotalEvaluated)
	}
	if report.ProgressionsMade != 1 {
		t.Fatalf("expected 1 progression, got %d", report.ProgressionsMade)
	}
	if len(report.Results) != 2 {
		t.Fatalf("expected a result per contact, got %d", len(report.Results))
	}

	for _, result := range report.Results {
		if result.ContactID == healthy.ID && !result.Progressed {
			t.Fatal("expected the healthy contact to progress")
		}
	}
}

func TestRunBulk_ContactErrorDoesNotAbortOthers(t *testing.T) {
	tenantID := uuid.New()

	healthy := contactdomain.Contact{
		ID:             uuid.New(),
		OrganizationID: tenantID,
		Status:         contactdomain.StageUnqualified,
	}
	broken := contactdomain.Contact{
		ID:             uuid.New(),
		OrganizationID: tenantID,
		Status:         contactdomain.StageUnqualified,
	}

	contacts := newFakeContacts(healthy, broken)
	interactions := newFakeInteractions()
	interactions.add(healthy.ID, contactdomain.InteractionFormSubmitted, time.Now().Add(-time.Hour))

	rules := &fakeRules{}
	svc := newTestService(rules, contacts, interactions)

	if _, err := svc.CreateRule(context.Background(), repository.CreateRuleParams{
		OrganizationID: tenantID,
		Name:           "Form submission advances",
		FromStage:      contactdomain.StageUnqualified,
		ToStage:        contactdomain.StageProspect,
		TriggerType:    domain.TriggerFormSubmission,
		Priority:       100,
		IsActive:       true,
	}); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	contacts.failGet[broken.ID] = true

	report, err := svc.RunBulk(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("bulk run: %v", err)
	}

	var healthyResult, brokenResult *ContactResult
	for i := range report.Results {
		switch report.Results[i].ContactID {
		case healthy.ID:
			healthyResult = &report.Results[i]
		case broken.ID:
			brokenResult = &report.Results[i]
		}
	}

	if healthyResult == nil || !healthyResult.Progressed {
		t.Fatal("expected the healthy contact to progress despite the sibling failure")
	}
	if brokenResult == nil {
		t.Fatal("expected a result entry for the broken contact")
	}
	if brokenResult.Error == "" {
		t.Fatal("expected the broken contact's error to be captured in its result")
	}
	if brokenResult.Progressed {
		t.Fatal("expected no progression for the broken contact")
	}
}

func TestSeedDefaults_IdempotentPerOrganization(t *testing.T) {
	tenantID := uuid.New()
	rules := &fakeRules{}
	svc := newTestService(rules, newFakeContacts(), newFakeInteractions())

	created, err := svc.SeedDefaults(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if created == 0 {
		t.Fatal("expected the first seed to create rules")
	}

	again, err := svc.SeedDefaults(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if again != 0 {
		t.Fatalf("expected the second seed to be a no-op, created %d", again)
	}

	for _, rule := range rules.rules {
		if err := domain.ValidateCondition(rule.TriggerType, rule.TriggerCondition); err != nil {
			t.Fatalf("seeded rule %q has an invalid condition: %v", rule.Name, err)
		}
	}
}
