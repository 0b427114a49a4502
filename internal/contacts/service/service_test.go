package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"venue_crm_backend/internal/contacts/domain"
	"venue_crm_backend/internal/contacts/repository"
	"venue_crm_backend/internal/contacts/scoring"
	"venue_crm_backend/internal/events"
	"venue_crm_backend/platform/apperr"
	"venue_crm_backend/platform/logger"

	"github.com/google/uuid"
)

// fakeStore implements both repository interfaces and records the order of
// mutating calls so sequencing can be asserted.
type fakeStore struct {
	mu           sync.Mutex
	contacts     map[uuid.UUID]domain.Contact
	interactions map[uuid.UUID][]domain.Interaction
	calls        []string
}

func newFakeStore(contacts ...domain.Contact) *fakeStore {
	f := &fakeStore{
		contacts:     make(map[uuid.UUID]domain.Contact),
		interactions: make(map[uuid.UUID][]domain.Interaction),
	}
	for _, c := range contacts {
		f.contacts[c.ID] = c
	}
	return f
}

func (f *fakeStore) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeStore) Create(_ context.Context, params repository.CreateContactParams) (domain.Contact, error) {
	contact := domain.Contact{
		ID:             uuid.New(),
		OrganizationID: params.OrganizationID,
		Name:           params.Name,
		Email:          params.Email,
		Phone:          params.Phone,
		Source:         params.Source,
		LeadHeat:       domain.HeatCold,
		Status:         domain.StageUnqualified,
	}
	f.mu.Lock()
	f.contacts[contact.ID] = contact
	f.mu.Unlock()
	return contact, nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID, _ uuid.UUID) (domain.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	contact, ok := f.contacts[id]
	if !ok {
		return domain.Contact{}, apperr.NotFound("contact not found")
	}
	return contact, nil
}

func (f *fakeStore) List(_ context.Context, _ uuid.UUID, _ repository.ListContactsParams) ([]domain.Contact, int, error) {
	panic("not used")
}

func (f *fakeStore) Update(_ context.Context, _ uuid.UUID, _ uuid.UUID, _ repository.UpdateContactParams) (domain.Contact, error) {
	panic("not used")
}

func (f *fakeStore) UpdateHeat(_ context.Context, id uuid.UUID, _ uuid.UUID, score float64, heat domain.Heat) error {
	f.record("updateHeat")
	f.mu.Lock()
	defer f.mu.Unlock()
	contact := f.contacts[id]
	contact.LeadHeatScore = score
	contact.LeadHeat = heat
	f.contacts[id] = contact
	return nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id uuid.UUID, _ uuid.UUID, status string) error {
	f.record("updateStatus")
	f.mu.Lock()
	defer f.mu.Unlock()
	contact := f.contacts[id]
	contact.Status = status
	f.contacts[id] = contact
	return nil
}

func (f *fakeStore) TouchLastInteraction(_ context.Context, _ uuid.UUID, _ uuid.UUID, _ time.Time) error {
	return nil
}

func (f *fakeStore) FindByEmail(_ context.Context, _ uuid.UUID, _ string) (domain.Contact, error) {
	return domain.Contact{}, apperr.NotFound("contact not found")
}

func (f *fakeStore) ListNonTerminal(_ context.Context, _ uuid.UUID, _ int) ([]domain.Contact, error) {
	panic("not used")
}

func (f *fakeStore) Insert(_ context.Context, params repository.CreateInteractionParams) (domain.Interaction, error) {
	f.record("insert")
	interaction := domain.Interaction{
		ID:        uuid.New(),
		ContactID: params.ContactID,
		Type:      params.Type,
		Metadata:  params.Metadata,
		CreatedAt: time.Now().UTC(),
	}
	f.mu.Lock()
	f.interactions[params.ContactID] = append(f.interactions[params.ContactID], interaction)
	f.mu.Unlock()
	return interaction, nil
}

func (f *fakeStore) interactionGet(id uuid.UUID) (domain.Interaction, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, list := range f.interactions {
		for _, interaction := range list {
			if interaction.ID == id {
				return interaction, true
			}
		}
	}
	return domain.Interaction{}, false
}

func (f *fakeStore) GetByIDInteraction(id uuid.UUID) (domain.Interaction, error) {
	interaction, ok := f.interactionGet(id)
	if !ok {
		return domain.Interaction{}, apperr.NotFound("interaction not found")
	}
	return interaction, nil
}

func (f *fakeStore) ListByContact(_ context.Context, contactID uuid.UUID, _ uuid.UUID) ([]domain.Interaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Interaction(nil), f.interactions[contactID]...), nil
}

func (f *fakeStore) Delete(_ context.Context, id uuid.UUID, _ uuid.UUID) error {
	f.record("delete")
	f.mu.Lock()
	defer f.mu.Unlock()
	for contactID, list := range f.interactions {
		for i, interaction := range list {
			if interaction.ID == id {
				f.interactions[contactID] = append(list[:i], list[i+1:]...)
				return nil
			}
		}
	}
	return apperr.NotFound("interaction not found")
}

type fakeEvaluator struct {
	store *fakeStore
	err   error
	calls int
}

func (f *fakeEvaluator) EvaluateContact(_ context.Context, _ uuid.UUID, _ uuid.UUID) error {
	f.store.record("progression")
	f.calls++
	return f.err
}

func newTestService(store *fakeStore) (*Service, *fakeEvaluator) {
	log := logger.New("development")
	bus := events.NewInMemoryBus(log)
	scoringSvc := scoring.New(store, interactionsShim{store}, bus, log)
	svc := New(store, interactionsShim{store}, scoringSvc, bus, log)

	evaluator := &fakeEvaluator{store: store}
	svc.SetProgressionEvaluator(evaluator)
	return svc, evaluator
}

// interactionsShim adapts fakeStore's interaction GetByID to the repository
// signature (fakeStore.GetByID is taken by the contact lookup).
type interactionsShim struct {
	store *fakeStore
}

func (s interactionsShim) Insert(ctx context.Context, params repository.CreateInteractionParams) (domain.Interaction, error) {
	return s.store.Insert(ctx, params)
}

func (s interactionsShim) GetByID(_ context.Context, id uuid.UUID, _ uuid.UUID) (domain.Interaction, error) {
	return s.store.GetByIDInteraction(id)
}

func (s interactionsShim) ListByContact(ctx context.Context, contactID uuid.UUID, organizationID uuid.UUID) ([]domain.Interaction, error) {
	return s.store.ListByContact(ctx, contactID, organizationID)
}

func (s interactionsShim) Delete(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) error {
	return s.store.Delete(ctx, id, organizationID)
}

func testContact(tenantID uuid.UUID) domain.Contact {
	return domain.Contact{
		ID:             uuid.New(),
		OrganizationID: tenantID,
		Name:           "Test Contact",
		Status:         domain.StageUnqualified,
		LeadHeat:       domain.HeatCold,
	}
}

func TestRecordInteraction_SequencesWriteRecalcProgression(t *testing.T) {
	tenantID := uuid.New()
	contact := testContact(tenantID)
	store := newFakeStore(contact)
	svc, evaluator := newTestService(store)

	_, err := svc.RecordInteraction(context.Background(), repository.CreateInteractionParams{
		ContactID:      contact.ID,
		OrganizationID: tenantID,
		Type:           domain.InteractionSiteVisit,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	want := []string{"insert", "updateHeat", "progression"}
	if len(store.calls) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, store.calls)
	}
	for i, call := range want {
		if store.calls[i] != call {
			t.Fatalf("expected calls %v, got %v", want, store.calls)
		}
	}
	if evaluator.calls != 1 {
		t.Fatalf("expected exactly one progression evaluation, got %d", evaluator.calls)
	}

	updated, _ := store.GetByID(context.Background(), contact.ID, tenantID)
	if updated.LeadHeatScore != 10 {
		t.Fatalf("expected score 10 persisted before progression, got %v", updated.LeadHeatScore)
	}
}

func TestRecordInteraction_RejectsUnknownType(t *testing.T) {
	tenantID := uuid.New()
	contact := testContact(tenantID)
	store := newFakeStore(contact)
	svc, _ := newTestService(store)

	_, err := svc.RecordInteraction(context.Background(), repository.CreateInteractionParams{
		ContactID:      contact.ID,
		OrganizationID: tenantID,
		Type:           "SMOKE_SIGNAL",
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(store.calls) != 0 {
		t.Fatalf("expected nothing written, got calls %v", store.calls)
	}
}

func TestRecordInteraction_MissingContactWritesNothing(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)

	_, err := svc.RecordInteraction(context.Background(), repository.CreateInteractionParams{
		ContactID:      uuid.New(),
		OrganizationID: uuid.New(),
		Type:           domain.InteractionMeeting,
	})
	if err == nil {
		t.Fatal("expected not-found error")
	}
	if len(store.calls) != 0 {
		t.Fatalf("expected nothing written, got calls %v", store.calls)
	}
}

func TestRecordInteraction_ProgressionFailureDoesNotFailWrite(t *testing.T) {
	tenantID := uuid.New()
	contact := testContact(tenantID)
	store := newFakeStore(contact)
	svc, evaluator := newTestService(store)
	evaluator.err = errors.New("rules store down")

	interaction, err := svc.RecordInteraction(context.Background(), repository.CreateInteractionParams{
		ContactID:      contact.ID,
		OrganizationID: tenantID,
		Type:           domain.InteractionPhoneCall,
	})
	if err != nil {
		t.Fatalf("expected the write to survive a progression failure, got %v", err)
	}
	if interaction.ID == uuid.Nil {
		t.Fatal("expected a persisted interaction")
	}
}

func TestDeleteInteraction_Recalculates(t *testing.T) {
	tenantID := uuid.New()
	contact := testContact(tenantID)
	store := newFakeStore(contact)
	svc, _ := newTestService(store)

	first, err := svc.RecordInteraction(context.Background(), repository.CreateInteractionParams{
		ContactID:      contact.ID,
		OrganizationID: tenantID,
		Type:           domain.InteractionSiteVisit,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := svc.RecordInteraction(context.Background(), repository.CreateInteractionParams{
		ContactID:      contact.ID,
		OrganizationID: tenantID,
		Type:           domain.InteractionPriceQuote,
	}); err != nil {
		t.Fatalf("record: %v", err)
	}

	afterBoth, _ := store.GetByID(context.Background(), contact.ID, tenantID)
	if afterBoth.LeadHeatScore != 18 {
		t.Fatalf("expected score 18, got %v", afterBoth.LeadHeatScore)
	}

	if err := svc.DeleteInteraction(context.Background(), first.ID, tenantID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	afterDelete, _ := store.GetByID(context.Background(), contact.ID, tenantID)
	if afterDelete.LeadHeatScore != 8 {
		t.Fatalf("expected score 8 after removing the site visit, got %v", afterDelete.LeadHeatScore)
	}
	if afterDelete.LeadHeat != domain.HeatWarm {
		t.Fatalf("expected WARM after removal, got %s", afterDelete.LeadHeat)
	}
}

func TestOverrideStage_WritesManualAuditRecord(t *testing.T) {
	tenantID := uuid.New()
	contact := testContact(tenantID)
	store := newFakeStore(contact)
	svc, evaluator := newTestService(store)
	actorID := uuid.New()

	updated, err := svc.OverrideStage(context.Background(), contact.ID, tenantID, domain.StageCustomer, actorID)
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	if updated.Status != domain.StageCustomer {
		t.Fatalf("expected CUSTOMER, got %s", updated.Status)
	}

	history, _ := store.ListByContact(context.Background(), contact.ID, tenantID)
	if len(history) != 1 {
		t.Fatalf("expected one audit interaction, got %d", len(history))
	}
	audit := history[0]
	if audit.Type != domain.InteractionStageProgression {
		t.Fatalf("expected STAGE_PROGRESSION, got %s", audit.Type)
	}
	if audit.Metadata["automated"] != false {
		t.Fatalf("expected automated:false for a manual override, got %v", audit.Metadata["automated"])
	}
	if audit.Metadata["actorId"] != actorID.String() {
		t.Fatalf("expected the actor in the audit record, got %v", audit.Metadata["actorId"])
	}
	if evaluator.calls != 0 {
		t.Fatal("expected no progression evaluation on a manual override")
	}

	// Overriding to the current stage is a no-op.
	if _, err := svc.OverrideStage(context.Background(), contact.ID, tenantID, domain.StageCustomer, actorID); err != nil {
		t.Fatalf("idempotent override: %v", err)
	}
	history, _ = store.ListByContact(context.Background(), contact.ID, tenantID)
	if len(history) != 1 {
		t.Fatalf("expected no second audit record, got %d", len(history))
	}
}

type fakeRecalcScheduler struct {
	enqueued []uuid.UUID
	err      error
}

func (f *fakeRecalcScheduler) EnqueueRecalc(_ context.Context, contactID uuid.UUID, _ uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, contactID)
	return nil
}

func TestEnqueueRecalculation_RequiresJobSystem(t *testing.T) {
	tenantID := uuid.New()
	contact := testContact(tenantID)
	svc, _ := newTestService(newFakeStore(contact))

	err := svc.EnqueueRecalculation(context.Background(), contact.ID, tenantID)
	if err == nil {
		t.Fatal("expected error when no job system is wired")
	}
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindConflict {
		t.Fatalf("expected a conflict, got %v", err)
	}
}

func TestEnqueueRecalculation_EnqueuesExistingContact(t *testing.T) {
	tenantID := uuid.New()
	contact := testContact(tenantID)
	svc, _ := newTestService(newFakeStore(contact))
	jobs := &fakeRecalcScheduler{}
	svc.SetRecalcScheduler(jobs)

	if err := svc.EnqueueRecalculation(context.Background(), uuid.New(), tenantID); err == nil {
		t.Fatal("expected not-found error for an unknown contact")
	}
	if len(jobs.enqueued) != 0 {
		t.Fatalf("expected nothing enqueued for an unknown contact, got %d", len(jobs.enqueued))
	}

	if err := svc.EnqueueRecalculation(context.Background(), contact.ID, tenantID); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if len(jobs.enqueued) != 1 || jobs.enqueued[0] != contact.ID {
		t.Fatalf("expected the contact enqueued once, got %v", jobs.enqueued)
	}
}

func TestEnqueueRecalculation_SurfacesEnqueueFailure(t *testing.T) {
	tenantID := uuid.New()
	contact := testContact(tenantID)
	svc, _ := newTestService(newFakeStore(contact))
	jobs := &fakeRecalcScheduler{err: errors.New("redis unavailable")}
	svc.SetRecalcScheduler(jobs)

	if err := svc.EnqueueRecalculation(context.Background(), contact.ID, tenantID); err == nil {
		t.Fatal("expected the enqueue failure to surface")
	}
}

func TestOverrideStage_RejectsUnknownStage(t *testing.T) {
	tenantID := uuid.New()
	contact := testContact(tenantID)
	svc, _ := newTestService(newFakeStore(contact))

	if _, err := svc.OverrideStage(context.Background(), contact.ID, tenantID, "VIP", uuid.New()); err == nil {
		t.Fatal("expected validation error for unknown stage")
	}
}
