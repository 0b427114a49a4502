package webhook

import (
	"context"
	"strings"
	"testing"

	contactdomain "venue_crm_backend/internal/contacts/domain"
	contactrepo "venue_crm_backend/internal/contacts/repository"
	"venue_crm_backend/internal/events"
	"venue_crm_backend/platform/apperr"
	"venue_crm_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeGateway struct {
	byEmail  map[string]contactdomain.Contact
	created  []contactrepo.CreateContactParams
	recorded []contactrepo.CreateInteractionParams
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{byEmail: make(map[string]contactdomain.Contact)}
}

func (f *fakeGateway) FindByEmail(_ context.Context, _ uuid.UUID, email string) (contactdomain.Contact, error) {
	contact, ok := f.byEmail[strings.ToLower(email)]
	if !ok {
		return contactdomain.Contact{}, apperr.NotFound("contact not found")
	}
	return contact, nil
}

func (f *fakeGateway) CreateContact(_ context.Context, params contactrepo.CreateContactParams) (contactdomain.Contact, error) {
	f.created = append(f.created, params)
	contact := contactdomain.Contact{
		ID:             uuid.New(),
		OrganizationID: params.OrganizationID,
		Name:           params.Name,
		Email:          params.Email,
		Status:         contactdomain.StageUnqualified,
	}
	if params.Email != nil {
		f.byEmail[strings.ToLower(*params.Email)] = contact
	}
	return contact, nil
}

func (f *fakeGateway) RecordInteraction(_ context.Context, params contactrepo.CreateInteractionParams) (contactdomain.Interaction, error) {
	f.recorded = append(f.recorded, params)
	return contactdomain.Interaction{
		ID:        uuid.New(),
		ContactID: params.ContactID,
		Type:      params.Type,
	}, nil
}

func newTestService(gateway *fakeGateway) *Service {
	log := logger.New("development")
	return NewService(gateway, events.NewInMemoryBus(log), log)
}

func TestIngestSocialEvent_CreatesContactWhenUnmatched(t *testing.T) {
	gateway := newFakeGateway()
	svc := newTestService(gateway)
	orgID := uuid.New()

	result, err := svc.IngestSocialEvent(context.Background(), orgID, SocialEventPayload{
		Platform:       "instagram",
		EventKind:      "comment",
		ExternalUserID: "ig-123",
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	if !result.ContactCreated {
		t.Fatal("expected a new contact")
	}
	if len(gateway.created) != 1 {
		t.Fatalf("expected 1 contact created, got %d", len(gateway.created))
	}
	if got := gateway.created[0].Name; got != "instagram user ig-123" {
		t.Fatalf("unexpected placeholder name %q", got)
	}
	if len(gateway.recorded) != 1 {
		t.Fatalf("expected 1 interaction, got %d", len(gateway.recorded))
	}
	if gateway.recorded[0].Type != contactdomain.InteractionSocialComment {
		t.Fatalf("expected SOCIAL_COMMENT, got %s", gateway.recorded[0].Type)
	}
	if gateway.recorded[0].Platform == nil || *gateway.recorded[0].Platform != "instagram" {
		t.Fatal("expected the platform to be recorded on the interaction")
	}
}

func TestIngestSocialEvent_MatchesExistingContactByEmail(t *testing.T) {
	gateway := newFakeGateway()
	orgID := uuid.New()
	email := "eva@example.com"
	existing := contactdomain.Contact{ID: uuid.New(), OrganizationID: orgID, Email: &email}
	gateway.byEmail[email] = existing

	svc := newTestService(gateway)

	result, err := svc.IngestSocialEvent(context.Background(), orgID, SocialEventPayload{
		Platform:       "facebook",
		EventKind:      "message",
		ExternalUserID: "fb-9",
		ContactEmail:   &email,
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	if result.ContactCreated {
		t.Fatal("expected the existing contact to be reused")
	}
	if result.ContactID != existing.ID {
		t.Fatalf("expected contact %s, got %s", existing.ID, result.ContactID)
	}
	if len(gateway.created) != 0 {
		t.Fatalf("expected no contact creation, got %d", len(gateway.created))
	}
}

func TestIngestSocialEvent_RejectsUnknownEventKind(t *testing.T) {
	svc := newTestService(newFakeGateway())

	if _, err := svc.IngestSocialEvent(context.Background(), uuid.New(), SocialEventPayload{
		Platform:       "instagram",
		EventKind:      "poke",
		ExternalUserID: "ig-1",
	}); err == nil {
		t.Fatal("expected error for unknown event kind")
	}
}

func TestIngestFormSubmission_RecordsFormSubmittedWithMetadata(t *testing.T) {
	gateway := newFakeGateway()
	svc := newTestService(gateway)
	orgID := uuid.New()

	message := "Looking for a June wedding venue"
	result, err := svc.IngestFormSubmission(context.Background(), orgID, FormSubmissionPayload{
		Email:   "bram@example.com",
		Name:    "Bram",
		Message: &message,
		Fields:  map[string]string{"guests": "120"},
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	if !result.ContactCreated {
		t.Fatal("expected a new contact")
	}
	if len(gateway.recorded) != 1 {
		t.Fatalf("expected 1 interaction, got %d", len(gateway.recorded))
	}

	interaction := gateway.recorded[0]
	if interaction.Type != contactdomain.InteractionFormSubmitted {
		t.Fatalf("expected FORM_SUBMITTED, got %s", interaction.Type)
	}
	if interaction.Metadata["message"] != message {
		t.Fatalf("expected message in metadata, got %v", interaction.Metadata["message"])
	}
	if interaction.Metadata["field_guests"] != "120" {
		t.Fatalf("expected custom field in metadata, got %v", interaction.Metadata["field_guests"])
	}

	// A second submission reuses the contact.
	again, err := svc.IngestFormSubmission(context.Background(), orgID, FormSubmissionPayload{
		Email: "Bram@Example.com",
		Name:  "Bram",
	})
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if again.ContactCreated {
		t.Fatal("expected the second submission to reuse the contact")
	}
	if again.ContactID != result.ContactID {
		t.Fatal("expected both submissions to land on the same contact")
	}
}

func TestGenerateAPIKey_ShapeAndHash(t *testing.T) {
	plaintext, hash, prefix, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if !strings.HasPrefix(plaintext, "whk_") {
		t.Fatalf("expected whk_ prefix, got %q", plaintext)
	}
	if len(plaintext) != 4+64 {
		t.Fatalf("expected 4+64 chars, got %d", len(plaintext))
	}
	if prefix != plaintext[:12] {
		t.Fatalf("expected the stored prefix to be the first 12 chars, got %q", prefix)
	}
	if hash != HashKey(plaintext) {
		t.Fatal("expected the returned hash to match HashKey")
	}
	if hash == plaintext {
		t.Fatal("expected the hash to differ from the plaintext")
	}
}

func TestIsDomainAllowed(t *testing.T) {
	cases := []struct {
		origin  string
		allowed []string
		want    bool
	}{
		{"https://example.com", []string{"example.com"}, true},
		{"https://example.com:8443", []string{"example.com"}, true},
		{"https://evil.com", []string{"example.com"}, false},
		{"https://app.example.com", []string{"*.example.com"}, true},
		{"https://example.com", []string{"*.example.com"}, true},
		{"https://example.com.evil.com", []string{"*.example.com"}, false},
		{"https://anything.io", []string{"*"}, true},
		{"", []string{"example.com"}, false},
		{"https://EXAMPLE.com", []string{"Example.Com"}, true},
	}

	for _, tc := range cases {
		if got := isDomainAllowed(tc.origin, tc.allowed); got != tc.want {
			t.Fatalf("origin %q vs %v: expected %v, got %v", tc.origin, tc.allowed, tc.want, got)
		}
	}
}
