package webhook

import (
	"context"
	"errors"
	"fmt"
	"strings"

	contactdomain "venue_crm_backend/internal/contacts/domain"
	contactrepo "venue_crm_backend/internal/contacts/repository"
	"venue_crm_backend/internal/events"
	"venue_crm_backend/platform/apperr"
	"venue_crm_backend/platform/logger"

	"github.com/google/uuid"
)

// ContactGateway is the slice of the contacts module the webhook ingestion
// needs: find or create a contact, then record an interaction through the
// full recalc/progression pipeline.
type ContactGateway interface {
	FindByEmail(ctx context.Context, organizationID uuid.UUID, email string) (contactdomain.Contact, error)
	CreateContact(ctx context.Context, params contactrepo.CreateContactParams) (contactdomain.Contact, error)
	RecordInteraction(ctx context.Context, params contactrepo.CreateInteractionParams) (contactdomain.Interaction, error)
}

// socialEventTypes maps inbound social event kinds to interaction types.
var socialEventTypes = map[string]string{
	"follow":  contactdomain.InteractionSocialFollow,
	"like":    contactdomain.InteractionSocialLike,
	"comment": contactdomain.InteractionSocialComment,
	"message": contactdomain.InteractionSocialMessage,
}

// SocialEventPayload is an inbound social platform event.
type SocialEventPayload struct {
	Platform       string  `json:"platform" validate:"required,min=1,max=50"`
	EventKind      string  `json:"eventKind" validate:"required,oneof=follow like comment message"`
	ExternalUserID string  `json:"externalUserId" validate:"required,min=1,max=200"`
	ContactEmail   *string `json:"contactEmail,omitempty" validate:"omitempty,email"`
	ContactName    *string `json:"contactName,omitempty" validate:"omitempty,max=200"`
	ContactPhone   *string `json:"contactPhone,omitempty" validate:"omitempty,max=20"`
}

// FormSubmissionPayload is an inbound website form submission.
type FormSubmissionPayload struct {
	Email   string            `json:"email" validate:"required,email"`
	Name    string            `json:"name" validate:"required,min=1,max=200"`
	Phone   *string           `json:"phone,omitempty" validate:"omitempty,max=20"`
	Message *string           `json:"message,omitempty" validate:"omitempty,max=5000"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// IngestResult reports what an ingestion call did.
type IngestResult struct {
	ContactID      uuid.UUID `json:"contactId"`
	InteractionID  uuid.UUID `json:"interactionId"`
	ContactCreated bool      `json:"contactCreated"`
}

// Service translates authenticated webhook payloads into interactions.
type Service struct {
	contacts ContactGateway
	bus      events.Bus
	log      *logger.Logger
}

// NewService creates a new webhook service.
func NewService(contacts ContactGateway, bus events.Bus, log *logger.Logger) *Service {
	return &Service{contacts: contacts, bus: bus, log: log}
}

// IngestSocialEvent records a social platform event as an interaction,
// creating the contact when it cannot be matched by email.
func (s *Service) IngestSocialEvent(ctx context.Context, orgID uuid.UUID, payload SocialEventPayload) (IngestResult, error) {
	interactionType, ok := socialEventTypes[strings.ToLower(payload.EventKind)]
	if !ok {
		return IngestResult{}, apperr.Validation(fmt.Sprintf("unknown event kind %q", payload.EventKind))
	}

	contact, created, err := s.resolveContact(ctx, orgID, payload)
	if err != nil {
		return IngestResult{}, err
	}

	platform := payload.Platform
	interaction, err := s.contacts.RecordInteraction(ctx, contactrepo.CreateInteractionParams{
		ContactID:      contact.ID,
		OrganizationID: orgID,
		Type:           interactionType,
		Platform:       &platform,
		Metadata: map[string]any{
			"externalUserId": payload.ExternalUserID,
			"eventKind":      payload.EventKind,
		},
	})
	if err != nil {
		return IngestResult{}, err
	}

	s.bus.Publish(ctx, events.WebhookInteractionIngested{
		BaseEvent: events.NewBaseEvent(),
		ContactID: contact.ID,
		TenantID:  orgID,
		Platform:  payload.Platform,
		EventKind: payload.EventKind,
	})

	return IngestResult{
		ContactID:      contact.ID,
		InteractionID:  interaction.ID,
		ContactCreated: created,
	}, nil
}

// IngestFormSubmission records a website form submission as a FORM_SUBMITTED
// interaction, creating the contact when needed. This is what typically
// drives the FORM_SUBMISSION progression trigger.
func (s *Service) IngestFormSubmission(ctx context.Context, orgID uuid.UUID, payload FormSubmissionPayload) (IngestResult, error) {
	contact, err := s.contacts.FindByEmail(ctx, orgID, payload.Email)
	created := false
	if err != nil {
		if !isNotFound(err) {
			return IngestResult{}, err
		}
		source := "website_form"
		contact, err = s.contacts.CreateContact(ctx, contactrepo.CreateContactParams{
			OrganizationID: orgID,
			Name:           payload.Name,
			Email:          &payload.Email,
			Phone:          payload.Phone,
			Source:         &source,
		})
		if err != nil {
			return IngestResult{}, err
		}
		created = true
	}

	metadata := map[string]any{"email": payload.Email}
	if payload.Message != nil {
		metadata["message"] = *payload.Message
	}
	for field, value := range payload.Fields {
		metadata["field_"+field] = value
	}

	interaction, err := s.contacts.RecordInteraction(ctx, contactrepo.CreateInteractionParams{
		ContactID:      contact.ID,
		OrganizationID: orgID,
		Type:           contactdomain.InteractionFormSubmitted,
		Metadata:       metadata,
	})
	if err != nil {
		return IngestResult{}, err
	}

	s.bus.Publish(ctx, events.WebhookInteractionIngested{
		BaseEvent: events.NewBaseEvent(),
		ContactID: contact.ID,
		TenantID:  orgID,
		Platform:  "website",
		EventKind: "form",
	})

	return IngestResult{
		ContactID:      contact.ID,
		InteractionID:  interaction.ID,
		ContactCreated: created,
	}, nil
}

func (s *Service) resolveContact(ctx context.Context, orgID uuid.UUID, payload SocialEventPayload) (contactdomain.Contact, bool, error) {
	if payload.ContactEmail != nil {
		contact, err := s.contacts.FindByEmail(ctx, orgID, *payload.ContactEmail)
		if err == nil {
			return contact, false, nil
		}
		if !isNotFound(err) {
			return contactdomain.Contact{}, false, err
		}
	}

	name := payload.Platform + " user " + payload.ExternalUserID
	if payload.ContactName != nil && *payload.ContactName != "" {
		name = *payload.ContactName
	}
	source := payload.Platform

	contact, err := s.contacts.CreateContact(ctx, contactrepo.CreateContactParams{
		OrganizationID: orgID,
		Name:           name,
		Email:          payload.ContactEmail,
		Phone:          payload.ContactPhone,
		Source:         &source,
	})
	if err != nil {
		return contactdomain.Contact{}, false, err
	}

	s.log.Info("contact created from webhook",
		"contact_id", contact.ID,
		"platform", payload.Platform,
	)
	return contact, true, nil
}

func isNotFound(err error) bool {
	var appErr *apperr.Error
	return errors.As(err, &appErr) && appErr.Kind == apperr.KindNotFound
}
