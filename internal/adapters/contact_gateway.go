package adapters

import (
	"context"

	contactdomain "venue_crm_backend/internal/contacts/domain"
	contactrepo "venue_crm_backend/internal/contacts/repository"
	contactservice "venue_crm_backend/internal/contacts/service"
	"venue_crm_backend/internal/webhook"

	"github.com/google/uuid"
)

// ContactGatewayAdapter gives the webhook module its narrow view of the
// contacts module: lookups go to the repository, writes go through the
// service so recalculation and progression sequencing apply.
type ContactGatewayAdapter struct {
	svc  *contactservice.Service
	repo contactrepo.ContactsRepository
}

// NewContactGateway wraps the contacts service and repository.
func NewContactGateway(svc *contactservice.Service, repo contactrepo.ContactsRepository) *ContactGatewayAdapter {
	return &ContactGatewayAdapter{svc: svc, repo: repo}
}

func (a *ContactGatewayAdapter) FindByEmail(ctx context.Context, organizationID uuid.UUID, email string) (contactdomain.Contact, error) {
	return a.repo.FindByEmail(ctx, organizationID, email)
}

func (a *ContactGatewayAdapter) CreateContact(ctx context.Context, params contactrepo.CreateContactParams) (contactdomain.Contact, error) {
	return a.svc.CreateContact(ctx, params)
}

func (a *ContactGatewayAdapter) RecordInteraction(ctx context.Context, params contactrepo.CreateInteractionParams) (contactdomain.Interaction, error) {
	return a.svc.RecordInteraction(ctx, params)
}

var _ webhook.ContactGateway = (*ContactGatewayAdapter)(nil)
