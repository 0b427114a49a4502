// Package notification sends sales-team emails in response to domain events.
// It subscribes to the event bus so the contacts and progression modules
// never depend on email delivery.
package notification

import (
	"context"

	contactrepo "venue_crm_backend/internal/contacts/repository"
	"venue_crm_backend/internal/email"
	"venue_crm_backend/internal/events"
	"venue_crm_backend/platform/config"
	"venue_crm_backend/platform/logger"
)

// Module is the notification event subscriber.
type Module struct {
	sender   email.Sender
	contacts contactrepo.ContactsRepository
	cfg      config.EmailConfig
	log      *logger.Logger
}

// NewModule creates the notification module. When email sending is disabled
// in configuration, the module still registers but drops every notification
// with a debug log.
func NewModule(sender email.Sender, contacts contactrepo.ContactsRepository, cfg config.EmailConfig, log *logger.Logger) *Module {
	return &Module{sender: sender, contacts: contacts, cfg: cfg, log: log}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

// RegisterHandlers subscribes to the relevant domain events on the event bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.ContactBecameHot{}.EventName(), m)
	bus.Subscribe(events.StageProgressed{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.ContactBecameHot:
		return m.handleContactBecameHot(ctx, e)
	case events.StageProgressed:
		return m.handleStageProgressed(ctx, e)
	default:
		return nil
	}
}

func (m *Module) handleContactBecameHot(ctx context.Context, e events.ContactBecameHot) error {
	if !m.cfg.GetEmailEnabled() {
		m.log.Debug("email disabled, skipping hot lead notification", "contact_id", e.ContactID)
		return nil
	}

	contact, err := m.contacts.GetByID(ctx, e.ContactID, e.TenantID)
	if err != nil {
		m.log.Error("hot lead notification: contact lookup failed", "contact_id", e.ContactID, "error", err)
		return err
	}

	inbox := m.cfg.GetSalesInboxAddress()
	if err := m.sender.SendContactHotEmail(ctx, inbox, contact.Name, e.Score); err != nil {
		m.log.Error("hot lead notification failed", "contact_id", e.ContactID, "error", err)
		return err
	}
	return nil
}

func (m *Module) handleStageProgressed(ctx context.Context, e events.StageProgressed) error {
	if !m.cfg.GetEmailEnabled() {
		m.log.Debug("email disabled, skipping stage notification", "contact_id", e.ContactID)
		return nil
	}

	contact, err := m.contacts.GetByID(ctx, e.ContactID, e.TenantID)
	if err != nil {
		m.log.Error("stage notification: contact lookup failed", "contact_id", e.ContactID, "error", err)
		return err
	}

	inbox := m.cfg.GetSalesInboxAddress()
	if err := m.sender.SendStageProgressedEmail(ctx, inbox, contact.Name, e.FromStage, e.ToStage, e.RuleName, e.Automated); err != nil {
		m.log.Error("stage notification failed", "contact_id", e.ContactID, "error", err)
		return err
	}
	return nil
}
