// Package progression provides the stage progression bounded context: rule
// management, the rules engine, and the bulk runner.
package progression

import (
	contactrepo "venue_crm_backend/internal/contacts/repository"
	"venue_crm_backend/internal/events"
	apphttp "venue_crm_backend/internal/http"
	"venue_crm_backend/internal/progression/handler"
	"venue_crm_backend/internal/progression/repository"
	"venue_crm_backend/internal/progression/service"
	"venue_crm_backend/platform/config"
	"venue_crm_backend/platform/logger"
	"venue_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the progression bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the progression module. The contact and
// interaction stores come from the contacts module; progression never talks
// to those tables through its own queries.
func NewModule(pool *pgxpool.Pool, contacts contactrepo.ContactsRepository, interactions contactrepo.InteractionsRepository, eventBus events.Bus, val *validator.Validator, cfg config.ProgressionConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, contacts, interactions, eventBus, cfg, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "progression"
}

// Service returns the progression service for cross-module wiring.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts progression routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/progression"))
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/progression"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
