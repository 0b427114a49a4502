// Package opportunities provides the deal tracking bounded context:
// opportunity CRUD, stage moves, and pipeline forecasting.
package opportunities

import (
	contactrepo "venue_crm_backend/internal/contacts/repository"
	apphttp "venue_crm_backend/internal/http"
	"venue_crm_backend/internal/opportunities/handler"
	"venue_crm_backend/internal/opportunities/repository"
	"venue_crm_backend/internal/opportunities/service"
	"venue_crm_backend/platform/logger"
	"venue_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the opportunities bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the opportunities module.
func NewModule(pool *pgxpool.Pool, contacts contactrepo.ContactsRepository, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, contacts, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "opportunities"
}

// Service returns the opportunities service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts opportunity routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/opportunities"))
	m.handler.RegisterContactRoutes(ctx.Protected.Group("/contacts"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
