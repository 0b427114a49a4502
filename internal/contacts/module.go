// Package contacts provides the contact management bounded context: contact
// CRUD, the interaction event log, and lead heat scoring.
package contacts

import (
	"venue_crm_backend/internal/contacts/handler"
	"venue_crm_backend/internal/contacts/ports"
	"venue_crm_backend/internal/contacts/repository"
	"venue_crm_backend/internal/contacts/scoring"
	"venue_crm_backend/internal/contacts/service"
	"venue_crm_backend/internal/events"
	apphttp "venue_crm_backend/internal/http"
	"venue_crm_backend/platform/logger"
	"venue_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the contacts bounded context module implementing http.Module.
type Module struct {
	handler      *handler.Handler
	service      *service.Service
	scoring      *scoring.Service
	repo         *repository.Repo
	interactions *repository.InteractionsRepo
}

// NewModule creates and initializes the contacts module with all its dependencies.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	interactionsRepo := repository.NewInteractions(pool)
	scoringSvc := scoring.New(repo, interactionsRepo, eventBus, log)
	svc := service.New(repo, interactionsRepo, scoringSvc, eventBus, log)
	h := handler.New(svc, val)

	return &Module{
		handler:      h,
		service:      svc,
		scoring:      scoringSvc,
		repo:         repo,
		interactions: interactionsRepo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "contacts"
}

// Service returns the contacts service for cross-module wiring.
func (m *Module) Service() *service.Service {
	return m.service
}

// ScoringService returns the scoring service for external use.
func (m *Module) ScoringService() *scoring.Service {
	return m.scoring
}

// Repository returns the contacts repository.
func (m *Module) Repository() *repository.Repo {
	return m.repo
}

// InteractionsRepository returns the interactions repository.
func (m *Module) InteractionsRepository() *repository.InteractionsRepo {
	return m.interactions
}

// SetProgressionEvaluator wires the progression module's single-contact
// evaluation into the interaction write path.
func (m *Module) SetProgressionEvaluator(evaluator ports.ProgressionEvaluator) {
	m.service.SetProgressionEvaluator(evaluator)
}

// SetRecalcScheduler wires the background job client for async recalcs.
func (m *Module) SetRecalcScheduler(scheduler service.RecalcScheduler) {
	m.service.SetRecalcScheduler(scheduler)
}

// RegisterRoutes mounts contacts routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/contacts"))
	m.handler.RegisterInteractionRoutes(ctx.Protected.Group("/interactions"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
