package webhook

import (
	"venue_crm_backend/internal/events"
	apphttp "venue_crm_backend/internal/http"
	"venue_crm_backend/platform/logger"
	"venue_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the webhook bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	repo    *Repository
}

// NewModule creates and initializes the webhook module with all its dependencies.
func NewModule(pool *pgxpool.Pool, contacts ContactGateway, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	svc := NewService(contacts, eventBus, log)
	h := NewHandler(svc, repo, val)

	return &Module{handler: h, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts webhook routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public ingestion endpoints (API key auth, no JWT), rate limited harder
	// than the authenticated API.
	ingest := ctx.V1.Group("/webhook")
	ingest.Use(ctx.WebhookRateLimiter.RateLimit())
	ingest.Use(APIKeyAuthMiddleware(m.repo))
	ingest.POST("/social", m.handler.HandleSocialEvent)
	ingest.POST("/forms", m.handler.HandleFormSubmission)

	// Admin API key management (JWT auth + admin role)
	keys := ctx.Admin.Group("/webhook/keys")
	keys.POST("", m.handler.HandleCreateAPIKey)
	keys.GET("", m.handler.HandleListAPIKeys)
	keys.DELETE("/:keyId", m.handler.HandleRevokeAPIKey)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
