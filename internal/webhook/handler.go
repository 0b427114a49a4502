package webhook

import (
	"net/http"

	"venue_crm_backend/platform/httpkit"
	"venue_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler exposes webhook ingestion and API key management over HTTP.
type Handler struct {
	svc  *Service
	repo *Repository
	val  *validator.Validator
}

// NewHandler creates a new webhook handler.
func NewHandler(svc *Service, repo *Repository, val *validator.Validator) *Handler {
	return &Handler{svc: svc, repo: repo, val: val}
}

// Ingestion (API key auth)

func (h *Handler) HandleSocialEvent(c *gin.Context) {
	orgID, ok := webhookOrgID(c)
	if !ok {
		return
	}

	var payload SocialEventPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.IngestSocialEvent(c.Request.Context(), orgID, payload)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, result)
}

func (h *Handler) HandleFormSubmission(c *gin.Context) {
	orgID, ok := webhookOrgID(c)
	if !ok {
		return
	}

	var payload FormSubmissionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.IngestFormSubmission(c.Request.Context(), orgID, payload)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, result)
}

// API key management (admin)

type createAPIKeyRequest struct {
	Name           string   `json:"name" validate:"required,min=1,max=100"`
	AllowedDomains []string `json:"allowedDomains,omitempty" validate:"omitempty,dive,min=1,max=200"`
}

type apiKeyResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	KeyPrefix      string    `json:"keyPrefix"`
	AllowedDomains []string  `json:"allowedDomains,omitempty"`
	IsActive       bool      `json:"isActive"`
	// Key is the plaintext, present only in the create response.
	Key string `json:"key,omitempty"`
}

func (h *Handler) HandleCreateAPIKey(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	var req createAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	plaintext, hash, prefix, err := GenerateAPIKey()
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "key generation failed", nil)
		return
	}

	key, err := h.repo.Create(c.Request.Context(), tenantID, req.Name, hash, prefix, req.AllowedDomains)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, apiKeyResponse{
		ID:             key.ID,
		Name:           key.Name,
		KeyPrefix:      key.KeyPrefix,
		AllowedDomains: key.AllowedDomains,
		IsActive:       key.IsActive,
		Key:            plaintext,
	})
}

func (h *Handler) HandleListAPIKeys(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	keys, err := h.repo.List(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]apiKeyResponse, 0, len(keys))
	for _, key := range keys {
		items = append(items, apiKeyResponse{
			ID:             key.ID,
			Name:           key.Name,
			KeyPrefix:      key.KeyPrefix,
			AllowedDomains: key.AllowedDomains,
			IsActive:       key.IsActive,
		})
	}
	httpkit.OK(c, items)
}

func (h *Handler) HandleRevokeAPIKey(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	keyID, err := uuid.Parse(c.Param("keyId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if httpkit.HandleError(c, h.repo.Revoke(c.Request.Context(), keyID, tenantID)) {
		return
	}

	httpkit.NoContent(c)
}

func webhookOrgID(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(ContextOrgIDKey)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, false
	}
	orgID, ok := value.(uuid.UUID)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, false
	}
	return orgID, true
}
