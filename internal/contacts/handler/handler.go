// Package handler exposes the contacts module over HTTP.
package handler

import (
	"net/http"
	"strconv"

	"venue_crm_backend/internal/contacts/scoring"
	"venue_crm_backend/internal/contacts/service"
	"venue_crm_backend/internal/contacts/transport"
	"venue_crm_backend/platform/httpkit"
	"venue_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts contact and interaction routes. All routes require a
// tenant-scoped token.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id", h.Update)
	rg.PATCH("/:id/stage", h.OverrideStage)
	rg.POST("/:id/recalculate", h.Recalculate)
	rg.GET("/:id/interactions", h.ListInteractions)
	rg.POST("/:id/interactions", h.CreateInteraction)
}

// RegisterInteractionRoutes mounts routes addressed by interaction ID.
func (h *Handler) RegisterInteractionRoutes(rg *gin.RouterGroup) {
	rg.DELETE("/:id", h.DeleteInteraction)
}

func (h *Handler) Create(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	var req transport.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	contact, err := h.svc.CreateContact(c.Request.Context(), req.ToCreateParams(tenantID))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.ToContactResponse(contact))
}

func (h *Handler) List(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	contacts, total, err := h.svc.ListContacts(c.Request.Context(), tenantID, repositoryListParams(c, limit, offset))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToContactListResponse(contacts, total))
}

func (h *Handler) GetByID(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	contact, err := h.svc.GetContact(c.Request.Context(), id, tenantID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToContactResponse(contact))
}

func (h *Handler) Update(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	contact, err := h.svc.UpdateContact(c.Request.Context(), id, tenantID, req.ToUpdateParams())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToContactResponse(contact))
}

func (h *Handler) OverrideStage(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	actor := httpkit.MustGetIdentity(c)
	if actor == nil {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.OverrideStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	contact, err := h.svc.OverrideStage(c.Request.Context(), id, tenantID, req.Stage, actor.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToContactResponse(contact))
}

func (h *Handler) Recalculate(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	actor := httpkit.MustGetIdentity(c)
	if actor == nil {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.RecalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	// Advanced mode with custom knobs is restricted to managers and admins.
	if req.Advanced && !actor.HasRole("manager") && !actor.HasRole("admin") {
		httpkit.Error(c, http.StatusForbidden, "forbidden", nil)
		return
	}

	// The background worker only runs simple mode.
	if req.Async {
		if req.Advanced {
			httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, "advanced mode cannot run async")
			return
		}

		if err := h.svc.EnqueueRecalculation(c.Request.Context(), id, tenantID); httpkit.HandleError(c, err) {
			return
		}

		httpkit.JSON(c, http.StatusAccepted, transport.RecalculateQueuedResponse{ContactID: id, Queued: true})
		return
	}

	cfg := scoring.DefaultConfig()
	if req.Config != nil {
		cfg = *req.Config
	}

	result, err := h.svc.RecalculateHeat(c.Request.Context(), id, tenantID, req.Advanced, cfg)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) CreateInteraction(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.CreateInteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	interaction, err := h.svc.RecordInteraction(c.Request.Context(), repositoryInteractionParams(contactID, tenantID, req))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.ToInteractionResponse(interaction))
}

func (h *Handler) ListInteractions(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	interactions, err := h.svc.ListInteractions(c.Request.Context(), contactID, tenantID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToInteractionListResponse(interactions))
}

func (h *Handler) DeleteInteraction(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if httpkit.HandleError(c, h.svc.DeleteInteraction(c.Request.Context(), id, tenantID)) {
		return
	}

	httpkit.NoContent(c)
}
