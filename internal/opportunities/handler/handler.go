// Package handler exposes the opportunities module over HTTP.
package handler

import (
	"net/http"

	"venue_crm_backend/internal/opportunities/service"
	"venue_crm_backend/internal/opportunities/transport"
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

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/forecast", h.Forecast)
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id", h.Update)
	rg.PATCH("/:id/stage", h.MoveStage)
	rg.DELETE("/:id", h.Delete)
}

// RegisterContactRoutes mounts the per-contact listing.
func (h *Handler) RegisterContactRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id/opportunities", h.ListByContact)
}

func (h *Handler) Create(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	var req transport.CreateOpportunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	opportunity, err := h.svc.Create(c.Request.Context(), req.ToCreateParams(tenantID))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.ToOpportunityResponse(opportunity))
}

func (h *Handler) List(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	opportunities, err := h.svc.List(c.Request.Context(), tenantID, c.Query("stage"))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToOpportunityListResponse(opportunities))
}

func (h *Handler) ListByContact(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	opportunities, err := h.svc.ListByContact(c.Request.Context(), contactID, tenantID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToOpportunityListResponse(opportunities))
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

	opportunity, err := h.svc.Get(c.Request.Context(), id, tenantID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToOpportunityResponse(opportunity))
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

	var req transport.UpdateOpportunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	opportunity, err := h.svc.Update(c.Request.Context(), id, tenantID, req.ToUpdateParams())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToOpportunityResponse(opportunity))
}

func (h *Handler) MoveStage(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.MoveStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	opportunity, err := h.svc.MoveStage(c.Request.Context(), id, tenantID, req.Stage)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToOpportunityResponse(opportunity))
}

func (h *Handler) Delete(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), id, tenantID)) {
		return
	}

	httpkit.NoContent(c)
}

func (h *Handler) Forecast(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	forecast, err := h.svc.Forecast(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, forecast)
}
