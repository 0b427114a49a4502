// Package handler exposes the progression module over HTTP. Rule management
// and bulk runs are admin surfaces; single-contact evaluation is available to
// any authenticated agent.
package handler

import (
	"net/http"
	"time"

	"venue_crm_backend/internal/progression/service"
	"venue_crm_backend/internal/progression/transport"
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

// RegisterAdminRoutes mounts rule management and the bulk runner.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/rules", h.ListRules)
	rg.POST("/rules", h.CreateRule)
	rg.POST("/rules/seed", h.SeedRules)
	rg.GET("/rules/:id", h.GetRule)
	rg.PUT("/rules/:id", h.UpdateRule)
	rg.DELETE("/rules/:id", h.DeleteRule)
	rg.POST("/run", h.RunBulk)
	rg.POST("/run/schedule", h.ScheduleRun)
}

// RegisterRoutes mounts the single-contact evaluation endpoint.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/contacts/:id/evaluate", h.EvaluateContact)
}

func (h *Handler) CreateRule(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	var req transport.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	rule, err := h.svc.CreateRule(c.Request.Context(), req.ToCreateParams(tenantID))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.ToRuleResponse(rule))
}

func (h *Handler) ListRules(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	rules, err := h.svc.ListRules(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToRuleListResponse(rules))
}

func (h *Handler) GetRule(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	rule, err := h.svc.GetRule(c.Request.Context(), id, tenantID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToRuleResponse(rule))
}

func (h *Handler) UpdateRule(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	rule, err := h.svc.UpdateRule(c.Request.Context(), id, tenantID, req.ToUpdateParams())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToRuleResponse(rule))
}

func (h *Handler) DeleteRule(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if httpkit.HandleError(c, h.svc.DeleteRule(c.Request.Context(), id, tenantID)) {
		return
	}

	httpkit.NoContent(c)
}

func (h *Handler) SeedRules(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	created, err := h.svc.SeedDefaults(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.SeedResponse{Created: created})
}

func (h *Handler) EvaluateContact(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.EvaluateContact(c.Request.Context(), contactID, tenantID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) ScheduleRun(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	var req transport.ScheduleRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	runAt := time.Now().UTC().Add(time.Duration(req.DelayMinutes) * time.Minute)
	if err := h.svc.ScheduleBulkRun(c.Request.Context(), tenantID, runAt); httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusAccepted, transport.ScheduleRunResponse{RunAt: runAt})
}

func (h *Handler) RunBulk(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	report, err := h.svc.RunBulk(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, report)
}
