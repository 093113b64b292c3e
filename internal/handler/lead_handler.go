package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/preschool-ops-api/internal/dto"
	"github.com/noah-isme/preschool-ops-api/internal/models"
	appErrors "github.com/noah-isme/preschool-ops-api/pkg/errors"
	"github.com/noah-isme/preschool-ops-api/pkg/response"
)

type leadService interface {
	ListLeads(ctx context.Context, scope *models.TenantScope) ([]dto.LeadItem, error)
	Board(ctx context.Context, scope *models.TenantScope) (*dto.LeadBoard, error)
	CreateLead(ctx context.Context, scope *models.TenantScope, req dto.CreateLeadRequest) (*dto.LeadItem, error)
	UpdateLead(ctx context.Context, scope *models.TenantScope, leadID string, req dto.UpdateLeadRequest) error
	UpdateLeadStatus(ctx context.Context, scope *models.TenantScope, leadID string, status string) error
}

// LeadHandler exposes the admissions pipeline.
type LeadHandler struct {
	service leadService
}

// NewLeadHandler builds a new handler.
func NewLeadHandler(service leadService) *LeadHandler {
	return &LeadHandler{service: service}
}

// List godoc
// @Summary List admissions leads
// @Tags Leads
// @Produce json
// @Param slug path string true "School slug"
// @Success 200 {object} response.Envelope
// @Router /schools/{slug}/leads [get]
func (h *LeadHandler) List(c *gin.Context) {
	scope, err := scopeFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.service.ListLeads(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Board godoc
// @Summary Leads grouped into pipeline columns
// @Tags Leads
// @Produce json
// @Param slug path string true "School slug"
// @Success 200 {object} response.Envelope
// @Router /schools/{slug}/leads/board [get]
func (h *LeadHandler) Board(c *gin.Context) {
	scope, err := scopeFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	board, err := h.service.Board(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, board, nil)
}

// Create godoc
// @Summary Capture a new inquiry
// @Tags Leads
// @Accept json
// @Produce json
// @Param slug path string true "School slug"
// @Param payload body dto.CreateLeadRequest true "Lead payload"
// @Success 201 {object} response.ActionResult
// @Router /schools/{slug}/leads [post]
func (h *LeadHandler) Create(c *gin.Context) {
	scope, err := scopeFromContext(c)
	if err != nil {
		response.Action(c, 0, nil, err)
		return
	}
	var req dto.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Action(c, 0, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	item, err := h.service.CreateLead(c.Request.Context(), scope, req)
	response.Action(c, http.StatusCreated, item, err)
}

// Update godoc
// @Summary Edit lead details
// @Tags Leads
// @Accept json
// @Produce json
// @Param slug path string true "School slug"
// @Param id path string true "Lead ID"
// @Param payload body dto.UpdateLeadRequest true "Fields to change"
// @Success 200 {object} response.ActionResult
// @Router /schools/{slug}/leads/{id} [patch]
func (h *LeadHandler) Update(c *gin.Context) {
	scope, err := scopeFromContext(c)
	if err != nil {
		response.Action(c, 0, nil, err)
		return
	}
	var req dto.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Action(c, 0, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	err = h.service.UpdateLead(c.Request.Context(), scope, c.Param("id"), req)
	response.Action(c, http.StatusOK, nil, err)
}

// UpdateStatus godoc
// @Summary Move a lead to another stage
// @Tags Leads
// @Accept json
// @Produce json
// @Param slug path string true "School slug"
// @Param id path string true "Lead ID"
// @Param payload body dto.UpdateLeadStatusRequest true "Target stage"
// @Success 200 {object} response.ActionResult
// @Router /schools/{slug}/leads/{id}/status [patch]
func (h *LeadHandler) UpdateStatus(c *gin.Context) {
	scope, err := scopeFromContext(c)
	if err != nil {
		response.Action(c, 0, nil, err)
		return
	}
	var req dto.UpdateLeadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Action(c, 0, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	err = h.service.UpdateLeadStatus(c.Request.Context(), scope, c.Param("id"), req.Status)
	response.Action(c, http.StatusOK, nil, err)
}
