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

type branchService interface {
	List(ctx context.Context, scope *models.TenantScope) ([]models.Branch, error)
	Create(ctx context.Context, scope *models.TenantScope, req dto.CreateBranchRequest) (*models.Branch, error)
	Delete(ctx context.Context, scope *models.TenantScope, branchID string) error
}

// BranchHandler manages school branches.
type BranchHandler struct {
	service branchService
}

// NewBranchHandler builds a new handler.
func NewBranchHandler(service branchService) *BranchHandler {
	return &BranchHandler{service: service}
}

// List godoc
// @Summary List branches of a school
// @Tags Branches
// @Produce json
// @Param slug path string true "School slug"
// @Success 200 {object} response.Envelope
// @Router /schools/{slug}/branches [get]
func (h *BranchHandler) List(c *gin.Context) {
	scope, err := scopeFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	branches, err := h.service.List(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, branches, nil)
}

// Create godoc
// @Summary Register a branch
// @Tags Branches
// @Accept json
// @Produce json
// @Param slug path string true "School slug"
// @Param payload body dto.CreateBranchRequest true "Branch payload"
// @Success 201 {object} response.Envelope
// @Router /schools/{slug}/branches [post]
func (h *BranchHandler) Create(c *gin.Context) {
	scope, err := scopeFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	branch, err := h.service.Create(c.Request.Context(), scope, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, branch)
}

// Delete godoc
// @Summary Remove an unused branch
// @Tags Branches
// @Param slug path string true "School slug"
// @Param id path string true "Branch ID"
// @Success 204
// @Router /schools/{slug}/branches/{id} [delete]
func (h *BranchHandler) Delete(c *gin.Context) {
	scope, err := scopeFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), scope, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
