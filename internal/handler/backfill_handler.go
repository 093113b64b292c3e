package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/preschool-ops-api/internal/service"
	"github.com/noah-isme/preschool-ops-api/pkg/response"
)

type backfillRunner interface {
	Trigger(opts service.BackfillOptions) (string, error)
	Status() service.BackfillRunStatus
}

// BackfillHandler lets operators run the branch backfill on demand.
type BackfillHandler struct {
	runner backfillRunner
}

// NewBackfillHandler builds a new handler.
func NewBackfillHandler(runner backfillRunner) *BackfillHandler {
	return &BackfillHandler{runner: runner}
}

// Trigger godoc
// @Summary Queue a branch backfill run
// @Tags Admin
// @Produce json
// @Param dryRun query bool false "Count without writing"
// @Success 202 {object} response.Envelope
// @Router /admin/branch-backfill [post]
func (h *BackfillHandler) Trigger(c *gin.Context) {
	opts := service.BackfillOptions{DryRun: c.Query("dryRun") == "true"}
	jobID, err := h.runner.Trigger(opts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"jobId": jobID, "dryRun": opts.DryRun}, nil)
}

// Last godoc
// @Summary Last backfill report, last failure and queue state
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/branch-backfill/last [get]
func (h *BackfillHandler) Last(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.runner.Status(), nil)
}
