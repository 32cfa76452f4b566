package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"coaching-site-backend/internal/apperr"
	"coaching-site-backend/internal/models"
	"coaching-site-backend/internal/reconcile"
)

type OrphanSweeper interface {
	Sweep(ctx context.Context) (*reconcile.Report, error)
}

type MaintenanceHandler struct {
	sweeper OrphanSweeper
	logger  *slog.Logger
}

func NewMaintenanceHandler(sweeper OrphanSweeper, logger *slog.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{sweeper: sweeper, logger: logger}
}

// Sweep godoc
// @Summary     Remove orphaned files
// @Description Deletes stored files that no row references and that are older than the grace period. Returns 409 while another sweep runs. A sweep that stops partway answers 500 with the totals reached so far.
// @Tags        maintenance
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} reconcile.Report
// @Failure     401 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     500 {object} models.SweepFailureResponse
// @Router      /api/v1/maintenance/sweep [post]
func (h *MaintenanceHandler) Sweep(c *gin.Context) {
	report, err := h.sweeper.Sweep(c.Request.Context())
	if err != nil && report != nil {
		_ = c.Error(err)
		h.logger.Error("orphan sweep incomplete",
			"scanned", report.Scanned,
			"orphans", report.Orphans,
			"removed", report.Removed,
			"failed", report.Failed,
			"error", err,
		)
		c.JSON(apperr.HTTPStatus(err), models.SweepFailureResponse{
			Error:  apperr.PublicMessage(err),
			Report: report,
		})
		return
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
