package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
	"github.com/mamadbah2/repairdesk/internal/service/reporting"
)

// ReportingService computes the dashboard and statistics payloads.
type ReportingService interface {
	Dashboard(ctx context.Context) reporting.Dashboard
	Revenue(ctx context.Context) ([]models.MonthBucket, error)
	Alerts(ctx context.Context) reporting.Alerts
	InterventionStats(ctx context.Context) (reporting.InterventionStats, error)
	FactureStats(ctx context.Context) (reporting.FactureStats, error)
	PieceStats(ctx context.Context) (models.PieceStats, error)
	PretStats(ctx context.Context) (reporting.PretStats, error)
}

// DashboardHandler serves /api/dashboard and /api/stats.
type DashboardHandler struct {
	svc    ReportingService
	logger *zap.Logger
}

func NewDashboardHandler(svc ReportingService, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{svc: svc, logger: logger}
}

// Dashboard always answers 200; failed sections are listed in the payload.
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Dashboard(c.Request.Context()))
}

func (h *DashboardHandler) Revenue(c *gin.Context) {
	months, err := h.svc.Revenue(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": months})
}

func (h *DashboardHandler) Alerts(c *gin.Context) {
	a := h.svc.Alerts(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"alertes": a, "total": a.Count()})
}

func (h *DashboardHandler) InterventionStats(c *gin.Context) {
	st, err := h.svc.InterventionStats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *DashboardHandler) FactureStats(c *gin.Context) {
	st, err := h.svc.FactureStats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *DashboardHandler) PieceStats(c *gin.Context) {
	st, err := h.svc.PieceStats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *DashboardHandler) PretStats(c *gin.Context) {
	st, err := h.svc.PretStats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
