package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
	"github.com/mamadbah2/repairdesk/internal/server/middleware"
)

// MaintenanceService reads and toggles the maintenance flag.
type MaintenanceService interface {
	Get(ctx context.Context) (*models.Maintenance, error)
	Set(ctx context.Context, actif bool, message, by string) (*models.Maintenance, error)
}

// MaintenanceHandler serves /api/maintenance.
type MaintenanceHandler struct {
	svc    MaintenanceService
	logger *zap.Logger
}

func NewMaintenanceHandler(svc MaintenanceService, logger *zap.Logger) *MaintenanceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaintenanceHandler{svc: svc, logger: logger}
}

func (h *MaintenanceHandler) Get(c *gin.Context) {
	m, err := h.svc.Get(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

type maintenanceRequest struct {
	Actif   *bool  `json:"actif" binding:"required"`
	Message string `json:"message"`
}

func (h *MaintenanceHandler) Set(c *gin.Context) {
	var req maintenanceRequest
	if !bindJSON(c, &req) {
		return
	}
	var by string
	if claims, ok := middleware.ClaimsFrom(c); ok {
		by = claims.Email
	}
	m, err := h.svc.Set(c.Request.Context(), *req.Actif, req.Message, by)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.logger.Info("maintenance mode changed", zap.Bool("actif", m.Actif), zap.String("by", by))
	c.JSON(http.StatusOK, m)
}
