package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
	"github.com/mamadbah2/repairdesk/internal/service/factures"
)

// FactureService is the invoice use-case surface.
type FactureService interface {
	Create(ctx context.Context, in factures.Input) (*models.Facture, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Facture, error)
	List(ctx context.Context, params models.ListParams) (models.Page[models.Facture], error)
	Update(ctx context.Context, id primitive.ObjectID, in factures.Input) (*models.Facture, error)
	UpdateStatut(ctx context.Context, id primitive.ObjectID, statut models.FactureStatut, modePaiement string) (*models.Facture, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// FactureHandler serves /api/factures.
type FactureHandler struct {
	svc    FactureService
	docs   DocumentService
	logger *zap.Logger
}

// NewFactureHandler constructs the HTTP handler adapter.
func NewFactureHandler(svc FactureService, docs DocumentService, logger *zap.Logger) *FactureHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FactureHandler{svc: svc, docs: docs, logger: logger}
}

func (h *FactureHandler) List(c *gin.Context) {
	page, err := h.svc.List(c.Request.Context(), listParams(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *FactureHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	f, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *FactureHandler) Create(c *gin.Context) {
	var in factures.Input
	if !bindJSON(c, &in) {
		return
	}
	f, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

func (h *FactureHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in factures.Input
	if !bindJSON(c, &in) {
		return
	}
	f, err := h.svc.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

type factureStatutRequest struct {
	Statut       string `json:"statut" binding:"required"`
	ModePaiement string `json:"modePaiement"`
}

func (h *FactureHandler) UpdateStatut(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req factureStatutRequest
	if !bindJSON(c, &req) {
		return
	}
	f, err := h.svc.UpdateStatut(c.Request.Context(), id, models.FactureStatut(req.Statut), req.ModePaiement)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *FactureHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PDF streams the invoice.
func (h *FactureHandler) PDF(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	f, err := h.docs.FacturePDF(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	sendFile(c, f)
}
