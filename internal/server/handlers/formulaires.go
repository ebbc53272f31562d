package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
)

// FormulaireService is the internal form use-case surface.
type FormulaireService interface {
	Create(ctx context.Context, f *models.Formulaire, auteur primitive.ObjectID) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Formulaire, error)
	List(ctx context.Context, params models.ListParams) (models.Page[models.Formulaire], error)
	Update(ctx context.Context, id primitive.ObjectID, in *models.Formulaire) (*models.Formulaire, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// FormulaireHandler serves /api/formulaires.
type FormulaireHandler struct {
	svc    FormulaireService
	logger *zap.Logger
}

// NewFormulaireHandler constructs the HTTP handler adapter.
func NewFormulaireHandler(svc FormulaireService, logger *zap.Logger) *FormulaireHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FormulaireHandler{svc: svc, logger: logger}
}

func (h *FormulaireHandler) List(c *gin.Context) {
	page, err := h.svc.List(c.Request.Context(), listParams(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *FormulaireHandler) Get(c *gin.Context) {
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

func (h *FormulaireHandler) Create(c *gin.Context) {
	auteur, ok := actor(c)
	if !ok {
		return
	}
	var in models.Formulaire
	if !bindJSON(c, &in) {
		return
	}
	if err := h.svc.Create(c.Request.Context(), &in, auteur); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, in)
}

func (h *FormulaireHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in models.Formulaire
	if !bindJSON(c, &in) {
		return
	}
	f, err := h.svc.Update(c.Request.Context(), id, &in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *FormulaireHandler) Delete(c *gin.Context) {
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
