package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
	"github.com/mamadbah2/repairdesk/internal/service/pieces"
)

// PieceService is the spare part use-case surface.
type PieceService interface {
	Create(ctx context.Context, p *models.Piece) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Piece, error)
	List(ctx context.Context, params models.ListParams) (models.Page[models.Piece], error)
	Update(ctx context.Context, id primitive.ObjectID, in *models.Piece) (*models.Piece, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	AdjustStock(ctx context.Context, id primitive.ObjectID, move pieces.StockMove) (*models.Piece, error)
	Critical(ctx context.Context) ([]models.Piece, error)
}

// PieceHandler serves /api/pieces.
type PieceHandler struct {
	svc    PieceService
	docs   DocumentService
	logger *zap.Logger
}

// NewPieceHandler constructs the HTTP handler adapter.
func NewPieceHandler(svc PieceService, docs DocumentService, logger *zap.Logger) *PieceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PieceHandler{svc: svc, docs: docs, logger: logger}
}

func (h *PieceHandler) List(c *gin.Context) {
	page, err := h.svc.List(c.Request.Context(), listParams(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *PieceHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PieceHandler) Create(c *gin.Context) {
	var in models.Piece
	if !bindJSON(c, &in) {
		return
	}
	if err := h.svc.Create(c.Request.Context(), &in); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, in)
}

func (h *PieceHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in models.Piece
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.svc.Update(c.Request.Context(), id, &in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PieceHandler) Delete(c *gin.Context) {
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

// AdjustStock applies a relative ({"delta": -2}) or absolute
// ({"quantite": 10}) stock movement.
func (h *PieceHandler) AdjustStock(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var move pieces.StockMove
	if !bindJSON(c, &move) {
		return
	}
	p, err := h.svc.AdjustStock(c.Request.Context(), id, move)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Alerts lists parts in stock critique.
func (h *PieceHandler) Alerts(c *gin.Context) {
	items, err := h.svc.Critical(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if items == nil {
		items = []models.Piece{}
	}
	c.JSON(http.StatusOK, gin.H{"data": items, "total": len(items)})
}

// Export streams the active inventory as xlsx.
func (h *PieceHandler) Export(c *gin.Context) {
	f, err := h.docs.PiecesWorkbook(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	sendFile(c, f)
}
