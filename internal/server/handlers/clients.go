package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
)

// ClientService is the client use-case surface.
type ClientService interface {
	Create(ctx context.Context, c *models.Client) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Client, error)
	List(ctx context.Context, params models.ListParams) (models.Page[models.Client], error)
	Update(ctx context.Context, id primitive.ObjectID, in *models.Client) (*models.Client, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	AddAppareil(ctx context.Context, clientID primitive.ObjectID, a models.Appareil) (*models.Appareil, error)
	UpdateAppareil(ctx context.Context, clientID, appareilID primitive.ObjectID, a models.Appareil) (*models.Appareil, error)
	RemoveAppareil(ctx context.Context, clientID, appareilID primitive.ObjectID) error
}

// ClientHandler serves /api/clients.
type ClientHandler struct {
	svc    ClientService
	logger *zap.Logger
}

// NewClientHandler constructs the HTTP handler adapter.
func NewClientHandler(svc ClientService, logger *zap.Logger) *ClientHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientHandler{svc: svc, logger: logger}
}

func (h *ClientHandler) List(c *gin.Context) {
	page, err := h.svc.List(c.Request.Context(), listParams(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ClientHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	client, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func (h *ClientHandler) Create(c *gin.Context) {
	var in models.Client
	if !bindJSON(c, &in) {
		return
	}
	if err := h.svc.Create(c.Request.Context(), &in); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, in)
}

func (h *ClientHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in models.Client
	if !bindJSON(c, &in) {
		return
	}
	client, err := h.svc.Update(c.Request.Context(), id, &in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func (h *ClientHandler) Delete(c *gin.Context) {
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

func (h *ClientHandler) AddAppareil(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in models.Appareil
	if !bindJSON(c, &in) {
		return
	}
	a, err := h.svc.AddAppareil(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *ClientHandler) UpdateAppareil(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	appareilID, ok := pathID(c, "appareilId")
	if !ok {
		return
	}
	var in models.Appareil
	if !bindJSON(c, &in) {
		return
	}
	a, err := h.svc.UpdateAppareil(c.Request.Context(), id, appareilID, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *ClientHandler) RemoveAppareil(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	appareilID, ok := pathID(c, "appareilId")
	if !ok {
		return
	}
	if err := h.svc.RemoveAppareil(c.Request.Context(), id, appareilID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
