package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
	"github.com/mamadbah2/repairdesk/internal/service/prets"
)

// PretService is the loaner device and loan use-case surface.
type PretService interface {
	CreateDevice(ctx context.Context, a *models.AppareilPret) error
	GetDevice(ctx context.Context, id primitive.ObjectID) (*models.AppareilPret, error)
	ListDevices(ctx context.Context, params models.ListParams) (models.Page[models.AppareilPret], error)
	UpdateDevice(ctx context.Context, id primitive.ObjectID, in *models.AppareilPret) (*models.AppareilPret, error)
	DeleteDevice(ctx context.Context, id primitive.ObjectID) error
	Lend(ctx context.Context, in prets.LoanInput) (*models.Pret, error)
	Return(ctx context.Context, id primitive.ObjectID, in prets.ReturnInput) (*models.Pret, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Pret, error)
	List(ctx context.Context, params models.ListParams) (models.Page[models.Pret], error)
	Update(ctx context.Context, id primitive.ObjectID, in prets.LoanInput) (*models.Pret, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// PretHandler serves /api/appareils-pret and /api/prets.
type PretHandler struct {
	svc    PretService
	logger *zap.Logger
}

// NewPretHandler constructs the HTTP handler adapter.
func NewPretHandler(svc PretService, logger *zap.Logger) *PretHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PretHandler{svc: svc, logger: logger}
}

func (h *PretHandler) ListDevices(c *gin.Context) {
	page, err := h.svc.ListDevices(c.Request.Context(), listParams(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *PretHandler) GetDevice(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	a, err := h.svc.GetDevice(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *PretHandler) CreateDevice(c *gin.Context) {
	var in models.AppareilPret
	if !bindJSON(c, &in) {
		return
	}
	if err := h.svc.CreateDevice(c.Request.Context(), &in); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, in)
}

func (h *PretHandler) UpdateDevice(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in models.AppareilPret
	if !bindJSON(c, &in) {
		return
	}
	a, err := h.svc.UpdateDevice(c.Request.Context(), id, &in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *PretHandler) DeleteDevice(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteDevice(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PretHandler) List(c *gin.Context) {
	page, err := h.svc.List(c.Request.Context(), listParams(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *PretHandler) Get(c *gin.Context) {
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

// Create lends a device.
func (h *PretHandler) Create(c *gin.Context) {
	var in prets.LoanInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.svc.Lend(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *PretHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in prets.LoanInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.svc.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Return closes a loan. The body is optional.
func (h *PretHandler) Return(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in prets.ReturnInput
	if c.Request.ContentLength != 0 && !bindJSON(c, &in) {
		return
	}
	p, err := h.svc.Return(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PretHandler) Delete(c *gin.Context) {
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
