package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
	"github.com/mamadbah2/repairdesk/internal/service/vehicules"
)

// VehiculeService is the fleet use-case surface.
type VehiculeService interface {
	Create(ctx context.Context, v *models.Vehicule) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Vehicule, error)
	List(ctx context.Context, params models.ListParams) (models.Page[models.Vehicule], error)
	Update(ctx context.Context, id primitive.ObjectID, in *models.Vehicule) (*models.Vehicule, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	AddKilometrage(ctx context.Context, id primitive.ObjectID, r models.ReleveKilometrage) (*models.Vehicule, error)
	AddCarburant(ctx context.Context, id primitive.ObjectID, p models.PleinCarburant) (*models.Vehicule, error)
	AttachDocument(ctx context.Context, id primitive.ObjectID, f models.Fichier) error
	Stats(ctx context.Context) ([]vehicules.VehiculeStats, error)
}

// VehiculeHandler serves /api/vehicules.
type VehiculeHandler struct {
	svc    VehiculeService
	files  Uploader
	logger *zap.Logger
}

// NewVehiculeHandler constructs the HTTP handler adapter.
func NewVehiculeHandler(svc VehiculeService, files Uploader, logger *zap.Logger) *VehiculeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VehiculeHandler{svc: svc, files: files, logger: logger}
}

func (h *VehiculeHandler) List(c *gin.Context) {
	page, err := h.svc.List(c.Request.Context(), listParams(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *VehiculeHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *VehiculeHandler) Create(c *gin.Context) {
	var in models.Vehicule
	if !bindJSON(c, &in) {
		return
	}
	if err := h.svc.Create(c.Request.Context(), &in); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, in)
}

func (h *VehiculeHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in models.Vehicule
	if !bindJSON(c, &in) {
		return
	}
	v, err := h.svc.Update(c.Request.Context(), id, &in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *VehiculeHandler) Delete(c *gin.Context) {
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

func (h *VehiculeHandler) AddKilometrage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in models.ReleveKilometrage
	if !bindJSON(c, &in) {
		return
	}
	v, err := h.svc.AddKilometrage(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *VehiculeHandler) AddCarburant(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in models.PleinCarburant
	if !bindJSON(c, &in) {
		return
	}
	v, err := h.svc.AddCarburant(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

// AddDocument stores a multipart document (carte grise, assurance...) on the
// vehicle.
func (h *VehiculeHandler) AddDocument(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := h.svc.Get(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	receiveUpload(c, h.files, h.logger, "vehicules", id.Hex(), func(f models.Fichier) error {
		return h.svc.AttachDocument(c.Request.Context(), id, f)
	})
}

func (h *VehiculeHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vehicules": stats})
}
