package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
	"github.com/mamadbah2/repairdesk/internal/service/documents"
	"github.com/mamadbah2/repairdesk/internal/service/interventions"
)

// InterventionService is the repair ticket use-case surface.
type InterventionService interface {
	Create(ctx context.Context, in interventions.Input) (*models.Intervention, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Intervention, error)
	List(ctx context.Context, params models.ListParams) (models.Page[models.Intervention], error)
	Update(ctx context.Context, id primitive.ObjectID, in interventions.Input) (*models.Intervention, error)
	UpdateStatut(ctx context.Context, id primitive.ObjectID, statut models.InterventionStatut) (*models.Intervention, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	AttachPhoto(ctx context.Context, id primitive.ObjectID, f models.Fichier) error
}

// DocumentService renders PDFs and spreadsheet exports.
type DocumentService interface {
	InterventionPDF(ctx context.Context, id primitive.ObjectID) (*documents.File, error)
	FacturePDF(ctx context.Context, id primitive.ObjectID) (*documents.File, error)
	PiecesWorkbook(ctx context.Context) (*documents.File, error)
	InterventionsWorkbook(ctx context.Context, year int) (*documents.File, error)
}

// InterventionHandler serves /api/interventions.
type InterventionHandler struct {
	svc    InterventionService
	docs   DocumentService
	files  Uploader
	logger *zap.Logger
}

// NewInterventionHandler constructs the HTTP handler adapter.
func NewInterventionHandler(svc InterventionService, docs DocumentService, files Uploader, logger *zap.Logger) *InterventionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InterventionHandler{svc: svc, docs: docs, files: files, logger: logger}
}

func (h *InterventionHandler) List(c *gin.Context) {
	page, err := h.svc.List(c.Request.Context(), listParams(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *InterventionHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	iv, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, iv)
}

func (h *InterventionHandler) Create(c *gin.Context) {
	var in interventions.Input
	if !bindJSON(c, &in) {
		return
	}
	iv, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, iv)
}

func (h *InterventionHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in interventions.Input
	if !bindJSON(c, &in) {
		return
	}
	iv, err := h.svc.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, iv)
}

type statutRequest struct {
	Statut string `json:"statut" binding:"required"`
}

func (h *InterventionHandler) UpdateStatut(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req statutRequest
	if !bindJSON(c, &req) {
		return
	}
	iv, err := h.svc.UpdateStatut(c.Request.Context(), id, models.InterventionStatut(req.Statut))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, iv)
}

func (h *InterventionHandler) Delete(c *gin.Context) {
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

// AddPhoto stores a multipart photo and attaches it to the intervention.
func (h *InterventionHandler) AddPhoto(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := h.svc.Get(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	receiveUpload(c, h.files, h.logger, "interventions", id.Hex(), func(f models.Fichier) error {
		return h.svc.AttachPhoto(c.Request.Context(), id, f)
	})
}

// PDF streams the work order.
func (h *InterventionHandler) PDF(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	f, err := h.docs.InterventionPDF(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	sendFile(c, f)
}

// Export streams the interventions of ?annee= (current year by default) as xlsx.
func (h *InterventionHandler) Export(c *gin.Context) {
	year := time.Now().Year()
	if raw := c.Query("annee"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "année invalide"})
			return
		}
		year = y
	}
	f, err := h.docs.InterventionsWorkbook(c.Request.Context(), year)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	sendFile(c, f)
}
