package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
	"github.com/mamadbah2/repairdesk/internal/repository/files"
	"github.com/mamadbah2/repairdesk/internal/service/documents"
)

// uploadField is the multipart field carrying the file.
const uploadField = "fichier"

// multipartOverhead leaves room for boundaries and headers around the file.
const multipartOverhead = 64 << 10

// Uploader stores files attached to records.
type Uploader interface {
	Enabled() bool
	MaxBytes() int64
	Upload(ctx context.Context, entity, id, name string, data []byte) (models.Fichier, error)
	URL(ctx context.Context, key string) (string, error)
	Discard(ctx context.Context, key string)
}

// receiveUpload reads the uploaded file, stores it under entity/id and hands
// the reference to attach. The object is removed again if attach fails.
func receiveUpload(c *gin.Context, up Uploader, logger *zap.Logger, entity, id string, attach func(models.Fichier) error) {
	if up == nil || !up.Enabled() {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "stockage de fichiers non configuré"})
		return
	}

	limit := up.MaxBytes()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)

	header, err := c.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, logger, files.ErrTooLarge)
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("champ %q manquant", uploadField)})
		return
	}
	if header.Size > limit {
		respondError(c, logger, files.ErrTooLarge)
		return
	}

	f, err := header.Open()
	if err != nil {
		respondError(c, logger, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		respondError(c, logger, fmt.Errorf("read upload: %w", err))
		return
	}

	stored, err := up.Upload(c.Request.Context(), entity, id, header.Filename, data)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	if err := attach(stored); err != nil {
		up.Discard(context.WithoutCancel(c.Request.Context()), stored.Key)
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusCreated, stored)
}

// FileHandler serves downloads of stored files.
type FileHandler struct {
	up     Uploader
	logger *zap.Logger
}

// NewFileHandler constructs the HTTP handler adapter.
func NewFileHandler(up Uploader, logger *zap.Logger) *FileHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileHandler{up: up, logger: logger}
}

// Download redirects to a temporary link to the object.
func (h *FileHandler) Download(c *gin.Context) {
	if h.up == nil || !h.up.Enabled() {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "stockage de fichiers non configuré"})
		return
	}
	key := strings.TrimPrefix(c.Param("key"), "/")
	url, err := h.up.URL(c.Request.Context(), key)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

func sendFile(c *gin.Context, f *documents.File) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Name))
	c.Data(http.StatusOK, f.ContentType, f.Data)
}
