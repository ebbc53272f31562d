package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
	"github.com/mamadbah2/repairdesk/internal/repository/files"
	"github.com/mamadbah2/repairdesk/internal/server/middleware"
	"github.com/mamadbah2/repairdesk/internal/service/users"
)

// respondError maps a service error to its HTTP status. Unexpected errors are
// logged and hidden from the caller.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var tooLarge *http.MaxBytesError
	status, message := http.StatusInternalServerError, "erreur interne"

	switch {
	case errors.Is(err, models.ErrValidation):
		status, message = http.StatusBadRequest, detail(err, models.ErrValidation, "requête invalide")
	case errors.Is(err, models.ErrNotFound):
		status, message = http.StatusNotFound, detail(err, models.ErrNotFound, "ressource introuvable")
	case errors.Is(err, models.ErrConflict):
		status, message = http.StatusConflict, detail(err, models.ErrConflict, "conflit")
	case errors.Is(err, users.ErrUnauthorized):
		status, message = http.StatusUnauthorized, "identifiants invalides"
	case errors.Is(err, files.ErrTooLarge), errors.As(err, &tooLarge):
		status, message = http.StatusRequestEntityTooLarge, "fichier trop volumineux"
	case errors.Is(err, files.ErrUnsupportedType):
		status, message = http.StatusUnsupportedMediaType, "type de fichier non autorisé (jpeg, png, webp, pdf)"
	case errors.Is(err, files.ErrEmpty):
		status, message = http.StatusBadRequest, "fichier vide"
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", middleware.RequestIDFrom(c)),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// detail returns the human message carried after the sentinel, if any.
func detail(err, sentinel error, fallback string) string {
	if _, msg, ok := strings.Cut(err.Error(), sentinel.Error()+": "); ok && msg != "" {
		return msg
	}
	return fallback
}

// bindJSON decodes the body into dst, answering 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "requête trop volumineuse"})
			return false
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "corps de requête invalide", "details": err.Error()})
		return false
	}
	return true
}

// pathID parses the ObjectID path parameter name, answering 400 on failure.
func pathID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "identifiant invalide: " + name})
		return primitive.NilObjectID, false
	}
	return id, true
}

// listParams reads page, limit and search. Every other query parameter is
// passed through as a filter.
func listParams(c *gin.Context) models.ListParams {
	params := models.ListParams{
		Page:    atoi(c.Query("page")),
		Limit:   atoi(c.Query("limit")),
		Search:  strings.TrimSpace(c.Query("search")),
		Filters: map[string]string{},
	}
	for key, values := range c.Request.URL.Query() {
		switch key {
		case "page", "limit", "search":
			continue
		}
		if len(values) > 0 && values[0] != "" {
			params.Filters[key] = values[0]
		}
	}
	return params.Normalize()
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// actor returns the authenticated user id.
func actor(c *gin.Context) (primitive.ObjectID, bool) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentification requise"})
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session invalide ou expirée"})
		return primitive.NilObjectID, false
	}
	return id, true
}
