package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
	"github.com/mamadbah2/repairdesk/internal/service/assistant"
)

// AssistantService answers chat messages and manages conversations.
type AssistantService interface {
	Chat(ctx context.Context, userID primitive.ObjectID, conversationID *primitive.ObjectID, message string) (*assistant.Reply, error)
	Conversations(ctx context.Context, userID primitive.ObjectID) ([]models.Conversation, error)
	Conversation(ctx context.Context, id, userID primitive.ObjectID) (*models.Conversation, error)
	DeleteConversation(ctx context.Context, id, userID primitive.ObjectID) error
}

// AssistantHandler serves /api/assistant.
type AssistantHandler struct {
	svc    AssistantService
	logger *zap.Logger
}

func NewAssistantHandler(svc AssistantService, logger *zap.Logger) *AssistantHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssistantHandler{svc: svc, logger: logger}
}

type chatRequest struct {
	Message        string `json:"message" binding:"required"`
	ConversationID string `json:"conversationId"`
}

func (h *AssistantHandler) Chat(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	var req chatRequest
	if !bindJSON(c, &req) {
		return
	}
	var conversationID *primitive.ObjectID
	if req.ConversationID != "" {
		id, err := primitive.ObjectIDFromHex(req.ConversationID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "identifiant invalide: conversationId"})
			return
		}
		conversationID = &id
	}
	reply, err := h.svc.Chat(c.Request.Context(), userID, conversationID, req.Message)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (h *AssistantHandler) Conversations(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	items, err := h.svc.Conversations(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (h *AssistantHandler) Conversation(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	conv, err := h.svc.Conversation(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (h *AssistantHandler) DeleteConversation(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteConversation(c.Request.Context(), id, userID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
