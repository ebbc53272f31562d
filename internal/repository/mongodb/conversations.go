package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
)

// ConversationRepository persists assistant chat logs.
type ConversationRepository struct {
	base[models.Conversation]
}

func (r *ConversationRepository) Insert(ctx context.Context, c *models.Conversation) error {
	id, err := r.insert(ctx, c)
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

// FindForUser returns a conversation only when it belongs to userID.
func (r *ConversationRepository) FindForUser(ctx context.Context, id, userID primitive.ObjectID) (*models.Conversation, error) {
	return r.findOne(ctx, bson.M{"_id": id, "userId": userID})
}

// ListByUser returns the conversations of a user, most recent first,
// without their messages.
func (r *ConversationRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]models.Conversation, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"messages": 0})
	return r.find(ctx, bson.M{"userId": userID}, opts)
}

// Append pushes messages onto the conversation log.
func (r *ConversationRepository) Append(ctx context.Context, id primitive.ObjectID, msgs ...models.ChatMessage) error {
	return r.updateByID(ctx, id, bson.M{
		"$push": bson.M{"messages": bson.M{"$each": msgs}},
		"$set":  bson.M{"updatedAt": time.Now()},
	})
}

// DeleteForUser removes a conversation owned by userID.
func (r *ConversationRepository) DeleteForUser(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return r.writeError("delete", err)
	}
	if res.DeletedCount == 0 {
		return models.NotFoundf("conversation introuvable")
	}
	return nil
}
