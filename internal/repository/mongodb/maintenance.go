package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
)

// MaintenanceRepository stores the single maintenance flag document.
type MaintenanceRepository struct {
	coll *mongo.Collection
}

// Get returns the flag, creating it on first access. The fixed _id makes
// concurrent first reads converge on one document.
func (r *MaintenanceRepository) Get(ctx context.Context) (*models.Maintenance, error) {
	update := bson.M{"$setOnInsert": bson.M{
		"actif":     false,
		"message":   "",
		"updatedAt": time.Now(),
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var out models.Maintenance
	err := upsertOnce(func() error {
		return r.coll.FindOneAndUpdate(ctx, bson.M{"_id": models.MaintenanceID}, update, opts).Decode(&out)
	})
	if err != nil {
		return nil, fmt.Errorf("get maintenance: %w", err)
	}
	return &out, nil
}

// Set updates the flag.
func (r *MaintenanceRepository) Set(ctx context.Context, actif bool, message, by string) (*models.Maintenance, error) {
	update := bson.M{"$set": bson.M{
		"actif":     actif,
		"message":   message,
		"updatedAt": time.Now(),
		"updatedBy": by,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var out models.Maintenance
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": models.MaintenanceID}, update, opts).Decode(&out); err != nil {
		return nil, fmt.Errorf("set maintenance: %w", err)
	}
	return &out, nil
}
