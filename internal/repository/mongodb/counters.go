package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/repairdesk/internal/domain/numbering"
)

// CounterRepository hands out per-kind, per-year sequence numbers.
type CounterRepository struct {
	coll *mongo.Collection
}

type counterDoc struct {
	ID   string `bson:"_id"`
	Kind string `bson:"kind"`
	Year int    `bson:"year"`
	Seq  int64  `bson:"seq"`
}

// Next atomically increments and returns the counter of (kind, year).
func (r *CounterRepository) Next(ctx context.Context, kind numbering.Kind, year int) (int64, error) {
	id := numbering.CounterID(kind, year)
	update := bson.M{
		"$inc":         bson.M{"seq": 1},
		"$setOnInsert": bson.M{"kind": string(kind), "year": year},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc counterDoc
	err := upsertOnce(func() error {
		return r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&doc)
	})
	if err != nil {
		return 0, fmt.Errorf("next counter %s: %w", id, err)
	}
	return doc.Seq, nil
}

// upsertOnce runs an upsert and retries it once when it lost the insert race
// to a concurrent upsert of the same _id.
func upsertOnce(fn func() error) error {
	err := fn()
	if mongo.IsDuplicateKeyError(err) {
		err = fn()
	}
	return err
}

// Reset sets the counter of (kind, year) to seq.
func (r *CounterRepository) Reset(ctx context.Context, kind numbering.Kind, year int, seq int64) error {
	id := numbering.CounterID(kind, year)
	update := bson.M{"$set": bson.M{"kind": string(kind), "year": year, "seq": seq}}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("reset counter %s: %w", id, err)
	}
	return nil
}
