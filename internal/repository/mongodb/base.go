package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
)

// base implements the CRUD plumbing shared by the entity repositories.
type base[T any] struct {
	coll   *mongo.Collection
	entity string
}

func newBase[T any](coll *mongo.Collection, entity string) base[T] {
	return base[T]{coll: coll, entity: entity}
}

func (b base[T]) insert(ctx context.Context, doc *T) (primitive.ObjectID, error) {
	res, err := b.coll.InsertOne(ctx, doc)
	if err != nil {
		return primitive.NilObjectID, b.writeError("insert", err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("insert %s: unexpected id type %T", b.entity, res.InsertedID)
	}
	return id, nil
}

func (b base[T]) findOne(ctx context.Context, filter any) (*T, error) {
	var out T
	if err := b.coll.FindOne(ctx, filter).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NotFoundf("%s introuvable", b.entity)
		}
		return nil, fmt.Errorf("find %s: %w", b.entity, err)
	}
	return &out, nil
}

func (b base[T]) findByID(ctx context.Context, id primitive.ObjectID) (*T, error) {
	return b.findOne(ctx, bson.M{"_id": id})
}

func (b base[T]) replace(ctx context.Context, id primitive.ObjectID, doc *T) error {
	res, err := b.coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return b.writeError("replace", err)
	}
	if res.MatchedCount == 0 {
		return models.NotFoundf("%s introuvable", b.entity)
	}
	return nil
}

func (b base[T]) updateByID(ctx context.Context, id primitive.ObjectID, update any) error {
	res, err := b.coll.UpdateByID(ctx, id, update)
	if err != nil {
		return b.writeError("update", err)
	}
	if res.MatchedCount == 0 {
		return models.NotFoundf("%s introuvable", b.entity)
	}
	return nil
}

func (b base[T]) deleteByID(ctx context.Context, id primitive.ObjectID) error {
	res, err := b.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete %s: %w", b.entity, err)
	}
	if res.DeletedCount == 0 {
		return models.NotFoundf("%s introuvable", b.entity)
	}
	return nil
}

func (b base[T]) find(ctx context.Context, filter any, opts ...*options.FindOptions) ([]T, error) {
	cur, err := b.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", b.entity, err)
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", b.entity, err)
	}
	return out, nil
}

func (b base[T]) page(ctx context.Context, filter bson.M, params models.ListParams, sort bson.D) ([]T, int64, error) {
	params = params.Normalize()
	total, err := b.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", b.entity, err)
	}
	opts := options.Find().
		SetSort(sort).
		SetSkip(params.Skip()).
		SetLimit(int64(params.Limit))
	items, err := b.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (b base[T]) count(ctx context.Context, filter any) (int64, error) {
	n, err := b.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", b.entity, err)
	}
	return n, nil
}

func (b base[T]) writeError(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return models.Conflictf("%s déjà existant (valeur unique dupliquée)", b.entity)
	}
	return fmt.Errorf("%s %s: %w", op, b.entity, err)
}

// aggregate runs a pipeline and decodes every result into out.
func aggregate(ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline, out any) error {
	cur, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return fmt.Errorf("aggregate %s: %w", coll.Name(), err)
	}
	if err := cur.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s aggregation: %w", coll.Name(), err)
	}
	return nil
}

// searchFilter builds a case-insensitive substring match over fields.
func searchFilter(search string, fields ...string) bson.M {
	if search == "" {
		return bson.M{}
	}
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	or := make(bson.A, 0, len(fields))
	for _, f := range fields {
		or = append(or, bson.M{f: pattern})
	}
	return bson.M{"$or": or}
}

// objectIDFilter adds key=id to filter when raw is a valid hex id.
func objectIDFilter(filter bson.M, key, raw string) error {
	if raw == "" {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return models.Validationf("identifiant %s invalide", key)
	}
	filter[key] = id
	return nil
}
