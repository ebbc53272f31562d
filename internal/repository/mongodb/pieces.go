package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
)

// PieceRepository persists spare parts.
type PieceRepository struct {
	base[models.Piece]
}

// criticalFilter matches active parts whose stock fell below the minimum.
var criticalFilter = bson.M{
	"actif": true,
	"$expr": bson.M{"$lt": bson.A{"$quantiteStock", "$quantiteMinimum"}},
}

func (r *PieceRepository) Insert(ctx context.Context, p *models.Piece) error {
	id, err := r.insert(ctx, p)
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

func (r *PieceRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Piece, error) {
	return r.findByID(ctx, id)
}

func (r *PieceRepository) List(ctx context.Context, params models.ListParams) ([]models.Piece, int64, error) {
	filter := searchFilter(params.Search, "reference", "designation", "marque", "fournisseur")
	switch params.Filter("actif") {
	case "false":
		filter["actif"] = false
	case "all":
	default:
		filter["actif"] = true
	}
	if v := params.Filter("categorie"); v != "" {
		filter["categorie"] = v
	}
	if params.Filter("critique") == "true" {
		filter["$expr"] = criticalFilter["$expr"]
	}
	return r.page(ctx, filter, params, bson.D{{Key: "reference", Value: 1}})
}

// ListAll returns every active part, for exports.
func (r *PieceRepository) ListAll(ctx context.Context) ([]models.Piece, error) {
	return r.find(ctx, bson.M{"actif": true}, options.Find().SetSort(bson.D{{Key: "reference", Value: 1}}))
}

func (r *PieceRepository) Replace(ctx context.Context, p *models.Piece) error {
	return r.replace(ctx, p.ID, p)
}

// Deactivate soft-deletes a part; its reference stays reserved.
func (r *PieceRepository) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{"actif": false, "updatedAt": time.Now()}})
}

// AdjustStock atomically adds delta to the stock. A negative delta never
// takes the stock below zero.
func (r *PieceRepository) AdjustStock(ctx context.Context, id primitive.ObjectID, delta int) (*models.Piece, error) {
	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["quantiteStock"] = bson.M{"$gte": -delta}
	}
	update := bson.M{
		"$inc": bson.M{"quantiteStock": delta},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	var out models.Piece
	err := r.coll.FindOneAndUpdate(ctx, filter, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if _, findErr := r.findByID(ctx, id); findErr != nil {
				return nil, findErr
			}
			return nil, models.Conflictf("stock insuffisant")
		}
		return nil, fmt.Errorf("adjust stock: %w", err)
	}
	return &out, nil
}

// ListCritical returns active parts under their minimum threshold.
func (r *PieceRepository) ListCritical(ctx context.Context) ([]models.Piece, error) {
	return r.find(ctx, criticalFilter, options.Find().SetSort(bson.D{{Key: "quantiteStock", Value: 1}}))
}

// Stats aggregates counts and stock value of active parts.
func (r *PieceRepository) Stats(ctx context.Context) (models.PieceStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"actif": true}}},
		{{Key: "$group", Value: bson.M{
			"_id":       nil,
			"count":     bson.M{"$sum": 1},
			"units":     bson.M{"$sum": "$quantiteStock"},
			"value":     bson.M{"$sum": bson.M{"$multiply": bson.A{"$quantiteStock", "$prixAchat"}}},
			"saleValue": bson.M{"$sum": bson.M{"$multiply": bson.A{"$quantiteStock", "$prixVente"}}},
		}}},
	}
	var rows []models.PieceStats
	if err := aggregate(ctx, r.coll, pipeline, &rows); err != nil {
		return models.PieceStats{}, err
	}
	var out models.PieceStats
	if len(rows) > 0 {
		out = rows[0]
	}
	critical, err := r.count(ctx, criticalFilter)
	if err != nil {
		return out, err
	}
	out.CriticalRefs = int(critical)
	return out, nil
}
