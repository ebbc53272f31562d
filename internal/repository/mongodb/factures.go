package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
)

// FactureRepository persists invoices.
type FactureRepository struct {
	base[models.Facture]
}

func (r *FactureRepository) Insert(ctx context.Context, f *models.Facture) error {
	id, err := r.insert(ctx, f)
	if err != nil {
		return err
	}
	f.ID = id
	return nil
}

func (r *FactureRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Facture, error) {
	return r.findByID(ctx, id)
}

func (r *FactureRepository) List(ctx context.Context, params models.ListParams) ([]models.Facture, int64, error) {
	filter := searchFilter(params.Search, "numero", "notes", "lignes.description")
	if v := params.Filter("statut"); v != "" {
		filter["statut"] = v
	}
	if err := objectIDFilter(filter, "clientId", params.Filter("clientId")); err != nil {
		return nil, 0, err
	}
	if err := dateRangeFilter(filter, "dateEmission", params.Filter("du"), params.Filter("au")); err != nil {
		return nil, 0, err
	}
	return r.page(ctx, filter, params, bson.D{{Key: "dateEmission", Value: -1}})
}

func (r *FactureRepository) Replace(ctx context.Context, f *models.Facture) error {
	return r.replace(ctx, f.ID, f)
}

func (r *FactureRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.deleteByID(ctx, id)
}

// CountByClient counts invoices addressed to a client.
func (r *FactureRepository) CountByClient(ctx context.Context, clientID primitive.ObjectID) (int64, error) {
	return r.count(ctx, bson.M{"clientId": clientID})
}

// ListUnpaid returns invoices still awaiting payment.
func (r *FactureRepository) ListUnpaid(ctx context.Context) ([]models.Facture, error) {
	return r.find(ctx, bson.M{"statut": bson.M{"$in": models.UnpaidFactureStatuts}},
		options.Find().SetSort(bson.D{{Key: "dateEmission", Value: 1}}))
}

// ListOverdue returns emitted invoices whose due date is before now.
func (r *FactureRepository) ListOverdue(ctx context.Context, now time.Time) ([]models.Facture, error) {
	filter := bson.M{
		"statut":       models.FactureEmise,
		"dateEcheance": bson.M{"$lt": now},
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "dateEcheance", Value: 1}}))
}

// StatsByStatut groups invoices per statut with their summed totalTTC.
func (r *FactureRepository) StatsByStatut(ctx context.Context) ([]models.StatutCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   "$statut",
			"count": bson.M{"$sum": 1},
			"total": bson.M{"$sum": "$totalTTC"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	var out []models.StatutCount
	if err := aggregate(ctx, r.coll, pipeline, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PaidByYear sums totalTTC of paid invoices per emission year.
func (r *FactureRepository) PaidByYear(ctx context.Context) ([]models.YearTotal, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"statut": models.FacturePayee}}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"$year": "$dateEmission"},
			"total": bson.M{"$sum": "$totalTTC"},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	var out []models.YearTotal
	if err := aggregate(ctx, r.coll, pipeline, &out); err != nil {
		return nil, err
	}
	return out, nil
}
