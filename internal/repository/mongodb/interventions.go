package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
	"github.com/mamadbah2/repairdesk/internal/domain/numbering"
)

// InterventionRepository persists repair tickets and runs their reporting
// pipelines.
type InterventionRepository struct {
	base[models.Intervention]
}

func (r *InterventionRepository) Insert(ctx context.Context, iv *models.Intervention) error {
	id, err := r.insert(ctx, iv)
	if err != nil {
		return err
	}
	iv.ID = id
	return nil
}

func (r *InterventionRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Intervention, error) {
	return r.findByID(ctx, id)
}

func (r *InterventionRepository) List(ctx context.Context, params models.ListParams) ([]models.Intervention, int64, error) {
	filter := searchFilter(params.Search, "numero", "description", "diagnostic", "appareil.type", "appareil.marque", "appareil.modele", "appareil.numeroSerie")
	if v := params.Filter("statut"); v != "" {
		filter["statut"] = v
	}
	if v := params.Filter("type"); v != "" {
		filter["type"] = v
	}
	if err := objectIDFilter(filter, "clientId", params.Filter("clientId")); err != nil {
		return nil, 0, err
	}
	if err := objectIDFilter(filter, "technicienId", params.Filter("technicienId")); err != nil {
		return nil, 0, err
	}
	if err := dateRangeFilter(filter, "dateCreation", params.Filter("du"), params.Filter("au")); err != nil {
		return nil, 0, err
	}
	return r.page(ctx, filter, params, bson.D{{Key: "dateCreation", Value: -1}})
}

// ListByYear returns the interventions created during year, oldest first.
func (r *InterventionRepository) ListByYear(ctx context.Context, year int) ([]models.Intervention, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.Local)
	filter := bson.M{"dateCreation": bson.M{"$gte": from, "$lt": from.AddDate(1, 0, 0)}}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "dateCreation", Value: 1}}))
}

func (r *InterventionRepository) Replace(ctx context.Context, iv *models.Intervention) error {
	return r.replace(ctx, iv.ID, iv)
}

func (r *InterventionRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.deleteByID(ctx, id)
}

// CountByClient counts interventions owned by a client.
func (r *InterventionRepository) CountByClient(ctx context.Context, clientID primitive.ObjectID) (int64, error) {
	return r.count(ctx, bson.M{"clientId": clientID})
}

// AddPhoto appends an uploaded file reference.
func (r *InterventionRepository) AddPhoto(ctx context.Context, id primitive.ObjectID, f models.Fichier) error {
	return r.updateByID(ctx, id, bson.M{
		"$push": bson.M{"photos": f},
		"$set":  bson.M{"updatedAt": time.Now()},
	})
}

// ListByStatuts returns the interventions whose statut is in statuts.
func (r *InterventionRepository) ListByStatuts(ctx context.Context, statuts []models.InterventionStatut) ([]models.Intervention, error) {
	opts := options.Find().SetProjection(bson.M{
		"_id": 1, "clientId": 1, "appareil": 1, "statut": 1,
		"dateCreation": 1, "dateRealisation": 1, "garantieJusquau": 1,
	})
	return r.find(ctx, bson.M{"statut": bson.M{"$in": statuts}}, opts)
}

// CountByStatut groups interventions per statut with their summed cost.
func (r *InterventionRepository) CountByStatut(ctx context.Context) ([]models.StatutCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   "$statut",
			"count": bson.M{"$sum": 1},
			"total": bson.M{"$sum": "$coutTotal"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
	}
	var out []models.StatutCount
	if err := aggregate(ctx, r.coll, pipeline, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// billedDate is the business date used to place a billed intervention in time.
var billedDate = bson.M{"$ifNull": bson.A{"$dateRealisation", "$dateCreation"}}

// MonthlyRevenue sums coutTotal of billed interventions per (year, month)
// within [from, to). Months without billed work are absent.
func (r *InterventionRepository) MonthlyRevenue(ctx context.Context, from, to time.Time) ([]models.MonthBucket, error) {
	tz := mongoTimezone(from.Location())
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"statut": models.StatutFacture}}},
		{{Key: "$addFields", Value: bson.M{"_date": billedDate}}},
		{{Key: "$match", Value: bson.M{"_date": bson.M{"$gte": from, "$lt": to}}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"year":  bson.M{"$year": bson.M{"date": "$_date", "timezone": tz}},
				"month": bson.M{"$month": bson.M{"date": "$_date", "timezone": tz}},
			},
			"ca":    bson.M{"$sum": "$coutTotal"},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$project", Value: bson.M{"_id": 0, "year": "$_id.year", "month": "$_id.month", "ca": 1, "count": 1}}},
	}
	var out []models.MonthBucket
	if err := aggregate(ctx, r.coll, pipeline, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SumBilled sums coutTotal of billed interventions within [from, to).
func (r *InterventionRepository) SumBilled(ctx context.Context, from, to time.Time) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"statut": models.StatutFacture}}},
		{{Key: "$addFields", Value: bson.M{"_date": billedDate}}},
		{{Key: "$match", Value: bson.M{"_date": bson.M{"$gte": from, "$lt": to}}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$coutTotal"}}}},
	}
	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := aggregate(ctx, r.coll, pipeline, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

// TopClients ranks clients by the summed cost of their billed interventions.
func (r *InterventionRepository) TopClients(ctx context.Context, limit int) ([]models.RankedClient, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"statut": models.StatutFacture}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$clientId",
			"total": bson.M{"$sum": "$coutTotal"},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "total", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$lookup", Value: bson.M{
			"from":         collClients,
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "client",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$client", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$project", Value: bson.M{
			"total": 1, "count": 1,
			"nom":    "$client.nom",
			"prenom": "$client.prenom",
		}}},
	}
	var out []models.RankedClient
	if err := aggregate(ctx, r.coll, pipeline, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TopPieces ranks spare parts by the quantity consumed across interventions.
func (r *InterventionRepository) TopPieces(ctx context.Context, limit int) ([]models.RankedPiece, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"statut": bson.M{"$ne": models.StatutAnnule}}}},
		{{Key: "$unwind", Value: "$piecesUtilisees"}},
		{{Key: "$group", Value: bson.M{
			"_id":         "$piecesUtilisees.pieceId",
			"quantite":    bson.M{"$sum": "$piecesUtilisees.quantite"},
			"reference":   bson.M{"$first": "$piecesUtilisees.reference"},
			"designation": bson.M{"$first": "$piecesUtilisees.designation"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "quantite", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
	}
	var out []models.RankedPiece
	if err := aggregate(ctx, r.coll, pipeline, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TopDeviceTypes ranks device types by number of interventions.
func (r *InterventionRepository) TopDeviceTypes(ctx context.Context, limit int) ([]models.RankedLabel, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$appareil.type", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
	}
	var out []models.RankedLabel
	if err := aggregate(ctx, r.coll, pipeline, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AverageCost is the mean coutTotal of terminal interventions.
func (r *InterventionRepository) AverageCost(ctx context.Context) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"statut": bson.M{"$in": models.TerminalStatuts}}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "avg": bson.M{"$avg": "$coutTotal"}}}},
	}
	var rows []struct {
		Avg float64 `bson:"avg"`
	}
	if err := aggregate(ctx, r.coll, pipeline, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Avg, nil
}

// ListForRenumbering returns the id and business creation date of every
// intervention.
func (r *InterventionRepository) ListForRenumbering(ctx context.Context) ([]numbering.Record, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1, "dateCreation": 1})
	items, err := r.find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	out := make([]numbering.Record, 0, len(items))
	for _, iv := range items {
		out = append(out, numbering.Record{ID: iv.ID, DateCreation: iv.DateCreation})
	}
	return out, nil
}

// SetNumeros writes numbers in bulk. Each key is an intervention id.
func (r *InterventionRepository) SetNumeros(ctx context.Context, numeros map[primitive.ObjectID]string) error {
	if len(numeros) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, 0, len(numeros))
	for id, numero := range numeros {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id}).
			SetUpdate(bson.M{"$set": bson.M{"numero": numero}}))
	}
	if _, err := r.coll.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("bulk set numeros: %w", err)
	}
	return nil
}
