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
)

// AppareilPretRepository persists loaner devices.
type AppareilPretRepository struct {
	base[models.AppareilPret]
}

func (r *AppareilPretRepository) Insert(ctx context.Context, a *models.AppareilPret) error {
	id, err := r.insert(ctx, a)
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

func (r *AppareilPretRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.AppareilPret, error) {
	return r.findByID(ctx, id)
}

func (r *AppareilPretRepository) List(ctx context.Context, params models.ListParams) ([]models.AppareilPret, int64, error) {
	filter := searchFilter(params.Search, "nom", "type", "marque", "modele", "numeroSerie")
	if v := params.Filter("statut"); v != "" {
		filter["statut"] = v
	}
	return r.page(ctx, filter, params, bson.D{{Key: "nom", Value: 1}})
}

func (r *AppareilPretRepository) Replace(ctx context.Context, a *models.AppareilPret) error {
	return r.replace(ctx, a.ID, a)
}

func (r *AppareilPretRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.deleteByID(ctx, id)
}

// Transition moves a device from one statut to another in a single
// conditional write. It reports false when the device was not in from.
// A non-empty etat overwrites the device condition.
func (r *AppareilPretRepository) Transition(ctx context.Context, id primitive.ObjectID, from, to models.AppareilPretStatut, etat string) (bool, error) {
	set := bson.M{"statut": to, "updatedAt": time.Now()}
	if etat != "" {
		set["etat"] = etat
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id, "statut": from}, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("transition appareil de prêt: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

// PretRepository persists loans.
type PretRepository struct {
	base[models.Pret]
}

// openFilter matches loans whose device has not come back.
var openFilter = bson.M{"dateRetourEffectif": bson.M{"$exists": false}}

func (r *PretRepository) Insert(ctx context.Context, p *models.Pret) error {
	id, err := r.insert(ctx, p)
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

func (r *PretRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Pret, error) {
	return r.findByID(ctx, id)
}

func (r *PretRepository) List(ctx context.Context, params models.ListParams) ([]models.Pret, int64, error) {
	filter := bson.M{}
	if v := params.Filter("statut"); v != "" {
		filter["statut"] = v
	}
	if err := objectIDFilter(filter, "clientId", params.Filter("clientId")); err != nil {
		return nil, 0, err
	}
	if err := objectIDFilter(filter, "appareilPretId", params.Filter("appareilPretId")); err != nil {
		return nil, 0, err
	}
	return r.page(ctx, filter, params, bson.D{{Key: "dateDebut", Value: -1}})
}

func (r *PretRepository) Replace(ctx context.Context, p *models.Pret) error {
	return r.replace(ctx, p.ID, p)
}

func (r *PretRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.deleteByID(ctx, id)
}

// CountOpenForDevice counts unreturned loans of a device.
func (r *PretRepository) CountOpenForDevice(ctx context.Context, deviceID primitive.ObjectID) (int64, error) {
	return r.count(ctx, bson.M{"appareilPretId": deviceID, "dateRetourEffectif": openFilter["dateRetourEffectif"]})
}

// ListLate returns unreturned loans past their expected return date.
func (r *PretRepository) ListLate(ctx context.Context, now time.Time) ([]models.Pret, error) {
	filter := bson.M{
		"dateRetourEffectif": openFilter["dateRetourEffectif"],
		"dateRetourPrevue":   bson.M{"$lt": now},
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "dateRetourPrevue", Value: 1}}))
}

// CountOpen counts unreturned loans.
func (r *PretRepository) CountOpen(ctx context.Context) (int64, error) {
	return r.count(ctx, openFilter)
}

// MarkLate re-projects the stored statut of unreturned loans past due.
func (r *PretRepository) MarkLate(ctx context.Context, now time.Time) (int64, error) {
	filter := bson.M{
		"dateRetourEffectif": openFilter["dateRetourEffectif"],
		"dateRetourPrevue":   bson.M{"$lt": now},
		"statut":             bson.M{"$ne": models.PretRetard},
	}
	res, err := r.coll.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"statut": models.PretRetard, "updatedAt": now}})
	if err != nil {
		return 0, fmt.Errorf("mark late prets: %w", err)
	}
	return res.ModifiedCount, nil
}

// CountByStatut groups loans per stored statut.
func (r *PretRepository) CountByStatut(ctx context.Context) ([]models.StatutCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$statut", "count": bson.M{"$sum": 1}}}},
	}
	var out []models.StatutCount
	if err := aggregate(ctx, r.coll, pipeline, &out); err != nil {
		return nil, err
	}
	return out, nil
}
