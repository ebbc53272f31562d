package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
)

// VehiculeRepository persists fleet vehicles.
type VehiculeRepository struct {
	base[models.Vehicule]
}

func (r *VehiculeRepository) Insert(ctx context.Context, v *models.Vehicule) error {
	id, err := r.insert(ctx, v)
	if err != nil {
		return err
	}
	v.ID = id
	return nil
}

func (r *VehiculeRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Vehicule, error) {
	return r.findByID(ctx, id)
}

func (r *VehiculeRepository) List(ctx context.Context, params models.ListParams) ([]models.Vehicule, int64, error) {
	filter := searchFilter(params.Search, "immatriculation", "marque", "modele")
	if params.Filter("actif") != "all" {
		filter["actif"] = params.Filter("actif") != "false"
	}
	return r.page(ctx, filter, params, bson.D{{Key: "immatriculation", Value: 1}})
}

// ListActive returns every active vehicle.
func (r *VehiculeRepository) ListActive(ctx context.Context) ([]models.Vehicule, error) {
	return r.find(ctx, bson.M{"actif": true}, options.Find().SetSort(bson.D{{Key: "immatriculation", Value: 1}}))
}

// ListExpiring returns active vehicles with a dated obligation before limit.
func (r *VehiculeRepository) ListExpiring(ctx context.Context, limit time.Time) ([]models.Vehicule, error) {
	before := bson.M{"$lt": limit}
	filter := bson.M{
		"actif": true,
		"$or": bson.A{
			bson.M{"dateControleTechnique": before},
			bson.M{"dateAssurance": before},
			bson.M{"dateProchaineRevision": before},
		},
	}
	return r.find(ctx, filter)
}

func (r *VehiculeRepository) Replace(ctx context.Context, v *models.Vehicule) error {
	return r.replace(ctx, v.ID, v)
}

func (r *VehiculeRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.deleteByID(ctx, id)
}

// AddDocument appends an uploaded file reference.
func (r *VehiculeRepository) AddDocument(ctx context.Context, id primitive.ObjectID, f models.Fichier) error {
	return r.updateByID(ctx, id, bson.M{
		"$push": bson.M{"documents": f},
		"$set":  bson.M{"updatedAt": time.Now()},
	})
}
