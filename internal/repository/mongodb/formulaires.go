package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
)

// FormulaireRepository persists internal form records.
type FormulaireRepository struct {
	base[models.Formulaire]
}

func (r *FormulaireRepository) Insert(ctx context.Context, f *models.Formulaire) error {
	id, err := r.insert(ctx, f)
	if err != nil {
		return err
	}
	f.ID = id
	return nil
}

func (r *FormulaireRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Formulaire, error) {
	return r.findByID(ctx, id)
}

func (r *FormulaireRepository) List(ctx context.Context, params models.ListParams) ([]models.Formulaire, int64, error) {
	filter := searchFilter(params.Search, "titre", "type")
	if v := params.Filter("type"); v != "" {
		filter["type"] = v
	}
	if v := params.Filter("statut"); v != "" {
		filter["statut"] = v
	}
	return r.page(ctx, filter, params, bson.D{{Key: "createdAt", Value: -1}})
}

func (r *FormulaireRepository) Replace(ctx context.Context, f *models.Formulaire) error {
	return r.replace(ctx, f.ID, f)
}

func (r *FormulaireRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.deleteByID(ctx, id)
}
