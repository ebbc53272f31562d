package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
)

// ClientRepository persists clients and their embedded devices.
type ClientRepository struct {
	base[models.Client]
}

func (r *ClientRepository) Insert(ctx context.Context, c *models.Client) error {
	id, err := r.insert(ctx, c)
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

func (r *ClientRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Client, error) {
	return r.findByID(ctx, id)
}

// FindByIDs returns the clients matching ids, keyed by id.
func (r *ClientRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Client, error) {
	out := make(map[primitive.ObjectID]models.Client, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	items, err := r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	for _, c := range items {
		out[c.ID] = c
	}
	return out, nil
}

func (r *ClientRepository) List(ctx context.Context, params models.ListParams) ([]models.Client, int64, error) {
	filter := searchFilter(params.Search, "nom", "prenom", "email", "telephone", "ville", "appareils.numeroSerie")
	if v := params.Filter("ville"); v != "" {
		filter["ville"] = v
	}
	return r.page(ctx, filter, params, bson.D{{Key: "nom", Value: 1}, {Key: "prenom", Value: 1}})
}

func (r *ClientRepository) Replace(ctx context.Context, c *models.Client) error {
	return r.replace(ctx, c.ID, c)
}

func (r *ClientRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.deleteByID(ctx, id)
}

func (r *ClientRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, bson.M{})
}
