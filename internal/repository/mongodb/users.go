package mongodb

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
)

// UserRepository persists staff accounts.
type UserRepository struct {
	base[models.User]
}

func (r *UserRepository) Insert(ctx context.Context, u *models.User) error {
	id, err := r.insert(ctx, u)
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findByID(ctx, id)
}

// FindByEmail looks an account up by its lower-cased email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (r *UserRepository) List(ctx context.Context, params models.ListParams) ([]models.User, int64, error) {
	filter := searchFilter(params.Search, "email", "nom", "prenom")
	if v := params.Filter("role"); v != "" {
		filter["role"] = v
	}
	return r.page(ctx, filter, params, bson.D{{Key: "nom", Value: 1}})
}

func (r *UserRepository) Replace(ctx context.Context, u *models.User) error {
	return r.replace(ctx, u.ID, u)
}

func (r *UserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.deleteByID(ctx, id)
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, bson.M{})
}

// TouchLogin records the last successful login.
func (r *UserRepository) TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{"dernierLogin": at}})
}
