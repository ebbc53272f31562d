package formulaires

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
)

type memStore map[primitive.ObjectID]models.Formulaire

func (m memStore) Insert(_ context.Context, f *models.Formulaire) error {
	f.ID = primitive.NewObjectID()
	m[f.ID] = *f
	return nil
}

func (m memStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Formulaire, error) {
	f, ok := m[id]
	if !ok {
		return nil, models.NotFoundf("formulaire")
	}
	return &f, nil
}

func (m memStore) List(_ context.Context, _ models.ListParams) ([]models.Formulaire, int64, error) {
	var out []models.Formulaire
	for _, f := range m {
		out = append(out, f)
	}
	return out, int64(len(out)), nil
}

func (m memStore) Replace(_ context.Context, f *models.Formulaire) error {
	m[f.ID] = *f
	return nil
}

func (m memStore) Delete(_ context.Context, id primitive.ObjectID) error {
	delete(m, id)
	return nil
}

func TestCreateAndUpdate_KeepAuthor(t *testing.T) {
	svc := NewService(memStore{}, nil)
	ctx := context.Background()
	author := primitive.NewObjectID()

	f := &models.Formulaire{Type: "checklist", Titre: "Ouverture atelier", Donnees: map[string]any{"chauffage": true}}
	require.NoError(t, svc.Create(ctx, f, author))
	assert.Equal(t, StatutNouveau, f.Statut)
	assert.Equal(t, author, f.AuteurID)

	updated, err := svc.Update(ctx, f.ID, &models.Formulaire{Type: "checklist", Titre: "Ouverture atelier", Statut: "Validé", AuteurID: primitive.NewObjectID()})
	require.NoError(t, err)
	assert.Equal(t, author, updated.AuteurID)
	assert.Equal(t, "Validé", updated.Statut)
	assert.Equal(t, true, updated.Donnees["chauffage"])

	assert.ErrorIs(t, svc.Create(ctx, &models.Formulaire{Type: "checklist"}, author), models.ErrValidation)
}
