package clients

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
)

type memStore map[primitive.ObjectID]models.Client

func (m memStore) Insert(_ context.Context, c *models.Client) error {
	c.ID = primitive.NewObjectID()
	m[c.ID] = *c
	return nil
}

func (m memStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Client, error) {
	c, ok := m[id]
	if !ok {
		return nil, models.NotFoundf("client")
	}
	c.Appareils = append([]models.Appareil(nil), c.Appareils...)
	return &c, nil
}

func (m memStore) List(_ context.Context, _ models.ListParams) ([]models.Client, int64, error) {
	var out []models.Client
	for _, c := range m {
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

func (m memStore) Replace(_ context.Context, c *models.Client) error {
	m[c.ID] = *c
	return nil
}

func (m memStore) Delete(_ context.Context, id primitive.ObjectID) error {
	delete(m, id)
	return nil
}

type usage map[primitive.ObjectID]int64

func (u usage) CountByClient(_ context.Context, id primitive.ObjectID) (int64, error) {
	return u[id], nil
}

func TestCreate_AssignsDeviceIDs(t *testing.T) {
	svc := NewService(memStore{}, usage{}, usage{}, nil)
	c := &models.Client{Nom: "Durand", Email: " Jean@Example.FR ", Appareils: []models.Appareil{{Type: "Four"}, {Type: "Frigo"}}}

	require.NoError(t, svc.Create(context.Background(), c))
	assert.True(t, c.Actif)
	assert.Equal(t, "jean@example.fr", c.Email)
	require.Len(t, c.Appareils, 2)
	assert.False(t, c.Appareils[0].ID.IsZero())
	assert.NotEqual(t, c.Appareils[0].ID, c.Appareils[1].ID)
}

func TestUpdate_KeepsDeviceIdentity(t *testing.T) {
	store := memStore{}
	svc := NewService(store, usage{}, usage{}, nil)
	ctx := context.Background()
	c := &models.Client{Nom: "Durand", Appareils: []models.Appareil{{Type: "Four"}}}
	require.NoError(t, svc.Create(ctx, c))
	fourID := c.Appareils[0].ID

	updated, err := svc.Update(ctx, c.ID, &models.Client{
		Nom:       "Durand",
		Appareils: []models.Appareil{{ID: fourID, Type: "Four", Marque: "Miele"}, {Type: "Hotte"}},
	})
	require.NoError(t, err)
	assert.Equal(t, fourID, updated.Appareils[0].ID)
	assert.Equal(t, "Miele", updated.Appareils[0].Marque)
	assert.False(t, updated.Appareils[1].ID.IsZero())

	_, err = svc.Update(ctx, c.ID, &models.Client{Nom: "Durand", Appareils: []models.Appareil{{ID: primitive.NewObjectID(), Type: "Four"}}})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestAppareilLifecycle(t *testing.T) {
	svc := NewService(memStore{}, usage{}, usage{}, nil)
	ctx := context.Background()
	c := &models.Client{Nom: "Petit"}
	require.NoError(t, svc.Create(ctx, c))

	a, err := svc.AddAppareil(ctx, c.ID, models.Appareil{Type: "Lave-vaisselle"})
	require.NoError(t, err)

	edited, err := svc.UpdateAppareil(ctx, c.ID, a.ID, models.Appareil{Type: "Lave-vaisselle", Marque: "Bosch"})
	require.NoError(t, err)
	assert.Equal(t, a.ID, edited.ID)

	require.NoError(t, svc.RemoveAppareil(ctx, c.ID, a.ID))
	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Appareils)

	assert.ErrorIs(t, svc.RemoveAppareil(ctx, c.ID, a.ID), models.ErrNotFound)
	_, err = svc.AddAppareil(ctx, c.ID, models.Appareil{})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestDelete_ReferencedClientConflicts(t *testing.T) {
	store := memStore{}
	interventions := usage{}
	svc := NewService(store, interventions, usage{}, nil)
	ctx := context.Background()
	c := &models.Client{Nom: "Leroy"}
	require.NoError(t, svc.Create(ctx, c))

	interventions[c.ID] = 2
	assert.ErrorIs(t, svc.Delete(ctx, c.ID), models.ErrConflict)

	delete(interventions, c.ID)
	require.NoError(t, svc.Delete(ctx, c.ID))
	assert.ErrorIs(t, svc.Delete(ctx, c.ID), models.ErrNotFound)
}
