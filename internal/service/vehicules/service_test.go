package vehicules

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
)

type memStore map[primitive.ObjectID]models.Vehicule

func (m memStore) Insert(_ context.Context, v *models.Vehicule) error {
	v.ID = primitive.NewObjectID()
	m[v.ID] = *v
	return nil
}

func (m memStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Vehicule, error) {
	v, ok := m[id]
	if !ok {
		return nil, models.NotFoundf("vehicule")
	}
	v.HistoriqueKilometrage = append([]models.ReleveKilometrage(nil), v.HistoriqueKilometrage...)
	v.HistoriqueCarburant = append([]models.PleinCarburant(nil), v.HistoriqueCarburant...)
	return &v, nil
}

func (m memStore) List(ctx context.Context, _ models.ListParams) ([]models.Vehicule, int64, error) {
	all, _ := m.ListActive(ctx)
	return all, int64(len(all)), nil
}

func (m memStore) ListActive(_ context.Context) ([]models.Vehicule, error) {
	var out []models.Vehicule
	for _, v := range m {
		if v.Actif {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m memStore) Replace(_ context.Context, v *models.Vehicule) error {
	m[v.ID] = *v
	return nil
}

func (m memStore) Delete(_ context.Context, id primitive.ObjectID) error {
	delete(m, id)
	return nil
}

func (m memStore) AddDocument(_ context.Context, id primitive.ObjectID, f models.Fichier) error {
	v := m[id]
	v.Documents = append(v.Documents, f)
	m[id] = v
	return nil
}

func day(d int) time.Time { return time.Date(2026, 1, d, 12, 0, 0, 0, time.UTC) }

func TestKilometrage_LatestByDateWins(t *testing.T) {
	svc := NewService(memStore{}, nil)
	ctx := context.Background()
	v := &models.Vehicule{Immatriculation: " ab-123-cd "}
	require.NoError(t, svc.Create(ctx, v))
	assert.Equal(t, "AB-123-CD", v.Immatriculation)
	assert.Equal(t, 0, v.KilometrageActuel)

	_, err := svc.AddKilometrage(ctx, v.ID, models.ReleveKilometrage{Date: day(10), Kilometrage: 15200})
	require.NoError(t, err)
	// A late entry for an older date must not replace the current value.
	got, err := svc.AddKilometrage(ctx, v.ID, models.ReleveKilometrage{Date: day(3), Kilometrage: 14800})
	require.NoError(t, err)
	assert.Equal(t, 15200, got.KilometrageActuel)
	assert.Equal(t, day(10), got.HistoriqueKilometrage[0].Date)

	_, err = svc.AddKilometrage(ctx, v.ID, models.ReleveKilometrage{Kilometrage: -1})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestCarburant_RecordsReadingAndStats(t *testing.T) {
	svc := NewService(memStore{}, nil)
	ctx := context.Background()
	v := &models.Vehicule{Immatriculation: "AB-123-CD"}
	require.NoError(t, svc.Create(ctx, v))

	_, err := svc.AddKilometrage(ctx, v.ID, models.ReleveKilometrage{Date: day(1), Kilometrage: 10000})
	require.NoError(t, err)
	_, err = svc.AddCarburant(ctx, v.ID, models.PleinCarburant{Date: day(5), Litres: 40.5, Montant: 72.9, Kilometrage: 10650})
	require.NoError(t, err)
	got, err := svc.AddCarburant(ctx, v.ID, models.PleinCarburant{Date: day(9), Litres: 30, Montant: 54.1})
	require.NoError(t, err)
	assert.Equal(t, 10650, got.KilometrageActuel)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 650, stats[0].Distance)
	assert.Equal(t, 70.5, stats[0].Litres)
	assert.Equal(t, 127.0, stats[0].Montant)
	assert.Equal(t, 2, stats[0].Pleins)

	_, err = svc.AddCarburant(ctx, v.ID, models.PleinCarburant{Litres: 0})
	assert.ErrorIs(t, err, models.ErrValidation)
}
