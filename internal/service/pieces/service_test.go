package pieces

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
)

type memStore map[primitive.ObjectID]*models.Piece

func (m memStore) Insert(_ context.Context, p *models.Piece) error {
	for _, existing := range m {
		if existing.Reference == p.Reference {
			return models.Conflictf("reference déjà utilisée")
		}
	}
	p.ID = primitive.NewObjectID()
	cp := *p
	m[p.ID] = &cp
	return nil
}

func (m memStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Piece, error) {
	p, ok := m[id]
	if !ok {
		return nil, models.NotFoundf("piece")
	}
	cp := *p
	return &cp, nil
}

func (m memStore) List(ctx context.Context, _ models.ListParams) ([]models.Piece, int64, error) {
	all, _ := m.ListAll(ctx)
	return all, int64(len(all)), nil
}

func (m memStore) ListAll(_ context.Context) ([]models.Piece, error) {
	var out []models.Piece
	for _, p := range m {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Reference < out[j].Reference })
	return out, nil
}

func (m memStore) Replace(_ context.Context, p *models.Piece) error {
	cp := *p
	m[p.ID] = &cp
	return nil
}

func (m memStore) Deactivate(_ context.Context, id primitive.ObjectID) error {
	p, ok := m[id]
	if !ok {
		return models.NotFoundf("piece")
	}
	p.Actif = false
	return nil
}

func (m memStore) AdjustStock(_ context.Context, id primitive.ObjectID, delta int) (*models.Piece, error) {
	p, ok := m[id]
	if !ok {
		return nil, models.NotFoundf("piece")
	}
	if p.QuantiteStock+delta < 0 {
		return nil, models.Conflictf("stock insuffisant")
	}
	p.QuantiteStock += delta
	cp := *p
	return &cp, nil
}

func (m memStore) ListCritical(_ context.Context) ([]models.Piece, error) {
	var out []models.Piece
	for _, p := range m {
		if p.IsCritical() {
			out = append(out, *p)
		}
	}
	return out, nil
}

func intPtr(v int) *int { return &v }

func references(pieces []models.Piece) []string {
	out := make([]string, 0, len(pieces))
	for _, p := range pieces {
		out = append(out, p.Reference)
	}
	return out
}

func TestStockCritique_AppearsAndDisappears(t *testing.T) {
	svc := NewService(memStore{}, nil)
	ctx := context.Background()

	p := &models.Piece{Reference: "RES-2000", Designation: "Résistance 2000W", QuantiteStock: 3, QuantiteMinimum: 2, PrixAchat: 18, PrixVente: 32}
	require.NoError(t, svc.Create(ctx, p))

	critical, err := svc.Critical(ctx)
	require.NoError(t, err)
	assert.Empty(t, critical)

	_, err = svc.AdjustStock(ctx, p.ID, StockMove{Delta: intPtr(-2)})
	require.NoError(t, err)
	critical, err = svc.Critical(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"RES-2000"}, references(critical))

	_, err = svc.AdjustStock(ctx, p.ID, StockMove{Quantite: intPtr(2)})
	require.NoError(t, err)
	critical, err = svc.Critical(ctx)
	require.NoError(t, err)
	assert.Empty(t, critical, "quantite equal to the minimum is not critical")

	require.NoError(t, svc.Delete(ctx, p.ID))
	_, err = svc.AdjustStock(ctx, p.ID, StockMove{Delta: intPtr(-2)})
	require.NoError(t, err)
	critical, err = svc.Critical(ctx)
	require.NoError(t, err)
	assert.Empty(t, critical, "inactive parts never raise alerts")
}

func TestAdjustStock_Validation(t *testing.T) {
	svc := NewService(memStore{}, nil)
	ctx := context.Background()
	p := &models.Piece{Reference: "X", Designation: "Y", QuantiteStock: 1}
	require.NoError(t, svc.Create(ctx, p))

	_, err := svc.AdjustStock(ctx, p.ID, StockMove{})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.AdjustStock(ctx, p.ID, StockMove{Delta: intPtr(1), Quantite: intPtr(1)})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.AdjustStock(ctx, p.ID, StockMove{Delta: intPtr(-5)})
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestUpdate_KeepsStockLevel(t *testing.T) {
	svc := NewService(memStore{}, nil)
	ctx := context.Background()
	p := &models.Piece{Reference: "X", Designation: "Y", QuantiteStock: 4}
	require.NoError(t, svc.Create(ctx, p))

	updated, err := svc.Update(ctx, p.ID, &models.Piece{Reference: "X", Designation: "Y bis", QuantiteStock: 99, Actif: true})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.QuantiteStock)
	assert.Equal(t, "Y bis", updated.Designation)
}

func TestCreate_DuplicateReference(t *testing.T) {
	svc := NewService(memStore{}, nil)
	ctx := context.Background()
	require.NoError(t, svc.Create(ctx, &models.Piece{Reference: "X", Designation: "Y"}))
	assert.ErrorIs(t, svc.Create(ctx, &models.Piece{Reference: "X", Designation: "Z"}), models.ErrConflict)
	assert.ErrorIs(t, svc.Create(ctx, &models.Piece{Designation: "Z"}), models.ErrValidation)
}
