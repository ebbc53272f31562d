package mongodb

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
	"github.com/mamadbah2/repairdesk/internal/domain/numbering"
)

// newTestRepository connects to MONGODB_TEST_URI and uses a throwaway
// database dropped at the end of the test.
func newTestRepository(t *testing.T) *MongoDBRepository {
	t.Helper()
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := NewMongoDBRepository(ctx, uri, fmt.Sprintf("repairdesk_test_%d", time.Now().UnixNano()))
	require.NoError(t, err)
	require.NoError(t, repo.EnsureIndexes(ctx))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = repo.db.Drop(ctx)
		_ = repo.Close(ctx)
	})
	return repo
}

func TestCountersAreGapFreeUnderConcurrency(t *testing.T) {
	repo := newTestRepository(t)
	counters := repo.Counters()
	ctx := context.Background()

	const workers = 20
	seen := make(chan int64, workers)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq, err := counters.Next(ctx, numbering.KindIntervention, 2026)
			assert.NoError(t, err)
			seen <- seq
		}()
	}
	wg.Wait()
	close(seen)

	got := map[int64]bool{}
	for seq := range seen {
		got[seq] = true
	}
	assert.Len(t, got, workers)
	for i := int64(1); i <= workers; i++ {
		assert.True(t, got[i], "missing seq %d", i)
	}

	require.NoError(t, counters.Reset(ctx, numbering.KindIntervention, 2026, 100))
	next, err := counters.Next(ctx, numbering.KindIntervention, 2026)
	require.NoError(t, err)
	assert.Equal(t, int64(101), next)
}

func TestPieceStockNeverGoesNegative(t *testing.T) {
	repo := newTestRepository(t)
	pieces := repo.Pieces()
	ctx := context.Background()

	p := &models.Piece{Reference: "JOINT-01", Designation: "Joint de hublot", QuantiteStock: 2, Actif: true}
	require.NoError(t, pieces.Insert(ctx, p))

	dup := &models.Piece{Reference: "JOINT-01", Designation: "Doublon", Actif: true}
	assert.ErrorIs(t, pieces.Insert(ctx, dup), models.ErrConflict)

	updated, err := pieces.AdjustStock(ctx, p.ID, -2)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.QuantiteStock)

	_, err = pieces.AdjustStock(ctx, p.ID, -1)
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestLoanDeviceTransitionIsConditional(t *testing.T) {
	repo := newTestRepository(t)
	devices := repo.AppareilsPret()
	ctx := context.Background()

	d := &models.AppareilPret{Nom: "Lave-linge de prêt", NumeroSerie: "LP-001", Statut: models.AppareilDisponible}
	require.NoError(t, devices.Insert(ctx, d))

	ok, err := devices.Transition(ctx, d.ID, models.AppareilDisponible, models.AppareilPrete, "")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = devices.Transition(ctx, d.ID, models.AppareilDisponible, models.AppareilPrete, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMaintenanceSingleton(t *testing.T) {
	repo := newTestRepository(t)
	m := repo.Maintenance()
	ctx := context.Background()

	got, err := m.Get(ctx)
	require.NoError(t, err)
	assert.False(t, got.Actif)

	_, err = m.Set(ctx, true, "Inventaire annuel", "admin@atelier.fr")
	require.NoError(t, err)

	got, err = m.Get(ctx)
	require.NoError(t, err)
	assert.True(t, got.Actif)
	assert.Equal(t, "Inventaire annuel", got.Message)
}
