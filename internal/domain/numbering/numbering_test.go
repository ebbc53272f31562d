package numbering

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFormat(t *testing.T) {
	assert.Equal(t, "FAC-2026-0001", Format(KindFacture, 2026, 1))
	assert.Equal(t, "INT-2025-0042", Format(KindIntervention, 2025, 42))
	assert.Equal(t, "INT-2025-12345", Format(KindIntervention, 2025, 12345))
	assert.Equal(t, "FAC-2026", CounterID(KindFacture, 2026))
}

func TestTemporary(t *testing.T) {
	id := primitive.NewObjectID()
	assert.Equal(t, "TMP-"+id.Hex(), Temporary(id))
}

func TestPlanRenumbering_GroupsByBusinessYear(t *testing.T) {
	d := func(y int, m time.Month, day int) time.Time { return time.Date(y, m, day, 0, 0, 0, 0, time.UTC) }
	a, b, c, e := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	plan := PlanRenumbering(KindIntervention, []Record{
		{ID: a, DateCreation: d(2025, 12, 30)},
		{ID: b, DateCreation: d(2024, 6, 1)},
		{ID: c, DateCreation: d(2025, 1, 2)},
		{ID: e, DateCreation: d(2024, 3, 15)},
	})

	require.Len(t, plan, 4)
	got := map[primitive.ObjectID]string{}
	for _, p := range plan {
		got[p.ID] = p.Numero
	}
	assert.Equal(t, "INT-2024-0001", got[e])
	assert.Equal(t, "INT-2024-0002", got[b])
	assert.Equal(t, "INT-2025-0001", got[c])
	assert.Equal(t, "INT-2025-0002", got[a])

	assert.Equal(t, map[int]int64{2024: 2, 2025: 2}, MaxSeqByYear(plan))
}

func TestPlanRenumbering_Empty(t *testing.T) {
	assert.Empty(t, PlanRenumbering(KindIntervention, nil))
}
