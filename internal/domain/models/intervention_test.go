package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestIntervention_ComputeDerived_Totals(t *testing.T) {
	iv := &Intervention{
		PiecesUtilisees: []PieceUtilisee{
			{PieceID: primitive.NewObjectID(), Quantite: 2, PrixUnitaire: 12.5},
			{PieceID: primitive.NewObjectID(), Quantite: 1, PrixUnitaire: 39.9},
		},
		TempsMainOeuvre: 1.5,
		TauxHoraire:     45,
		ForfaitApplique: 30,
	}

	iv.ComputeDerived()

	assert.InDelta(t, 64.9, iv.CoutPieces, 0.001)
	assert.InDelta(t, 67.5, iv.CoutMainOeuvre, 0.001)
	assert.InDelta(t, iv.ForfaitApplique+iv.CoutPieces+iv.CoutMainOeuvre, iv.CoutTotal, 0.001)
	assert.InDelta(t, 162.4, iv.CoutTotal, 0.001)
}

func TestIntervention_ComputeDerived_Idempotent(t *testing.T) {
	iv := &Intervention{
		PiecesUtilisees: []PieceUtilisee{{Quantite: 3, PrixUnitaire: 7.33}},
		TempsMainOeuvre: 2,
		TauxHoraire:     50,
		ForfaitApplique: 25,
	}
	iv.ComputeDerived()
	first := *iv

	iv.ComputeDerived()
	iv.ComputeDerived()

	assert.Equal(t, first.CoutPieces, iv.CoutPieces)
	assert.Equal(t, first.CoutMainOeuvre, iv.CoutMainOeuvre)
	assert.Equal(t, first.CoutTotal, iv.CoutTotal)
}

func TestIntervention_ComputeDerived_NoLines(t *testing.T) {
	iv := &Intervention{ForfaitApplique: 49}
	iv.ComputeDerived()

	assert.Zero(t, iv.CoutPieces)
	assert.Zero(t, iv.CoutMainOeuvre)
	assert.Equal(t, 49.0, iv.CoutTotal)
	assert.Nil(t, iv.GarantieJusquau)
}

func TestIntervention_Garantie(t *testing.T) {
	realisee := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	iv := &Intervention{DateRealisation: &realisee}

	iv.ComputeDerived()
	require.NotNil(t, iv.GarantieJusquau)
	assert.Equal(t, time.Date(2026, 6, 10, 14, 0, 0, 0, time.UTC), *iv.GarantieJusquau)
}

func TestIntervention_GarantieCalendarRollover(t *testing.T) {
	realisee := time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC)
	iv := &Intervention{DateRealisation: &realisee}

	iv.ComputeDerived()
	require.NotNil(t, iv.GarantieJusquau)
	// 30 February normalizes to 2 March.
	assert.Equal(t, time.Date(2027, 3, 2, 0, 0, 0, 0, time.UTC), *iv.GarantieJusquau)
}

func TestIntervention_GarantieNeverOverwritten(t *testing.T) {
	realisee := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	iv := &Intervention{DateRealisation: &realisee}
	iv.ComputeDerived()
	want := *iv.GarantieJusquau

	later := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	iv.DateRealisation = &later
	iv.ComputeDerived()

	assert.Equal(t, want, *iv.GarantieJusquau)
}

func TestIntervention_UnderWarranty(t *testing.T) {
	until := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	iv := &Intervention{GarantieJusquau: &until}

	assert.True(t, iv.UnderWarranty(until.Add(-time.Hour)))
	assert.True(t, iv.UnderWarranty(until))
	assert.False(t, iv.UnderWarranty(until.Add(time.Hour)))
	assert.False(t, (&Intervention{}).UnderWarranty(until))
}

func TestInterventionStatut_Subsets(t *testing.T) {
	for _, s := range ActiveStatuts {
		assert.True(t, s.IsActive(), s)
		assert.False(t, s.IsTerminal(), s)
	}
	for _, s := range TerminalStatuts {
		assert.True(t, s.IsTerminal(), s)
		assert.False(t, s.IsActive(), s)
	}
	assert.False(t, StatutAnnule.IsActive())
	assert.False(t, StatutAnnule.IsTerminal())
	assert.False(t, InterventionStatut("Perdu").Valid())
}

func TestClient_AssignAppareilIDs_KeepsExisting(t *testing.T) {
	existing := primitive.NewObjectID()
	c := &Client{Appareils: []Appareil{{ID: existing, Type: "Lave-linge"}, {Type: "Four"}}}

	c.AssignAppareilIDs()

	assert.Equal(t, existing, c.Appareils[0].ID)
	assert.False(t, c.Appareils[1].ID.IsZero())

	got, ok := c.FindAppareil(existing)
	require.True(t, ok)
	assert.Equal(t, "Lave-linge", got.Snapshot().Type)
}
