package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFacture_ComputeDerived(t *testing.T) {
	emission := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	f := &Facture{
		Lignes: []LigneFacture{
			{Description: "Main d'oeuvre", Quantite: 2, PrixUnitaire: 45},
			{Description: "Forfait déplacement", Total: 35},
		},
		TVA:          20,
		DateEmission: emission,
	}

	f.ComputeDerived()

	assert.Equal(t, 90.0, f.Lignes[0].Total)
	assert.Equal(t, 35.0, f.Lignes[1].Total)
	assert.Equal(t, 125.0, f.SousTotal)
	assert.InDelta(t, f.SousTotal*(1+f.TVA/100), f.TotalTTC, 0.001)
	require.NotNil(t, f.DateEcheance)
	assert.Equal(t, emission.AddDate(0, 0, 30), *f.DateEcheance)
}

func TestFacture_ComputeDerived_KeepsTotalWithoutPrice(t *testing.T) {
	f := &Facture{
		Lignes: []LigneFacture{{Description: "Réparation", Quantite: 1, Total: 50}},
		TVA:    20,
	}

	f.ComputeDerived()

	assert.Equal(t, 50.0, f.Lignes[0].Total)
	assert.Equal(t, 50.0, f.SousTotal)
	assert.Equal(t, 60.0, f.TotalTTC)
}

func TestFacture_ComputeDerived_Idempotent(t *testing.T) {
	f := &Facture{
		Lignes:       []LigneFacture{{Description: "Pièce", Quantite: 3, PrixUnitaire: 19.99}},
		TVA:          5.5,
		DateEmission: time.Now(),
	}
	f.ComputeDerived()
	sous, ttc, due := f.SousTotal, f.TotalTTC, *f.DateEcheance

	f.ComputeDerived()

	assert.Equal(t, sous, f.SousTotal)
	assert.Equal(t, ttc, f.TotalTTC)
	assert.Equal(t, due, *f.DateEcheance)
}

func TestFacture_DueDateSetOnce(t *testing.T) {
	due := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	f := &Facture{DateEmission: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), DateEcheance: &due}

	f.ComputeDerived()

	assert.Equal(t, due, *f.DateEcheance)
}

func TestFacture_IsOverdue(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -1)
	f := &Facture{Statut: FactureEmise, DateEcheance: &past}
	assert.True(t, f.IsOverdue(now))

	f.Statut = FacturePayee
	assert.False(t, f.IsOverdue(now))
}
