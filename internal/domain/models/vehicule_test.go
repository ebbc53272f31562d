package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVehicule_ComputeDerived_UsesMostRecentByDate(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, 5, d, 0, 0, 0, 0, time.UTC) }
	v := &Vehicule{
		HistoriqueKilometrage: []ReleveKilometrage{
			{Date: day(10), Kilometrage: 41000},
			{Date: day(20), Kilometrage: 41800},
			// Appended last but older than the others.
			{Date: day(2), Kilometrage: 40500},
		},
	}

	v.ComputeDerived()

	assert.Equal(t, 41800, v.KilometrageActuel)
	assert.Equal(t, day(20), v.HistoriqueKilometrage[0].Date)
	assert.Equal(t, day(2), v.HistoriqueKilometrage[2].Date)
}

func TestVehicule_ComputeDerived_Empty(t *testing.T) {
	v := &Vehicule{KilometrageActuel: 1234}
	v.ComputeDerived()
	assert.Zero(t, v.KilometrageActuel)
}

func TestVehicule_FuelTotals(t *testing.T) {
	v := &Vehicule{HistoriqueCarburant: []PleinCarburant{
		{Litres: 40.5, Montant: 72.9},
		{Litres: 38.2, Montant: 69.1},
	}}
	litres, montant := v.FuelTotals()
	assert.InDelta(t, 78.7, litres, 0.001)
	assert.InDelta(t, 142.0, montant, 0.001)
}
