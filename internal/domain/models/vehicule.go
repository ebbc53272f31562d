package models

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReleveKilometrage is an odometer reading.
type ReleveKilometrage struct {
	Date        time.Time `bson:"date" json:"date"`
	Kilometrage int       `bson:"kilometrage" json:"kilometrage" binding:"required"`
	Note        string    `bson:"note,omitempty" json:"note,omitempty"`
}

// PleinCarburant is a fuel purchase.
type PleinCarburant struct {
	Date        time.Time `bson:"date" json:"date"`
	Litres      float64   `bson:"litres" json:"litres" binding:"required"`
	Montant     float64   `bson:"montant" json:"montant"`
	Kilometrage int       `bson:"kilometrage,omitempty" json:"kilometrage,omitempty"`
	Station     string    `bson:"station,omitempty" json:"station,omitempty"`
}

// Vehicule is a fleet vehicle with its append-only logs.
type Vehicule struct {
	ID                    primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Immatriculation       string              `bson:"immatriculation" json:"immatriculation" binding:"required"`
	Marque                string              `bson:"marque" json:"marque"`
	Modele                string              `bson:"modele" json:"modele"`
	Annee                 int                 `bson:"annee,omitempty" json:"annee,omitempty"`
	KilometrageActuel     int                 `bson:"kilometrageActuel" json:"kilometrageActuel"`
	HistoriqueKilometrage []ReleveKilometrage `bson:"historiqueKilometrage" json:"historiqueKilometrage"`
	HistoriqueCarburant   []PleinCarburant    `bson:"historiqueCarburant" json:"historiqueCarburant"`
	DateControleTechnique *time.Time          `bson:"dateControleTechnique,omitempty" json:"dateControleTechnique,omitempty"`
	DateAssurance         *time.Time          `bson:"dateAssurance,omitempty" json:"dateAssurance,omitempty"`
	DateProchaineRevision *time.Time          `bson:"dateProchaineRevision,omitempty" json:"dateProchaineRevision,omitempty"`
	Documents             []Fichier           `bson:"documents,omitempty" json:"documents,omitempty"`
	Actif                 bool                `bson:"actif" json:"actif"`
	DateCreation          time.Time           `bson:"dateCreation" json:"dateCreation"`
	UpdatedAt             time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// ComputeDerived orders the odometer log newest first and caches the most
// recent reading by date, whatever the insertion order.
func (v *Vehicule) ComputeDerived() {
	sort.SliceStable(v.HistoriqueKilometrage, func(i, j int) bool {
		return v.HistoriqueKilometrage[i].Date.After(v.HistoriqueKilometrage[j].Date)
	})
	if len(v.HistoriqueKilometrage) == 0 {
		v.KilometrageActuel = 0
		return
	}
	v.KilometrageActuel = v.HistoriqueKilometrage[0].Kilometrage
}

// DocumentEcheance is a dated vehicle obligation.
type DocumentEcheance struct {
	Libelle string    `json:"libelle"`
	Date    time.Time `json:"date"`
}

// Echeances lists the dated obligations that are set.
func (v *Vehicule) Echeances() []DocumentEcheance {
	var out []DocumentEcheance
	add := func(libelle string, t *time.Time) {
		if t != nil {
			out = append(out, DocumentEcheance{Libelle: libelle, Date: *t})
		}
	}
	add("Contrôle technique", v.DateControleTechnique)
	add("Assurance", v.DateAssurance)
	add("Révision", v.DateProchaineRevision)
	return out
}

// FuelTotals sums litres and amount spent on fuel.
func (v *Vehicule) FuelTotals() (litres, montant float64) {
	for _, p := range v.HistoriqueCarburant {
		litres += p.Litres
		montant += p.Montant
	}
	return roundCents(litres), roundCents(montant)
}
