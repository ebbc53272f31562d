package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FactureStatut enumerates invoice states.
type FactureStatut string

const (
	FactureBrouillon FactureStatut = "Brouillon"
	FactureEmise     FactureStatut = "Émis"
	FacturePayee     FactureStatut = "Payé"
	FactureAnnulee   FactureStatut = "Annulé"
)

// UnpaidFactureStatuts are the statuts counted as outstanding.
var UnpaidFactureStatuts = []FactureStatut{FactureEmise, FactureBrouillon}

// Valid reports whether s is a known statut.
func (s FactureStatut) Valid() bool {
	switch s {
	case FactureBrouillon, FactureEmise, FacturePayee, FactureAnnulee:
		return true
	}
	return false
}

const (
	// DefaultTVA is the VAT percentage applied when none is given.
	DefaultTVA = 20.0
	// DelaiPaiementJours is the number of days between emission and due date.
	DelaiPaiementJours = 30
)

// LigneFacture is an invoice line. Total is frozen on the line.
type LigneFacture struct {
	Description  string  `bson:"description" json:"description" binding:"required"`
	Quantite     float64 `bson:"quantite" json:"quantite"`
	PrixUnitaire float64 `bson:"prixUnitaire" json:"prixUnitaire"`
	Total        float64 `bson:"total" json:"total"`
}

// Facture is an invoice.
type Facture struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Numero         string              `bson:"numero" json:"numero"`
	ClientID       primitive.ObjectID  `bson:"clientId" json:"clientId"`
	InterventionID *primitive.ObjectID `bson:"interventionId,omitempty" json:"interventionId,omitempty"`
	Lignes         []LigneFacture      `bson:"lignes" json:"lignes"`
	SousTotal      float64             `bson:"sousTotal" json:"sousTotal"`
	TVA            float64             `bson:"tva" json:"tva"`
	TotalTTC       float64             `bson:"totalTTC" json:"totalTTC"`
	Statut         FactureStatut       `bson:"statut" json:"statut"`
	DateEmission   time.Time           `bson:"dateEmission" json:"dateEmission"`
	DateEcheance   *time.Time          `bson:"dateEcheance,omitempty" json:"dateEcheance,omitempty"`
	DatePaiement   *time.Time          `bson:"datePaiement,omitempty" json:"datePaiement,omitempty"`
	ModePaiement   string              `bson:"modePaiement,omitempty" json:"modePaiement,omitempty"`
	Notes          string              `bson:"notes,omitempty" json:"notes,omitempty"`
	DateCreation   time.Time           `bson:"dateCreation" json:"dateCreation"`
	UpdatedAt      time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// ComputeDerived recomputes line totals, sousTotal and totalTTC, and sets the
// due date once. A line missing its quantity or unit price keeps its supplied
// total.
func (f *Facture) ComputeDerived() {
	totals := make([]float64, 0, len(f.Lignes))
	for i := range f.Lignes {
		l := &f.Lignes[i]
		if l.Quantite != 0 && l.PrixUnitaire != 0 {
			l.Total = mulCents(l.Quantite, l.PrixUnitaire)
		}
		totals = append(totals, l.Total)
	}
	f.SousTotal = sumCents(totals...)
	f.TotalTTC = roundCents(f.SousTotal * (1 + f.TVA/100))

	if f.DateEcheance == nil && !f.DateEmission.IsZero() {
		due := f.DateEmission.AddDate(0, 0, DelaiPaiementJours)
		f.DateEcheance = &due
	}
}

// IsOverdue reports whether an emitted invoice is past its due date at t.
func (f *Facture) IsOverdue(t time.Time) bool {
	return f.Statut == FactureEmise && f.DateEcheance != nil && f.DateEcheance.Before(t)
}
