package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InterventionStatut enumerates the lifecycle of a repair ticket, in order.
type InterventionStatut string

const (
	StatutDemande       InterventionStatut = "Demande"
	StatutPlanifie      InterventionStatut = "Planifié"
	StatutEnCours       InterventionStatut = "En cours"
	StatutAttentePieces InterventionStatut = "En attente pièces"
	StatutTermine       InterventionStatut = "Terminé"
	StatutFacture       InterventionStatut = "Facturé"
	StatutAnnule        InterventionStatut = "Annulé"
)

// InterventionStatuts lists every statut in lifecycle order.
var InterventionStatuts = []InterventionStatut{
	StatutDemande, StatutPlanifie, StatutEnCours, StatutAttentePieces,
	StatutTermine, StatutFacture, StatutAnnule,
}

// ActiveStatuts are the statuts of interventions still being worked on.
var ActiveStatuts = []InterventionStatut{StatutDemande, StatutPlanifie, StatutEnCours, StatutAttentePieces}

// TerminalStatuts are the statuts of completed repairs.
var TerminalStatuts = []InterventionStatut{StatutTermine, StatutFacture}

// Valid reports whether s is a known statut.
func (s InterventionStatut) Valid() bool {
	for _, v := range InterventionStatuts {
		if v == s {
			return true
		}
	}
	return false
}

// IsActive reports whether s belongs to the open subset.
func (s InterventionStatut) IsActive() bool {
	for _, v := range ActiveStatuts {
		if v == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s marks a completed repair.
func (s InterventionStatut) IsTerminal() bool {
	return s == StatutTermine || s == StatutFacture
}

// InterventionType distinguishes workshop repairs from on-site visits.
type InterventionType string

const (
	TypeAtelier  InterventionType = "Atelier"
	TypeDomicile InterventionType = "Domicile"
)

// GarantieMois is the warranty window, in months, granted after a repair.
const GarantieMois = 3

// AppareilSnapshot is the device description frozen at intervention creation.
// Later edits to the client's device list do not alter it.
type AppareilSnapshot struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Type        string             `bson:"type" json:"type"`
	Marque      string             `bson:"marque" json:"marque"`
	Modele      string             `bson:"modele" json:"modele"`
	NumeroSerie string             `bson:"numeroSerie" json:"numeroSerie"`
}

// PieceUtilisee is a part consumed by an intervention, priced at the time of use.
type PieceUtilisee struct {
	PieceID      primitive.ObjectID `bson:"pieceId" json:"pieceId"`
	Reference    string             `bson:"reference,omitempty" json:"reference,omitempty"`
	Designation  string             `bson:"designation,omitempty" json:"designation,omitempty"`
	Quantite     int                `bson:"quantite" json:"quantite"`
	PrixUnitaire float64            `bson:"prixUnitaire" json:"prixUnitaire"`
}

// Total is quantite × prixUnitaire.
func (p PieceUtilisee) Total() float64 {
	return mulCents(float64(p.Quantite), p.PrixUnitaire)
}

// Intervention is a repair ticket.
type Intervention struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Numero          string              `bson:"numero" json:"numero"`
	ClientID        primitive.ObjectID  `bson:"clientId" json:"clientId"`
	Appareil        AppareilSnapshot    `bson:"appareil" json:"appareil"`
	Type            InterventionType    `bson:"type" json:"type"`
	Description     string              `bson:"description" json:"description"`
	Diagnostic      string              `bson:"diagnostic,omitempty" json:"diagnostic,omitempty"`
	Statut          InterventionStatut  `bson:"statut" json:"statut"`
	TechnicienID    *primitive.ObjectID `bson:"technicienId,omitempty" json:"technicienId,omitempty"`
	DateCreation    time.Time           `bson:"dateCreation" json:"dateCreation"`
	DatePlanifiee   *time.Time          `bson:"datePlanifiee,omitempty" json:"datePlanifiee,omitempty"`
	DateRealisation *time.Time          `bson:"dateRealisation,omitempty" json:"dateRealisation,omitempty"`
	PiecesUtilisees []PieceUtilisee     `bson:"piecesUtilisees" json:"piecesUtilisees"`
	TempsMainOeuvre float64             `bson:"tempsMainOeuvre" json:"tempsMainOeuvre"`
	TauxHoraire     float64             `bson:"tauxHoraire" json:"tauxHoraire"`
	ForfaitApplique float64             `bson:"forfaitApplique" json:"forfaitApplique"`
	CoutPieces      float64             `bson:"coutPieces" json:"coutPieces"`
	CoutMainOeuvre  float64             `bson:"coutMainOeuvre" json:"coutMainOeuvre"`
	CoutTotal       float64             `bson:"coutTotal" json:"coutTotal"`
	GarantieJusquau *time.Time          `bson:"garantieJusquau,omitempty" json:"garantieJusquau,omitempty"`
	Photos          []Fichier           `bson:"photos,omitempty" json:"photos,omitempty"`
	Notes           string              `bson:"notes,omitempty" json:"notes,omitempty"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// ComputeDerived recomputes the cost fields from the line items and sets the
// warranty end date once. It is idempotent.
func (i *Intervention) ComputeDerived() {
	pieces := make([]float64, 0, len(i.PiecesUtilisees))
	for _, p := range i.PiecesUtilisees {
		pieces = append(pieces, p.Total())
	}
	i.CoutPieces = sumCents(pieces...)
	i.CoutMainOeuvre = mulCents(i.TempsMainOeuvre, i.TauxHoraire)
	i.CoutTotal = sumCents(i.ForfaitApplique, i.CoutPieces, i.CoutMainOeuvre)

	if i.DateRealisation != nil && i.GarantieJusquau == nil {
		until := i.DateRealisation.AddDate(0, GarantieMois, 0)
		i.GarantieJusquau = &until
	}
}

// UnderWarranty reports whether the warranty still covers the device at t.
func (i *Intervention) UnderWarranty(t time.Time) bool {
	return i.GarantieJusquau != nil && !i.GarantieJusquau.Before(t)
}
