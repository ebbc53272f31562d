package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AppareilPretStatut enumerates loaner device availability.
type AppareilPretStatut string

const (
	AppareilDisponible   AppareilPretStatut = "Disponible"
	AppareilPrete        AppareilPretStatut = "Prêté"
	AppareilEnReparation AppareilPretStatut = "En réparation"
	AppareilHorsService  AppareilPretStatut = "Hors service"
)

// Valid reports whether s is a known statut.
func (s AppareilPretStatut) Valid() bool {
	switch s {
	case AppareilDisponible, AppareilPrete, AppareilEnReparation, AppareilHorsService:
		return true
	}
	return false
}

// AppareilPret is a loaner device.
type AppareilPret struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Nom          string             `bson:"nom" json:"nom" binding:"required"`
	Type         string             `bson:"type" json:"type"`
	Marque       string             `bson:"marque,omitempty" json:"marque,omitempty"`
	Modele       string             `bson:"modele,omitempty" json:"modele,omitempty"`
	NumeroSerie  string             `bson:"numeroSerie" json:"numeroSerie" binding:"required"`
	Etat         string             `bson:"etat,omitempty" json:"etat,omitempty"`
	Statut       AppareilPretStatut `bson:"statut" json:"statut"`
	Notes        string             `bson:"notes,omitempty" json:"notes,omitempty"`
	DateCreation time.Time          `bson:"dateCreation" json:"dateCreation"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PretStatut is the projected state of a loan.
type PretStatut string

const (
	PretEnCours  PretStatut = "En cours"
	PretRetourne PretStatut = "Retourné"
	PretRetard   PretStatut = "Retard"
)

// Pret is a loan of an AppareilPret to a client.
type Pret struct {
	ID                 primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	AppareilPretID     primitive.ObjectID  `bson:"appareilPretId" json:"appareilPretId"`
	ClientID           primitive.ObjectID  `bson:"clientId" json:"clientId"`
	InterventionID     *primitive.ObjectID `bson:"interventionId,omitempty" json:"interventionId,omitempty"`
	DateDebut          time.Time           `bson:"dateDebut" json:"dateDebut"`
	DateRetourPrevue   *time.Time          `bson:"dateRetourPrevue,omitempty" json:"dateRetourPrevue,omitempty"`
	DateRetourEffectif *time.Time          `bson:"dateRetourEffectif,omitempty" json:"dateRetourEffectif,omitempty"`
	EtatDepart         string              `bson:"etatDepart,omitempty" json:"etatDepart,omitempty"`
	EtatRetour         string              `bson:"etatRetour,omitempty" json:"etatRetour,omitempty"`
	Statut             PretStatut          `bson:"statut" json:"statut"`
	Notes              string              `bson:"notes,omitempty" json:"notes,omitempty"`
	DateCreation       time.Time           `bson:"dateCreation" json:"dateCreation"`
	UpdatedAt          time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// ProjectStatut derives a loan statut from its dates alone.
func ProjectStatut(retourEffectif, retourPrevue *time.Time, now time.Time) PretStatut {
	switch {
	case retourEffectif != nil:
		return PretRetourne
	case retourPrevue != nil && now.After(*retourPrevue):
		return PretRetard
	default:
		return PretEnCours
	}
}

// ComputeStatut overwrites Statut with the projection of the loan dates.
func (p *Pret) ComputeStatut(now time.Time) {
	p.Statut = ProjectStatut(p.DateRetourEffectif, p.DateRetourPrevue, now)
}

// IsReturned reports whether the device came back.
func (p *Pret) IsReturned() bool {
	return p.DateRetourEffectif != nil
}
