package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Formulaire is an internal form record (checklists, requests, reports).
type Formulaire struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Type      string             `bson:"type" json:"type" binding:"required"`
	Titre     string             `bson:"titre" json:"titre" binding:"required"`
	Donnees   map[string]any     `bson:"donnees" json:"donnees"`
	Statut    string             `bson:"statut" json:"statut"`
	AuteurID  primitive.ObjectID `bson:"auteurId" json:"auteurId"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
