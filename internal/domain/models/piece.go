package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Piece is a spare part held in stock. Pieces are soft-deleted through Actif.
type Piece struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Reference       string             `bson:"reference" json:"reference" binding:"required"`
	Designation     string             `bson:"designation" json:"designation" binding:"required"`
	Categorie       string             `bson:"categorie,omitempty" json:"categorie,omitempty"`
	Marque          string             `bson:"marque,omitempty" json:"marque,omitempty"`
	QuantiteStock   int                `bson:"quantiteStock" json:"quantiteStock"`
	QuantiteMinimum int                `bson:"quantiteMinimum" json:"quantiteMinimum"`
	PrixAchat       float64            `bson:"prixAchat" json:"prixAchat"`
	PrixVente       float64            `bson:"prixVente" json:"prixVente"`
	Emplacement     string             `bson:"emplacement,omitempty" json:"emplacement,omitempty"`
	Fournisseur     string             `bson:"fournisseur,omitempty" json:"fournisseur,omitempty"`
	Actif           bool               `bson:"actif" json:"actif"`
	DateCreation    time.Time          `bson:"dateCreation" json:"dateCreation"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsCritical reports whether the stock fell below the configured minimum.
func (p *Piece) IsCritical() bool {
	return p.Actif && p.QuantiteStock < p.QuantiteMinimum
}

// StockValue is the purchase value of the current stock.
func (p *Piece) StockValue() float64 {
	return mulCents(float64(p.QuantiteStock), p.PrixAchat)
}
