package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// MonthBucket is revenue for one calendar month.
type MonthBucket struct {
	Year  int     `bson:"year" json:"annee"`
	Month int     `bson:"month" json:"mois"`
	CA    float64 `bson:"ca" json:"ca"`
	Count int     `bson:"count" json:"nombre"`
}

// RankedClient is a client ranked by billed amount.
type RankedClient struct {
	ClientID primitive.ObjectID `bson:"_id" json:"clientId"`
	Nom      string             `bson:"nom" json:"nom"`
	Prenom   string             `bson:"prenom" json:"prenom"`
	Total    float64            `bson:"total" json:"total"`
	Count    int                `bson:"count" json:"nombre"`
}

// RankedPiece is a spare part ranked by consumed quantity.
type RankedPiece struct {
	PieceID     primitive.ObjectID `bson:"_id" json:"pieceId"`
	Reference   string             `bson:"reference" json:"reference"`
	Designation string             `bson:"designation" json:"designation"`
	Quantite    int                `bson:"quantite" json:"quantite"`
}

// RankedLabel is a label ranked by frequency.
type RankedLabel struct {
	Label string `bson:"_id" json:"label"`
	Count int    `bson:"count" json:"nombre"`
}

// StatutCount is a count of records per statut.
type StatutCount struct {
	Statut string  `bson:"_id" json:"statut"`
	Count  int     `bson:"count" json:"nombre"`
	Total  float64 `bson:"total" json:"total"`
}

// PieceStats summarizes the active inventory.
type PieceStats struct {
	Count        int     `bson:"count" json:"nombre"`
	TotalUnits   int     `bson:"units" json:"unites"`
	StockValue   float64 `bson:"value" json:"valeurStock"`
	SaleValue    float64 `bson:"saleValue" json:"valeurVente"`
	CriticalRefs int     `bson:"-" json:"critiques"`
}

// YearTotal is the paid revenue of one year.
type YearTotal struct {
	Year  int     `bson:"_id" json:"annee"`
	Total float64 `bson:"total" json:"total"`
	Count int     `bson:"count" json:"nombre"`
}
