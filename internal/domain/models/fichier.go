package models

import "time"

// Fichier references an uploaded object held by the file store.
type Fichier struct {
	Key       string    `bson:"key" json:"key"`
	Nom       string    `bson:"nom" json:"nom"`
	MimeType  string    `bson:"mimeType" json:"mimeType"`
	Taille    int64     `bson:"taille" json:"taille"`
	DateAjout time.Time `bson:"dateAjout" json:"dateAjout"`
}
