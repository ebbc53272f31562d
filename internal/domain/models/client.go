package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Appareil is a device owned by a client. Its ID is assigned once and is
// referenced by interventions.
type Appareil struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Type        string             `bson:"type" json:"type" binding:"required"`
	Marque      string             `bson:"marque" json:"marque"`
	Modele      string             `bson:"modele" json:"modele"`
	NumeroSerie string             `bson:"numeroSerie" json:"numeroSerie"`
	DateAchat   *time.Time         `bson:"dateAchat,omitempty" json:"dateAchat,omitempty"`
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Snapshot freezes the device description for an intervention.
func (a Appareil) Snapshot() AppareilSnapshot {
	return AppareilSnapshot{
		ID:          a.ID,
		Type:        a.Type,
		Marque:      a.Marque,
		Modele:      a.Modele,
		NumeroSerie: a.NumeroSerie,
	}
}

// Client is a customer record with its embedded devices.
type Client struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Nom          string             `bson:"nom" json:"nom" binding:"required"`
	Prenom       string             `bson:"prenom" json:"prenom"`
	Email        string             `bson:"email,omitempty" json:"email,omitempty"`
	Telephone    string             `bson:"telephone,omitempty" json:"telephone,omitempty"`
	Adresse      string             `bson:"adresse,omitempty" json:"adresse,omitempty"`
	CodePostal   string             `bson:"codePostal,omitempty" json:"codePostal,omitempty"`
	Ville        string             `bson:"ville,omitempty" json:"ville,omitempty"`
	Notes        string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Appareils    []Appareil         `bson:"appareils" json:"appareils"`
	Actif        bool               `bson:"actif" json:"actif"`
	DateCreation time.Time          `bson:"dateCreation" json:"dateCreation"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// FullName returns "Prenom Nom" trimmed.
func (c *Client) FullName() string {
	return strings.TrimSpace(c.Prenom + " " + c.Nom)
}

// FindAppareil returns the device with the given id.
func (c *Client) FindAppareil(id primitive.ObjectID) (Appareil, bool) {
	for _, a := range c.Appareils {
		if a.ID == id {
			return a, true
		}
	}
	return Appareil{}, false
}

// AssignAppareilIDs gives every device lacking an identity a new one.
// Existing identities are left untouched.
func (c *Client) AssignAppareilIDs() {
	for i := range c.Appareils {
		if c.Appareils[i].ID.IsZero() {
			c.Appareils[i].ID = primitive.NewObjectID()
		}
	}
}
