package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role grants access levels.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleTechnicien Role = "technicien"
)

// User is a staff account. The password hash never leaves the server.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	MotDePasse   string             `bson:"motDePasse" json:"-"`
	Nom          string             `bson:"nom" json:"nom"`
	Prenom       string             `bson:"prenom" json:"prenom"`
	Role         Role               `bson:"role" json:"role"`
	Actif        bool               `bson:"actif" json:"actif"`
	DernierLogin *time.Time         `bson:"dernierLogin,omitempty" json:"dernierLogin,omitempty"`
	DateCreation time.Time          `bson:"dateCreation" json:"dateCreation"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsAdmin reports whether the account has the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
