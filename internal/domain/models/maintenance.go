package models

import "time"

// MaintenanceID is the fixed key of the single maintenance document.
const MaintenanceID = "maintenance"

// Maintenance is the application-wide maintenance flag.
type Maintenance struct {
	ID        string    `bson:"_id" json:"-"`
	Actif     bool      `bson:"actif" json:"actif"`
	Message   string    `bson:"message" json:"message"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
	UpdatedBy string    `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
}
