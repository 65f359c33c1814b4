package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DocumentOwner tells which entity a document belongs to.
type DocumentOwner string

const (
	OwnerVehicle DocumentOwner = "vehicle"
	OwnerDriver  DocumentOwner = "driver"
)

// Document is a compliance document (registration, license, inspection...).
type Document struct {
	ID             primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Type           DocumentOwner       `json:"type" bson:"type"`
	Category       string              `json:"categorie" bson:"categorie"`
	Numero         string              `json:"numero,omitempty" bson:"numero,omitempty"`
	VehicleID      *primitive.ObjectID `json:"vehicule,omitempty" bson:"vehicule,omitempty"`
	DriverID       *primitive.ObjectID `json:"conducteur,omitempty" bson:"conducteur,omitempty"`
	IssueDate      time.Time           `json:"dateEmission" bson:"dateEmission"`
	ExpirationDate *time.Time          `json:"dateExpiration,omitempty" bson:"dateExpiration,omitempty"`
	Status         Status              `json:"statut" bson:"statut"`
	FileURL        string              `json:"fichier,omitempty" bson:"fichier,omitempty"`
	CreatedAt      time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// OwnerID returns the hex id of the vehicle or driver the document belongs to.
func (d Document) OwnerID() string {
	switch {
	case d.Type == OwnerDriver && d.DriverID != nil:
		return d.DriverID.Hex()
	case d.VehicleID != nil:
		return d.VehicleID.Hex()
	case d.DriverID != nil:
		return d.DriverID.Hex()
	}
	return ""
}
