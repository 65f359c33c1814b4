package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VehicleStatus is the operational state of a vehicle.
type VehicleStatus string

const (
	VehicleAvailable     VehicleStatus = "available"
	VehicleInService     VehicleStatus = "in_service"
	VehicleInMaintenance VehicleStatus = "in_maintenance"
	VehicleRetired       VehicleStatus = "retired"
)

// VehicleStatuses lists every vehicle status in display order.
var VehicleStatuses = []VehicleStatus{VehicleAvailable, VehicleInService, VehicleInMaintenance, VehicleRetired}

// Vehicle represents a fleet vehicle.
type Vehicle struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Immatriculation string              `bson:"immatriculation" json:"immatriculation"`
	Marque          string              `bson:"marque" json:"marque"`
	Modele          string              `bson:"modele" json:"modele"`
	Status          VehicleStatus       `bson:"statut" json:"statut"`
	Department      string              `bson:"departement" json:"departement"`
	PurchaseCost    Amount              `bson:"coutAcquisition" json:"coutAcquisition"`
	TankCapacity    float64             `bson:"capaciteReservoir" json:"capaciteReservoir"` // in liters
	CurrentDriverID *primitive.ObjectID `bson:"conducteurActuel,omitempty" json:"conducteurActuel,omitempty"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// IsActive reports whether the vehicle is still part of the operating fleet.
func (v Vehicle) IsActive() bool {
	return v.Status != VehicleRetired
}
