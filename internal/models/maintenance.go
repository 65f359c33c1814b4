package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaintenanceType classifies a maintenance event.
type MaintenanceType string

const (
	MaintenancePreventive MaintenanceType = "preventive"
	MaintenanceCorrective MaintenanceType = "corrective"
	MaintenanceInspection MaintenanceType = "inspection"
	MaintenanceRepair     MaintenanceType = "repair"
)

// MaintenanceTypes lists every maintenance type.
var MaintenanceTypes = []MaintenanceType{MaintenancePreventive, MaintenanceCorrective, MaintenanceInspection, MaintenanceRepair}

// MaintenanceStatus is the progress of a maintenance event.
type MaintenanceStatus string

const (
	MaintenancePlanned    MaintenanceStatus = "planned"
	MaintenanceInProgress MaintenanceStatus = "in_progress"
	MaintenanceDone       MaintenanceStatus = "done"
	MaintenanceCancelled  MaintenanceStatus = "cancelled"
)

// MaintenanceStatuses lists every maintenance status.
var MaintenanceStatuses = []MaintenanceStatus{MaintenancePlanned, MaintenanceInProgress, MaintenanceDone, MaintenanceCancelled}

// Maintenance represents a vehicle maintenance record.
type Maintenance struct {
	ID           primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	VehicleID    primitive.ObjectID  `json:"vehicule" bson:"vehicule"`
	Type         MaintenanceType     `json:"type" bson:"type"`
	Description  string              `json:"description" bson:"description"`
	StartDate    time.Time           `json:"dateDebut" bson:"dateDebut"`
	EndDate      *time.Time          `json:"dateFin,omitempty" bson:"dateFin,omitempty"`
	Status       MaintenanceStatus   `json:"statut" bson:"statut"`
	PartsCost    Amount              `json:"coutPieces" bson:"coutPieces"`
	LaborCost    Amount              `json:"coutMainOeuvre" bson:"coutMainOeuvre"`
	TotalCost    Amount              `json:"coutTotal" bson:"coutTotal"`
	TechnicianID *primitive.ObjectID `json:"technicien,omitempty" bson:"technicien,omitempty"`
	CreatedAt    time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// Cost returns parts + labor. Records created before the split carry only a total.
func (m Maintenance) Cost() Amount {
	if m.PartsCost == 0 && m.LaborCost == 0 {
		return m.TotalCost
	}
	return m.PartsCost + m.LaborCost
}
