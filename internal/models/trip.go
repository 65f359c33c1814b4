package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TripStatus is the progress of a trip.
type TripStatus string

const (
	TripPlanned    TripStatus = "planned"
	TripInProgress TripStatus = "in_progress"
	TripCompleted  TripStatus = "completed"
)

// Trip represents a vehicle trip driven by one driver.
type Trip struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	VehicleID     primitive.ObjectID `json:"vehicule" bson:"vehicule"`
	DriverID      primitive.ObjectID `json:"conducteur" bson:"conducteur"`
	Departure     time.Time          `json:"dateDepart" bson:"dateDepart"`
	Return        *time.Time         `json:"dateRetour,omitempty" bson:"dateRetour,omitempty"`
	StartOdometer int64              `json:"kilometrageDepart" bson:"kilometrageDepart"`
	EndOdometer   *int64             `json:"kilometrageArrivee,omitempty" bson:"kilometrageArrivee,omitempty"`
	Status        TripStatus         `json:"statut" bson:"statut"`
	TollFees      Amount             `json:"fraisPeage" bson:"fraisPeage"`
	ParkingFees   Amount             `json:"fraisParking" bson:"fraisParking"`
	OtherFees     Amount             `json:"autresFrais" bson:"autresFrais"`
	TotalCost     Amount             `json:"coutTotal" bson:"coutTotal"`
	Purpose       string             `json:"motif,omitempty" bson:"motif,omitempty"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Distance returns end − start odometer. ok is false until the return
// odometer is recorded, or when the readings are inconsistent.
func (t Trip) Distance() (km int64, ok bool) {
	if t.EndOdometer == nil {
		return 0, false
	}
	d := *t.EndOdometer - t.StartOdometer
	if d < 0 {
		return 0, false
	}
	return d, true
}

// Cost is the sum of the trip fees. Fuel is accounted separately.
func (t Trip) Cost() Amount {
	return t.TollFees + t.ParkingFees + t.OtherFees
}
