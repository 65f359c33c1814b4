package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Fuel represents a fuel purchase.
type Fuel struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	VehicleID   primitive.ObjectID `json:"vehicule" bson:"vehicule"`
	DriverID    primitive.ObjectID `json:"conducteur" bson:"conducteur"`
	Date        time.Time          `json:"date" bson:"date"`
	Quantity    float64            `json:"quantite" bson:"quantite"` // in liters
	UnitPrice   Amount             `json:"prixUnitaire" bson:"prixUnitaire"`
	TotalAmount Amount             `json:"montantTotal" bson:"montantTotal"`
	Odometer    int64              `json:"kilometrage" bson:"kilometrage"`
	FuelType    string             `json:"typeCarburant" bson:"typeCarburant"` // "diesel", "essence", ...
	Station     string             `json:"station,omitempty" bson:"station,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// ComputedTotal derives the purchase total from quantity and unit price.
func (f Fuel) ComputedTotal() Amount {
	return f.UnitPrice.MulQuantity(f.Quantity)
}

// Milliliters returns the quantity rounded to whole milliliters.
func (f Fuel) Milliliters() int64 {
	return int64(Amount(1000).MulQuantity(f.Quantity))
}
