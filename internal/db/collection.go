package db

import (
	"context"

	"github.com/ukydev/fleet-lifecycle/internal/models"
)

// VehicleCollection defines the interface for vehicle data operations.
type VehicleCollection interface {
	FindVehicles(ctx context.Context, f Filter) ([]models.Vehicle, error)
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
}

// DriverCollection defines the interface for driver data operations.
type DriverCollection interface {
	FindDrivers(ctx context.Context, f Filter) ([]models.Driver, error)
	FindDriverByID(ctx context.Context, id string) (*models.Driver, error)
}

// MaintenanceCollection filters on the maintenance start date.
type MaintenanceCollection interface {
	FindMaintenance(ctx context.Context, f Filter) ([]models.Maintenance, error)
}

// FuelCollection filters on the purchase date.
type FuelCollection interface {
	FindFuel(ctx context.Context, f Filter) ([]models.Fuel, error)
}

// TripCollection filters on the departure date.
type TripCollection interface {
	FindTrips(ctx context.Context, f Filter) ([]models.Trip, error)
}

// DocumentCollection filters on the expiration date.
type DocumentCollection interface {
	FindDocuments(ctx context.Context, f Filter) ([]models.Document, error)
	// UpdateDocumentStatus rewrites the status field of one document and nothing else.
	UpdateDocumentStatus(ctx context.Context, id string, status models.Status) error
}

// InsuranceCollection filters on the policy end date.
type InsuranceCollection interface {
	FindInsurance(ctx context.Context, f Filter) ([]models.Insurance, error)
	// UpdateInsuranceStatus rewrites the status field of one policy and nothing else.
	UpdateInsuranceStatus(ctx context.Context, id string, status models.Status) error
}

// UserCollection reads accounts owned by the identity service.
type UserCollection interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
}

// Store groups the collections the engine reads.
type Store struct {
	Vehicles    VehicleCollection
	Drivers     DriverCollection
	Maintenance MaintenanceCollection
	Fuel        FuelCollection
	Trips       TripCollection
	Documents   DocumentCollection
	Insurance   InsuranceCollection
	Users       UserCollection
}
