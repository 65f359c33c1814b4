package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EmploymentStatus of a driver.
type EmploymentStatus string

const (
	DriverActive    EmploymentStatus = "active"
	DriverSuspended EmploymentStatus = "suspended"
	DriverInactive  EmploymentStatus = "inactive"
)

// Driver represents a fleet driver linked to a user account.
type Driver struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID            primitive.ObjectID  `bson:"utilisateur" json:"utilisateur"`
	Nom               string              `bson:"nom" json:"nom"`
	Prenom            string              `bson:"prenom" json:"prenom"`
	AssignedVehicleID *primitive.ObjectID `bson:"vehiculeAssigne,omitempty" json:"vehiculeAssigne,omitempty"`
	LicenseCategories []string            `bson:"categoriesPermis" json:"categoriesPermis"`
	LicenseExpiration *time.Time          `bson:"dateExpirationPermis,omitempty" json:"dateExpirationPermis,omitempty"`
	Status            EmploymentStatus    `bson:"statut" json:"statut"`
	Infractions       []Infraction        `bson:"infractions" json:"infractions"`
	Formations        []Formation         `bson:"formations" json:"formations"`
	CreatedAt         time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Infraction is a traffic offence logged against a driver.
type Infraction struct {
	Date        time.Time `bson:"date" json:"date"`
	Type        string    `bson:"type" json:"type"`
	Description string    `bson:"description" json:"description"`
	Amende      Amount    `bson:"amende" json:"amende"`
}

// Formation is a training session a driver attended.
type Formation struct {
	Date     time.Time `bson:"date" json:"date"`
	Intitule string    `bson:"intitule" json:"intitule"`
}

// FullName returns "Prenom Nom".
func (d Driver) FullName() string {
	if d.Prenom == "" {
		return d.Nom
	}
	if d.Nom == "" {
		return d.Prenom
	}
	return d.Prenom + " " + d.Nom
}
