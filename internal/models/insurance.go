package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Insurance is a vehicle insurance policy.
type Insurance struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	VehicleID primitive.ObjectID `json:"vehicule" bson:"vehicule"`
	Assureur  string             `json:"assureur" bson:"assureur"`
	PolicyNo  string             `json:"numeroPolice" bson:"numeroPolice"`
	StartDate time.Time          `json:"dateDebut" bson:"dateDebut"`
	EndDate   *time.Time         `json:"dateFin,omitempty" bson:"dateFin,omitempty"`
	Premium   Amount             `json:"prime" bson:"prime"`
	Status    Status             `json:"statut" bson:"statut"`
	Sinistres []Sinistre         `json:"sinistres" bson:"sinistres"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Sinistre is a claim filed against a policy.
type Sinistre struct {
	Date        time.Time `json:"date" bson:"date"`
	Description string    `json:"description" bson:"description"`
	Montant     Amount    `json:"montant" bson:"montant"`
	Statut      string    `json:"statut" bson:"statut"` // "declare", "en_cours", "indemnise", "refuse"
}

// ClaimsTotal sums the amounts of every claim on the policy.
func (i Insurance) ClaimsTotal() Amount {
	var total Amount
	for _, s := range i.Sinistres {
		total += s.Montant
	}
	return total
}
