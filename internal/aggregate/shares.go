package aggregate

import (
	"github.com/ukydev/fleet-lifecycle/internal/models"
)

// CostShares holds the percentage of total cost per category, one decimal.
type CostShares struct {
	Maintenance float64 `json:"maintenance"`
	Carburant   float64 `json:"carburant"`
	Trajets     float64 `json:"trajets"`
}

// CostBreakdown is the three-way cost split of a scope.
type CostBreakdown struct {
	CoutMaintenance models.Amount `json:"coutMaintenance"`
	CoutCarburant   models.Amount `json:"coutCarburant"`
	CoutTrajets     models.Amount `json:"coutTrajets"`
	CoutTotal       models.Amount `json:"coutTotal"`
	Pourcentages    CostShares    `json:"pourcentages"`
}

// Breakdown splits the three cost totals into shares rounded to one
// decimal. A zero total yields zero shares.
func Breakdown(maintenance, fuel, trips models.Amount) CostBreakdown {
	total := maintenance + fuel + trips
	return CostBreakdown{
		CoutMaintenance: maintenance,
		CoutCarburant:   fuel,
		CoutTrajets:     trips,
		CoutTotal:       total,
		Pourcentages: CostShares{
			Maintenance: Share(maintenance, total),
			Carburant:   Share(fuel, total),
			Trajets:     Share(trips, total),
		},
	}
}

// Share returns 100 × part / total rounded half up to one decimal, or 0
// when total is 0.
func Share(part, total models.Amount) float64 {
	if total <= 0 {
		return 0
	}
	return tenths(roundDiv(1000*int64(part), int64(total)))
}
