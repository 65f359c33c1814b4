package aggregate

import (
	"github.com/ukydev/fleet-lifecycle/internal/models"
)

// MaintenanceStats rolls up maintenance events.
type MaintenanceStats struct {
	Count     int            `json:"nombre"`
	TotalCost models.Amount  `json:"coutTotal"`
	ByType    map[string]int `json:"parType"`
	ByStatus  map[string]int `json:"parStatut"`
}

// FuelStats rolls up fuel purchases.
type FuelStats struct {
	Count         int           `json:"nombre"`
	Liters        float64       `json:"quantiteTotale"`
	TotalAmount   models.Amount `json:"montantTotal"`
	AverageAmount models.Amount `json:"montantMoyen"`
}

// TripStats rolls up trips. Distance only counts trips with both odometer
// readings; Measured is the number of such trips.
type TripStats struct {
	Count           int           `json:"nombre"`
	Measured        int           `json:"mesures"`
	Distance        int64         `json:"distanceTotale"`
	AverageDistance float64       `json:"distanceMoyenne"`
	TotalCost       models.Amount `json:"coutTotal"`
}

// Result is the rollup of one scope.
type Result struct {
	Maintenance MaintenanceStats `json:"maintenance"`
	Fuel        FuelStats        `json:"carburant"`
	Trips       TripStats        `json:"trajets"`
}

// TotalCost is maintenance + fuel + trip costs.
func (r Result) TotalCost() models.Amount {
	return r.Maintenance.TotalCost + r.Fuel.TotalAmount + r.Trips.TotalCost
}

// Costs returns the cost breakdown of r.
func (r Result) Costs() CostBreakdown {
	return Breakdown(r.Maintenance.TotalCost, r.Fuel.TotalAmount, r.Trips.TotalCost)
}

// Slices holds the raw event streams of a scope.
type Slices struct {
	Maintenance []models.Maintenance
	Fuel        []models.Fuel
	Trips       []models.Trip
}

// Reduce computes the rollup of s.
func Reduce(s Slices) Result {
	return Result{
		Maintenance: ReduceMaintenance(s.Maintenance),
		Fuel:        ReduceFuel(s.Fuel),
		Trips:       ReduceTrips(s.Trips),
	}
}

// ReduceMaintenance counts and sums maintenance events. Every known type
// and status is present in the breakdowns, zero when unused.
func ReduceMaintenance(records []models.Maintenance) MaintenanceStats {
	st := MaintenanceStats{
		ByType:   make(map[string]int, len(models.MaintenanceTypes)),
		ByStatus: make(map[string]int, len(models.MaintenanceStatuses)),
	}
	for _, t := range models.MaintenanceTypes {
		st.ByType[string(t)] = 0
	}
	for _, s := range models.MaintenanceStatuses {
		st.ByStatus[string(s)] = 0
	}
	for _, m := range records {
		st.Count++
		st.TotalCost += m.Cost()
		st.ByType[string(m.Type)]++
		st.ByStatus[string(m.Status)]++
	}
	return st
}

// ReduceFuel sums fuel purchases. Totals are recomputed from quantity and
// unit price; liters are accumulated in whole milliliters.
func ReduceFuel(records []models.Fuel) FuelStats {
	var (
		st FuelStats
		ml int64
	)
	for _, f := range records {
		st.Count++
		ml += f.Milliliters()
		st.TotalAmount += f.ComputedTotal()
	}
	st.Liters = float64(ml) / 1000
	st.AverageAmount = models.Amount(roundDiv(int64(st.TotalAmount), int64(st.Count)))
	return st
}

// ReduceTrips sums trips. Trips without a return odometer add nothing to
// the distance and stay out of the average denominator.
func ReduceTrips(records []models.Trip) TripStats {
	var st TripStats
	for _, t := range records {
		st.Count++
		st.TotalCost += t.Cost()
		if km, ok := t.Distance(); ok {
			st.Measured++
			st.Distance += km
		}
	}
	if st.Measured > 0 {
		st.AverageDistance = tenths(roundDiv(10*st.Distance, int64(st.Measured)))
	}
	return st
}

// roundDiv divides a non-negative a by b rounding half up. b == 0 yields 0.
func roundDiv(a, b int64) int64 {
	if b == 0 {
		return 0
	}
	return (2*a + b) / (2 * b)
}

func tenths(n int64) float64 {
	return float64(n) / 10
}
