package reports

import (
	"context"
	"sort"

	"github.com/ukydev/fleet-lifecycle/internal/aggregate"
	"github.com/ukydev/fleet-lifecycle/internal/apperr"
	"github.com/ukydev/fleet-lifecycle/internal/db"
	"github.com/ukydev/fleet-lifecycle/internal/models"
	"golang.org/x/sync/errgroup"
)

// ClaimStats summarises insurance claims filed for a vehicle.
type ClaimStats struct {
	Nombre  int           `json:"nombre"`
	Montant models.Amount `json:"montant"`
}

// VehicleRow is one line of the vehicle report.
type VehicleRow struct {
	VehicleID       string                     `json:"vehiculeId"`
	Immatriculation string                     `json:"immatriculation"`
	Marque          string                     `json:"marque"`
	Modele          string                     `json:"modele"`
	Statut          models.VehicleStatus       `json:"statut"`
	Departement     string                     `json:"departement"`
	Maintenance     aggregate.MaintenanceStats `json:"maintenance"`
	Carburant       aggregate.FuelStats        `json:"carburant"`
	Trajets         aggregate.TripStats        `json:"trajets"`
	CoutTotal       models.Amount              `json:"coutTotal"`
	Sinistres       ClaimStats                 `json:"sinistres"`
}

// VehicleReport returns one row per vehicle, ordered by registration. Each
// row is the rollup of that vehicle's records inside rng; claims are counted
// by claim date.
func (a *Assembler) VehicleReport(ctx context.Context, rng *aggregate.DateRange) ([]VehicleRow, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	var (
		vehicles []models.Vehicle
		policies []models.Insurance
		ix       *aggregate.Index
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		vehicles, err = a.store.Vehicles.FindVehicles(gctx, db.Filter{})
		return apperr.Unavailable("find vehicles", err)
	})
	g.Go(func() (err error) {
		policies, err = a.store.Insurance.FindInsurance(gctx, db.Filter{})
		return apperr.Unavailable("find insurance", err)
	})
	g.Go(func() (err error) {
		ix, err = a.engine.Index(gctx, rng)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	claims := make(map[string]ClaimStats)
	for _, p := range policies {
		c := claims[p.VehicleID.Hex()]
		for _, s := range p.Sinistres {
			if rng.Contains(s.Date) {
				c.Nombre++
				c.Montant += s.Montant
			}
		}
		claims[p.VehicleID.Hex()] = c
	}

	rows := make([]VehicleRow, 0, len(vehicles))
	for _, v := range vehicles {
		r := aggregate.Reduce(ix.Vehicle(v.ID))
		rows = append(rows, VehicleRow{
			VehicleID:       v.ID.Hex(),
			Immatriculation: v.Immatriculation,
			Marque:          v.Marque,
			Modele:          v.Modele,
			Statut:          v.Status,
			Departement:     v.Department,
			Maintenance:     r.Maintenance,
			Carburant:       r.Fuel,
			Trajets:         r.Trips,
			CoutTotal:       r.TotalCost(),
			Sinistres:       claims[v.ID.Hex()],
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Immatriculation != rows[j].Immatriculation {
			return rows[i].Immatriculation < rows[j].Immatriculation
		}
		return rows[i].VehicleID < rows[j].VehicleID
	})
	return rows, nil
}

// DriverRow is one line of the driver report.
type DriverRow struct {
	DriverID       string                  `json:"conducteurId"`
	Nom            string                  `json:"nom"`
	Statut         models.EmploymentStatus `json:"statut"`
	Trajets        int                     `json:"trajets"`
	DistanceTotale int64                   `json:"distanceTotale"`
	Infractions    int                     `json:"infractions"`
	Formations     int                     `json:"formations"`
}

// DriverReport returns one row per driver ordered by name, over all history.
func (a *Assembler) DriverReport(ctx context.Context) ([]DriverRow, error) {
	var (
		drivers []models.Driver
		ix      *aggregate.Index
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		drivers, err = a.store.Drivers.FindDrivers(gctx, db.Filter{})
		return apperr.Unavailable("find drivers", err)
	})
	g.Go(func() (err error) {
		ix, err = a.engine.Index(gctx, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows := make([]DriverRow, 0, len(drivers))
	for _, d := range drivers {
		trips := aggregate.ReduceTrips(ix.Driver(d.ID).Trips)
		rows = append(rows, DriverRow{
			DriverID:       d.ID.Hex(),
			Nom:            d.FullName(),
			Statut:         d.Status,
			Trajets:        trips.Count,
			DistanceTotale: trips.Distance,
			Infractions:    len(d.Infractions),
			Formations:     len(d.Formations),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Nom != rows[j].Nom {
			return rows[i].Nom < rows[j].Nom
		}
		return rows[i].DriverID < rows[j].DriverID
	})
	return rows, nil
}

// CostAnalysis is the cost breakdown of a scope with the underlying rollup.
type CostAnalysis struct {
	aggregate.CostBreakdown
	Detail aggregate.Result `json:"detail"`
}

// CostAnalysis splits the costs of scope into maintenance, fuel and trips.
func (a *Assembler) CostAnalysis(ctx context.Context, scope aggregate.Scope) (CostAnalysis, error) {
	r, err := a.engine.Aggregate(ctx, scope)
	if err != nil {
		return CostAnalysis{CostBreakdown: aggregate.Breakdown(0, 0, 0), Detail: aggregate.Reduce(aggregate.Slices{})}, err
	}
	return CostAnalysis{CostBreakdown: r.Costs(), Detail: r}, nil
}
