package aggregate

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Index groups fleet-wide slices by foreign key. It is built once per
// aggregation pass so per-entity rollups avoid rescanning the slices.
type Index struct {
	byVehicle map[primitive.ObjectID]*Slices
	byDriver  map[primitive.ObjectID]*Slices
}

// BuildIndex groups s by vehicle and by driver. Maintenance has no driver
// and only appears in the vehicle index.
func BuildIndex(s Slices) *Index {
	ix := &Index{
		byVehicle: make(map[primitive.ObjectID]*Slices),
		byDriver:  make(map[primitive.ObjectID]*Slices),
	}
	for _, m := range s.Maintenance {
		v := ix.vehicle(m.VehicleID)
		v.Maintenance = append(v.Maintenance, m)
	}
	for _, f := range s.Fuel {
		v := ix.vehicle(f.VehicleID)
		v.Fuel = append(v.Fuel, f)
		d := ix.driver(f.DriverID)
		d.Fuel = append(d.Fuel, f)
	}
	for _, t := range s.Trips {
		v := ix.vehicle(t.VehicleID)
		v.Trips = append(v.Trips, t)
		d := ix.driver(t.DriverID)
		d.Trips = append(d.Trips, t)
	}
	return ix
}

func (ix *Index) vehicle(id primitive.ObjectID) *Slices {
	s, ok := ix.byVehicle[id]
	if !ok {
		s = &Slices{}
		ix.byVehicle[id] = s
	}
	return s
}

func (ix *Index) driver(id primitive.ObjectID) *Slices {
	s, ok := ix.byDriver[id]
	if !ok {
		s = &Slices{}
		ix.byDriver[id] = s
	}
	return s
}

// Vehicle returns the events of one vehicle, empty when it has none.
func (ix *Index) Vehicle(id primitive.ObjectID) Slices {
	if s, ok := ix.byVehicle[id]; ok {
		return *s
	}
	return Slices{}
}

// Driver returns the fuel and trip events of one driver.
func (ix *Index) Driver(id primitive.ObjectID) Slices {
	if s, ok := ix.byDriver[id]; ok {
		return *s
	}
	return Slices{}
}
