package db

import (
	"context"
	"sync"

	"github.com/ukydev/fleet-lifecycle/internal/apperr"
	"github.com/ukydev/fleet-lifecycle/internal/models"
)

// MemoryStore is an in-process Store backend with the same filter semantics
// as the Mongo collections. It backs tests and offline dry runs.
type MemoryStore struct {
	mu          sync.RWMutex
	vehicles    []models.Vehicle
	drivers     []models.Driver
	maintenance []models.Maintenance
	fuel        []models.Fuel
	trips       []models.Trip
	documents   []models.Document
	insurance   []models.Insurance
	users       []models.User

	// FindErr, when set, is returned by every find as a StoreUnavailable.
	FindErr error
	// UpdateErr, when set, is consulted before every status update.
	UpdateErr func(kind models.Kind, id string) error
	// Updates counts successful status updates.
	Updates int
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Store exposes m through the Store collections.
func (m *MemoryStore) Store() *Store {
	return &Store{
		Vehicles:    m,
		Drivers:     m,
		Maintenance: m,
		Fuel:        m,
		Trips:       m,
		Documents:   m,
		Insurance:   m,
		Users:       m,
	}
}

// AddVehicles appends vehicles to the store
func (m *MemoryStore) AddVehicles(v ...models.Vehicle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles = append(m.vehicles, v...)
}

// AddDrivers appends drivers to the store
func (m *MemoryStore) AddDrivers(d ...models.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers = append(m.drivers, d...)
}

// AddMaintenance appends maintenance records to the store
func (m *MemoryStore) AddMaintenance(r ...models.Maintenance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maintenance = append(m.maintenance, r...)
}

// AddFuel appends fuel records to the store
func (m *MemoryStore) AddFuel(r ...models.Fuel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fuel = append(m.fuel, r...)
}

// AddTrips appends trips to the store
func (m *MemoryStore) AddTrips(r ...models.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips = append(m.trips, r...)
}

// AddDocuments appends documents to the store
func (m *MemoryStore) AddDocuments(r ...models.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents = append(m.documents, r...)
}

// AddInsurance appends insurance policies to the store
func (m *MemoryStore) AddInsurance(r ...models.Insurance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insurance = append(m.insurance, r...)
}

// AddUsers appends users to the store
func (m *MemoryStore) AddUsers(u ...models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = append(m.users, u...)
}

func (m *MemoryStore) findErr(op string) error {
	if m.FindErr != nil {
		return apperr.Unavailable(op, m.FindErr)
	}
	return nil
}

// FindVehicles finds vehicles matching f
func (m *MemoryStore) FindVehicles(ctx context.Context, f Filter) ([]models.Vehicle, error) {
	if err := m.findErr("find vehicles"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Vehicle{}
	for _, v := range m.vehicles {
		if matchID(f.IDs, v.ID) && matchStr(f.Statuses, string(v.Status)) {
			out = append(out, v)
		}
	}
	return out, nil
}

// FindVehicleByID finds a vehicle by its ID
func (m *MemoryStore) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	oid, err := ParseID("vehicle", id)
	if err != nil {
		return nil, err
	}
	if err := m.findErr("find vehicle"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, v := range m.vehicles {
		if v.ID == oid {
			v := v
			return &v, nil
		}
	}
	return nil, apperr.NotFound("vehicle", id)
}

// FindDrivers finds drivers matching f
func (m *MemoryStore) FindDrivers(ctx context.Context, f Filter) ([]models.Driver, error) {
	if err := m.findErr("find drivers"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Driver{}
	for _, d := range m.drivers {
		if matchID(f.IDs, d.ID) && matchStr(f.Statuses, string(d.Status)) {
			out = append(out, d)
		}
	}
	return out, nil
}

// FindDriverByID finds a driver by its ID
func (m *MemoryStore) FindDriverByID(ctx context.Context, id string) (*models.Driver, error) {
	oid, err := ParseID("driver", id)
	if err != nil {
		return nil, err
	}
	if err := m.findErr("find driver"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.drivers {
		if d.ID == oid {
			d := d
			return &d, nil
		}
	}
	return nil, apperr.NotFound("driver", id)
}

// FindMaintenance finds maintenance records matching f
func (m *MemoryStore) FindMaintenance(ctx context.Context, f Filter) ([]models.Maintenance, error) {
	if err := m.findErr("find maintenance"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Maintenance{}
	for _, r := range m.maintenance {
		if matchID(f.IDs, r.ID) && matchID(f.VehicleIDs, r.VehicleID) &&
			matchStr(f.Statuses, string(r.Status)) && matchStr(f.Types, string(r.Type)) &&
			f.inRange(r.StartDate) {
			out = append(out, r)
		}
	}
	return out, nil
}

// FindFuel finds fuel records matching f
func (m *MemoryStore) FindFuel(ctx context.Context, f Filter) ([]models.Fuel, error) {
	if err := m.findErr("find fuel"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Fuel{}
	for _, r := range m.fuel {
		if matchID(f.IDs, r.ID) && matchID(f.VehicleIDs, r.VehicleID) &&
			matchID(f.DriverIDs, r.DriverID) && f.inRange(r.Date) {
			out = append(out, r)
		}
	}
	return out, nil
}

// FindTrips finds trips matching f
func (m *MemoryStore) FindTrips(ctx context.Context, f Filter) ([]models.Trip, error) {
	if err := m.findErr("find trips"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Trip{}
	for _, r := range m.trips {
		if matchID(f.IDs, r.ID) && matchID(f.VehicleIDs, r.VehicleID) &&
			matchID(f.DriverIDs, r.DriverID) && matchStr(f.Statuses, string(r.Status)) &&
			f.inRange(r.Departure) {
			out = append(out, r)
		}
	}
	return out, nil
}

// FindDocuments finds documents matching f
func (m *MemoryStore) FindDocuments(ctx context.Context, f Filter) ([]models.Document, error) {
	if err := m.findErr("find documents"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Document{}
	for _, r := range m.documents {
		if matchID(f.IDs, r.ID) && matchOptID(f.VehicleIDs, r.VehicleID) &&
			!excludedOptID(f.ExcludeVehicleIDs, r.VehicleID) &&
			matchOptID(f.DriverIDs, r.DriverID) && matchStr(f.Statuses, string(r.Status)) &&
			matchStr(f.Categories, r.Category) && matchStr(f.Types, string(r.Type)) &&
			f.inOptRange(r.ExpirationDate) {
			out = append(out, r)
		}
	}
	return out, nil
}

// FindInsurance finds insurance policies matching f
func (m *MemoryStore) FindInsurance(ctx context.Context, f Filter) ([]models.Insurance, error) {
	if err := m.findErr("find insurance"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Insurance{}
	for _, r := range m.insurance {
		if matchID(f.IDs, r.ID) && matchID(f.VehicleIDs, r.VehicleID) &&
			!excludedOptID(f.ExcludeVehicleIDs, &r.VehicleID) &&
			matchStr(f.Statuses, string(r.Status)) && f.inOptRange(r.EndDate) {
			out = append(out, r)
		}
	}
	return out, nil
}

// FindUserByID finds a user by their ID
func (m *MemoryStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := ParseID("user", id)
	if err != nil {
		return nil, err
	}
	if err := m.findErr("find user"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.ID == oid {
			u := u
			return &u, nil
		}
	}
	return nil, apperr.NotFound("user", id)
}

// UpdateDocumentStatus sets the status of one document
func (m *MemoryStore) UpdateDocumentStatus(ctx context.Context, id string, status models.Status) error {
	return m.updateStatus(models.KindDocument, id, status)
}

// UpdateInsuranceStatus sets the status of one insurance policy
func (m *MemoryStore) UpdateInsuranceStatus(ctx context.Context, id string, status models.Status) error {
	return m.updateStatus(models.KindInsurance, id, status)
}

func (m *MemoryStore) updateStatus(kind models.Kind, id string, status models.Status) error {
	oid, err := ParseID(string(kind), id)
	if err != nil {
		return err
	}
	if m.UpdateErr != nil {
		if err := m.UpdateErr(kind, id); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	switch kind {
	case models.KindDocument:
		for i := range m.documents {
			if m.documents[i].ID == oid {
				m.documents[i].Status = status
				m.Updates++
				return nil
			}
		}
	case models.KindInsurance:
		for i := range m.insurance {
			if m.insurance[i].ID == oid {
				m.insurance[i].Status = status
				m.Updates++
				return nil
			}
		}
	}
	return apperr.NotFound(string(kind), id)
}
