package reports

import (
	"context"
	"sort"
	"time"

	"github.com/ukydev/fleet-lifecycle/internal/apperr"
	"github.com/ukydev/fleet-lifecycle/internal/db"
	"github.com/ukydev/fleet-lifecycle/internal/lifecycle"
	"github.com/ukydev/fleet-lifecycle/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// insuranceCategory is reported as the category of every insurance policy.
const insuranceCategory = "insurance"

// ExpiringFilter narrows an expiring query.
type ExpiringFilter struct {
	VehicleID string
	// DriverID and Categories apply to documents only.
	DriverID   string
	Categories []string
}

// ExpiringItem is a document or policy whose derived status needs attention.
type ExpiringItem struct {
	ID               string        `json:"id"`
	Kind             models.Kind   `json:"kind"`
	Categorie        string        `json:"categorie"`
	Proprietaire     string        `json:"proprietaire"`
	DateExpiration   time.Time     `json:"dateExpiration"`
	JoursRestants    int           `json:"joursRestants"`
	Statut           models.Status `json:"statut"`
	StatutEnregistre models.Status `json:"statutEnregistre"`
}

// Expiring lists the records of kind whose status, derived against the
// current time, is expiring_soon or expired. Items are ordered by
// expiration date, earliest first.
func (a *Assembler) Expiring(ctx context.Context, kind models.Kind, filter ExpiringFilter) ([]ExpiringItem, error) {
	if !models.IsValidKind(kind) {
		return nil, apperr.Invalid("kind", "unknown entity kind %q", kind)
	}
	f, err := a.expiringFilter(ctx, kind, filter)
	if err != nil {
		return nil, err
	}
	now := a.now()
	items := []ExpiringItem{}

	switch kind {
	case models.KindDocument:
		docs, err := a.store.Documents.FindDocuments(ctx, f)
		if err != nil {
			return nil, apperr.Unavailable("find documents", err)
		}
		for _, d := range docs {
			st := a.policy.DocumentStatus(d, now)
			if !st.NeedsAttention() {
				continue
			}
			items = append(items, ExpiringItem{
				ID:               d.ID.Hex(),
				Kind:             kind,
				Categorie:        d.Category,
				Proprietaire:     d.OwnerID(),
				DateExpiration:   *d.ExpirationDate,
				JoursRestants:    lifecycle.DaysRemaining(*d.ExpirationDate, now),
				Statut:           st,
				StatutEnregistre: d.Status,
			})
		}
	case models.KindInsurance:
		policies, err := a.store.Insurance.FindInsurance(ctx, f)
		if err != nil {
			return nil, apperr.Unavailable("find insurance", err)
		}
		for _, p := range policies {
			st := a.policy.InsuranceStatus(p, now)
			if !st.NeedsAttention() {
				continue
			}
			items = append(items, ExpiringItem{
				ID:               p.ID.Hex(),
				Kind:             kind,
				Categorie:        insuranceCategory,
				Proprietaire:     p.VehicleID.Hex(),
				DateExpiration:   *p.EndDate,
				JoursRestants:    lifecycle.DaysRemaining(*p.EndDate, now),
				Statut:           st,
				StatutEnregistre: p.Status,
			})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].DateExpiration.Equal(items[j].DateExpiration) {
			return items[i].DateExpiration.Before(items[j].DateExpiration)
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

func (a *Assembler) expiringFilter(ctx context.Context, kind models.Kind, filter ExpiringFilter) (db.Filter, error) {
	var f db.Filter
	if kind == models.KindInsurance && (filter.DriverID != "" || len(filter.Categories) > 0) {
		return f, apperr.Invalid("filter", "insurance policies are filtered by vehicle only")
	}
	f.Categories = filter.Categories
	if filter.VehicleID != "" {
		oid, err := db.ParseID("vehicle", filter.VehicleID)
		if err != nil {
			return f, err
		}
		if _, err := a.store.Vehicles.FindVehicleByID(ctx, filter.VehicleID); err != nil {
			return f, apperr.Unavailable("find vehicle", err)
		}
		f.VehicleIDs = []primitive.ObjectID{oid}
	}
	if filter.DriverID != "" {
		oid, err := db.ParseID("driver", filter.DriverID)
		if err != nil {
			return f, err
		}
		if _, err := a.store.Drivers.FindDriverByID(ctx, filter.DriverID); err != nil {
			return f, apperr.Unavailable("find driver", err)
		}
		f.DriverIDs = []primitive.ObjectID{oid}
	}
	return f, nil
}

var documentStatuses = map[models.Status]bool{
	models.StatusValid:         true,
	models.StatusExpiringSoon:  true,
	models.StatusExpired:       true,
	models.StatusNotApplicable: true,
}

// ListDocuments lists documents by their stored status. The stored status
// may lag the dates by up to one refresh cycle; use Expiring when that
// matters. No statuses lists every document.
func (a *Assembler) ListDocuments(ctx context.Context, statuses []models.Status) ([]models.Document, error) {
	f := db.Filter{}
	for _, s := range statuses {
		if !documentStatuses[s] {
			return nil, apperr.Invalid("statut", "unknown document status %q", s)
		}
		f.Statuses = append(f.Statuses, string(s))
	}
	docs, err := a.store.Documents.FindDocuments(ctx, f)
	if err != nil {
		return nil, apperr.Unavailable("find documents", err)
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return docs, nil
}
