package db

import (
	"time"

	"github.com/ukydev/fleet-lifecycle/internal/apperr"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Stored field names shared by several collections.
const (
	fieldID       = "_id"
	fieldVehicle  = "vehicule"
	fieldDriver   = "conducteur"
	fieldStatus   = "statut"
	fieldCategory = "categorie"
	fieldType     = "type"
)

// Filter narrows a find. Empty slices and nil bounds match everything.
// Set fields are matched by membership, From/To bound the collection's own
// date field inclusively.
type Filter struct {
	IDs               []primitive.ObjectID
	VehicleIDs        []primitive.ObjectID
	// ExcludeVehicleIDs drops records of these vehicles. Records without a
	// vehicle are kept.
	ExcludeVehicleIDs []primitive.ObjectID
	DriverIDs         []primitive.ObjectID
	Statuses          []string
	Categories        []string
	Types             []string
	From              *time.Time
	To                *time.Time
}

// ParseID converts a hex id into an ObjectID, reporting a ValidationError
// naming field when it is malformed.
func ParseID(field, id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperr.Invalid(field, "%q is not a valid id", id)
	}
	return oid, nil
}

// BSON renders the filter for a collection whose date field is dateField.
// An empty dateField ignores From/To.
func (f Filter) BSON(dateField string) bson.M {
	m := bson.M{}
	in := func(field string, ids []primitive.ObjectID) {
		if len(ids) > 0 {
			m[field] = bson.M{"$in": ids}
		}
	}
	inStr := func(field string, vals []string) {
		if len(vals) > 0 {
			m[field] = bson.M{"$in": vals}
		}
	}
	in(fieldID, f.IDs)
	in(fieldVehicle, f.VehicleIDs)
	if len(f.ExcludeVehicleIDs) > 0 {
		clause, ok := m[fieldVehicle].(bson.M)
		if !ok {
			clause = bson.M{}
		}
		clause["$nin"] = f.ExcludeVehicleIDs
		m[fieldVehicle] = clause
	}
	in(fieldDriver, f.DriverIDs)
	inStr(fieldStatus, f.Statuses)
	inStr(fieldCategory, f.Categories)
	inStr(fieldType, f.Types)

	if dateField != "" && (f.From != nil || f.To != nil) {
		r := bson.M{}
		if f.From != nil {
			r["$gte"] = *f.From
		}
		if f.To != nil {
			r["$lte"] = *f.To
		}
		m[dateField] = r
	}
	return m
}

func matchID(set []primitive.ObjectID, id primitive.ObjectID) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == id {
			return true
		}
	}
	return false
}

func matchOptID(set []primitive.ObjectID, id *primitive.ObjectID) bool {
	if len(set) == 0 {
		return true
	}
	return id != nil && matchID(set, *id)
}

func excludedOptID(set []primitive.ObjectID, id *primitive.ObjectID) bool {
	return id != nil && len(set) > 0 && matchID(set, *id)
}

func matchStr(set []string, v string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func (f Filter) inRange(t time.Time) bool {
	if f.From != nil && t.Before(*f.From) {
		return false
	}
	if f.To != nil && t.After(*f.To) {
		return false
	}
	return true
}

func (f Filter) inOptRange(t *time.Time) bool {
	if f.From == nil && f.To == nil {
		return true
	}
	return t != nil && f.inRange(*t)
}
