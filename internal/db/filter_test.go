package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-lifecycle/internal/apperr"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFilter_BSON_Empty(t *testing.T) {
	assert.Equal(t, bson.M{}, Filter{}.BSON("date"))
}

func TestFilter_BSON(t *testing.T) {
	vid := primitive.NewObjectID()
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC)

	f := Filter{
		VehicleIDs: []primitive.ObjectID{vid},
		Statuses:   []string{"done", "in_progress"},
		From:       &from,
		To:         &to,
	}
	got := f.BSON("dateDebut")

	assert.Equal(t, bson.M{"$in": []primitive.ObjectID{vid}}, got["vehicule"])
	assert.Equal(t, bson.M{"$in": []string{"done", "in_progress"}}, got["statut"])
	assert.Equal(t, bson.M{"$gte": from, "$lte": to}, got["dateDebut"])
	assert.NotContains(t, got, "conducteur")
}

func TestFilter_BSON_ExcludeVehicles(t *testing.T) {
	keep := primitive.NewObjectID()
	drop := primitive.NewObjectID()

	got := Filter{ExcludeVehicleIDs: []primitive.ObjectID{drop}}.BSON("")
	assert.Equal(t, bson.M{"$nin": []primitive.ObjectID{drop}}, got["vehicule"])

	got = Filter{VehicleIDs: []primitive.ObjectID{keep}, ExcludeVehicleIDs: []primitive.ObjectID{drop}}.BSON("")
	assert.Equal(t, bson.M{"$in": []primitive.ObjectID{keep}, "$nin": []primitive.ObjectID{drop}}, got["vehicule"])
}

func TestFilter_BSON_OpenEndedRange(t *testing.T) {
	to := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	got := Filter{To: &to}.BSON("date")
	assert.Equal(t, bson.M{"$lte": to}, got["date"])

	got = Filter{To: &to}.BSON("")
	assert.Empty(t, got)
}

func TestFilter_InRangeInclusive(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	f := Filter{From: &from, To: &to}

	assert.True(t, f.inRange(from))
	assert.True(t, f.inRange(to))
	assert.False(t, f.inRange(from.Add(-time.Nanosecond)))
	assert.False(t, f.inRange(to.Add(time.Nanosecond)))
	assert.False(t, f.inOptRange(nil))
	assert.True(t, Filter{}.inOptRange(nil))
}

func TestParseID(t *testing.T) {
	oid := primitive.NewObjectID()
	got, err := ParseID("vehicle", oid.Hex())
	require.NoError(t, err)
	assert.Equal(t, oid, got)

	_, err = ParseID("vehicle", "not-hex")
	assert.True(t, apperr.IsValidation(err))
}
