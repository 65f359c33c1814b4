package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFuel_ComputedTotal(t *testing.T) {
	f := Fuel{Quantity: 70, UnitPrice: 650}
	assert.Equal(t, Amount(45500), f.ComputedTotal())

	f = Fuel{Quantity: 42.37, UnitPrice: 189}
	assert.Equal(t, Amount(8008), f.ComputedTotal()) // 8007.93
	assert.Equal(t, int64(42370), f.Milliliters())
}

func TestTrip_Distance(t *testing.T) {
	end := int64(77750)
	trip := Trip{StartOdometer: 77500, EndOdometer: &end}
	km, ok := trip.Distance()
	assert.True(t, ok)
	assert.Equal(t, int64(250), km)

	open := Trip{StartOdometer: 77500}
	km, ok = open.Distance()
	assert.False(t, ok)
	assert.Zero(t, km)

	back := int64(100)
	broken := Trip{StartOdometer: 200, EndOdometer: &back}
	_, ok = broken.Distance()
	assert.False(t, ok)
}

func TestTrip_CostExcludesStoredTotal(t *testing.T) {
	trip := Trip{TollFees: 1200, ParkingFees: 300, OtherFees: 50, TotalCost: 99999}
	assert.Equal(t, Amount(1550), trip.Cost())
}

func TestMaintenance_Cost(t *testing.T) {
	assert.Equal(t, Amount(3500), Maintenance{PartsCost: 2000, LaborCost: 1500}.Cost())
	assert.Equal(t, Amount(4000), Maintenance{TotalCost: 4000}.Cost())
}

func TestAmount_String(t *testing.T) {
	assert.Equal(t, "455.00", Amount(45500).String())
	assert.Equal(t, "0.07", Amount(7).String())
	assert.Equal(t, "-1.50", Amount(-150).String())
}

func TestDocument_OwnerID(t *testing.T) {
	assert.Equal(t, "", Document{}.OwnerID())
}

func TestInsurance_ClaimsTotal(t *testing.T) {
	ins := Insurance{Sinistres: []Sinistre{{Montant: 1000}, {Montant: 250}}}
	assert.Equal(t, Amount(1250), ins.ClaimsTotal())
	assert.Zero(t, Insurance{}.ClaimsTotal())
}
