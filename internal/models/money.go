package models

import (
	"fmt"
	"math"
)

// Amount is a non-negative currency amount in minor units.
type Amount int64

// MulQuantity returns q × unit rounded half away from zero to the nearest minor unit.
func (a Amount) MulQuantity(q float64) Amount {
	return Amount(math.Round(q * float64(a)))
}

// String formats the amount in major units with two decimals.
func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
