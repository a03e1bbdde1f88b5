package utils

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ToCents converts a price in major units to the smallest currency unit.
func ToCents(price float64) int64 {
	return decimal.NewFromFloat(price).Mul(hundred).Round(0).IntPart()
}

func FromCents(cents int64) float64 {
	return decimal.New(cents, -2).InexactFloat64()
}
