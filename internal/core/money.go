// Package core provides the ledger entities, report rows and the money and
// date helpers shared by the projections.
//
// Amounts arrive from the ledger as signed integer cents. They stay integers
// while being summed and are converted to decimal.Decimal exactly once, so no
// binary floating point ever touches a total.
package core

import "github.com/shopspring/decimal"

// CentsToDecimal converts minor units to an exact decimal currency value.
//
// Examples:
//
//	CentsToDecimal(123456) -> 1234.56
//	CentsToDecimal(-5000)  -> -50
func CentsToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// DecimalToCents converts a currency value back to minor units, rounding
// half away from zero on the third decimal place.
func DecimalToCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}
