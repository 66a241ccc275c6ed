package utils

import (
	"math"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ComputeTotalDue applies the discount then the tax to dueAmount and rounds to cents.
// A nil discount or tax counts as zero. Inputs are not range-checked.
func ComputeTotalDue(dueAmount float64, discountPercent, taxPercent *float64) float64 {
	if math.IsNaN(dueAmount) || math.IsInf(dueAmount, 0) {
		return dueAmount
	}
	discount := percentOrZero(discountPercent)
	tax := percentOrZero(taxPercent)

	total := decimal.NewFromFloat(dueAmount).
		Mul(decimal.NewFromInt(1).Sub(discount.Div(hundred))).
		Mul(decimal.NewFromInt(1).Add(tax.Div(hundred))).
		Round(2)

	f, _ := total.Float64()
	return f
}

func percentOrZero(p *float64) decimal.Decimal {
	if p == nil || math.IsNaN(*p) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*p)
}
