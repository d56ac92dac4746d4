package ledger

import "github.com/shopspring/decimal"

// DefaultTaxRate is the inclusive sales tax rate.
var DefaultTaxRate = decimal.RequireFromString("0.18")

// Breakdown splits a tax-inclusive total.
type Breakdown struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// Inclusive derives the pre-tax subtotal and the tax of a tax-inclusive total.
// The subtotal is the unrounded quotient total/(1+rate) and the tax is the
// remainder, so Subtotal+Tax always equals Total. Rounding to cents happens only
// when amounts are rendered.
func Inclusive(total, rate decimal.Decimal) Breakdown {
	if rate.IsNegative() {
		rate = decimal.Zero
	}
	subtotal := total.Div(decimal.NewFromInt(1).Add(rate))
	return Breakdown{
		Subtotal: subtotal,
		Tax:      total.Sub(subtotal),
		Total:    total,
	}
}
