// Package money holds the fixed-rate ITBIS arithmetic shared by orders,
// the table projection and the settlement engine. Every comparison between
// two sums goes through ApproxEqual; never compare amounts with Equal.
package money

import "github.com/shopspring/decimal"

// Decimal places kept for every persisted amount (decimal(12,2) columns).
const places = 2

var (
	// TaxRate is the ITBIS rate (18%). Not configurable at runtime.
	TaxRate = decimal.RequireFromString("0.18")

	// Epsilon is the single tolerance used when reconciling sums.
	Epsilon = decimal.RequireFromString("0.01")

	taxFactor = decimal.NewFromInt(1).Add(TaxRate)
)

// Round rounds v to cents.
func Round(v decimal.Decimal) decimal.Decimal {
	return v.Round(places)
}

// Tax returns the ITBIS owed on subtotal.
func Tax(subtotal decimal.Decimal) decimal.Decimal {
	return Round(subtotal.Mul(TaxRate))
}

// Total returns subtotal plus its ITBIS.
func Total(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Add(Tax(subtotal))
}

// SubtotalFromTotal infers the pre-tax amount contained in a tax-inclusive total.
func SubtotalFromTotal(total decimal.Decimal) decimal.Decimal {
	return Round(total.Div(taxFactor))
}

// ApproxEqual reports whether a and b differ by at most one cent.
func ApproxEqual(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Epsilon)
}

// LineSubtotal is quantity × unit price.
func LineSubtotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}
