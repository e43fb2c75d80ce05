// Package pricing computes order totals.
package pricing

import (
	"shopfront/internal/model"

	"github.com/shopspring/decimal"
)

var (
	// FreeShippingThreshold is the subtotal that must be exceeded for free shipping.
	FreeShippingThreshold = decimal.NewFromInt(100)

	// FlatShipping is charged when the subtotal does not exceed the threshold.
	FlatShipping = decimal.NewFromInt(10)

	// TaxRate is applied to the subtotal.
	TaxRate = decimal.RequireFromString("0.08")
)

// Totals holds the monetary breakdown of an order.
type Totals struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// LineTotal returns unitPrice × quantity.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// Compute derives subtotal, shipping, tax and total from order lines.
// Tax is rounded half away from zero to two places; total is the exact sum
// of the three rounded components.
func Compute(lines []model.OrderLine) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(LineTotal(line.UnitPrice, line.Quantity))
	}
	subtotal = subtotal.Round(2)

	shipping := FlatShipping
	if subtotal.GreaterThan(FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	tax := subtotal.Mul(TaxRate).Round(2)

	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}
}

// Apply copies computed totals onto the order.
func (t Totals) Apply(order *model.Order) {
	order.Subtotal = t.Subtotal
	order.Shipping = t.Shipping
	order.Tax = t.Tax
	order.Total = t.Total
}
