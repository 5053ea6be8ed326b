package order

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/lepetitbistro/ordering-api/internal/domain/cart"
)

// ErrNoLines is returned when totals are requested for an empty cart.
var ErrNoLines = errors.New("cart has no lines")

var one = decimal.NewFromInt(1)

// Totals holds the four monetary figures of an order. Subtotal is the
// tax-exclusive base, Total is tax-inclusive and post-discount, and
// Subtotal + Tax always equals Total exactly.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// CalculateTotals turns cart lines, a delivery fee, and an already-computed
// discount into the persisted monetary figures. Menu prices are tax-inclusive,
// so tax is backed out of the final total rather than added on top.
//
// Convention: the discount applies to the tax-inclusive item gross only (the
// delivery fee is never discounted), and rounding happens once per derived
// figure, never on intermediate per-line values. Tax is the residual
// total - subtotal, so the figures sum exactly with no rounding drift.
func CalculateTotals(lines []cart.Line, deliveryFee, taxRate, discount decimal.Decimal) (Totals, error) {
	if len(lines) == 0 {
		return Totals{}, ErrNoLines
	}
	if deliveryFee.IsNegative() {
		return Totals{}, errors.New("delivery fee must not be negative")
	}

	gross := decimal.Zero
	for _, l := range lines {
		gross = gross.Add(l.LineTotal())
	}

	// Clamp the discount into [0, gross]; the coupon rule already caps it,
	// this keeps the calculator total on its own.
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(gross) {
		discount = gross
	}

	total := gross.Sub(discount).Add(deliveryFee).Round(2)

	// Reverse VAT: back the tax out of the tax-inclusive total.
	subtotal := total.Div(one.Add(taxRate)).Round(2)
	tax := total.Sub(subtotal)

	if subtotal.IsNegative() || tax.IsNegative() {
		return Totals{}, errors.Errorf("computed negative figures: subtotal=%s tax=%s", subtotal, tax)
	}

	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Discount: discount.Round(2),
		Total:    total,
	}, nil
}
