package coupon

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DiscountFor calculates the discount the coupon yields against the given
// tax-inclusive order amount. The delivery fee is never part of the amount:
// discounts apply to items only.
//
// Percentage discounts are rounded half-up to two decimals and capped at the
// amount; fixed discounts take the lesser of the coupon value and the amount.
func DiscountFor(c *Coupon, amount decimal.Decimal) (decimal.Decimal, error) {
	switch c.DiscountType {
	case DiscountPercentage:
		d := amount.Mul(c.Value).Div(hundred).Round(2)
		return decimal.Min(d, amount), nil
	case DiscountFixed:
		d := decimal.Min(c.Value, amount)
		return floorAtZero(d).Round(2), nil
	default:
		return decimal.Zero, errors.Errorf("unsupported discount type: %q", c.DiscountType)
	}
}

// floorAtZero clamps negative values to zero.
func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
