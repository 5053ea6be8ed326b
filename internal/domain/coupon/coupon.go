package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage applies a percentage-based discount to the order amount.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed applies a fixed monetary discount capped at the order amount.
	DiscountFixed DiscountType = "fixed"
)

// Resolution failures map one-to-one to user-presentable reasons, so each
// gets its own sentinel.
var (
	// ErrNotFound is returned when no coupon exists for the given code or id.
	ErrNotFound = errors.New("coupon not found")
	// ErrInactive is returned when the coupon has been deactivated.
	ErrInactive = errors.New("coupon is not active")
	// ErrExpired is returned when the current time falls outside the coupon's
	// validity window, on either side.
	ErrExpired = errors.New("coupon expired or not yet valid")
	// ErrBelowMinimum is returned when the order amount does not reach the
	// coupon's minimum.
	ErrBelowMinimum = errors.New("order amount below coupon minimum")
)

// Coupon defines a discount rule with its eligibility constraints.
// Nil ValidFrom/ValidUntil mean the window is open on that side.
type Coupon struct {
	ID             string
	Code           string
	DiscountType   DiscountType
	Value          decimal.Decimal
	MinOrderAmount decimal.Decimal
	ValidFrom      *time.Time
	ValidUntil     *time.Time
	Active         bool
}

// Applied holds a successfully resolved coupon together with the discount it
// yields for the amount it was resolved against.
type Applied struct {
	Coupon   *Coupon
	Discount decimal.Decimal
}

// Repository provides lookup of coupons. Code lookup is case-insensitive.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	FindByID(ctx context.Context, id string) (*Coupon, error)
	// ListCodes returns every known coupon code, active or not. Used to build
	// the negative-lookup filter at startup.
	ListCodes(ctx context.Context) ([]string, error)
}
