package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

const bloomFalsePositiveRate = 0.001

// Resolver decides whether a coupon may be applied to a given order amount
// and computes the resulting discount. It performs no mutation: usage
// counters are not part of this domain.
type Resolver struct {
	repo   Repository
	filter *bloom.BloomFilter
	now    func() time.Time
}

// NewResolver creates a Resolver backed by the given Repository.
func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo, now: time.Now}
}

// WarmFilter loads every known coupon code into a bloom filter so that
// lookups for codes that certainly do not exist skip the database. Safe to
// skip: a nil filter simply disables the fast path.
func (r *Resolver) WarmFilter(ctx context.Context) error {
	codes, err := r.repo.ListCodes(ctx)
	if err != nil {
		return errors.Wrap(err, "list coupon codes")
	}

	n := uint(len(codes))
	if n == 0 {
		n = 1
	}
	f := bloom.NewWithEstimates(n, bloomFalsePositiveRate)
	for _, code := range codes {
		f.AddString(NormalizeCode(code))
	}
	r.filter = f
	return nil
}

// NormalizeCode maps a user-supplied code to its canonical form. Coupon codes
// are case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ResolveCode validates the coupon identified by code against the
// tax-inclusive order amount and returns the applied discount. This is also
// the customer-facing "apply promo code" preview: it never mutates state.
func (r *Resolver) ResolveCode(ctx context.Context, code string, amount decimal.Decimal) (*Applied, error) {
	normalized := NormalizeCode(code)
	if r.filter != nil && !r.filter.TestString(normalized) {
		return nil, ErrNotFound
	}

	c, err := r.repo.FindByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	return r.apply(c, amount)
}

// ResolveByID validates the coupon identified by its id, as referenced from a
// checkout request.
func (r *Resolver) ResolveByID(ctx context.Context, id string, amount decimal.Decimal) (*Applied, error) {
	c, err := r.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	return r.apply(c, amount)
}

// apply runs the eligibility checks in order, short-circuiting on the first
// failure: active, validity window, minimum amount.
func (r *Resolver) apply(c *Coupon, amount decimal.Decimal) (*Applied, error) {
	if !c.Active {
		return nil, ErrInactive
	}

	now := r.now()
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return nil, ErrExpired
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return nil, ErrExpired
	}

	if amount.LessThan(c.MinOrderAmount) {
		return nil, ErrBelowMinimum
	}

	discount, err := DiscountFor(c, amount)
	if err != nil {
		return nil, err
	}

	return &Applied{Coupon: c, Discount: discount}, nil
}
