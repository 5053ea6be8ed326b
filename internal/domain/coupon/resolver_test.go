package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCouponRepo struct {
	byCode map[string]*Coupon
	byID   map[string]*Coupon
	err    error
}

func (m *mockCouponRepo) FindByCode(_ context.Context, code string) (*Coupon, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.byCode[code]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (m *mockCouponRepo) FindByID(_ context.Context, id string) (*Coupon, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (m *mockCouponRepo) ListCodes(_ context.Context) ([]string, error) {
	codes := make([]string, 0, len(m.byCode))
	for code := range m.byCode {
		codes = append(codes, code)
	}
	return codes, m.err
}

func newRepo(coupons ...*Coupon) *mockCouponRepo {
	byCode := make(map[string]*Coupon, len(coupons))
	byID := make(map[string]*Coupon, len(coupons))
	for _, c := range coupons {
		byCode[c.Code] = c
		byID[c.ID] = c
	}
	return &mockCouponRepo{byCode: byCode, byID: byID}
}

func TestResolveCode(t *testing.T) {
	fixedNow := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := fixedNow.Add(-24 * time.Hour)
	future := fixedNow.Add(24 * time.Hour)

	tests := []struct {
		name         string
		coupon       *Coupon
		code         string
		amount       string
		wantDiscount string
		wantErr      error
	}{
		{
			name: "active percentage coupon",
			coupon: &Coupon{
				ID: "c1", Code: "BIENVENUE", Active: true,
				DiscountType: DiscountPercentage, Value: decimal.NewFromInt(10),
			},
			code:         "BIENVENUE",
			amount:       "30.00",
			wantDiscount: "3.00",
		},
		{
			name: "code lookup is case-insensitive",
			coupon: &Coupon{
				ID: "c1", Code: "BIENVENUE", Active: true,
				DiscountType: DiscountPercentage, Value: decimal.NewFromInt(10),
			},
			code:         "  bienvenue ",
			amount:       "30.00",
			wantDiscount: "3.00",
		},
		{
			name:    "unknown code",
			coupon:  &Coupon{ID: "c1", Code: "BIENVENUE", Active: true, DiscountType: DiscountPercentage, Value: decimal.NewFromInt(10)},
			code:    "BOGUS",
			amount:  "30.00",
			wantErr: ErrNotFound,
		},
		{
			name: "inactive coupon",
			coupon: &Coupon{
				ID: "c1", Code: "VIEUX", Active: false,
				DiscountType: DiscountFixed, Value: decimal.NewFromInt(5),
			},
			code:    "VIEUX",
			amount:  "30.00",
			wantErr: ErrInactive,
		},
		{
			name: "expired coupon",
			coupon: &Coupon{
				ID: "c1", Code: "ETE2025", Active: true, ValidUntil: &past,
				DiscountType: DiscountPercentage, Value: decimal.NewFromInt(20),
			},
			code:    "ETE2025",
			amount:  "30.00",
			wantErr: ErrExpired,
		},
		{
			name: "not yet valid coupon",
			coupon: &Coupon{
				ID: "c1", Code: "NOEL", Active: true, ValidFrom: &future,
				DiscountType: DiscountPercentage, Value: decimal.NewFromInt(20),
			},
			code:    "NOEL",
			amount:  "30.00",
			wantErr: ErrExpired,
		},
		{
			name: "inside validity window",
			coupon: &Coupon{
				ID: "c1", Code: "MIDI", Active: true, ValidFrom: &past, ValidUntil: &future,
				DiscountType: DiscountFixed, Value: decimal.NewFromInt(5),
			},
			code:         "MIDI",
			amount:       "30.00",
			wantDiscount: "5.00",
		},
		{
			name: "below minimum order amount",
			coupon: &Coupon{
				ID: "c1", Code: "GROSSE", Active: true,
				MinOrderAmount: decimal.NewFromInt(50),
				DiscountType:   DiscountFixed, Value: decimal.NewFromInt(10),
			},
			code:    "GROSSE",
			amount:  "30.00",
			wantErr: ErrBelowMinimum,
		},
		{
			name: "exactly at minimum order amount",
			coupon: &Coupon{
				ID: "c1", Code: "GROSSE", Active: true,
				MinOrderAmount: decimal.NewFromInt(30),
				DiscountType:   DiscountFixed, Value: decimal.NewFromInt(10),
			},
			code:         "GROSSE",
			amount:       "30.00",
			wantDiscount: "10.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(newRepo(tt.coupon))
			r.now = func() time.Time { return fixedNow }

			got, err := r.ResolveCode(context.Background(), tt.code, decimal.RequireFromString(tt.amount))

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.True(t, decimal.RequireFromString(tt.wantDiscount).Equal(got.Discount),
				"expected discount %s, got %s", tt.wantDiscount, got.Discount)
			assert.Equal(t, tt.coupon.ID, got.Coupon.ID)
		})
	}
}

// The four failure modes must stay distinct so the storefront can render a
// precise message for each.
func TestResolveCode_DistinctFailureModes(t *testing.T) {
	errs := []error{ErrNotFound, ErrInactive, ErrExpired, ErrBelowMinimum}
	for i, a := range errs {
		for j, b := range errs {
			if i == j {
				continue
			}
			assert.NotErrorIs(t, a, b)
		}
	}
}

func TestResolveByID(t *testing.T) {
	c := &Coupon{
		ID: "c42", Code: "FIDELE", Active: true,
		DiscountType: DiscountPercentage, Value: decimal.NewFromInt(10),
	}
	r := NewResolver(newRepo(c))

	got, err := r.ResolveByID(context.Background(), "c42", decimal.RequireFromString("30.00"))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("3.00").Equal(got.Discount))

	_, err = r.ResolveByID(context.Background(), "missing", decimal.RequireFromString("30.00"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestResolveCode_FilterShortCircuitsUnknownCodes(t *testing.T) {
	repo := newRepo(&Coupon{
		ID: "c1", Code: "BIENVENUE", Active: true,
		DiscountType: DiscountPercentage, Value: decimal.NewFromInt(10),
	})
	r := NewResolver(repo)
	require.NoError(t, r.WarmFilter(context.Background()))

	// Known code still resolves through the filter.
	got, err := r.ResolveCode(context.Background(), "bienvenue", decimal.RequireFromString("30.00"))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("3.00").Equal(got.Discount))

	// Unknown code is rejected without touching the repository.
	repo.err = assert.AnError
	_, err = r.ResolveCode(context.Background(), "DEFINITELYNOT", decimal.RequireFromString("30.00"))
	require.ErrorIs(t, err, ErrNotFound)
}
