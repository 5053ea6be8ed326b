package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/lepetitbistro/ordering-api/internal/domain/coupon"
)

const (
	couponColumns = `id, code, discount_type, value, min_order_amount, valid_from, valid_until, active`

	getCouponByCodeSQL = `SELECT ` + couponColumns + ` FROM coupons WHERE UPPER(code) = UPPER($1)`
	getCouponByIDSQL   = `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`
	listCouponCodesSQL = `SELECT code FROM coupons`

	upsertCouponSQL = `INSERT INTO coupons (id, code, discount_type, value, min_order_amount, valid_from, valid_until, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			code = EXCLUDED.code, discount_type = EXCLUDED.discount_type,
			value = EXCLUDED.value, min_order_amount = EXCLUDED.min_order_amount,
			valid_from = EXCLUDED.valid_from, valid_until = EXCLUDED.valid_until,
			active = EXCLUDED.active`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up a coupon by its code, case-insensitively. Activity and
// validity are checked by the resolver, not here, so every failure mode keeps
// its own reason.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	return r.findOne(ctx, getCouponByCodeSQL, code)
}

// FindByID looks up a coupon by its identifier.
func (r *CouponRepository) FindByID(ctx context.Context, id string) (*coupon.Coupon, error) {
	return r.findOne(ctx, getCouponByIDSQL, id)
}

func (r *CouponRepository) findOne(ctx context.Context, sql, arg string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("finding coupon %q: %w", arg, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon %q: %w", arg, err)
	}
	return &c, nil
}

// ListCodes returns every coupon code, for warming the resolver's filter.
func (r *CouponRepository) ListCodes(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, listCouponCodesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing coupon codes: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (string, error) {
		var code string
		err := row.Scan(&code)
		return code, err
	})
}

// Upsert inserts or updates a coupon. Used by the seed and import tools.
func (r *CouponRepository) Upsert(ctx context.Context, c coupon.Coupon) error {
	_, err := r.pool.Exec(ctx, upsertCouponSQL,
		c.ID, c.Code, string(c.DiscountType), c.Value, c.MinOrderAmount,
		c.ValidFrom, c.ValidUntil, c.Active,
	)
	if err != nil {
		return fmt.Errorf("upserting coupon %q: %w", c.Code, err)
	}
	return nil
}

// UpsertBatch upserts a batch of coupons in a single round trip. Used by the
// bulk import tool.
func (r *CouponRepository) UpsertBatch(ctx context.Context, coupons []coupon.Coupon) error {
	if len(coupons) == 0 {
		return nil
	}

	var batch pgx.Batch
	for _, c := range coupons {
		batch.Queue(upsertCouponSQL,
			c.ID, c.Code, string(c.DiscountType), c.Value, c.MinOrderAmount,
			c.ValidFrom, c.ValidUntil, c.Active,
		)
	}

	results := r.pool.SendBatch(ctx, &batch)
	defer func() { _ = results.Close() }()

	for _, c := range coupons {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upserting coupon %q: %w", c.Code, err)
		}
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c            coupon.Coupon
		discountType string
		value        decimal.Decimal
		minAmount    decimal.Decimal
		validFrom    *time.Time
		validUntil   *time.Time
	)
	err := row.Scan(
		&c.ID, &c.Code, &discountType, &value, &minAmount,
		&validFrom, &validUntil, &c.Active,
	)
	c.DiscountType = coupon.DiscountType(discountType)
	c.Value = value
	c.MinOrderAmount = minAmount
	c.ValidFrom = validFrom
	c.ValidUntil = validUntil
	return c, err
}
