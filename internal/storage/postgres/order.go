package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/lepetitbistro/ordering-api/internal/domain/order"
)

const (
	// Per-day sequence for order numbers: highest suffix used today.
	nextOrderSeqSQL = `SELECT COALESCE(MAX(CAST(RIGHT(order_number, 4) AS INTEGER)), 0) + 1
		FROM orders WHERE order_number LIKE $1`

	insertOrderSQL = `INSERT INTO orders (
			id, order_number, status,
			delivery_mode, delivery_address, delivery_zip, delivery_instructions, delivery_fee,
			payment_mode,
			client_first_name, client_last_name, client_phone, client_email,
			subtotal, tax_amount, discount_amount, total,
			coupon_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, position, product_id, product_name, unit_price, quantity, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	getOrderByNumberSQL = `SELECT id, order_number, status,
			delivery_mode, delivery_address, delivery_zip, delivery_instructions, delivery_fee,
			payment_mode,
			client_first_name, client_last_name, client_phone, client_email,
			subtotal, tax_amount, discount_amount, total,
			coupon_id, created_at
		FROM orders WHERE order_number = $1`

	getOrderItemsSQL = `SELECT product_id, product_name, unit_price, quantity, line_total
		FROM order_items WHERE order_id = $1 ORDER BY position`
)

// uniqueViolation is the PostgreSQL error code raised when two transactions
// race for the same order number.
const uniqueViolation = "23505"

// numberAttempts bounds the collision retry loop for order numbers.
const numberAttempts = 5

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool, now: time.Now}
}

// Create persists the order aggregate and clears the originating cart in one
// transaction. The order number is generated inside the transaction
// (ORD-YYYYMMDD-NNNN, sequential per day); a concurrent insert taking the
// same number trips the unique constraint and the whole attempt is retried
// with a fresh suffix.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	var lastErr error
	for attempt := 0; attempt < numberAttempts; attempt++ {
		err := r.createOnce(ctx, o)
		if err == nil {
			return nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			lastErr = err
			continue
		}
		return err
	}
	return fmt.Errorf("allocating order number after %d attempts: %w", numberAttempts, lastErr)
}

func (r *OrderRepository) createOnce(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	createdAt := r.now().UTC()
	day := createdAt.Format("20060102")

	var seq int
	if err := tx.QueryRow(ctx, nextOrderSeqSQL, "ORD-"+day+"-%").Scan(&seq); err != nil {
		return fmt.Errorf("reading order sequence: %w", err)
	}
	number := fmt.Sprintf("ORD-%s-%04d", day, seq)

	couponID := nullable(o.CouponID)
	_, err = tx.Exec(ctx, insertOrderSQL,
		o.ID, number, string(o.Status),
		string(o.DeliveryMode), o.DeliveryAddress, o.DeliveryZip, o.DeliveryInstructions, o.DeliveryFee,
		string(o.PaymentMode),
		o.ClientFirstName, o.ClientLastName, o.ClientPhone, o.ClientEmail,
		o.Subtotal, o.TaxAmount, o.DiscountAmount, o.Total,
		couponID, createdAt,
	)
	if err != nil {
		return fmt.Errorf("inserting order %q: %w", number, err)
	}

	for i, item := range o.Items {
		_, err = tx.Exec(ctx, insertOrderItemSQL,
			o.ID, i, item.ProductID, item.ProductName, item.UnitPrice, item.Quantity, item.LineTotal,
		)
		if err != nil {
			return fmt.Errorf("inserting order item %q: %w", item.ProductID, err)
		}
	}

	// The cart is cleared if and only if the order commits.
	if _, err := tx.Exec(ctx, clearCartSQL, o.SessionID); err != nil {
		return fmt.Errorf("clearing cart for session %q: %w", o.SessionID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing order %q: %w", number, err)
	}

	o.Number = number
	o.CreatedAt = createdAt
	return nil
}

// GetByNumber returns a placed order with its items, or order.ErrNotFound.
func (r *OrderRepository) GetByNumber(ctx context.Context, number string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByNumberSQL, number)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", number, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", number, err)
	}

	itemRows, err := r.pool.Query(ctx, getOrderItemsSQL, o.ID)
	if err != nil {
		return nil, fmt.Errorf("getting items for order %q: %w", number, err)
	}
	o.Items, err = pgx.CollectRows(itemRows, scanOrderItem)
	if err != nil {
		return nil, fmt.Errorf("getting items for order %q: %w", number, err)
	}
	return &o, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o            order.Order
		status       string
		deliveryMode string
		paymentMode  string
		fee          decimal.Decimal
		subtotal     decimal.Decimal
		tax          decimal.Decimal
		discount     decimal.Decimal
		total        decimal.Decimal
		couponID     *string
	)
	err := row.Scan(
		&o.ID, &o.Number, &status,
		&deliveryMode, &o.DeliveryAddress, &o.DeliveryZip, &o.DeliveryInstructions, &fee,
		&paymentMode,
		&o.ClientFirstName, &o.ClientLastName, &o.ClientPhone, &o.ClientEmail,
		&subtotal, &tax, &discount, &total,
		&couponID, &o.CreatedAt,
	)
	o.Status = order.Status(status)
	o.DeliveryMode = order.DeliveryMode(deliveryMode)
	o.PaymentMode = order.PaymentMode(paymentMode)
	o.DeliveryFee = fee
	o.Subtotal = subtotal
	o.TaxAmount = tax
	o.DiscountAmount = discount
	o.Total = total
	if couponID != nil {
		o.CouponID = *couponID
	}
	return o, err
}

func scanOrderItem(row pgx.CollectableRow) (order.OrderItem, error) {
	var (
		item  order.OrderItem
		price decimal.Decimal
		total decimal.Decimal
	)
	err := row.Scan(&item.ProductID, &item.ProductName, &price, &item.Quantity, &total)
	item.UnitPrice = price
	item.LineTotal = total
	return item, err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
