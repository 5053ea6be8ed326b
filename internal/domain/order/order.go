package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DeliveryMode selects how the order reaches the customer.
type DeliveryMode string

const (
	DeliveryModeDelivery DeliveryMode = "delivery"
	DeliveryModePickup   DeliveryMode = "pickup"
)

// PaymentMode records how the customer intends to pay. Selection only, no
// processor integration.
type PaymentMode string

const (
	PaymentModeCard    PaymentMode = "card"
	PaymentModeCash    PaymentMode = "cash"
	PaymentModeTickets PaymentMode = "tickets"
)

// Status of a persisted order. Checkout always creates orders in
// StatusPending; later transitions are administrative.
type Status string

const StatusPending Status = "pending"

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// OrderItem is an immutable snapshot of a cart line at order time,
// independent of later menu changes.
type OrderItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// Order is the persisted result of a successful checkout.
//
// Monetary invariant: Total = Subtotal + TaxAmount - DiscountAmount, with
// every figure non-negative and rounded to two decimals.
type Order struct {
	ID     string
	Number string
	Status Status

	// SessionID identifies the cart this order was created from; the cart is
	// cleared in the same transaction that persists the order.
	SessionID string

	DeliveryMode         DeliveryMode
	DeliveryAddress      string
	DeliveryZip          string
	DeliveryInstructions string
	DeliveryFee          decimal.Decimal

	PaymentMode PaymentMode

	ClientFirstName string
	ClientLastName  string
	ClientPhone     string
	ClientEmail     string

	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal

	CouponID string
	Items    []OrderItem

	CreatedAt time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create persists the order aggregate and clears the originating cart
	// (o.SessionID) as one atomic operation: if anything fails, no order row
	// exists and the cart is untouched. On success it fills in o.Number and
	// o.CreatedAt.
	Create(ctx context.Context, o *Order) error
	// GetByNumber returns a placed order, or ErrNotFound.
	GetByNumber(ctx context.Context, number string) (*Order, error)
}
