package order

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lepetitbistro/ordering-api/internal/domain/address"
	"github.com/lepetitbistro/ordering-api/internal/domain/cart"
	"github.com/lepetitbistro/ordering-api/internal/domain/coupon"
)

// Sentinel errors for checkout validation.
var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidDelivery    = errors.New("invalid delivery mode")
	ErrInvalidPayment     = errors.New("invalid payment mode")
	ErrNegativeFee        = errors.New("delivery fee must not be negative")
	ErrPersistenceFailure = errors.New("order could not be saved")
)

// MissingFieldError indicates a required checkout field was left blank.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// AddressError indicates the delivery address was rejected, either by the
// geocoder or because the geocoder could not be consulted.
type AddressError struct {
	Reason string
}

func (e *AddressError) Error() string {
	return e.Reason
}

// CheckoutRequest carries everything a checkout needs besides the cart
// itself, which is loaded from the store by session id.
type CheckoutRequest struct {
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

	// CouponID optionally references a coupon the customer applied during
	// the session. Resolved and re-validated against the cart amount here;
	// a stale or invalid reference rejects the whole checkout.
	CouponID string
}

// CouponResolver is the slice of the coupon domain the checkout needs.
type CouponResolver interface {
	ResolveByID(ctx context.Context, id string, amount decimal.Decimal) (*coupon.Applied, error)
}

// CheckoutService runs the checkout transition: load cart, validate, resolve
// coupon, compute totals, persist order and clear the cart atomically.
type CheckoutService struct {
	carts     cart.Store
	coupons   CouponResolver
	orders    Repository
	addresses address.Validator
	taxRate   decimal.Decimal
}

// NewCheckoutService creates a CheckoutService. taxRate is a fraction, e.g.
// 0.10 for 10% VAT, fixed per deployment.
func NewCheckoutService(
	carts cart.Store,
	coupons CouponResolver,
	orders Repository,
	addresses address.Validator,
	taxRate decimal.Decimal,
) *CheckoutService {
	return &CheckoutService{
		carts:     carts,
		coupons:   coupons,
		orders:    orders,
		addresses: addresses,
		taxRate:   taxRate,
	}
}

// Checkout converts the session's cart into a persisted order. Every
// validation or coupon failure aborts before any write; a persistence failure
// rolls back in full, leaving the cart untouched. The operation is safely
// retryable in every failure case.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (*Order, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	crt, err := s.carts.Get(ctx, req.SessionID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	if crt.IsEmpty() {
		return nil, ErrEmptyCart
	}

	if req.DeliveryMode == DeliveryModeDelivery {
		res, err := s.addresses.ValidateForDelivery(ctx, req.DeliveryAddress, req.DeliveryZip)
		if err != nil {
			// The validator degrades expected failures itself; anything else
			// still must not leak a raw error into the checkout.
			return nil, &AddressError{Reason: "address could not be verified"}
		}
		if !res.Valid {
			return nil, &AddressError{Reason: res.Reason}
		}
	}

	gross := crt.Subtotal()

	discount := decimal.Zero
	couponID := ""
	if req.CouponID != "" {
		applied, err := s.coupons.ResolveByID(ctx, req.CouponID, gross)
		if err != nil {
			return nil, err
		}
		discount = applied.Discount
		couponID = applied.Coupon.ID
	}

	totals, err := CalculateTotals(crt.Lines, req.DeliveryFee, s.taxRate, discount)
	if err != nil {
		return nil, errors.Wrap(err, "calculate totals")
	}

	items := make([]OrderItem, len(crt.Lines))
	for i, l := range crt.Lines {
		items[i] = OrderItem{
			ProductID:   l.ItemID,
			ProductName: l.Name,
			UnitPrice:   l.UnitPrice,
			Quantity:    l.Quantity,
			LineTotal:   l.LineTotal().Round(2),
		}
	}

	o := &Order{
		ID:                   uuid.New().String(),
		Status:               StatusPending,
		SessionID:            req.SessionID,
		DeliveryMode:         req.DeliveryMode,
		DeliveryAddress:      req.DeliveryAddress,
		DeliveryZip:          req.DeliveryZip,
		DeliveryInstructions: req.DeliveryInstructions,
		DeliveryFee:          req.DeliveryFee.Round(2),
		PaymentMode:          req.PaymentMode,
		ClientFirstName:      req.ClientFirstName,
		ClientLastName:       req.ClientLastName,
		ClientPhone:          req.ClientPhone,
		ClientEmail:          req.ClientEmail,
		Subtotal:             totals.Subtotal,
		TaxAmount:            totals.Tax,
		DiscountAmount:       totals.Discount,
		Total:                totals.Total,
		CouponID:             couponID,
		Items:                items,
	}

	// Order row, item rows, and the cart clear commit or roll back together.
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(ErrPersistenceFailure, err.Error())
	}

	return o, nil
}

// validateRequest checks the request fields that need no collaborator: modes,
// fee sign, and required client/delivery fields.
func validateRequest(req CheckoutRequest) error {
	switch req.DeliveryMode {
	case DeliveryModeDelivery, DeliveryModePickup:
	default:
		return ErrInvalidDelivery
	}

	switch req.PaymentMode {
	case PaymentModeCard, PaymentModeCash, PaymentModeTickets:
	default:
		return ErrInvalidPayment
	}

	if req.DeliveryFee.IsNegative() {
		return ErrNegativeFee
	}

	required := []struct {
		field string
		value string
	}{
		{"first name", req.ClientFirstName},
		{"last name", req.ClientLastName},
		{"phone", req.ClientPhone},
		{"email", req.ClientEmail},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return &MissingFieldError{Field: f.field}
		}
	}

	if _, err := mail.ParseAddress(req.ClientEmail); err != nil {
		return &MissingFieldError{Field: "valid email"}
	}

	if req.DeliveryMode == DeliveryModeDelivery {
		if strings.TrimSpace(req.DeliveryAddress) == "" {
			return &MissingFieldError{Field: "delivery address"}
		}
		if strings.TrimSpace(req.DeliveryZip) == "" {
			return &MissingFieldError{Field: "delivery zip"}
		}
	}

	return nil
}
