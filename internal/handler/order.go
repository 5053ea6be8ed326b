package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/lepetitbistro/ordering-api/internal/domain/coupon"
	"github.com/lepetitbistro/ordering-api/internal/domain/order"
)

type placeOrderRequest struct {
	DeliveryMode         string          `json:"deliveryMode"`
	DeliveryAddress      string          `json:"deliveryAddress,omitempty"`
	DeliveryZip          string          `json:"deliveryZip,omitempty"`
	DeliveryInstructions string          `json:"deliveryInstructions,omitempty"`
	DeliveryFee          decimal.Decimal `json:"deliveryFee"`
	PaymentMode          string          `json:"paymentMode"`
	ClientFirstName      string          `json:"clientFirstName"`
	ClientLastName       string          `json:"clientLastName"`
	ClientPhone          string          `json:"clientPhone"`
	ClientEmail          string          `json:"clientEmail"`
	CouponID             string          `json:"couponId,omitempty"`
}

type orderItemResponse struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

type orderResponse struct {
	ID                   string              `json:"id"`
	OrderNumber          string              `json:"orderNumber"`
	Status               string              `json:"status"`
	DeliveryMode         string              `json:"deliveryMode"`
	DeliveryAddress      string              `json:"deliveryAddress,omitempty"`
	DeliveryZip          string              `json:"deliveryZip,omitempty"`
	DeliveryInstructions string              `json:"deliveryInstructions,omitempty"`
	DeliveryFee          decimal.Decimal     `json:"deliveryFee"`
	PaymentMode          string              `json:"paymentMode"`
	Subtotal             decimal.Decimal     `json:"subtotal"`
	TaxAmount            decimal.Decimal     `json:"taxAmount"`
	DiscountAmount       decimal.Decimal     `json:"discountAmount"`
	Total                decimal.Decimal     `json:"total"`
	CouponID             string              `json:"couponId,omitempty"`
	Items                []orderItemResponse `json:"items"`
	CreatedAt            time.Time           `json:"createdAt"`
}

func toOrderResponse(o *order.Order) orderResponse {
	resp := orderResponse{
		ID:                   o.ID,
		OrderNumber:          o.Number,
		Status:               string(o.Status),
		DeliveryMode:         string(o.DeliveryMode),
		DeliveryAddress:      o.DeliveryAddress,
		DeliveryZip:          o.DeliveryZip,
		DeliveryInstructions: o.DeliveryInstructions,
		DeliveryFee:          o.DeliveryFee,
		PaymentMode:          string(o.PaymentMode),
		Subtotal:             o.Subtotal,
		TaxAmount:            o.TaxAmount,
		DiscountAmount:       o.DiscountAmount,
		Total:                o.Total,
		CouponID:             o.CouponID,
		Items:                make([]orderItemResponse, 0, len(o.Items)),
		CreatedAt:            o.CreatedAt,
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			LineTotal:   it.LineTotal,
		})
	}
	return resp
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	ctx := r.Context()

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.checkout.Checkout(ctx, order.CheckoutRequest{
		SessionID:            session,
		DeliveryMode:         order.DeliveryMode(req.DeliveryMode),
		DeliveryAddress:      req.DeliveryAddress,
		DeliveryZip:          req.DeliveryZip,
		DeliveryInstructions: req.DeliveryInstructions,
		DeliveryFee:          req.DeliveryFee,
		PaymentMode:          order.PaymentMode(req.PaymentMode),
		ClientFirstName:      req.ClientFirstName,
		ClientLastName:       req.ClientLastName,
		ClientPhone:          req.ClientPhone,
		ClientEmail:          req.ClientEmail,
		CouponID:             req.CouponID,
	})
	if err != nil {
		h.rejectCheckout(w, r, err)
		return
	}

	h.ordersPlaced.Add(ctx, 1)
	zctx.From(ctx).Info("order placed",
		zap.String("order_number", o.Number),
		zap.Int("items", len(o.Items)),
		zap.String("total", o.Total.StringFixed(2)),
	)
	writeJSON(w, r, http.StatusCreated, toOrderResponse(o))
}

// rejectCheckout maps checkout failures onto the error taxonomy: client
// mistakes are 400/422 with a precise reason, persistence failures are a
// generic 500.
func (h *Handler) rejectCheckout(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var (
		missing *order.MissingFieldError
		addr    *order.AddressError

		status  int
		message string
		reason  string
	)
	switch {
	case errors.Is(err, order.ErrEmptyCart):
		status, message, reason = http.StatusBadRequest, "cart is empty", "empty_cart"
	case errors.As(err, &addr):
		status, message, reason = http.StatusUnprocessableEntity, err.Error(), "address"
	case errors.As(err, &missing),
		errors.Is(err, order.ErrInvalidDelivery),
		errors.Is(err, order.ErrInvalidPayment),
		errors.Is(err, order.ErrNegativeFee):
		status, message, reason = http.StatusUnprocessableEntity, err.Error(), "validation"
	case errors.Is(err, coupon.ErrNotFound):
		status, message, reason = http.StatusUnprocessableEntity, "coupon not found", "coupon"
	case errors.Is(err, coupon.ErrInactive):
		status, message, reason = http.StatusUnprocessableEntity, "coupon is no longer active", "coupon"
	case errors.Is(err, coupon.ErrExpired):
		status, message, reason = http.StatusUnprocessableEntity, "coupon is expired or not yet valid", "coupon"
	case errors.Is(err, coupon.ErrBelowMinimum):
		status, message, reason = http.StatusUnprocessableEntity, "order amount is below the coupon minimum", "coupon"
	default:
		zctx.From(ctx).Error("checkout", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	h.ordersRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	writeError(w, r, status, message)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "orderNumber")

	o, err := h.orders.GetByNumber(r.Context(), number)
	switch {
	case errors.Is(err, order.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "order not found")
	case err != nil:
		zctx.From(r.Context()).Error("get order", zap.String("order_number", number), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	default:
		writeJSON(w, r, http.StatusOK, toOrderResponse(o))
	}
}
