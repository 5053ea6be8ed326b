package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lepetitbistro/ordering-api/internal/domain/coupon"
)

type couponPreviewResponse struct {
	ID             string          `json:"id"`
	Code           string          `json:"code"`
	DiscountType   string          `json:"discountType"`
	Discount       decimal.Decimal `json:"discount"`
	MinOrderAmount decimal.Decimal `json:"minOrderAmount"`
}

// previewCoupon resolves a coupon code against an order amount without
// placing an order: GET /api/coupon/{code}?amount=30.00.
func (h *Handler) previewCoupon(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	amount, err := decimal.NewFromString(r.URL.Query().Get("amount"))
	if err != nil || amount.IsNegative() {
		writeError(w, r, http.StatusBadRequest, "amount must be a non-negative decimal")
		return
	}

	applied, err := h.coupons.ResolveCode(r.Context(), code, amount)
	switch {
	case errors.Is(err, coupon.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "coupon not found")
	case errors.Is(err, coupon.ErrInactive):
		writeError(w, r, http.StatusUnprocessableEntity, "coupon is no longer active")
	case errors.Is(err, coupon.ErrExpired):
		writeError(w, r, http.StatusUnprocessableEntity, "coupon is expired or not yet valid")
	case errors.Is(err, coupon.ErrBelowMinimum):
		writeError(w, r, http.StatusUnprocessableEntity, "order amount is below the coupon minimum")
	case err != nil:
		zctx.From(r.Context()).Error("resolve coupon", zap.String("code", code), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	default:
		writeJSON(w, r, http.StatusOK, couponPreviewResponse{
			ID:             applied.Coupon.ID,
			Code:           applied.Coupon.Code,
			DiscountType:   string(applied.Coupon.DiscountType),
			Discount:       applied.Discount,
			MinOrderAmount: applied.Coupon.MinOrderAmount,
		})
	}
}
