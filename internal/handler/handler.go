// Package handler wires the ordering domain to the HTTP surface.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"github.com/lepetitbistro/ordering-api/internal/domain/cart"
	"github.com/lepetitbistro/ordering-api/internal/domain/coupon"
	"github.com/lepetitbistro/ordering-api/internal/domain/menu"
	"github.com/lepetitbistro/ordering-api/internal/domain/order"
)

// sessionCookie identifies the customer's cart across requests.
const sessionCookie = "bistro_session"

// Handler serves the storefront API.
type Handler struct {
	menu     menu.Repository
	carts    cart.Store
	coupons  *coupon.Resolver
	checkout *order.CheckoutService
	orders   order.Repository

	ordersPlaced   metric.Int64Counter
	ordersRejected metric.Int64Counter
}

// New builds a Handler and registers its metrics on the given meter.
func New(
	meter metric.Meter,
	menuRepo menu.Repository,
	carts cart.Store,
	coupons *coupon.Resolver,
	checkout *order.CheckoutService,
	orders order.Repository,
) (*Handler, error) {
	placed, err := meter.Int64Counter("orders.placed",
		metric.WithDescription("Orders successfully persisted"))
	if err != nil {
		return nil, err
	}
	rejected, err := meter.Int64Counter("orders.rejected",
		metric.WithDescription("Checkout attempts rejected before persistence"))
	if err != nil {
		return nil, err
	}

	return &Handler{
		menu:           menuRepo,
		carts:          carts,
		coupons:        coupons,
		checkout:       checkout,
		orders:         orders,
		ordersPlaced:   placed,
		ordersRejected: rejected,
	}, nil
}

// Routes mounts all storefront endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/menu", h.listMenu)
		r.Get("/menu/{itemId}", h.getMenuItem)

		r.Get("/cart", h.getCart)
		r.Delete("/cart", h.clearCart)
		r.Post("/cart/items", h.addCartItem)
		r.Put("/cart/items/{itemId}", h.setCartItemQuantity)
		r.Delete("/cart/items/{itemId}", h.removeCartItem)

		r.Get("/coupon/{code}", h.previewCoupon)

		r.Post("/order", h.placeOrder)
		r.Get("/order/{orderNumber}", h.getOrder)
	})
}

// session returns the cart session id from the request cookie, minting a new
// one (and setting the cookie) on first contact.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
