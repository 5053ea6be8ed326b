package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lepetitbistro/ordering-api/internal/domain/cart"
	"github.com/lepetitbistro/ordering-api/internal/domain/menu"
)

type cartLineResponse struct {
	ItemID    string          `json:"itemId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type cartResponse struct {
	Items     []cartLineResponse `json:"items"`
	Total     decimal.Decimal    `json:"total"`
	ItemCount int                `json:"itemCount"`
}

func toCartResponse(c *cart.Cart) cartResponse {
	resp := cartResponse{
		Items:     make([]cartLineResponse, 0, len(c.Lines)),
		Total:     c.Subtotal(),
		ItemCount: c.ItemCount(),
	}
	for _, l := range c.Lines {
		resp.Items = append(resp.Items, cartLineResponse{
			ItemID:    l.ItemID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			LineTotal: l.LineTotal(),
		})
	}
	return resp
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)

	c, err := h.carts.Get(r.Context(), session)
	if err != nil {
		zctx.From(r.Context()).Error("get cart", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, r, http.StatusOK, toCartResponse(c))
}

type addCartItemRequest struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)

	var req addCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ItemID == "" {
		writeError(w, r, http.StatusBadRequest, "itemId is required")
		return
	}
	if req.Quantity < 1 {
		writeError(w, r, http.StatusBadRequest, "quantity must be at least 1")
		return
	}

	item, err := h.menu.GetByID(r.Context(), req.ItemID)
	switch {
	case errors.Is(err, menu.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "menu item not found")
		return
	case err != nil:
		zctx.From(r.Context()).Error("get menu item", zap.String("item_id", req.ItemID), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	if !item.Available {
		writeError(w, r, http.StatusUnprocessableEntity, "menu item is not available")
		return
	}

	line := cart.Line{
		ItemID:    item.ID,
		Name:      item.Name,
		UnitPrice: item.Price,
		Quantity:  req.Quantity,
	}
	if err := h.carts.AddLine(r.Context(), session, line); err != nil {
		zctx.From(r.Context()).Error("add cart line", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	h.respondWithCart(w, r, session)
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) setCartItemQuantity(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	itemID := chi.URLParam(r, "itemId")

	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity < 0 {
		writeError(w, r, http.StatusBadRequest, "quantity must not be negative")
		return
	}

	err := h.carts.SetQuantity(r.Context(), session, itemID, req.Quantity)
	switch {
	case errors.Is(err, cart.ErrLineNotFound):
		writeError(w, r, http.StatusNotFound, "item is not in the cart")
		return
	case err != nil:
		zctx.From(r.Context()).Error("set cart quantity", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	h.respondWithCart(w, r, session)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	itemID := chi.URLParam(r, "itemId")

	if err := h.carts.RemoveLine(r.Context(), session, itemID); err != nil {
		zctx.From(r.Context()).Error("remove cart line", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	h.respondWithCart(w, r, session)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)

	if err := h.carts.Clear(r.Context(), session); err != nil {
		zctx.From(r.Context()).Error("clear cart", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondWithCart(w http.ResponseWriter, r *http.Request, session string) {
	c, err := h.carts.Get(r.Context(), session)
	if err != nil {
		zctx.From(r.Context()).Error("get cart", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, r, http.StatusOK, toCartResponse(c))
}
