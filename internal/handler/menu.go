package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lepetitbistro/ordering-api/internal/domain/menu"
)

type menuItemResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Available   bool            `json:"available"`
}

func toMenuItemResponse(it menu.Item) menuItemResponse {
	return menuItemResponse{
		ID:          it.ID,
		Name:        it.Name,
		Description: it.Description,
		Price:       it.Price,
		Category:    it.Category,
		Available:   it.Available,
	}
}

func (h *Handler) listMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.menu.List(r.Context())
	if err != nil {
		zctx.From(r.Context()).Error("list menu", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]menuItemResponse, 0, len(items))
	for _, it := range items {
		resp = append(resp, toMenuItemResponse(it))
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (h *Handler) getMenuItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "itemId")

	item, err := h.menu.GetByID(r.Context(), id)
	switch {
	case errors.Is(err, menu.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "menu item not found")
	case err != nil:
		zctx.From(r.Context()).Error("get menu item", zap.String("item_id", id), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	default:
		writeJSON(w, r, http.StatusOK, toMenuItemResponse(*item))
	}
}
