package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/modaline/storefront/internal/cart"
	"github.com/modaline/storefront/internal/catalog"
	"github.com/modaline/storefront/internal/middleware"
)

type addCartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

func (h *Handler) ListCart(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	items, err := h.carts.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	if items == nil {
		items = []cart.Item{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	var req addCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "missing productId")
		return
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	p, err := h.stock.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to check stock")
		return
	}
	if p.Stock < req.Quantity {
		writeError(w, http.StatusConflict, "insufficient stock")
		return
	}

	item, err := h.carts.AddItem(r.Context(), cart.Item{
		UserID:    userID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Size:      req.Size,
		Color:     req.Color,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to add cart item")
		return
	}

	writeJSON(w, http.StatusCreated, item)
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	itemID := chi.URLParam(r, "itemId")

	var req updateCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Zero or negative quantity removes the line.
	var err error
	if req.Quantity <= 0 {
		err = h.carts.RemoveItem(r.Context(), itemID, userID)
	} else {
		err = h.carts.UpdateQuantity(r.Context(), itemID, userID, req.Quantity)
	}
	if err != nil {
		if errors.Is(err, cart.ErrItemNotFound) {
			writeError(w, http.StatusNotFound, "cart item not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update cart item")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	itemID := chi.URLParam(r, "itemId")

	if err := h.carts.RemoveItem(r.Context(), itemID, userID); err != nil {
		if errors.Is(err, cart.ErrItemNotFound) {
			writeError(w, http.StatusNotFound, "cart item not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to remove cart item")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	if err := h.carts.ClearUser(r.Context(), userID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to clear cart")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
