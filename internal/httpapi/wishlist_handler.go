package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/modaline/storefront/internal/catalog"
	"github.com/modaline/storefront/internal/middleware"
	"github.com/modaline/storefront/internal/wishlist"
)

// WishlistProvider yields the caller's server-held wishlist replica. Each
// user's collection lives under its own storage key.
type WishlistProvider func(userID string) *wishlist.Store

func (h *Handler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	lines, err := h.wishlists(userID).Lines(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load wishlist")
		return
	}
	if lines == nil {
		lines = []wishlist.Line{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": lines})
}

type addWishlistItemRequest struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
	Category  string          `json:"category,omitempty"`
	InStock   bool            `json:"inStock"`
}

func (h *Handler) AddWishlistItem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	var req addWishlistItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "missing productId")
		return
	}

	p := catalog.Product{ID: req.ProductID, Name: req.Name, Price: req.Price, Image: req.Image}
	added, err := h.wishlists(userID).AddItem(r.Context(), p, req.Size, req.Color, req.Category, req.InStock)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to add wishlist item")
		return
	}

	status := http.StatusCreated
	if !added {
		// Set semantics: the duplicate changed nothing.
		status = http.StatusOK
	}
	writeJSON(w, status, map[string]bool{"added": added})
}

func (h *Handler) RemoveWishlistItem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	productID := chi.URLParam(r, "productId")
	q := r.URL.Query()

	if err := h.wishlists(userID).RemoveItem(r.Context(), productID, q.Get("size"), q.Get("color")); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to remove wishlist item")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
