package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/modaline/storefront/internal/middleware"
)

func NewRouter(h *Handler, jwtSecret []byte, corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Logger)
	r.Use(middleware.CORS(corsOrigins))

	r.Get("/health", h.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtSecret))

		r.Route("/api/orders", func(r chi.Router) {
			r.Post("/", h.PlaceOrder)
			r.Get("/", h.ListOrders)
			r.Get("/{orderId}", h.GetOrder)
			r.Post("/{orderId}/cancel", h.CancelOrder)
		})

		r.Route("/api/payment", func(r chi.Router) {
			r.Post("/create-order", h.CreatePaymentOrder)
			r.Post("/verify", h.VerifyPayment)
		})

		r.Route("/api/wishlist", func(r chi.Router) {
			r.Get("/", h.GetWishlist)
			r.Post("/", h.AddWishlistItem)
			r.Delete("/{productId}", h.RemoveWishlistItem)
		})

		r.Route("/api/cart", func(r chi.Router) {
			r.Get("/", h.ListCart)
			r.Post("/", h.AddCartItem)
			r.Put("/{itemId}", h.UpdateCartItem)
			r.Patch("/{itemId}", h.UpdateCartItem)
			r.Delete("/{itemId}", h.RemoveCartItem)
			r.Delete("/", h.ClearCart)
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
