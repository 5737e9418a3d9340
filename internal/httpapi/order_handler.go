package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/modaline/storefront/internal/cart"
	"github.com/modaline/storefront/internal/catalog"
	"github.com/modaline/storefront/internal/checkout"
	"github.com/modaline/storefront/internal/middleware"
	"github.com/modaline/storefront/internal/order"
	"github.com/modaline/storefront/internal/payment"
)

// CheckoutService is what the handlers need from the orchestrator.
type CheckoutService interface {
	PlaceOrder(ctx context.Context, in checkout.PlaceOrderInput) (*checkout.PlaceOrderResult, error)
	ConfirmPayment(ctx context.Context, in checkout.ConfirmInput) (*order.Order, error)
	CancelOrder(ctx context.Context, orderID, userID string) error
}

type Handler struct {
	svc       CheckoutService
	orders    order.Repository
	carts     cart.Repository
	stock     catalog.StockStore
	wishlists WishlistProvider
}

func NewHandler(svc CheckoutService, orders order.Repository, carts cart.Repository,
	stock catalog.StockStore, wishlists WishlistProvider) *Handler {
	return &Handler{svc: svc, orders: orders, carts: carts, stock: stock, wishlists: wishlists}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "storefront",
	})
}

type orderItemPayload struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
}

type placeOrderRequest struct {
	Items           []orderItemPayload    `json:"items"`
	ShippingAddress order.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                `json:"paymentMethod"`
}

func toOrderItems(payload []orderItemPayload) []order.Item {
	items := make([]order.Item, 0, len(payload))
	for _, p := range payload {
		items = append(items, order.Item{
			ProductID: p.ProductID,
			Quantity:  p.Quantity,
			Price:     p.Price,
			Size:      p.Size,
			Color:     p.Color,
		})
	}
	return items
}

// PlaceOrder handles the pay-on-delivery path. Gateway checkouts go through
// CreatePaymentOrder instead.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	method := checkout.Method(req.PaymentMethod)
	if method == "" {
		method = checkout.MethodPayOnDelivery
	}

	res, err := h.svc.PlaceOrder(r.Context(), checkout.PlaceOrderInput{
		UserID:          userID,
		Items:           toOrderItems(req.Items),
		ShippingAddress: req.ShippingAddress,
		Method:          method,
	})
	if err != nil {
		writeCheckoutError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"orderId": res.OrderID})
}

type listOrdersResponse struct {
	Orders []order.Order `json:"orders"`
	Page   int           `json:"page"`
	Limit  int           `json:"limit"`
	Total  int           `json:"total"`
	Pages  int           `json:"pages"`
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	f := order.ListFilter{
		Page:   queryInt(r, "page", 1),
		Limit:  queryInt(r, "limit", 10),
		Status: order.Status(r.URL.Query().Get("status")),
	}
	if f.Status != "" && !f.Status.Valid() {
		writeError(w, http.StatusBadRequest, "unknown status filter")
		return
	}

	orders, total, err := h.orders.ListByUser(r.Context(), userID, f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load orders")
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}

	pages := 0
	if f.Limit > 0 {
		pages = int(math.Ceil(float64(total) / float64(f.Limit)))
	}

	writeJSON(w, http.StatusOK, listOrdersResponse{
		Orders: orders,
		Page:   f.Page,
		Limit:  f.Limit,
		Total:  total,
		Pages:  pages,
	})
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	orderID := chi.URLParam(r, "orderId")

	o, err := h.orders.GetByID(r.Context(), orderID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load order")
		return
	}
	// Another user's order looks the same as a missing one.
	if o == nil || o.UserID != userID {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	orderID := chi.URLParam(r, "orderId")

	if err := h.svc.CancelOrder(r.Context(), orderID, userID); err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no cancellable order")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to cancel order")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func writeCheckoutError(w http.ResponseWriter, err error) {
	var verr *checkout.ValidationError
	var aerr *checkout.AuthorizationError
	var cerr *checkout.ConsistencyError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.As(err, &aerr):
		writeError(w, http.StatusForbidden, "not your order")
	case errors.Is(err, checkout.ErrSignatureMismatch):
		writeError(w, http.StatusBadRequest, "signature verification failed")
	case errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.As(err, &cerr):
		// Payment went through remotely; the client must not retry, support
		// resolves it from the reconciliation log.
		writeError(w, http.StatusInternalServerError, "payment received, order confirmation pending")
	case errors.Is(err, payment.ErrGateway):
		writeError(w, http.StatusBadGateway, "payment initialization failed")
	default:
		writeError(w, http.StatusInternalServerError, "failed to place order")
	}
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
