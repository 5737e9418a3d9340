package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/modaline/storefront/internal/checkout"
	"github.com/modaline/storefront/internal/middleware"
	"github.com/modaline/storefront/internal/order"
)

type createPaymentOrderRequest struct {
	Items           []orderItemPayload    `json:"items"`
	ShippingAddress order.ShippingAddress `json:"shippingAddress"`
}

type createPaymentOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Key      string `json:"key"`
	OrderID  string `json:"orderId"`
}

// CreatePaymentOrder opens a remote payment intent and records the pending
// order. The response carries what the payment widget needs to start.
func (h *Handler) CreatePaymentOrder(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	var req createPaymentOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.svc.PlaceOrder(r.Context(), checkout.PlaceOrderInput{
		UserID:          userID,
		Items:           toOrderItems(req.Items),
		ShippingAddress: req.ShippingAddress,
		Method:          checkout.MethodGateway,
	})
	if err != nil {
		writeCheckoutError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createPaymentOrderResponse{
		ID:       res.RemoteOrderID,
		Amount:   res.Amount,
		Currency: res.Currency,
		Key:      res.KeyID,
		OrderID:  res.OrderID,
	})
}

// verifyPaymentRequest mirrors the field names the provider's checkout widget
// posts back.
type verifyPaymentRequest struct {
	RazorpayOrderID   string             `json:"razorpay_order_id"`
	RazorpayPaymentID string             `json:"razorpay_payment_id"`
	RazorpaySignature string             `json:"razorpay_signature"`
	Items             []orderItemPayload `json:"items"`
}

func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	var req verifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.svc.ConfirmPayment(r.Context(), checkout.ConfirmInput{
		UserID:          userID,
		RemoteOrderID:   req.RazorpayOrderID,
		RemotePaymentID: req.RazorpayPaymentID,
		Signature:       req.RazorpaySignature,
		Items:           toOrderItems(req.Items),
	})
	if err != nil {
		writeCheckoutError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"orderId": o.ID,
	})
}
