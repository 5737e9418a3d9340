package events

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderCreatedQueue   = "order.created"
	OrderCompletedQueue = "order.completed"
)

type OrderCreated struct {
	EventType string      `json:"eventType"`
	OrderID   string      `json:"orderId"`
	UserID    string      `json:"userId"`
	Items     []OrderItem `json:"items"`
	Total     string      `json:"total"`
	Timestamp time.Time   `json:"timestamp"`
}

type OrderCompleted struct {
	EventType string    `json:"eventType"`
	OrderID   string    `json:"orderId"`
	UserID    string    `json:"userId"`
	PaymentID string    `json:"paymentId"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderItem is the wire shape shared by both order events so downstream
// consumers parse one contract.
type OrderItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
}
