package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type ShippingAddress struct {
	Name    string `json:"name"`
	Street  string `json:"street"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// Item is a line of an order. Price is snapshotted when the order is
// placed and never recomputed from the catalog afterwards.
type Item struct {
	OrderID   string          `json:"orderId,omitempty"`
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
}

type Order struct {
	ID              string          `json:"orderId"`
	UserID          string          `json:"userId"`
	Total           decimal.Decimal `json:"total"`
	Status          Status          `json:"status"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	PaymentID       string          `json:"paymentId,omitempty"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	Items           []Item          `json:"items,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}
