package cart

import "github.com/shopspring/decimal"

// Key is the identity of a cart line. Two lines with the same product but a
// different size or color are distinct lines.
type Key struct {
	ProductID string
	Size      string
	Color     string
}

type Line struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
	Quantity  int             `json:"quantity"`
}

func (l Line) Key() Key {
	return Key{ProductID: l.ProductID, Size: l.Size, Color: l.Color}
}

func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
