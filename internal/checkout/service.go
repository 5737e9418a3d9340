package checkout

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/modaline/storefront/internal/cart"
	"github.com/modaline/storefront/internal/catalog"
	"github.com/modaline/storefront/internal/order"
	"github.com/modaline/storefront/internal/payment"
)

// Method selects how an order is paid for.
type Method string

const (
	// MethodPayOnDelivery settles offline; the order is final immediately and
	// items ship before money moves.
	MethodPayOnDelivery Method = "pod"
	// MethodGateway collects through the remote payment provider; the order
	// stays pending until the provider's callback is verified.
	MethodGateway Method = "gateway"
)

// EventSink receives lifecycle notifications. Publishing is best effort: a
// broker outage never fails a checkout.
type EventSink interface {
	PublishOrderCreated(ctx context.Context, o *order.Order) error
	PublishOrderCompleted(ctx context.Context, orderID, userID, paymentID string) error
}

type PlaceOrderInput struct {
	UserID          string
	Items           []order.Item
	ShippingAddress order.ShippingAddress
	Method          Method
}

// PlaceOrderResult reports where the order landed. The Remote* fields are set
// only on the gateway path; the client needs them to open the payment widget.
type PlaceOrderResult struct {
	OrderID       string
	RemoteOrderID string
	Amount        int64
	Currency      string
	KeyID         string
}

type ConfirmInput struct {
	UserID          string
	RemoteOrderID   string
	RemotePaymentID string
	Signature       string
	Items           []order.Item
}

// Service orchestrates the order lifecycle: placement on either payment path
// and the confirmation transaction that finalizes a gateway payment.
type Service struct {
	db      *sql.DB
	orders  order.Repository
	stock   catalog.StockStore
	carts   cart.Repository
	gateway payment.Gateway
	events  EventSink

	keyID    string
	secret   string
	currency string
}

func NewService(db *sql.DB, orders order.Repository, stock catalog.StockStore, carts cart.Repository,
	gateway payment.Gateway, events EventSink, keyID, secret, currency string) *Service {
	if currency == "" {
		currency = "INR"
	}
	return &Service{
		db:       db,
		orders:   orders,
		stock:    stock,
		carts:    carts,
		gateway:  gateway,
		events:   events,
		keyID:    keyID,
		secret:   secret,
		currency: currency,
	}
}

// KeyID is the gateway's public key identifier, surfaced to the client page.
func (s *Service) KeyID() string { return s.keyID }

func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*PlaceOrderResult, error) {
	total, err := validatePlacement(in)
	if err != nil {
		return nil, err
	}

	switch in.Method {
	case MethodPayOnDelivery:
		return s.placePayOnDelivery(ctx, in, total)
	case MethodGateway:
		return s.placeWithGateway(ctx, in, total)
	default:
		return nil, &ValidationError{Field: "paymentMethod", Reason: fmt.Sprintf("unknown method %q", in.Method)}
	}
}

func validatePlacement(in PlaceOrderInput) (decimal.Decimal, error) {
	if in.UserID == "" {
		return decimal.Zero, &ValidationError{Field: "userId", Reason: "required"}
	}
	if len(in.Items) == 0 {
		return decimal.Zero, &ValidationError{Field: "items", Reason: "order must contain at least one item"}
	}
	if in.ShippingAddress.Name == "" {
		return decimal.Zero, &ValidationError{Field: "shippingAddress.name", Reason: "required"}
	}
	if in.ShippingAddress.Street == "" {
		return decimal.Zero, &ValidationError{Field: "shippingAddress.street", Reason: "required"}
	}

	total := decimal.Zero
	for i, it := range in.Items {
		if it.ProductID == "" {
			return decimal.Zero, &ValidationError{Field: "items", Reason: fmt.Sprintf("item %d missing productId", i)}
		}
		if it.Quantity < 1 {
			return decimal.Zero, &ValidationError{Field: "items", Reason: fmt.Sprintf("item %d has non-positive quantity", i)}
		}
		if it.Price.IsNegative() {
			return decimal.Zero, &ValidationError{Field: "items", Reason: fmt.Sprintf("item %d has negative price", i)}
		}
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	if !total.IsPositive() {
		return decimal.Zero, &ValidationError{Field: "total", Reason: "order total must be positive"}
	}
	return total, nil
}

func (s *Service) placePayOnDelivery(ctx context.Context, in PlaceOrderInput, total decimal.Decimal) (*PlaceOrderResult, error) {
	o := &order.Order{
		UserID:          in.UserID,
		Total:           total,
		ShippingAddress: in.ShippingAddress,
		Items:           in.Items,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if s.events != nil {
		if err := s.events.PublishOrderCreated(ctx, o); err != nil {
			log.Printf("publish OrderCreated for order %s: %v", o.ID, err)
		}
	}

	return &PlaceOrderResult{OrderID: o.ID}, nil
}

func (s *Service) placeWithGateway(ctx context.Context, in PlaceOrderInput, total decimal.Decimal) (*PlaceOrderResult, error) {
	// Providers bill in the currency's minor unit.
	amountMinor := total.Shift(2).Round(0).IntPart()

	intent, err := s.gateway.CreateOrder(ctx, amountMinor, s.currency, uuid.NewString())
	if err != nil {
		return nil, err
	}

	// The local order is keyed to the remote intent; items are held back until
	// the payment is confirmed so stock is never promised to an unpaid order.
	o := &order.Order{
		UserID:          in.UserID,
		Total:           total,
		PaymentID:       intent.OrderID,
		ShippingAddress: in.ShippingAddress,
	}
	if err := s.orders.CreatePending(ctx, o); err != nil {
		return nil, fmt.Errorf("create pending order: %w", err)
	}

	return &PlaceOrderResult{
		OrderID:       o.ID,
		RemoteOrderID: intent.OrderID,
		Amount:        intent.Amount,
		Currency:      intent.Currency,
		KeyID:         s.keyID,
	}, nil
}

// ConfirmPayment verifies a gateway callback and finalizes the order. The
// signature check runs before anything else; after it passes, the order
// update, item inserts, stock decrements and cart clear either all commit or
// all roll back.
func (s *Service) ConfirmPayment(ctx context.Context, in ConfirmInput) (*order.Order, error) {
	if !payment.VerifySignature(in.RemoteOrderID, in.RemotePaymentID, in.Signature, s.secret) {
		return nil, ErrSignatureMismatch
	}

	o, err := s.orders.GetByPaymentID(ctx, in.RemoteOrderID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if o == nil {
		return nil, order.ErrNotFound
	}
	if o.UserID != in.UserID {
		return nil, &AuthorizationError{OrderID: o.ID, UserID: in.UserID}
	}
	if o.PaymentStatus == order.PaymentCompleted {
		// Replayed callback; the first confirmation already did the work.
		return o, nil
	}
	if len(in.Items) == 0 {
		return nil, &ValidationError{Field: "items", Reason: "confirmation must carry the order items"}
	}

	if err := s.confirmTx(ctx, o, in); err != nil {
		cerr := &ConsistencyError{
			OrderID:         o.ID,
			UserID:          o.UserID,
			RemotePaymentID: in.RemotePaymentID,
			Err:             err,
		}
		log.Printf("RECONCILE: %v", cerr)
		return nil, cerr
	}

	o.Status = order.StatusProcessing
	o.PaymentStatus = order.PaymentCompleted
	o.PaymentID = in.RemotePaymentID
	o.Items = in.Items

	if s.events != nil {
		if err := s.events.PublishOrderCompleted(ctx, o.ID, o.UserID, in.RemotePaymentID); err != nil {
			log.Printf("publish OrderCompleted for order %s: %v", o.ID, err)
		}
	}

	return o, nil
}

func (s *Service) confirmTx(ctx context.Context, o *order.Order, in ConfirmInput) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.orders.MarkPaidTx(ctx, tx, o.ID, in.RemotePaymentID); err != nil {
		return err
	}
	if err := s.orders.InsertItemsTx(ctx, tx, o.ID, in.Items); err != nil {
		return err
	}
	for _, it := range in.Items {
		if err := s.stock.DecrementStockTx(ctx, tx, it.ProductID, it.Quantity); err != nil {
			return err
		}
	}
	if err := s.carts.ClearUserTx(ctx, tx, o.UserID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// CancelOrder lets the owning user abandon an order that has not been paid.
func (s *Service) CancelOrder(ctx context.Context, orderID, userID string) error {
	return s.orders.Cancel(ctx, orderID, userID)
}
