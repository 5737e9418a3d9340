package httpapi

import (
	"context"
	"database/sql"
	"sync"

	"github.com/modaline/storefront/internal/cart"
	"github.com/modaline/storefront/internal/catalog"
	"github.com/modaline/storefront/internal/checkout"
	"github.com/modaline/storefront/internal/localstate"
	"github.com/modaline/storefront/internal/order"
	"github.com/modaline/storefront/internal/wishlist"
)

// testWishlists backs each user's wishlist with in-memory storage that
// survives across requests within a test.
func testWishlists() WishlistProvider {
	var mu sync.Mutex
	storages := map[string]*localstate.MemoryStorage[wishlist.Line]{}
	return func(userID string) *wishlist.Store {
		mu.Lock()
		defer mu.Unlock()
		st, ok := storages[userID]
		if !ok {
			st = localstate.NewMemoryStorage[wishlist.Line]()
			storages[userID] = st
		}
		return wishlist.NewStore(st)
	}
}

type fakeCheckout struct {
	placeOrderFunc     func(ctx context.Context, in checkout.PlaceOrderInput) (*checkout.PlaceOrderResult, error)
	confirmPaymentFunc func(ctx context.Context, in checkout.ConfirmInput) (*order.Order, error)
	cancelOrderFunc    func(ctx context.Context, orderID, userID string) error
}

func (f *fakeCheckout) PlaceOrder(ctx context.Context, in checkout.PlaceOrderInput) (*checkout.PlaceOrderResult, error) {
	if f.placeOrderFunc != nil {
		return f.placeOrderFunc(ctx, in)
	}
	return &checkout.PlaceOrderResult{}, nil
}

func (f *fakeCheckout) ConfirmPayment(ctx context.Context, in checkout.ConfirmInput) (*order.Order, error) {
	if f.confirmPaymentFunc != nil {
		return f.confirmPaymentFunc(ctx, in)
	}
	return &order.Order{}, nil
}

func (f *fakeCheckout) CancelOrder(ctx context.Context, orderID, userID string) error {
	if f.cancelOrderFunc != nil {
		return f.cancelOrderFunc(ctx, orderID, userID)
	}
	return nil
}

type fakeOrderRepo struct {
	getByIDFunc    func(ctx context.Context, orderID string) (*order.Order, error)
	listByUserFunc func(ctx context.Context, userID string, f order.ListFilter) ([]order.Order, int, error)
}

func (f *fakeOrderRepo) Create(ctx context.Context, o *order.Order) error        { return nil }
func (f *fakeOrderRepo) CreatePending(ctx context.Context, o *order.Order) error { return nil }

func (f *fakeOrderRepo) GetByID(ctx context.Context, orderID string) (*order.Order, error) {
	if f.getByIDFunc != nil {
		return f.getByIDFunc(ctx, orderID)
	}
	return nil, nil
}

func (f *fakeOrderRepo) GetByPaymentID(ctx context.Context, paymentID string) (*order.Order, error) {
	return nil, nil
}

func (f *fakeOrderRepo) ListByUser(ctx context.Context, userID string, lf order.ListFilter) ([]order.Order, int, error) {
	if f.listByUserFunc != nil {
		return f.listByUserFunc(ctx, userID, lf)
	}
	return nil, 0, nil
}

func (f *fakeOrderRepo) Cancel(ctx context.Context, orderID, userID string) error { return nil }

func (f *fakeOrderRepo) MarkPaidTx(ctx context.Context, tx *sql.Tx, orderID, paymentID string) error {
	return nil
}

func (f *fakeOrderRepo) InsertItemsTx(ctx context.Context, tx *sql.Tx, orderID string, items []order.Item) error {
	return nil
}

type fakeStockStore struct {
	getProductFunc func(ctx context.Context, productID string) (catalog.Product, error)
}

func (f *fakeStockStore) GetProduct(ctx context.Context, productID string) (catalog.Product, error) {
	if f.getProductFunc != nil {
		return f.getProductFunc(ctx, productID)
	}
	return catalog.Product{ID: productID, Stock: 100}, nil
}

func (f *fakeStockStore) DecrementStockTx(ctx context.Context, tx *sql.Tx, productID string, quantity int) error {
	return nil
}

type fakeCartRepo struct {
	listByUserFunc     func(ctx context.Context, userID string) ([]cart.Item, error)
	addItemFunc        func(ctx context.Context, it cart.Item) (cart.Item, error)
	updateQuantityFunc func(ctx context.Context, itemID, userID string, quantity int) error
	removeItemFunc     func(ctx context.Context, itemID, userID string) error
	clearUserFunc      func(ctx context.Context, userID string) error
}

func (f *fakeCartRepo) ListByUser(ctx context.Context, userID string) ([]cart.Item, error) {
	if f.listByUserFunc != nil {
		return f.listByUserFunc(ctx, userID)
	}
	return nil, nil
}

func (f *fakeCartRepo) AddItem(ctx context.Context, it cart.Item) (cart.Item, error) {
	if f.addItemFunc != nil {
		return f.addItemFunc(ctx, it)
	}
	return it, nil
}

func (f *fakeCartRepo) UpdateQuantity(ctx context.Context, itemID, userID string, quantity int) error {
	if f.updateQuantityFunc != nil {
		return f.updateQuantityFunc(ctx, itemID, userID, quantity)
	}
	return nil
}

func (f *fakeCartRepo) RemoveItem(ctx context.Context, itemID, userID string) error {
	if f.removeItemFunc != nil {
		return f.removeItemFunc(ctx, itemID, userID)
	}
	return nil
}

func (f *fakeCartRepo) ClearUser(ctx context.Context, userID string) error {
	if f.clearUserFunc != nil {
		return f.clearUserFunc(ctx, userID)
	}
	return nil
}

func (f *fakeCartRepo) ClearUserTx(ctx context.Context, tx *sql.Tx, userID string) error {
	return nil
}
