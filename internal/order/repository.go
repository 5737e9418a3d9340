package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("order not found")

// ListFilter narrows ListByUser. Status empty means no status filter.
type ListFilter struct {
	Page   int
	Limit  int
	Status Status
}

type Repository interface {
	// Create persists the order together with its items in one transaction.
	// Used by the pay-on-delivery path.
	Create(ctx context.Context, o *Order) error
	// CreatePending persists the order row only, keyed to the remote payment
	// order id. Items are deferred until the payment is confirmed so stock is
	// never reserved for an unpaid order.
	CreatePending(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, orderID string) (*Order, error)
	// GetByPaymentID resolves the local order keyed to a remote payment order
	// id, as stored by CreatePending.
	GetByPaymentID(ctx context.Context, paymentID string) (*Order, error)
	ListByUser(ctx context.Context, userID string, f ListFilter) ([]Order, int, error)
	// Cancel moves a PENDING order to CANCELLED. Only the owning user may
	// cancel, and only before payment confirmation.
	Cancel(ctx context.Context, orderID, userID string) error

	// Tx variants are issued by the payment confirmation transaction so that
	// the order update, item inserts, stock decrement and cart clear share a
	// single atomic unit.
	MarkPaidTx(ctx context.Context, tx *sql.Tx, orderID, paymentID string) error
	InsertItemsTx(ctx context.Context, tx *sql.Tx, orderID string, items []Item) error
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

const insertOrderSQL = `INSERT INTO orders (id, user_id, total, status, payment_status, payment_id, shipping_address, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const insertItemSQL = `INSERT INTO order_items (id, order_id, product_id, quantity, price, size, color)
             VALUES ($1, $2, $3, $4, $5, $6, $7)`

func (r *repo) Create(ctx context.Context, o *Order) error {
	prepareNew(o)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := insertOrder(ctx, tx, o); err != nil {
		return err
	}
	if err := insertItems(ctx, tx, o.ID, o.Items); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *repo) CreatePending(ctx context.Context, o *Order) error {
	prepareNew(o)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := insertOrder(ctx, tx, o); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func prepareNew(o *Order) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = StatusPending
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = PaymentPending
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
}

func insertOrder(ctx context.Context, tx *sql.Tx, o *Order) error {
	addr, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("marshal shipping address: %w", err)
	}

	_, err = tx.ExecContext(ctx, insertOrderSQL,
		o.ID, o.UserID, o.Total, string(o.Status), string(o.PaymentStatus),
		nullable(o.PaymentID), addr, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func insertItems(ctx context.Context, tx *sql.Tx, orderID string, items []Item) error {
	for _, it := range items {
		_, err := tx.ExecContext(ctx, insertItemSQL,
			uuid.NewString(), orderID, it.ProductID, it.Quantity, it.Price, it.Size, it.Color,
		)
		if err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

const selectOrderSQL = `SELECT id, user_id, total, status, payment_status, payment_id, shipping_address, created_at
         FROM orders WHERE id = $1`

func (r *repo) GetByID(ctx context.Context, orderID string) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, selectOrderSQL, orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	items, err := r.loadItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return o, nil
}

const selectOrderByPaymentSQL = `SELECT id, user_id, total, status, payment_status, payment_id, shipping_address, created_at
         FROM orders WHERE payment_id = $1`

func (r *repo) GetByPaymentID(ctx context.Context, paymentID string) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, selectOrderByPaymentSQL, paymentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select order by payment id: %w", err)
	}

	items, err := r.loadItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return o, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var (
		o         Order
		status    string
		payStatus string
		paymentID sql.NullString
		addr      []byte
	)
	err := row.Scan(&o.ID, &o.UserID, &o.Total, &status, &payStatus, &paymentID, &addr, &o.CreatedAt)
	if err != nil {
		return nil, err
	}

	o.Status = Status(status)
	o.PaymentStatus = PaymentStatus(payStatus)
	o.PaymentID = paymentID.String
	if len(addr) > 0 {
		if err := json.Unmarshal(addr, &o.ShippingAddress); err != nil {
			return nil, fmt.Errorf("unmarshal shipping address: %w", err)
		}
	}
	return &o, nil
}

func (r *repo) loadItems(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT order_id, product_id, quantity, price, size, color
         FROM order_items WHERE order_id = $1`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("select order_items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.OrderID, &it.ProductID, &it.Quantity, &it.Price, &it.Size, &it.Color); err != nil {
			return nil, fmt.Errorf("scan order_item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return items, nil
}

func (r *repo) ListByUser(ctx context.Context, userID string, f ListFilter) ([]Order, int, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 50 {
		f.Limit = 10
	}
	offset := (f.Page - 1) * f.Limit

	where := `WHERE user_id = $1`
	args := []any{userID}
	if f.Status != "" {
		where += ` AND status = $2`
		args = append(args, string(f.Status))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query := `SELECT id, user_id, total, status, payment_status, payment_id, shipping_address, created_at
         FROM orders ` + where + ` ORDER BY created_at DESC` +
		fmt.Sprintf(` LIMIT %d OFFSET %d`, f.Limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows: %w", err)
	}

	for i := range orders {
		items, err := r.loadItems(ctx, orders[i].ID)
		if err != nil {
			return nil, 0, err
		}
		orders[i].Items = items
	}

	return orders, total, nil
}

func (r *repo) Cancel(ctx context.Context, orderID, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $1 WHERE id = $2 AND user_id = $3 AND status = $4`,
		string(StatusCancelled), orderID, userID, string(StatusPending),
	)
	if err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) MarkPaidTx(ctx context.Context, tx *sql.Tx, orderID, paymentID string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET payment_status = $1, status = $2, payment_id = $3 WHERE id = $4`,
		string(PaymentCompleted), string(StatusProcessing), paymentID, orderID,
	)
	if err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) InsertItemsTx(ctx context.Context, tx *sql.Tx, orderID string, items []Item) error {
	return insertItems(ctx, tx, orderID, items)
}
