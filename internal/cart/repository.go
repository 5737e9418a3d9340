package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrItemNotFound = errors.New("cart item not found")

// Item is a row of the server-side cart mirror. The mirror exists so the
// confirmation transaction can clear the cart atomically with the rest of the
// order mutation; the session replica remains the source the user edits.
type Item struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	Size      string    `json:"size,omitempty"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]Item, error)
	// AddItem upserts on the identity key (user, product, size, color),
	// merging quantities rather than overwriting.
	AddItem(ctx context.Context, it Item) (Item, error)
	// UpdateQuantity sets the quantity of an item the user owns.
	UpdateQuantity(ctx context.Context, itemID, userID string, quantity int) error
	RemoveItem(ctx context.Context, itemID, userID string) error
	ClearUser(ctx context.Context, userID string) error
	// ClearUserTx runs the clear inside the payment confirmation transaction.
	ClearUserTx(ctx context.Context, tx *sql.Tx, userID string) error
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

func (r *repo) ListByUser(ctx context.Context, userID string) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, product_id, quantity, size, color, created_at
         FROM carts WHERE user_id = $1 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select cart items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.UserID, &it.ProductID, &it.Quantity, &it.Size, &it.Color, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return items, nil
}

const upsertItemSQL = `
INSERT INTO carts (id, user_id, product_id, quantity, size, color, created_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW())
ON CONFLICT (user_id, product_id, size, color) DO UPDATE
SET quantity = carts.quantity + EXCLUDED.quantity
RETURNING id, quantity, created_at
`

func (r *repo) AddItem(ctx context.Context, it Item) (Item, error) {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	err := r.db.QueryRowContext(ctx, upsertItemSQL,
		it.ID, it.UserID, it.ProductID, it.Quantity, it.Size, it.Color,
	).Scan(&it.ID, &it.Quantity, &it.CreatedAt)
	if err != nil {
		return Item{}, fmt.Errorf("upsert cart item: %w", err)
	}
	return it, nil
}

func (r *repo) UpdateQuantity(ctx context.Context, itemID, userID string, quantity int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE carts SET quantity = $1 WHERE id = $2 AND user_id = $3`,
		quantity, itemID, userID,
	)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *repo) RemoveItem(ctx context.Context, itemID, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM carts WHERE id = $1 AND user_id = $2`,
		itemID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *repo) ClearUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (r *repo) ClearUserTx(ctx context.Context, tx *sql.Tx, userID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM carts WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
