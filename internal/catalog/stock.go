package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Product struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image,omitempty"`
	Stock int             `json:"stock"`
}

// StockStore exposes the slice of the catalog this service touches: reads for
// validation and the stock decrement applied during payment confirmation. The
// catalog itself is owned elsewhere.
type StockStore interface {
	GetProduct(ctx context.Context, productID string) (Product, error)
	// DecrementStockTx applies a relative, guarded decrement inside the
	// caller's transaction. It never reads then writes: the guard runs in the
	// UPDATE itself so concurrent purchases cannot drive stock negative.
	DecrementStockTx(ctx context.Context, tx *sql.Tx, productID string, quantity int) error
}

type PostgresStockStore struct {
	db *sql.DB
}

func NewPostgresStockStore(db *sql.DB) *PostgresStockStore {
	return &PostgresStockStore{db: db}
}

func (s *PostgresStockStore) GetProduct(ctx context.Context, productID string) (Product, error) {
	var p Product
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, price, image, stock FROM products WHERE id = $1`,
		productID,
	).Scan(&p.ID, &p.Name, &p.Price, &p.Image, &p.Stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("select product: %w", err)
	}
	return p, nil
}

const decrementStockSQL = `UPDATE products SET stock = stock - $2 WHERE id = $1 AND stock >= $2`

func (s *PostgresStockStore) DecrementStockTx(ctx context.Context, tx *sql.Tx, productID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", quantity)
	}

	res, err := tx.ExecContext(ctx, decrementStockSQL, productID, quantity)
	if err != nil {
		return fmt.Errorf("decrement stock for %s: %w", productID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		// Either the product row is missing or the guard rejected the
		// decrement; both mean the order cannot be fulfilled as submitted.
		return fmt.Errorf("product %s: %w", productID, ErrInsufficientStock)
	}
	return nil
}
