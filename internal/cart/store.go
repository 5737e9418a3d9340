package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/modaline/storefront/internal/catalog"
	"github.com/modaline/storefront/internal/localstate"
)

// StorageKey namespaces the persisted replica. Only the line collection is
// stored under it.
const StorageKey = "cart-storage"

// Store is the session-owned cart replica. It holds at most one line per
// identity key, merging quantities on duplicate adds, and writes the full
// collection through its storage port after every mutation. The first access
// rehydrates from storage so a fresh process never reports an empty cart it
// merely hasn't loaded yet.
//
// A Store belongs to one session; it is never shared across users.
type Store struct {
	mu       sync.Mutex
	storage  localstate.Storage[Line]
	lines    []Line
	hydrated bool
}

func NewStore(storage localstate.Storage[Line]) *Store {
	return &Store{storage: storage}
}

func (s *Store) hydrate(ctx context.Context) error {
	if s.hydrated {
		return nil
	}
	lines, err := s.storage.Load(ctx)
	if err != nil {
		return fmt.Errorf("rehydrate cart: %w", err)
	}
	s.lines = lines
	s.hydrated = true
	return nil
}

func (s *Store) persist(ctx context.Context) error {
	if err := s.storage.Save(ctx, s.lines); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}

// AddItem merges the quantity into an existing line with the same identity
// key, or appends a new line. There is no stock check here: stock is enforced
// server-side when the order is created.
func (s *Store) AddItem(ctx context.Context, p catalog.Product, size, color string, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hydrate(ctx); err != nil {
		return err
	}

	key := Key{ProductID: p.ID, Size: size, Color: color}
	for i := range s.lines {
		if s.lines[i].Key() == key {
			s.lines[i].Quantity += quantity
			return s.persist(ctx)
		}
	}

	s.lines = append(s.lines, Line{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Image:     p.Image,
		Size:      size,
		Color:     color,
		Quantity:  quantity,
	})
	return s.persist(ctx)
}

// RemoveItem deletes the line with the given key; absent keys are a no-op.
func (s *Store) RemoveItem(ctx context.Context, productID, size, color string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hydrate(ctx); err != nil {
		return err
	}

	key := Key{ProductID: productID, Size: size, Color: color}
	kept := s.lines[:0]
	for _, l := range s.lines {
		if l.Key() != key {
			kept = append(kept, l)
		}
	}
	s.lines = kept
	return s.persist(ctx)
}

// UpdateQuantity sets (not adds) the quantity of the matching line. A
// quantity of zero or less removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, productID, size, color string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, productID, size, color)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hydrate(ctx); err != nil {
		return err
	}

	key := Key{ProductID: productID, Size: size, Color: color}
	for i := range s.lines {
		if s.lines[i].Key() == key {
			s.lines[i].Quantity = quantity
			return s.persist(ctx)
		}
	}
	return nil
}

// Total is the sum of unitPrice x quantity over all lines; zero for an empty
// cart.
func (s *Store) Total(ctx context.Context) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hydrate(ctx); err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.Subtotal())
	}
	return total, nil
}

// Count is the sum of quantities, not the number of lines.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hydrate(ctx); err != nil {
		return 0, err
	}

	count := 0
	for _, l := range s.lines {
		count += l.Quantity
	}
	return count, nil
}

// Lines returns a copy of the current line collection.
func (s *Store) Lines(ctx context.Context) ([]Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hydrate(ctx); err != nil {
		return nil, err
	}

	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out, nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hydrate(ctx); err != nil {
		return err
	}

	s.lines = nil
	return s.persist(ctx)
}
