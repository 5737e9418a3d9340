// Package wishlist holds the session-owned wishlist replica. It shares the
// cart's identity-key model but has set semantics: a key is either saved or
// not, there is no quantity.
package wishlist

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/modaline/storefront/internal/cart"
	"github.com/modaline/storefront/internal/catalog"
	"github.com/modaline/storefront/internal/localstate"
)

const StorageKey = "wishlist-storage"

type Line struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
	Category  string          `json:"category,omitempty"`
	InStock   bool            `json:"inStock"`
	AddedAt   time.Time       `json:"addedAt"`
}

func (l Line) Key() cart.Key {
	return cart.Key{ProductID: l.ProductID, Size: l.Size, Color: l.Color}
}

type Store struct {
	mu       sync.Mutex
	storage  localstate.Storage[Line]
	lines    []Line
	hydrated bool
	now      func() time.Time
}

func NewStore(storage localstate.Storage[Line]) *Store {
	return &Store{storage: storage, now: time.Now}
}

func (s *Store) hydrate(ctx context.Context) error {
	if s.hydrated {
		return nil
	}
	lines, err := s.storage.Load(ctx)
	if err != nil {
		return fmt.Errorf("rehydrate wishlist: %w", err)
	}
	s.lines = lines
	s.hydrated = true
	return nil
}

func (s *Store) persist(ctx context.Context) error {
	if err := s.storage.Save(ctx, s.lines); err != nil {
		return fmt.Errorf("persist wishlist: %w", err)
	}
	return nil
}

// AddItem reports whether the selection was inserted. A false return means
// the key was already saved and the collection is unchanged; callers use it
// to warn the user instead of silently merging.
func (s *Store) AddItem(ctx context.Context, p catalog.Product, size, color, category string, inStock bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hydrate(ctx); err != nil {
		return false, err
	}

	key := cart.Key{ProductID: p.ID, Size: size, Color: color}
	for _, l := range s.lines {
		if l.Key() == key {
			return false, nil
		}
	}

	s.lines = append(s.lines, Line{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Image:     p.Image,
		Size:      size,
		Color:     color,
		Category:  category,
		InStock:   inStock,
		AddedAt:   s.now(),
	})
	return true, s.persist(ctx)
}

func (s *Store) RemoveItem(ctx context.Context, productID, size, color string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hydrate(ctx); err != nil {
		return err
	}

	key := cart.Key{ProductID: productID, Size: size, Color: color}
	kept := s.lines[:0]
	for _, l := range s.lines {
		if l.Key() != key {
			kept = append(kept, l)
		}
	}
	s.lines = kept
	return s.persist(ctx)
}

func (s *Store) Contains(ctx context.Context, productID, size, color string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hydrate(ctx); err != nil {
		return false, err
	}

	key := cart.Key{ProductID: productID, Size: size, Color: color}
	for _, l := range s.lines {
		if l.Key() == key {
			return true, nil
		}
	}
	return false, nil
}

// Count is the number of saved selections (set cardinality).
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hydrate(ctx); err != nil {
		return 0, err
	}
	return len(s.lines), nil
}

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

// MoveToCart adds the saved selection to the cart with quantity 1 and removes
// it from the wishlist. Absent keys are a no-op.
func (s *Store) MoveToCart(ctx context.Context, productID, size, color string, cartStore *cart.Store) error {
	s.mu.Lock()
	var found *Line
	if err := s.hydrate(ctx); err != nil {
		s.mu.Unlock()
		return err
	}
	key := cart.Key{ProductID: productID, Size: size, Color: color}
	for i := range s.lines {
		if s.lines[i].Key() == key {
			found = &s.lines[i]
			break
		}
	}
	s.mu.Unlock()

	if found == nil {
		return nil
	}

	p := catalog.Product{ID: found.ProductID, Name: found.Name, Price: found.UnitPrice, Image: found.Image}
	if err := cartStore.AddItem(ctx, p, size, color, 1); err != nil {
		return err
	}
	return s.RemoveItem(ctx, productID, size, color)
}
