// Package localstate persists session-owned collections (cart and wishlist
// replicas) under namespaced keys. Only the items collection is written;
// transient UI state never reaches storage.
package localstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Storage is the persistence port a replica writes through. Load returns
// nil, nil when nothing has been persisted yet.
type Storage[T any] interface {
	Load(ctx context.Context) ([]T, error)
	Save(ctx context.Context, items []T) error
}

type envelope[T any] struct {
	Items []T `json:"items"`
}

// FileStorage keeps the collection as a JSON document at <dir>/<key>.json.
type FileStorage[T any] struct {
	mu   sync.Mutex
	path string
}

func NewFileStorage[T any](dir, key string) *FileStorage[T] {
	return &FileStorage[T]{path: filepath.Join(dir, key+".json")}
}

func (s *FileStorage[T]) Load(_ context.Context) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var env envelope[T]
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", s.path, err)
	}
	return env.Items, nil
}

func (s *FileStorage[T]) Save(_ context.Context, items []T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(envelope[T]{Items: items})
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// MemoryStorage backs tests and throwaway sessions.
type MemoryStorage[T any] struct {
	mu    sync.Mutex
	items []T
	saves int
}

func NewMemoryStorage[T any]() *MemoryStorage[T] {
	return &MemoryStorage[T]{}
}

func (s *MemoryStorage[T]) Load(_ context.Context) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out, nil
}

func (s *MemoryStorage[T]) Save(_ context.Context, items []T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make([]T, len(items))
	copy(s.items, items)
	s.saves++
	return nil
}

// Saves reports how many times Save ran, for asserting persistence behavior.
func (s *MemoryStorage[T]) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
