package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"canvas_ai_server/internal/types"
)

// MemoryStore keeps versions in process. Used when no database is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	pages  map[int]types.PageVersion
	latest int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pages: make(map[int]types.PageVersion)}
}

func (s *MemoryStore) Latest(_ context.Context) (types.PageVersion, bool, error) {
	if s == nil {
		return types.PageVersion{}, false, fmt.Errorf("store is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pages[s.latest]
	if !ok {
		return types.PageVersion{}, false, nil
	}
	return clonePage(p), true, nil
}

func (s *MemoryStore) Get(_ context.Context, version int) (types.PageVersion, error) {
	if s == nil {
		return types.PageVersion{}, fmt.Errorf("store is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pages[version]
	if !ok {
		return types.PageVersion{}, ErrNotFound
	}
	return clonePage(p), nil
}

func (s *MemoryStore) Insert(_ context.Context, page types.PageVersion) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	if page.Version <= 0 {
		return fmt.Errorf("version must be positive, got %d", page.Version)
	}
	if page.CreatedAt.IsZero() {
		page.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.pages[page.Version]; exists {
		return fmt.Errorf("insert version %d: %w", page.Version, ErrVersionConflict)
	}
	s.pages[page.Version] = clonePage(page)
	if page.Version > s.latest {
		s.latest = page.Version
	}
	return nil
}

func (s *MemoryStore) DeleteAll(_ context.Context) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages = make(map[int]types.PageVersion)
	s.latest = 0
	return nil
}
