package store

import (
	"context"
	"fmt"
	"sync"

	"canvas_ai_server/internal/types"

	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultCacheSize = 64

// CachedStore keeps recently read versions in an LRU in front of origin.
// Versions never change once written, so only Latest needs invalidating.
type CachedStore struct {
	origin PageStore
	pages  *lru.Cache[int, types.PageVersion]

	mu        sync.Mutex
	latest    int
	hasLatest bool
	// epoch advances on every write so a read that started earlier cannot
	// record a stale latest.
	epoch uint64
}

func NewCachedStore(origin PageStore, size int) (*CachedStore, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[int, types.PageVersion](size)
	if err != nil {
		return nil, fmt.Errorf("init page cache: %w", err)
	}
	return &CachedStore{origin: origin, pages: cache}, nil
}

func (s *CachedStore) Latest(ctx context.Context) (types.PageVersion, bool, error) {
	s.mu.Lock()
	latest, known, epoch := s.latest, s.hasLatest, s.epoch
	s.mu.Unlock()
	if known {
		if p, ok := s.pages.Get(latest); ok {
			return clonePage(p), true, nil
		}
	}

	p, ok, err := s.origin.Latest(ctx)
	if err != nil || !ok {
		return p, ok, err
	}
	s.pages.Add(p.Version, clonePage(p))
	s.mu.Lock()
	if s.epoch == epoch {
		s.latest, s.hasLatest = p.Version, true
	}
	s.mu.Unlock()
	return p, true, nil
}

func (s *CachedStore) Get(ctx context.Context, version int) (types.PageVersion, error) {
	if p, ok := s.pages.Get(version); ok {
		return clonePage(p), nil
	}
	p, err := s.origin.Get(ctx, version)
	if err != nil {
		return types.PageVersion{}, err
	}
	s.pages.Add(version, clonePage(p))
	return p, nil
}

func (s *CachedStore) Insert(ctx context.Context, page types.PageVersion) error {
	err := s.origin.Insert(ctx, page)
	s.forgetLatest()
	return err
}

func (s *CachedStore) DeleteAll(ctx context.Context) error {
	s.forgetLatest()
	s.pages.Purge()
	err := s.origin.DeleteAll(ctx)
	// a concurrent read may have repopulated the cache from the old rows
	s.pages.Purge()
	return err
}

func (s *CachedStore) forgetLatest() {
	s.mu.Lock()
	s.hasLatest = false
	s.epoch++
	s.mu.Unlock()
}
