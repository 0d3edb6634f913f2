package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps views in a map.
type MemoryStore struct {
	mu    sync.RWMutex
	views map[string]View
	now   func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{views: make(map[string]View), now: time.Now}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*View, error) {
	s.mu.RLock()
	v, ok := s.views[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if v.IsExpired(s.now()) {
		s.mu.Lock()
		delete(s.views, id)
		s.mu.Unlock()
		return nil, ErrExpired
	}
	v.Highlight = append([]int(nil), v.Highlight...)
	return &v, nil
}

func (s *MemoryStore) Set(ctx context.Context, v *View) error {
	cp := *v
	cp.Highlight = append([]int(nil), v.Highlight...)
	s.mu.Lock()
	s.views[v.ID] = cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.views, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Cleanup(ctx context.Context) (int, error) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, v := range s.views {
		if v.IsExpired(now) {
			delete(s.views, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored views, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.views)
}

var _ Store = (*MemoryStore)(nil)
