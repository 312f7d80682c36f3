// README: In-memory provider registry; the swappable-persistence seam and the
// store used in tests.
package provider

import (
	"context"
	"sort"
	"sync"

	"roadaid/internal/types"
)

type MemStore struct {
	mu        sync.RWMutex
	providers map[types.ID]ServiceProvider
}

func NewMemStore() *MemStore {
	return &MemStore{providers: make(map[types.ID]ServiceProvider)}
}

func (s *MemStore) Create(_ context.Context, p *ServiceProvider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[p.ID] = *p
	return nil
}

func (s *MemStore) Get(_ context.Context, id types.ID) (*ServiceProvider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.providers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemStore) List(_ context.Context) ([]ServiceProvider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(ServiceProvider) bool { return true }), nil
}

func (s *MemStore) ListAvailable(_ context.Context) ([]ServiceProvider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(p ServiceProvider) bool { return p.IsAvailable && p.IsActive }), nil
}

func (s *MemStore) Update(_ context.Context, id types.ID, upd Update) (*ServiceProvider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.providers[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.IsAvailable != nil {
		p.IsAvailable = *upd.IsAvailable
	}
	if upd.Position != nil {
		p.Position = *upd.Position
	}
	if upd.Address != nil {
		p.Address = *upd.Address
	}
	if upd.Phone != nil {
		p.Phone = *upd.Phone
	}
	s.providers[id] = p
	return &p, nil
}

// collect returns matching providers ordered by id so list results are
// deterministic, mirroring the SQL store.
func (s *MemStore) collect(keep func(ServiceProvider) bool) []ServiceProvider {
	out := make([]ServiceProvider, 0, len(s.providers))
	for _, p := range s.providers {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
