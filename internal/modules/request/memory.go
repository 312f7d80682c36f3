// README: In-memory request store; the repository seam that makes persistence
// swappable and the store used in tests.
package request

import (
	"context"
	"sync"
	"time"

	"roadaid/internal/types"
)

type MemStore struct {
	mu       sync.RWMutex
	requests map[types.ID]EmergencyRequest
}

func NewMemStore() *MemStore {
	return &MemStore{requests: make(map[types.ID]EmergencyRequest)}
}

func (s *MemStore) Create(_ context.Context, r *EmergencyRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[r.ID] = *r
	return nil
}

func (s *MemStore) Get(_ context.Context, id types.ID) (*EmergencyRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *MemStore) ListByCustomer(_ context.Context, customerID types.ID) ([]EmergencyRequest, error) {
	return s.collect(func(r EmergencyRequest) bool { return r.CustomerID == customerID }), nil
}

func (s *MemStore) ListByProvider(_ context.Context, providerID types.ID) ([]EmergencyRequest, error) {
	return s.collect(func(r EmergencyRequest) bool {
		return r.ProviderID != nil && *r.ProviderID == providerID
	}), nil
}

func (s *MemStore) ListPending(_ context.Context) ([]EmergencyRequest, error) {
	return s.collect(func(r EmergencyRequest) bool { return r.Status == StatusPending }), nil
}

// ApplyUpdate serializes same-id updates under the store lock and mirrors the
// SQL store's semantics: CAS on (status, version), timestamps written only
// when currently nil.
func (s *MemStore) ApplyUpdate(_ context.Context, id types.ID, from Status, version int, upd Update, now time.Time) (*EmergencyRequest, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[id]
	if !ok {
		return nil, false, ErrNotFound
	}
	if r.Status != from || r.StatusVersion != version {
		return nil, false, nil
	}

	if upd.Status != nil {
		r.Status = *upd.Status
		r.StatusVersion++
		switch *upd.Status {
		case StatusAssigned:
			if r.AssignedAt == nil {
				t := now
				r.AssignedAt = &t
			}
		case StatusArrived:
			if r.ArrivedAt == nil {
				t := now
				r.ArrivedAt = &t
			}
		case StatusCompleted:
			if r.CompletedAt == nil {
				t := now
				r.CompletedAt = &t
			}
		}
	}
	if upd.ProviderID != nil {
		r.ProviderID = upd.ProviderID
	}
	if upd.EstimatedArrival != nil {
		r.EstimatedArrival = upd.EstimatedArrival
	}
	if upd.TotalAmount != nil && r.TotalAmount == nil {
		r.TotalAmount = upd.TotalAmount
	}
	if upd.Notes != nil {
		r.Notes = *upd.Notes
	}

	s.requests[id] = r
	return &r, true, nil
}

// collect returns matching requests ordered by creation time; id breaks ties
// so list output is stable.
func (s *MemStore) collect(keep func(EmergencyRequest) bool) []EmergencyRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []EmergencyRequest
	for _, r := range s.requests {
		if keep(r) {
			out = append(out, r)
		}
	}
	sortByCreation(out)
	return out
}

func sortByCreation(rs []EmergencyRequest) {
	for i := 1; i < len(rs); i++ {
		key := rs[i]
		j := i - 1
		for j >= 0 && laterThan(rs[j], key) {
			rs[j+1] = rs[j]
			j--
		}
		rs[j+1] = key
	}
}

func laterThan(a, b EmergencyRequest) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
