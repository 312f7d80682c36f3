// README: Nearest-provider matcher: availability filter, haversine ranking,
// inclusive radius bound.
package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roadaid/internal/modules/geo"
	"roadaid/internal/modules/provider"
	"roadaid/internal/types"
)

// ErrDirectoryUnavailable distinguishes "could not search" from "no providers
// nearby"; callers must not treat it as an empty result.
var ErrDirectoryUnavailable = errors.New("provider directory unavailable")

// Directory is the read-only provider view the matcher consumes.
type Directory interface {
	ListAvailable(ctx context.Context) ([]provider.ServiceProvider, error)
}

// Bookkeeper persists per-request dispatch bookkeeping. The redis Store
// implements it.
type Bookkeeper interface {
	RecordDispatch(ctx context.Context, requestID types.ID, providerIDs []types.ID) error
	GetDispatchedAt(ctx context.Context, requestID types.ID) (time.Time, bool, error)
	DispatchedCandidates(ctx context.Context, requestID types.ID) ([]types.ID, error)
}

type Service struct {
	directory Directory
	store     Bookkeeper
}

// NewService builds a matcher over the given directory. store may be nil;
// dispatch bookkeeping is then skipped.
func NewService(directory Directory, store Bookkeeper) *Service {
	return &Service{directory: directory, store: store}
}

// FindNearest ranks available providers by great-circle distance from origin,
// keeping those within maxRadiusKm (inclusive). Ties order by provider id so
// repeated calls over unchanged data yield identical sequences. An empty
// result is valid; a directory failure is not.
func (s *Service) FindNearest(ctx context.Context, origin types.Point, maxRadiusKm float64) ([]Candidate, error) {
	providers, err := s.directory.ListAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}

	candidates := make([]Candidate, 0, len(providers))
	for _, p := range providers {
		// The directory already filters, but a stale snapshot must never
		// route an emergency to a provider that went off shift.
		if !p.IsAvailable || !p.IsActive {
			continue
		}
		d := geo.HaversineKm(origin, p.Position)
		if d <= maxRadiusKm {
			candidates = append(candidates, Candidate{Provider: p, DistanceKm: d})
		}
	}

	geo.SortByDistance(candidates,
		func(c Candidate) float64 { return c.DistanceKm },
		func(a, b Candidate) bool { return a.Provider.ID < b.Provider.ID })

	return candidates, nil
}

// RecordDispatch notes when a request was routed and which providers were in
// the candidate set. Best-effort; a nil store is a no-op.
func (s *Service) RecordDispatch(ctx context.Context, requestID types.ID, candidates []Candidate) error {
	if s.store == nil {
		return nil
	}
	ids := make([]types.ID, len(candidates))
	for i, c := range candidates {
		ids[i] = c.Provider.ID
	}
	return s.store.RecordDispatch(ctx, requestID, ids)
}

// DispatchRecord is the bookkeeping read model for one request: when it was
// routed and which providers were in its candidate set.
type DispatchRecord struct {
	RequestID    types.ID   `json:"requestId"`
	DispatchedAt *time.Time `json:"dispatchedAt"`
	ProviderIDs  []types.ID `json:"providerIds"`
}

// GetDispatchRecord reads the bookkeeping back for the dispatch board. A
// request that was never routed, or a nil store, yields an empty record
// rather than an error.
func (s *Service) GetDispatchRecord(ctx context.Context, requestID types.ID) (*DispatchRecord, error) {
	rec := &DispatchRecord{RequestID: requestID, ProviderIDs: []types.ID{}}
	if s.store == nil {
		return rec, nil
	}
	at, routed, err := s.store.GetDispatchedAt(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if routed {
		rec.DispatchedAt = &at
	}
	ids, err := s.store.DispatchedCandidates(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		rec.ProviderIDs = ids
	}
	return rec, nil
}
