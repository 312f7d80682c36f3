// README: Provider service keeps the registry and mirrors live positions to
// the geo board.
package provider

import (
	"context"
	"errors"
	"fmt"

	"roadaid/internal/modules/geo"
	"roadaid/internal/types"
)

var (
	ErrNotFound   = errors.New("provider not found")
	ErrBadRequest = errors.New("bad provider data")
)

// Store is the persistence contract for the provider registry.
type Store interface {
	Create(ctx context.Context, p *ServiceProvider) error
	Get(ctx context.Context, id types.ID) (*ServiceProvider, error)
	List(ctx context.Context) ([]ServiceProvider, error)
	ListAvailable(ctx context.Context) ([]ServiceProvider, error)
	Update(ctx context.Context, id types.ID, upd Update) (*ServiceProvider, error)
}

// Board receives live provider positions and answers radius queries; nil
// disables mirroring. The Redis geo board in the matching module implements
// it.
type Board interface {
	SetPosition(ctx context.Context, id types.ID, p types.Point) error
	RemovePosition(ctx context.Context, id types.ID) error
	NearbyProviderIDs(ctx context.Context, p types.Point, radiusKm float64) ([]types.ID, error)
}

// Update is a partial provider mutation. Nil fields are left untouched.
type Update struct {
	IsAvailable *bool
	Position    *types.Point
	Address     *string
	Phone       *string
}

type Service struct {
	store Store
	board Board
}

func NewService(store Store, board Board) *Service {
	return &Service{store: store, board: board}
}

func (s *Service) Register(ctx context.Context, p *ServiceProvider) error {
	if p.Name == "" {
		return fmt.Errorf("%w: missing name", ErrBadRequest)
	}
	if !p.Position.ValidCoordinates() {
		return fmt.Errorf("%w: coordinates out of range", ErrBadRequest)
	}
	if err := s.store.Create(ctx, p); err != nil {
		return err
	}
	if s.board != nil && p.IsAvailable {
		// Board is a cache; registry is authoritative.
		_ = s.board.SetPosition(ctx, p.ID, p.Position)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*ServiceProvider, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]ServiceProvider, error) {
	return s.store.List(ctx)
}

// ListAvailable implements the directory contract consumed by the matcher:
// only active providers currently accepting emergency work.
func (s *Service) ListAvailable(ctx context.Context) ([]ServiceProvider, error) {
	return s.store.ListAvailable(ctx)
}

// Nearby returns available providers within radiusKm of p, nearest first.
// The geo board answers when configured; a board miss or failure falls back
// to scanning the registry, which stays authoritative.
func (s *Service) Nearby(ctx context.Context, p types.Point, radiusKm float64) ([]ServiceProvider, error) {
	if !p.ValidCoordinates() {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrBadRequest)
	}
	if s.board != nil {
		if ids, err := s.board.NearbyProviderIDs(ctx, p, radiusKm); err == nil {
			out := make([]ServiceProvider, 0, len(ids))
			for _, id := range ids {
				prov, err := s.store.Get(ctx, id)
				if err != nil {
					// board lags the registry; skip stale members
					continue
				}
				if prov.IsAvailable && prov.IsActive {
					out = append(out, *prov)
				}
			}
			return out, nil
		}
	}

	providers, err := s.store.ListAvailable(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ServiceProvider, 0, len(providers))
	for _, prov := range providers {
		if geo.HaversineKm(p, prov.Position) <= radiusKm {
			out = append(out, prov)
		}
	}
	geo.SortByDistance(out,
		func(sp ServiceProvider) float64 { return geo.HaversineKm(p, sp.Position) },
		func(a, b ServiceProvider) bool { return a.ID < b.ID })
	return out, nil
}

func (s *Service) Update(ctx context.Context, id types.ID, upd Update) (*ServiceProvider, error) {
	if upd.Position != nil && !upd.Position.ValidCoordinates() {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrBadRequest)
	}
	p, err := s.store.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	if s.board != nil {
		if p.IsAvailable && p.IsActive {
			_ = s.board.SetPosition(ctx, p.ID, p.Position)
		} else {
			_ = s.board.RemovePosition(ctx, p.ID)
		}
	}
	return p, nil
}
