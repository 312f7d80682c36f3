// README: Provider registry backed by PostgreSQL.
package provider

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"roadaid/internal/types"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, p *ServiceProvider) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO service_providers (
			id, name, phone, address, latitude, longitude,
			is_available, is_active, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		string(p.ID), p.Name, p.Phone, p.Address,
		p.Position.Lat, p.Position.Lng,
		p.IsAvailable, p.IsActive, p.CreatedAt,
	)
	return err
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*ServiceProvider, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, phone, address, latitude, longitude,
		       is_available, is_active, created_at
		FROM service_providers
		WHERE id = $1`, string(id),
	)
	p, err := scanProvider(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PGStore) List(ctx context.Context) ([]ServiceProvider, error) {
	return s.query(ctx, `
		SELECT id, name, phone, address, latitude, longitude,
		       is_available, is_active, created_at
		FROM service_providers
		ORDER BY created_at`)
}

func (s *PGStore) ListAvailable(ctx context.Context) ([]ServiceProvider, error) {
	return s.query(ctx, `
		SELECT id, name, phone, address, latitude, longitude,
		       is_available, is_active, created_at
		FROM service_providers
		WHERE is_available AND is_active
		ORDER BY id`)
}

func (s *PGStore) Update(ctx context.Context, id types.ID, upd Update) (*ServiceProvider, error) {
	var lat, lng *float64
	if upd.Position != nil {
		lat, lng = &upd.Position.Lat, &upd.Position.Lng
	}
	row := s.db.QueryRow(ctx, `
		UPDATE service_providers
		SET is_available = COALESCE($1, is_available),
		    latitude     = COALESCE($2, latitude),
		    longitude    = COALESCE($3, longitude),
		    address      = COALESCE($4, address),
		    phone        = COALESCE($5, phone)
		WHERE id = $6
		RETURNING id, name, phone, address, latitude, longitude,
		          is_available, is_active, created_at`,
		upd.IsAvailable, lat, lng, upd.Address, upd.Phone, string(id),
	)
	p, err := scanProvider(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PGStore) query(ctx context.Context, sql string) ([]ServiceProvider, error) {
	rows, err := s.db.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ServiceProvider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanProvider(row pgx.Row) (*ServiceProvider, error) {
	var p ServiceProvider
	err := row.Scan(
		&p.ID, &p.Name, &p.Phone, &p.Address,
		&p.Position.Lat, &p.Position.Lng,
		&p.IsAvailable, &p.IsActive, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
