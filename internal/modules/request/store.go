// README: Request store backed by PostgreSQL; status updates are
// compare-and-swap with guarded timestamp stamping.
package request

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"roadaid/internal/types"
)

const requestColumns = `
	id, customer_id, provider_id, issue_type, description, urgency_level,
	location_lat, location_lng, location_address,
	vehicle_make, vehicle_model, vehicle_year, vehicle_color, vehicle_plate,
	issue_photo, status, status_version, estimated_arrival,
	assigned_at, arrived_at, completed_at, total_amount, notes, created_at`

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, r *EmergencyRequest) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO emergency_requests (
			id, customer_id, provider_id, issue_type, description, urgency_level,
			location_lat, location_lng, location_address,
			vehicle_make, vehicle_model, vehicle_year, vehicle_color, vehicle_plate,
			issue_photo, status, status_version, notes, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9,
			$10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19
		)`,
		string(r.ID), string(r.CustomerID), idPtr(r.ProviderID),
		string(r.IssueType), r.Description, string(r.UrgencyLevel),
		r.CustomerLocation.Lat, r.CustomerLocation.Lng, r.CustomerLocation.Address,
		r.VehicleInfo.Make, r.VehicleInfo.Model, r.VehicleInfo.Year,
		r.VehicleInfo.Color, r.VehicleInfo.PlateNumber,
		r.IssuePhoto, string(r.Status), r.StatusVersion, r.Notes, r.CreatedAt,
	)
	return err
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*EmergencyRequest, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM emergency_requests WHERE id = $1`, string(id))
	r, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *PGStore) ListByCustomer(ctx context.Context, customerID types.ID) ([]EmergencyRequest, error) {
	return s.query(ctx,
		`SELECT `+requestColumns+` FROM emergency_requests
		 WHERE customer_id = $1 ORDER BY created_at, id`, string(customerID))
}

func (s *PGStore) ListByProvider(ctx context.Context, providerID types.ID) ([]EmergencyRequest, error) {
	return s.query(ctx,
		`SELECT `+requestColumns+` FROM emergency_requests
		 WHERE provider_id = $1 ORDER BY created_at, id`, string(providerID))
}

func (s *PGStore) ListPending(ctx context.Context) ([]EmergencyRequest, error) {
	return s.query(ctx,
		`SELECT `+requestColumns+` FROM emergency_requests
		 WHERE status = $1 ORDER BY created_at, id`, string(StatusPending))
}

// ApplyUpdate performs the CAS against (status, status_version). Timestamps
// are stamped in SQL only while NULL, so a concurrent duplicate transition
// cannot double-stamp, and total_amount is written at most once.
func (s *PGStore) ApplyUpdate(ctx context.Context, id types.ID, from Status, version int, upd Update, now time.Time) (*EmergencyRequest, bool, error) {
	var toStatus *string
	bumpVersion := 0
	if upd.Status != nil {
		v := string(*upd.Status)
		toStatus = &v
		bumpVersion = 1
	}

	row := s.db.QueryRow(ctx, `
		UPDATE emergency_requests
		SET status = COALESCE($1, status),
		    status_version = status_version + $2,
		    provider_id = COALESCE($3, provider_id),
		    estimated_arrival = COALESCE($4, estimated_arrival),
		    total_amount = CASE WHEN total_amount IS NULL THEN $5 ELSE total_amount END,
		    notes = COALESCE($6, notes),
		    assigned_at  = CASE WHEN $1 = 'assigned'  AND assigned_at  IS NULL THEN $7 ELSE assigned_at  END,
		    arrived_at   = CASE WHEN $1 = 'arrived'   AND arrived_at   IS NULL THEN $7 ELSE arrived_at   END,
		    completed_at = CASE WHEN $1 = 'completed' AND completed_at IS NULL THEN $7 ELSE completed_at END
		WHERE id = $8 AND status = $9 AND status_version = $10
		RETURNING `+requestColumns,
		toStatus, bumpVersion, idPtr(upd.ProviderID), upd.EstimatedArrival,
		upd.TotalAmount, upd.Notes, now,
		string(id), string(from), version,
	)

	r, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return r, true, nil
}

func (s *PGStore) query(ctx context.Context, sql string, args ...any) ([]EmergencyRequest, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EmergencyRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func scanRequest(row pgx.Row) (*EmergencyRequest, error) {
	var r EmergencyRequest
	var providerID *string
	err := row.Scan(
		&r.ID, &r.CustomerID, &providerID, &r.IssueType, &r.Description, &r.UrgencyLevel,
		&r.CustomerLocation.Lat, &r.CustomerLocation.Lng, &r.CustomerLocation.Address,
		&r.VehicleInfo.Make, &r.VehicleInfo.Model, &r.VehicleInfo.Year,
		&r.VehicleInfo.Color, &r.VehicleInfo.PlateNumber,
		&r.IssuePhoto, &r.Status, &r.StatusVersion, &r.EstimatedArrival,
		&r.AssignedAt, &r.ArrivedAt, &r.CompletedAt, &r.TotalAmount, &r.Notes, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if providerID != nil {
		p := types.ID(*providerID)
		r.ProviderID = &p
	}
	return &r, nil
}

func idPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
