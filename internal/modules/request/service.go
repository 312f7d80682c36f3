// README: Request service owns the emergency lifecycle: creation, queries,
// and guarded status updates.
package request

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"roadaid/internal/types"
)

var (
	ErrNotFound          = errors.New("emergency request not found")
	ErrValidation        = errors.New("invalid request data")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("request state conflict")
)

// Update is a partial mutation applied atomically via a single store call.
// Nil fields are left untouched.
type Update struct {
	Status           *Status
	ProviderID       *types.ID
	EstimatedArrival *time.Time
	TotalAmount      *float64
	Notes            *string
}

// Store is the persistence contract for emergency requests. ApplyUpdate is a
// compare-and-swap against (status, version): it must stamp assignedAt /
// arrivedAt / completedAt only when currently unset, report ok=false when the
// request changed underneath the caller, and write nothing on a miss.
type Store interface {
	Create(ctx context.Context, r *EmergencyRequest) error
	Get(ctx context.Context, id types.ID) (*EmergencyRequest, error)
	ListByCustomer(ctx context.Context, customerID types.ID) ([]EmergencyRequest, error)
	ListByProvider(ctx context.Context, providerID types.ID) ([]EmergencyRequest, error)
	ListPending(ctx context.Context) ([]EmergencyRequest, error)
	ApplyUpdate(ctx context.Context, id types.ID, from Status, version int, upd Update, now time.Time) (*EmergencyRequest, bool, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

type CreateCommand struct {
	CustomerID       types.ID
	IssueType        IssueType
	Description      string
	UrgencyLevel     Urgency
	CustomerLocation Location
	VehicleInfo      VehicleInfo
	IssuePhoto       string
	Notes            string
}

// Create persists a new pending request with a generated id. Payload
// validation happens in the dispatch orchestrator; this only guards the
// invariants the store relies on.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*EmergencyRequest, error) {
	if cmd.CustomerID == "" {
		return nil, fmt.Errorf("%w: missing customerId", ErrValidation)
	}
	r := &EmergencyRequest{
		ID:               types.ID(uuid.NewString()),
		CustomerID:       cmd.CustomerID,
		IssueType:        cmd.IssueType,
		Description:      cmd.Description,
		UrgencyLevel:     cmd.UrgencyLevel,
		CustomerLocation: cmd.CustomerLocation,
		VehicleInfo:      cmd.VehicleInfo,
		IssuePhoto:       cmd.IssuePhoto,
		Status:           StatusPending,
		Notes:            cmd.Notes,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*EmergencyRequest, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListByCustomer(ctx context.Context, customerID types.ID) ([]EmergencyRequest, error) {
	return s.store.ListByCustomer(ctx, customerID)
}

func (s *Service) ListByProvider(ctx context.Context, providerID types.ID) ([]EmergencyRequest, error) {
	return s.store.ListByProvider(ctx, providerID)
}

// ListPending feeds the dispatch board.
func (s *Service) ListPending(ctx context.Context) ([]EmergencyRequest, error) {
	return s.store.ListPending(ctx)
}

// Apply validates upd against the current lifecycle state and applies it
// atomically. Re-applying an already-reached status is a no-op for
// timestamps: each of assignedAt, arrivedAt, and completedAt is written at
// most once.
func (s *Service) Apply(ctx context.Context, id types.ID, upd Update) (*EmergencyRequest, error) {
	cur, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateUpdate(cur, upd); err != nil {
		return nil, err
	}

	updated, ok, err := s.store.ApplyUpdate(ctx, id, cur.Status, cur.StatusVersion, upd, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	return updated, nil
}

type AssignCommand struct {
	RequestID        types.ID
	ProviderID       types.ID
	EstimatedArrival *time.Time
}

// Assign moves a request to assigned, setting the provider and stamping
// assignedAt once.
func (s *Service) Assign(ctx context.Context, cmd AssignCommand) (*EmergencyRequest, error) {
	if cmd.ProviderID == "" {
		return nil, fmt.Errorf("%w: missing providerId", ErrValidation)
	}
	assigned := StatusAssigned
	return s.Apply(ctx, cmd.RequestID, Update{
		Status:           &assigned,
		ProviderID:       &cmd.ProviderID,
		EstimatedArrival: cmd.EstimatedArrival,
	})
}

// Cancel is a terminal transition reachable from any non-terminal state. It
// stamps no timestamps.
func (s *Service) Cancel(ctx context.Context, id types.ID) (*EmergencyRequest, error) {
	cancelled := StatusCancelled
	return s.Apply(ctx, id, Update{Status: &cancelled})
}

func validateUpdate(cur *EmergencyRequest, upd Update) error {
	if cur.Status.Terminal() {
		return fmt.Errorf("%w: request already %s", ErrInvalidTransition, cur.Status)
	}
	if upd.Status != nil {
		to := *upd.Status
		if !CanTransition(cur.Status, to) {
			return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, cur.Status, to)
		}
		if to == StatusAssigned && upd.ProviderID == nil && cur.ProviderID == nil {
			return fmt.Errorf("%w: assignment requires providerId", ErrValidation)
		}
	}
	if upd.ProviderID != nil {
		if upd.Status == nil || *upd.Status != StatusAssigned {
			return fmt.Errorf("%w: providerId can only be set when assigning", ErrValidation)
		}
		if *upd.ProviderID == "" {
			return fmt.Errorf("%w: missing providerId", ErrValidation)
		}
	}
	if upd.TotalAmount != nil {
		if upd.Status == nil || *upd.Status != StatusCompleted {
			return fmt.Errorf("%w: totalAmount can only be set on completion", ErrValidation)
		}
		if *upd.TotalAmount < 0 {
			return fmt.Errorf("%w: negative totalAmount", ErrValidation)
		}
	}
	return nil
}
