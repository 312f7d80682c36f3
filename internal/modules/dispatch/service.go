// README: Dispatch orchestrator: validates intake, ranks nearby providers,
// persists the request, and publishes lifecycle events.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"roadaid/internal/config"
	"roadaid/internal/events"
	"roadaid/internal/logger"
	"roadaid/internal/modules/matching"
	"roadaid/internal/modules/provider"
	"roadaid/internal/modules/request"
	"roadaid/internal/types"
)

// ProviderGetter resolves a provider id during assignment.
type ProviderGetter interface {
	Get(ctx context.Context, id types.ID) (*provider.ServiceProvider, error)
}

// ArrivalEstimator predicts when an assigned provider reaches the customer.
type ArrivalEstimator interface {
	EstimateArrival(ctx context.Context, from, to types.Point, now time.Time) time.Time
}

type Service struct {
	requests  *request.Service
	matcher   *matching.Service
	providers ProviderGetter
	estimator ArrivalEstimator
	publisher events.Publisher
	cfg       config.DispatchConfig
	log       *logger.Logger
}

func NewService(
	requests *request.Service,
	matcher *matching.Service,
	providers ProviderGetter,
	estimator ArrivalEstimator,
	publisher events.Publisher,
	cfg config.DispatchConfig,
	log *logger.Logger,
) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		requests:  requests,
		matcher:   matcher,
		providers: providers,
		estimator: estimator,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
	}
}

type SubmitCommand struct {
	CustomerID       types.ID
	IssueType        request.IssueType
	Description      string
	UrgencyLevel     request.Urgency
	CustomerLocation request.Location
	VehicleInfo      request.VehicleInfo
	IssuePhoto       string
}

// Result is what a successful submission returns: the pending request plus
// the ranked candidates, already truncated to the configured limit.
type Result struct {
	Request    *request.EmergencyRequest
	Candidates []matching.Candidate
}

// Submit runs the intake flow. Matching happens before the request is
// persisted: it has no side effects, and a directory failure must not leave
// an orphaned pending request behind. An empty candidate list is a valid
// outcome and still creates the request.
func (s *Service) Submit(ctx context.Context, cmd SubmitCommand) (*Result, error) {
	if err := validateSubmit(&cmd); err != nil {
		return nil, err
	}

	candidates, err := s.matcher.FindNearest(ctx, cmd.CustomerLocation.Point, s.cfg.SearchRadiusKm)
	if err != nil {
		return nil, err
	}

	req, err := s.requests.Create(ctx, request.CreateCommand{
		CustomerID:       cmd.CustomerID,
		IssueType:        cmd.IssueType,
		Description:      cmd.Description,
		UrgencyLevel:     cmd.UrgencyLevel,
		CustomerLocation: cmd.CustomerLocation,
		VehicleInfo:      cmd.VehicleInfo,
		IssuePhoto:       cmd.IssuePhoto,
	})
	if err != nil {
		return nil, err
	}

	if len(candidates) > s.cfg.CandidateLimit {
		candidates = candidates[:s.cfg.CandidateLimit]
	}

	if err := s.matcher.RecordDispatch(ctx, req.ID, candidates); err != nil {
		s.log.WithError(err).WithField("request_id", req.ID).Warn("record dispatch failed")
	}
	s.publish(events.TypeRequestCreated, req.ID, events.RequestCreatedData{
		CustomerID:     req.CustomerID,
		IssueType:      string(req.IssueType),
		UrgencyLevel:   string(req.UrgencyLevel),
		CandidateCount: len(candidates),
	})

	s.log.WithFields(map[string]interface{}{
		"request_id": req.ID,
		"issue_type": req.IssueType,
		"urgency":    req.UrgencyLevel,
		"candidates": len(candidates),
	}).Info("emergency request dispatched")

	return &Result{Request: req, Candidates: candidates}, nil
}

type AssignCommand struct {
	RequestID  types.ID
	ProviderID types.ID
}

// Assign resolves the provider, estimates arrival from its current position,
// and moves the request to assigned.
func (s *Service) Assign(ctx context.Context, cmd AssignCommand) (*request.EmergencyRequest, error) {
	if cmd.ProviderID == "" {
		return nil, fmt.Errorf("%w: missing providerId", request.ErrValidation)
	}
	p, err := s.providers.Get(ctx, cmd.ProviderID)
	if err != nil {
		if err == provider.ErrNotFound {
			return nil, fmt.Errorf("%w: unknown providerId %s", request.ErrValidation, cmd.ProviderID)
		}
		return nil, err
	}
	req, err := s.requests.Get(ctx, cmd.RequestID)
	if err != nil {
		return nil, err
	}

	arrival := s.estimator.EstimateArrival(ctx, p.Position, req.CustomerLocation.Point, time.Now().UTC())
	updated, err := s.requests.Assign(ctx, request.AssignCommand{
		RequestID:        cmd.RequestID,
		ProviderID:       cmd.ProviderID,
		EstimatedArrival: &arrival,
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.TypeProviderAssigned, updated.ID, events.ProviderAssignedData{
		ProviderID:       cmd.ProviderID,
		EstimatedArrival: updated.EstimatedArrival,
	})
	return updated, nil
}

// DispatchRecord returns the routing bookkeeping for an existing request:
// when it was dispatched and which providers were candidates.
func (s *Service) DispatchRecord(ctx context.Context, id types.ID) (*matching.DispatchRecord, error) {
	if _, err := s.requests.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.matcher.GetDispatchRecord(ctx, id)
}

// Update applies a partial mutation (the PATCH contract) and publishes the
// status change when one happened.
func (s *Service) Update(ctx context.Context, id types.ID, upd request.Update) (*request.EmergencyRequest, error) {
	before, err := s.requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.requests.Apply(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	if updated.Status != before.Status {
		s.publish(events.TypeStatusChanged, id, events.StatusChangedData{
			From: string(before.Status),
			To:   string(updated.Status),
		})
	}
	return updated, nil
}

func (s *Service) publish(t events.EventType, id types.ID, data interface{}) {
	if err := s.publisher.Publish(t, id, data); err != nil {
		s.log.WithError(err).WithField("request_id", id).Warn("event publish failed")
	}
}

func validateSubmit(cmd *SubmitCommand) error {
	if cmd.CustomerID == "" {
		return fmt.Errorf("%w: missing customerId", request.ErrValidation)
	}
	if !request.ValidIssueType(cmd.IssueType) {
		return fmt.Errorf("%w: unknown issueType %q", request.ErrValidation, cmd.IssueType)
	}
	if cmd.Description == "" {
		return fmt.Errorf("%w: missing description", request.ErrValidation)
	}
	if cmd.UrgencyLevel == "" {
		cmd.UrgencyLevel = request.UrgencyMedium
	}
	if !request.ValidUrgency(cmd.UrgencyLevel) {
		return fmt.Errorf("%w: unknown urgencyLevel %q", request.ErrValidation, cmd.UrgencyLevel)
	}
	if cmd.CustomerLocation.Address == "" {
		return fmt.Errorf("%w: missing location address", request.ErrValidation)
	}
	if !cmd.CustomerLocation.ValidCoordinates() {
		return fmt.Errorf("%w: coordinates out of range", request.ErrValidation)
	}
	v := cmd.VehicleInfo
	if v.Make == "" || v.Model == "" || v.Color == "" || v.Year <= 0 {
		return fmt.Errorf("%w: incomplete vehicle info", request.ErrValidation)
	}
	return nil
}
