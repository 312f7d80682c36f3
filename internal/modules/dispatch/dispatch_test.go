// README: Dispatch orchestrator tests (intake validation, ranking, assignment).
package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"roadaid/internal/config"
	"roadaid/internal/events"
	"roadaid/internal/eta"
	"roadaid/internal/logger"
	"roadaid/internal/modules/matching"
	"roadaid/internal/modules/provider"
	"roadaid/internal/modules/request"
	"roadaid/internal/types"
)

var nyc = types.Point{Lat: 40.7128, Lng: -74.0060}

// capturePublisher records published events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []events.EventType
}

func (p *capturePublisher) Publish(t events.EventType, _ types.ID, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, t)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) has(t events.EventType) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.events {
		if e == t {
			return true
		}
	}
	return false
}

// mapBookkeeper is an in-memory matching.Bookkeeper.
type mapBookkeeper struct {
	at  map[types.ID]time.Time
	ids map[types.ID][]types.ID
}

func newMapBookkeeper() *mapBookkeeper {
	return &mapBookkeeper{at: map[types.ID]time.Time{}, ids: map[types.ID][]types.ID{}}
}

func (m *mapBookkeeper) RecordDispatch(_ context.Context, requestID types.ID, providerIDs []types.ID) error {
	m.at[requestID] = time.Now().UTC()
	m.ids[requestID] = providerIDs
	return nil
}

func (m *mapBookkeeper) GetDispatchedAt(_ context.Context, requestID types.ID) (time.Time, bool, error) {
	t, ok := m.at[requestID]
	return t, ok, nil
}

func (m *mapBookkeeper) DispatchedCandidates(_ context.Context, requestID types.ID) ([]types.ID, error) {
	return m.ids[requestID], nil
}

type failingDirectory struct{}

func (failingDirectory) ListAvailable(context.Context) ([]provider.ServiceProvider, error) {
	return nil, errors.New("directory down")
}

type fixture struct {
	dispatch  *Service
	requests  *request.Service
	providers *provider.Service
	published *capturePublisher
}

func newFixture(t *testing.T, dir matching.Directory) *fixture {
	t.Helper()
	providerStore := provider.NewMemStore()
	providerSvc := provider.NewService(providerStore, nil)
	if dir == nil {
		dir = providerSvc
	}
	requests := request.NewService(request.NewMemStore())
	pub := &capturePublisher{}
	svc := NewService(
		requests,
		matching.NewService(dir, nil),
		providerSvc,
		eta.NewEstimator(nil, 30),
		pub,
		config.DispatchConfig{SearchRadiusKm: 50, CandidateLimit: 5, AvgSpeedKmh: 30},
		logger.New("error", "text"),
	)
	return &fixture{dispatch: svc, requests: requests, providers: providerSvc, published: pub}
}

func (f *fixture) addProvider(t *testing.T, id string, km float64, available bool) {
	t.Helper()
	err := f.providers.Register(context.Background(), &provider.ServiceProvider{
		ID:          types.ID(id),
		Name:        id,
		Position:    types.Point{Lat: nyc.Lat + km/111.19, Lng: nyc.Lng},
		IsAvailable: available,
		IsActive:    true,
	})
	if err != nil {
		t.Fatalf("register provider: %v", err)
	}
}

func validSubmit() SubmitCommand {
	return SubmitCommand{
		CustomerID:   "cust1",
		IssueType:    request.IssueDeadBattery,
		Description:  "car will not start, lights dead",
		UrgencyLevel: request.UrgencyCritical,
		CustomerLocation: request.Location{
			Point:   nyc,
			Address: "5th Ave & 23rd St",
		},
		VehicleInfo: request.VehicleInfo{Make: "Honda", Model: "Civic", Year: 2021, Color: "red"},
	}
}

func TestSubmit_RanksProvidersWithinRadius(t *testing.T) {
	f := newFixture(t, nil)
	f.addProvider(t, "near", 2, true)
	f.addProvider(t, "mid", 10, true)
	f.addProvider(t, "far", 60, true)

	res, err := f.dispatch.Submit(context.Background(), validSubmit())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Request.Status != request.StatusPending {
		t.Errorf("status = %s, want pending", res.Request.Status)
	}
	if res.Request.AssignedAt != nil {
		t.Error("assignedAt set on creation")
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("candidates = %d, want 2", len(res.Candidates))
	}
	if res.Candidates[0].Provider.ID != "near" || res.Candidates[1].Provider.ID != "mid" {
		t.Errorf("wrong order: %s, %s", res.Candidates[0].Provider.ID, res.Candidates[1].Provider.ID)
	}
	if !f.published.has(events.TypeRequestCreated) {
		t.Error("created event not published")
	}
}

func TestSubmit_TruncatesToCandidateLimit(t *testing.T) {
	f := newFixture(t, nil)
	for _, id := range []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7"} {
		f.addProvider(t, id, 5, true)
	}

	res, err := f.dispatch.Submit(context.Background(), validSubmit())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(res.Candidates) != 5 {
		t.Errorf("candidates = %d, want limit 5", len(res.Candidates))
	}
}

func TestSubmit_NoProvidersStillCreatesRequest(t *testing.T) {
	f := newFixture(t, nil)
	f.addProvider(t, "off-shift", 2, false)

	res, err := f.dispatch.Submit(context.Background(), validSubmit())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(res.Candidates) != 0 {
		t.Errorf("candidates = %d, want 0", len(res.Candidates))
	}
	if res.Request.Status != request.StatusPending {
		t.Errorf("status = %s, want pending", res.Request.Status)
	}
}

func TestSubmit_ValidationFailures(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*SubmitCommand)
	}{
		{"unknown issue type", func(c *SubmitCommand) { c.IssueType = "vibes" }},
		{"missing description", func(c *SubmitCommand) { c.Description = "" }},
		{"missing customer", func(c *SubmitCommand) { c.CustomerID = "" }},
		{"missing address", func(c *SubmitCommand) { c.CustomerLocation.Address = "" }},
		{"latitude out of range", func(c *SubmitCommand) { c.CustomerLocation.Lat = 95 }},
		{"longitude out of range", func(c *SubmitCommand) { c.CustomerLocation.Lng = -181 }},
		{"unknown urgency", func(c *SubmitCommand) { c.UrgencyLevel = "panic" }},
		{"incomplete vehicle", func(c *SubmitCommand) { c.VehicleInfo.Make = "" }},
		{"zero vehicle year", func(c *SubmitCommand) { c.VehicleInfo.Year = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd := validSubmit()
			tc.mutate(&cmd)
			if _, err := f.dispatch.Submit(ctx, cmd); !errors.Is(err, request.ErrValidation) {
				t.Errorf("want ErrValidation, got %v", err)
			}
		})
	}

	// No partial records from any rejected submission.
	pending, err := f.requests.ListPending(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("rejected submissions persisted %d requests", len(pending))
	}
}

func TestSubmit_DefaultsUrgencyToMedium(t *testing.T) {
	f := newFixture(t, nil)
	cmd := validSubmit()
	cmd.UrgencyLevel = ""

	res, err := f.dispatch.Submit(context.Background(), cmd)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Request.UrgencyLevel != request.UrgencyMedium {
		t.Errorf("urgency = %s, want medium", res.Request.UrgencyLevel)
	}
}

func TestSubmit_DirectoryFailureCreatesNothing(t *testing.T) {
	f := newFixture(t, failingDirectory{})

	_, err := f.dispatch.Submit(context.Background(), validSubmit())
	if !errors.Is(err, matching.ErrDirectoryUnavailable) {
		t.Fatalf("want ErrDirectoryUnavailable, got %v", err)
	}

	pending, err := f.requests.ListPending(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("directory failure left %d orphaned requests", len(pending))
	}
}

func TestSubmit_RecordsDispatchBookkeeping(t *testing.T) {
	providerSvc := provider.NewService(provider.NewMemStore(), nil)
	requests := request.NewService(request.NewMemStore())
	bk := newMapBookkeeper()
	svc := NewService(
		requests,
		matching.NewService(providerSvc, bk),
		providerSvc,
		eta.NewEstimator(nil, 30),
		nil,
		config.DispatchConfig{SearchRadiusKm: 50, CandidateLimit: 5, AvgSpeedKmh: 30},
		logger.New("error", "text"),
	)
	ctx := context.Background()
	for _, id := range []string{"near", "mid"} {
		err := providerSvc.Register(ctx, &provider.ServiceProvider{
			ID: types.ID(id), Name: id,
			Position:    types.Point{Lat: nyc.Lat + 2/111.19, Lng: nyc.Lng},
			IsAvailable: true, IsActive: true,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	res, err := svc.Submit(ctx, validSubmit())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	rec, err := svc.DispatchRecord(ctx, res.Request.ID)
	if err != nil {
		t.Fatalf("dispatch record: %v", err)
	}
	if rec.DispatchedAt == nil {
		t.Error("dispatchedAt not recorded on submission")
	}
	if len(rec.ProviderIDs) != 2 {
		t.Errorf("providerIds = %v, want both candidates", rec.ProviderIDs)
	}
}

func TestDispatchRecord_UnknownRequestIsNotFound(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.dispatch.DispatchRecord(context.Background(), "missing")
	if !errors.Is(err, request.ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func TestAssign_SetsProviderTimestampAndETA(t *testing.T) {
	f := newFixture(t, nil)
	f.addProvider(t, "prov1", 5, true)
	ctx := context.Background()

	res, err := f.dispatch.Submit(ctx, validSubmit())
	if err != nil {
		t.Fatal(err)
	}

	got, err := f.dispatch.Assign(ctx, AssignCommand{RequestID: res.Request.ID, ProviderID: "prov1"})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if got.Status != request.StatusAssigned {
		t.Errorf("status = %s, want assigned", got.Status)
	}
	if got.ProviderID == nil || *got.ProviderID != "prov1" {
		t.Errorf("providerId = %v", got.ProviderID)
	}
	if got.AssignedAt == nil {
		t.Error("assignedAt not stamped")
	}
	if got.EstimatedArrival == nil {
		t.Error("estimatedArrival not set")
	} else if !got.EstimatedArrival.After(got.CreatedAt) {
		t.Errorf("estimatedArrival %v not after createdAt %v", got.EstimatedArrival, got.CreatedAt)
	}
	if !f.published.has(events.TypeProviderAssigned) {
		t.Error("assigned event not published")
	}
}

func TestAssign_UnknownProviderRejected(t *testing.T) {
	f := newFixture(t, nil)
	res, err := f.dispatch.Submit(context.Background(), validSubmit())
	if err != nil {
		t.Fatal(err)
	}

	_, err = f.dispatch.Assign(context.Background(), AssignCommand{RequestID: res.Request.ID, ProviderID: "ghost"})
	if !errors.Is(err, request.ErrValidation) {
		t.Errorf("want ErrValidation, got %v", err)
	}
}

func TestUpdate_PublishesStatusChange(t *testing.T) {
	f := newFixture(t, nil)
	f.addProvider(t, "prov1", 5, true)
	ctx := context.Background()

	res, err := f.dispatch.Submit(ctx, validSubmit())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.dispatch.Assign(ctx, AssignCommand{RequestID: res.Request.ID, ProviderID: "prov1"}); err != nil {
		t.Fatal(err)
	}

	enRoute := request.StatusEnRoute
	if _, err := f.dispatch.Update(ctx, res.Request.ID, request.Update{Status: &enRoute}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if !f.published.has(events.TypeStatusChanged) {
		t.Error("status change event not published")
	}
}

func TestUpdate_UnknownIDIsNotFound(t *testing.T) {
	f := newFixture(t, nil)
	cancelled := request.StatusCancelled
	_, err := f.dispatch.Update(context.Background(), "missing", request.Update{Status: &cancelled})
	if !errors.Is(err, request.ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}
