// README: Emergency request aggregate, status definitions, and the transition
// table.
package request

import (
	"time"

	"roadaid/internal/types"
)

type IssueType string

const (
	IssueFlatTire      IssueType = "flat_tire"
	IssueDeadBattery   IssueType = "dead_battery"
	IssueLockout       IssueType = "lockout"
	IssueTowing        IssueType = "towing"
	IssueEngineTrouble IssueType = "engine_trouble"
	IssueAccident      IssueType = "accident"
	IssueOther         IssueType = "other"
)

// ValidIssueType reports whether t is one of the closed issue set.
func ValidIssueType(t IssueType) bool {
	switch t {
	case IssueFlatTire, IssueDeadBattery, IssueLockout, IssueTowing,
		IssueEngineTrouble, IssueAccident, IssueOther:
		return true
	}
	return false
}

type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

func ValidUrgency(u Urgency) bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

type Status string

const (
	StatusPending    Status = "pending"
	StatusAssigned   Status = "assigned"
	StatusEnRoute    Status = "en_route"
	StatusArrived    Status = "arrived"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// ValidStatus reports whether s is one of the seven lifecycle states.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusAssigned, StatusEnRoute, StatusArrived,
		StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is expected from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// AllowedTransitions represents the request lifecycle as code: a strict
// forward chain with cancellation reachable from every non-terminal state.
var AllowedTransitions = map[Status][]Status{
	StatusPending:    {StatusAssigned, StatusCancelled},
	StatusAssigned:   {StatusEnRoute, StatusCancelled},
	StatusEnRoute:    {StatusArrived, StatusCancelled},
	StatusArrived:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether from → to is a legal lifecycle step.
// Re-applying the current status of a live request is allowed so that
// duplicate updates stay idempotent rather than erroring.
func CanTransition(from, to Status) bool {
	if from == to {
		return !from.Terminal()
	}
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Location is where the customer is stranded.
type Location struct {
	types.Point
	Address string `json:"address"`
}

type VehicleInfo struct {
	Make        string `json:"make"`
	Model       string `json:"model"`
	Year        int    `json:"year"`
	Color       string `json:"color"`
	PlateNumber string `json:"plateNumber,omitempty"`
}

// EmergencyRequest is one roadside-assistance episode. Records are never
// physically deleted; terminal states are kept for history.
type EmergencyRequest struct {
	ID               types.ID    `json:"id"`
	CustomerID       types.ID    `json:"customerId"`
	ProviderID       *types.ID   `json:"providerId"`
	IssueType        IssueType   `json:"issueType"`
	Description      string      `json:"description"`
	UrgencyLevel     Urgency     `json:"urgencyLevel"`
	CustomerLocation Location    `json:"customerLocation"`
	VehicleInfo      VehicleInfo `json:"vehicleInfo"`
	IssuePhoto       string      `json:"issuePhoto,omitempty"`
	Status           Status      `json:"status"`
	StatusVersion    int         `json:"-"`
	EstimatedArrival *time.Time  `json:"estimatedArrival"`
	AssignedAt       *time.Time  `json:"assignedAt"`
	ArrivedAt        *time.Time  `json:"arrivedAt"`
	CompletedAt      *time.Time  `json:"completedAt"`
	TotalAmount      *float64    `json:"totalAmount"`
	Notes            string      `json:"notes,omitempty"`
	CreatedAt        time.Time   `json:"createdAt"`
}
