// README: Lifecycle event types published for emergency requests.
package events

import (
	"time"

	"roadaid/internal/types"
)

type EventType string

const (
	TypeRequestCreated   EventType = "emergency_request.created"
	TypeProviderAssigned EventType = "emergency_request.assigned"
	TypeStatusChanged    EventType = "emergency_request.status_changed"
)

// Event is the envelope written to the topic, keyed by request id so one
// request's events stay ordered within a partition.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RequestID types.ID    `json:"requestId"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

type RequestCreatedData struct {
	CustomerID     types.ID `json:"customerId"`
	IssueType      string   `json:"issueType"`
	UrgencyLevel   string   `json:"urgencyLevel"`
	CandidateCount int      `json:"candidateCount"`
}

type ProviderAssignedData struct {
	ProviderID       types.ID   `json:"providerId"`
	EstimatedArrival *time.Time `json:"estimatedArrival,omitempty"`
}

type StatusChangedData struct {
	From string `json:"from"`
	To   string `json:"to"`
}
