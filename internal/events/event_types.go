package events

import (
	"time"

	"github.com/facilityops/incident-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIncidentCreated    EventType = "incident_created"
	EventProviderAssigned   EventType = "provider_assigned"
	EventProviderReassigned EventType = "provider_reassigned"
	EventAssignmentAnnulled EventType = "assignment_annulled"
	EventIncidentAnnulled   EventType = "incident_annulled"
	EventOfferSubmitted     EventType = "offer_submitted"
	EventOfferApproved      EventType = "offer_approved"
	EventOfferRejected      EventType = "offer_rejected"
	EventCaseResolved       EventType = "case_resolved"
	EventCaseValued         EventType = "case_valued"
	EventIncidentClosed     EventType = "incident_closed"
	EventVisitScheduled     EventType = "visit_scheduled"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID       string      `json:"id"`
	Role     domain.Role `json:"role"`
	VendorID *string     `json:"vendor_id,omitempty"`
}

// Event represents a domain event emitted by services after the transition
// committed. Events are observational; audit entries and notification markers
// are written transactionally alongside the state change.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	IncidentID string      `json:"incident_id"`
	Actor      Actor       `json:"actor"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// ProviderAssignedPayload payload.
type ProviderAssignedPayload struct {
	CaseID   string                  `json:"case_id"`
	VendorID string                  `json:"vendor_id"`
	Priority domain.ProviderPriority `json:"priority"`
	Reassign bool                    `json:"reassign"`
}

// AssignmentAnnulledPayload payload.
type AssignmentAnnulledPayload struct {
	CaseID          string `json:"case_id"`
	VendorID        string `json:"vendor_id"`
	Reason          string `json:"reason"`
	CancelledVisits int64  `json:"cancelled_visits"`
}

// OfferSubmittedPayload payload.
type OfferSubmittedPayload struct {
	OfferID       string       `json:"offer_id"`
	CaseID        string       `json:"case_id"`
	AmountInclTax domain.Cents `json:"amount_incl_tax"`
}

// OfferDecidedPayload payload for approvals and rejections.
type OfferDecidedPayload struct {
	OfferID       string       `json:"offer_id"`
	CaseID        string       `json:"case_id"`
	AmountInclTax domain.Cents `json:"amount_incl_tax"`
	Reason        string       `json:"reason,omitempty"`
}

// StateChangedPayload payload for resolve/value/close transitions.
type StateChangedPayload struct {
	CaseID    *string `json:"case_id,omitempty"`
	Track     string  `json:"track"`
	FromState string  `json:"from_state"`
	ToState   string  `json:"to_state"`
	Comment   string  `json:"comment,omitempty"`
}

// VisitScheduledPayload payload.
type VisitScheduledPayload struct {
	VisitID      string    `json:"visit_id"`
	CaseID       string    `json:"case_id"`
	ScheduledFor time.Time `json:"scheduled_for"`
}
