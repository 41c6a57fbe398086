package domain

import "time"

// ClientState enumerates the reporting-center-facing lifecycle track.
type ClientState string

const (
	ClientStateOpen       ClientState = "OPEN"
	ClientStateWaiting    ClientState = "WAITING"
	ClientStateInProgress ClientState = "IN_PROGRESS"
	ClientStateResolved   ClientState = "RESOLVED"
	ClientStateClosed     ClientState = "CLOSED"
	ClientStateAnnulled   ClientState = "ANNULLED"
)

// IsTerminal reports whether no further client-track transitions are allowed.
func (s ClientState) IsTerminal() bool {
	return s == ClientStateClosed || s == ClientStateAnnulled
}

// ClientPriority enumerates urgency as perceived by the reporting center.
type ClientPriority string

const (
	ClientPriorityLow    ClientPriority = "LOW"
	ClientPriorityMedium ClientPriority = "MEDIUM"
	ClientPriorityHigh   ClientPriority = "HIGH"
	ClientPriorityUrgent ClientPriority = "URGENT"
)

// Incident is the aggregate for a reported facility problem.
type Incident struct {
	ID             string
	RequestNumber  string
	CenterID       string
	ReporterID     string
	Description    string
	Classification string
	ClientState    ClientState
	Priority       ClientPriority
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ClosedAt       *time.Time
}
