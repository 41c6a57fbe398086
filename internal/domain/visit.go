package domain

import "time"

// VisitStatus enumerates the lifecycle of a scheduled repair visit.
type VisitStatus string

const (
	VisitStatusScheduled VisitStatus = "SCHEDULED"
	VisitStatusCompleted VisitStatus = "COMPLETED"
	VisitStatusCancelled VisitStatus = "CANCELLED"
)

// Visit is a vendor's scheduled on-site intervention for an incident.
type Visit struct {
	ID           string
	IncidentID   string
	CaseID       string
	VendorID     string
	ScheduledFor time.Time
	Notes        string
	Status       VisitStatus
	CancelReason *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
