package domain

import "time"

// AuditTrack identifies which state track an entry records.
type AuditTrack string

const (
	TrackClient   AuditTrack = "CLIENT"
	TrackProvider AuditTrack = "PROVIDER"
)

// AuditAction tags the operation that produced an entry.
type AuditAction string

const (
	ActionTagIntake        AuditAction = "INTAKE"
	ActionTagAssignment    AuditAction = "ASSIGNMENT"
	ActionTagReassignment  AuditAction = "REASSIGNMENT"
	ActionTagAnnulment     AuditAction = "ANNULMENT"
	ActionTagWorkStart     AuditAction = "WORK_START"
	ActionTagOfferSubmit   AuditAction = "OFFER_SUBMITTED"
	ActionTagOfferApprove  AuditAction = "OFFER_APPROVED"
	ActionTagOfferReject   AuditAction = "OFFER_REJECTED"
	ActionTagResolve       AuditAction = "RESOLVE"
	ActionTagResolveAccept AuditAction = "RESOLUTION_ACCEPTED"
	ActionTagReviewBack    AuditAction = "SENT_TO_REVIEW"
	ActionTagValuation     AuditAction = "VALUATION"
	ActionTagClose         AuditAction = "CLOSE"
	ActionTagManualResolve AuditAction = "MANUAL_RESOLVE"
)

// AuditEntry is an immutable record of one state transition on one track.
type AuditEntry struct {
	ID         string
	IncidentID string
	CaseID     *string
	Track      AuditTrack
	FromState  string
	ToState    string
	ActorID    string
	ActorRole  Role
	Action     AuditAction
	Reason     string
	Metadata   map[string]any
	CreatedAt  time.Time
}
