package domain

import "time"

// NotificationKind classifies unread markers enqueued for a vendor.
type NotificationKind string

const (
	NotificationKindAssignment NotificationKind = "ASSIGNMENT"
	NotificationKindReview     NotificationKind = "REVIEW"
	NotificationKindAnnulment  NotificationKind = "ANNULMENT"
)

// NotificationMarker is a per-recipient unread flag keyed by
// (vendor, incident, kind).
type NotificationMarker struct {
	ID         string
	VendorID   string
	IncidentID string
	Kind       NotificationKind
	Seen       bool
	CreatedAt  time.Time
	SeenAt     *time.Time
}
