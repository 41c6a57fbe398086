package domain

import "time"

// NoteAuthorType indicates who authored an incident note.
type NoteAuthorType string

const (
	NoteAuthorReporter NoteAuthorType = "REPORTER"
	NoteAuthorControl  NoteAuthorType = "CONTROL"
	NoteAuthorVendor   NoteAuthorType = "VENDOR"
	NoteAuthorSystem   NoteAuthorType = "SYSTEM"
)

// NoteScope controls which side of the desk can read a note.
type NoteScope string

const (
	NoteScopeClient   NoteScope = "CLIENT"
	NoteScopeProvider NoteScope = "PROVIDER"
	NoteScopeInternal NoteScope = "INTERNAL"
)

// IncidentNote is an immutable comment on an incident thread. System-generated
// notes record approvals, annulments and manual resolutions.
type IncidentNote struct {
	ID         string
	IncidentID string
	AuthorType NoteAuthorType
	AuthorID   *string
	Scope      NoteScope
	Body       string
	CreatedAt  time.Time
}

// DocumentRef stores an opaque storage reference, never file bytes.
type DocumentRef struct {
	ID         string
	IncidentID string
	Kind       string
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
	CreatedAt  time.Time
}
