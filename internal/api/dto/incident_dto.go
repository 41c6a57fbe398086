package dto

import (
	"time"

	"github.com/facilityops/incident-service/internal/domain"
)

// CreateIncidentRequest payload.
type CreateIncidentRequest struct {
	CenterID       string                `json:"center_id"`
	Description    string                `json:"description"`
	Classification string                `json:"classification"`
	Priority       domain.ClientPriority `json:"priority"`
}

// IncidentSummary response.
type IncidentSummary struct {
	ID             string                `json:"id"`
	RequestNumber  string                `json:"request_number"`
	CenterID       string                `json:"center_id"`
	Description    string                `json:"description"`
	Classification string                `json:"classification"`
	ClientState    domain.ClientState    `json:"client_state"`
	Priority       domain.ClientPriority `json:"priority"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// IncidentDetailResponse provides full incident info.
type IncidentDetailResponse struct {
	ID             string                `json:"id"`
	RequestNumber  string                `json:"request_number"`
	CenterID       string                `json:"center_id"`
	ReporterID     string                `json:"reporter_id"`
	Description    string                `json:"description"`
	Classification string                `json:"classification"`
	ClientState    domain.ClientState    `json:"client_state"`
	Priority       domain.ClientPriority `json:"priority"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
	ClosedAt       *time.Time            `json:"closed_at"`
	Cases          []CaseResponse        `json:"cases"`
	Offers         []OfferResponse       `json:"offers"`
	Audit          []AuditEntryResponse  `json:"audit"`
	Notes          []NoteResponse        `json:"notes"`
}

// AuditEntryResponse represents one trail entry.
type AuditEntryResponse struct {
	ID        string         `json:"id"`
	CaseID    *string        `json:"case_id,omitempty"`
	Track     string         `json:"track"`
	FromState string         `json:"from_state"`
	ToState   string         `json:"to_state"`
	ActorID   string         `json:"actor_id"`
	ActorRole domain.Role    `json:"actor_role"`
	Action    string         `json:"action"`
	Reason    string         `json:"reason,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NoteResponse represents a thread note.
type NoteResponse struct {
	ID         string                `json:"id"`
	AuthorType domain.NoteAuthorType `json:"author_type"`
	AuthorID   *string               `json:"author_id,omitempty"`
	Scope      domain.NoteScope      `json:"scope"`
	Body       string                `json:"body"`
	CreatedAt  time.Time             `json:"created_at"`
}

// CloseIncidentRequest payload.
type CloseIncidentRequest struct {
	Reason string `json:"reason"`
}

// AnnulIncidentRequest payload.
type AnnulIncidentRequest struct {
	Reason string `json:"reason"`
}

// ManualResolveRequest payload.
type ManualResolveRequest struct {
	Description        string            `json:"description"`
	VendorExternalName *string           `json:"vendor_external_name"`
	AmountExclTax      *int64            `json:"amount_excl_tax"`
	TaxRate            *int              `json:"tax_rate"`
	Documents          []DocumentRequest `json:"documents"`
}

// DocumentRequest describes an already-uploaded file reference.
type DocumentRequest struct {
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// TransitionResponse is the common envelope for accepted lifecycle operations.
type TransitionResponse struct {
	Incident      *IncidentSummary `json:"incident,omitempty"`
	Case          *CaseResponse    `json:"case,omitempty"`
	NewState      string           `json:"new_state"`
	AuditEntryIDs []string         `json:"audit_entry_ids"`
}
