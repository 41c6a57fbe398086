package dto

import (
	"time"

	"github.com/facilityops/incident-service/internal/domain"
)

// AssignProviderRequest payload.
type AssignProviderRequest struct {
	VendorID     string                  `json:"vendor_id"`
	Priority     domain.ProviderPriority `json:"priority"`
	Instructions string                  `json:"instructions"`
	Reassign     bool                    `json:"reassign"`
	Reason       string                  `json:"reason"`
}

// AnnulAssignmentRequest payload.
type AnnulAssignmentRequest struct {
	Reason string `json:"reason"`
}

// CaseResponse represents one provider case.
type CaseResponse struct {
	ID            string                  `json:"id"`
	IncidentID    string                  `json:"incident_id"`
	VendorID      string                  `json:"vendor_id"`
	State         domain.ProviderState    `json:"state"`
	Priority      domain.ProviderPriority `json:"priority"`
	Instructions  string                  `json:"instructions,omitempty"`
	Active        bool                    `json:"active"`
	AssignedAt    time.Time               `json:"assigned_at"`
	DeactivatedAt *time.Time              `json:"deactivated_at,omitempty"`
	Deactivation  *string                 `json:"deactivation_reason,omitempty"`
	CloseMonth    *string                 `json:"close_month,omitempty"`
	ReviewScope   *domain.ReviewScope     `json:"review_scope,omitempty"`
	ReviewPending *domain.ReviewScope     `json:"review_pending,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

// SubmitOfferRequest payload. Amounts are integer cents.
type SubmitOfferRequest struct {
	AmountExclTax   int64      `json:"amount_excl_tax"`
	TaxRate         int        `json:"tax_rate"`
	EstimatedStart  *time.Time `json:"estimated_start"`
	EstimatedDays   int        `json:"estimated_days"`
	WorkDescription string     `json:"work_description"`
	DocumentKey     *string    `json:"document_key"`
}

// OfferResponse represents one offer.
type OfferResponse struct {
	ID              string            `json:"id"`
	CaseID          string            `json:"case_id"`
	VendorID        string            `json:"vendor_id"`
	AmountExclTax   int64             `json:"amount_excl_tax"`
	TaxRate         int               `json:"tax_rate"`
	AmountInclTax   int64             `json:"amount_incl_tax"`
	EstimatedStart  *time.Time        `json:"estimated_start,omitempty"`
	EstimatedDays   int               `json:"estimated_days,omitempty"`
	WorkDescription string            `json:"work_description"`
	DocumentKey     *string           `json:"document_key,omitempty"`
	State           domain.OfferState `json:"state"`
	RejectReason    *string           `json:"reject_reason,omitempty"`
	DecidedAt       *time.Time        `json:"decided_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// RejectOfferRequest payload.
type RejectOfferRequest struct {
	Reason string `json:"reason"`
}

// ResolveRequest payload.
type ResolveRequest struct {
	Comment string `json:"comment"`
}

// SendToReviewRequest payload.
type SendToReviewRequest struct {
	Scope  domain.ReviewScope `json:"scope"`
	Reason string             `json:"reason"`
}

// ValuationRequest payload. Amounts are integer cents.
type ValuationRequest struct {
	AmountExclTax int64   `json:"amount_excl_tax"`
	TaxRate       int     `json:"tax_rate"`
	Notes         string  `json:"notes"`
	DocumentKey   *string `json:"document_key"`
}

// ScheduleVisitRequest payload.
type ScheduleVisitRequest struct {
	ScheduledFor time.Time `json:"scheduled_for"`
	Notes        string    `json:"notes"`
}

// VisitResponse represents a scheduled visit.
type VisitResponse struct {
	ID           string             `json:"id"`
	IncidentID   string             `json:"incident_id"`
	CaseID       string             `json:"case_id"`
	VendorID     string             `json:"vendor_id"`
	ScheduledFor time.Time          `json:"scheduled_for"`
	Notes        string             `json:"notes,omitempty"`
	Status       domain.VisitStatus `json:"status"`
	CancelReason *string            `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

// ActionsResponse lists what the guard table currently permits on a case.
type ActionsResponse struct {
	CaseID  string   `json:"case_id"`
	Actions []string `json:"actions"`
}
