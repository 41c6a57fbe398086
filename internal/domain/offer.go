package domain

import "time"

// OfferState enumerates approval states for a vendor offer.
type OfferState string

const (
	OfferStatePending  OfferState = "PENDING"
	OfferStateApproved OfferState = "APPROVED"
	OfferStateRejected OfferState = "REJECTED"
)

// Offer is a vendor's priced proposal for one provider case.
type Offer struct {
	ID              string
	CaseID          string
	IncidentID      string
	VendorID        string
	AmountExclTax   Cents
	TaxRate         TaxRate
	AmountInclTax   Cents
	EstimatedStart  *time.Time
	EstimatedDays   int
	WorkDescription string
	DocumentKey     *string
	State           OfferState
	RejectReason    *string
	DecidedAt       *time.Time
	DecidedBy       *string
	CreatedAt       time.Time
}

// Valuation is the vendor's final economic justification after resolution.
type Valuation struct {
	ID            string
	CaseID        string
	IncidentID    string
	AmountExclTax Cents
	TaxRate       TaxRate
	AmountInclTax Cents
	Notes         string
	DocumentKey   *string
	CreatedAt     time.Time
	CreatedBy     string
}
