package domain

import "time"

// ProviderState enumerates the vendor-facing lifecycle track of an assignment.
type ProviderState string

const (
	ProviderStateOpen             ProviderState = "OPEN"
	ProviderStateInResolution     ProviderState = "IN_RESOLUTION"
	ProviderStateAssigned         ProviderState = "ASSIGNED"
	ProviderStateOffered          ProviderState = "OFFERED"
	ProviderStateOfferApproved    ProviderState = "OFFER_APPROVED"
	ProviderStateOfferToReview    ProviderState = "OFFER_TO_REVIEW"
	ProviderStateResolved         ProviderState = "RESOLVED"
	ProviderStatePendingValuation ProviderState = "PENDING_VALUATION"
	ProviderStateReviewResolution ProviderState = "REVIEW_RESOLUTION"
	ProviderStateValued           ProviderState = "VALUED"
	ProviderStateClosed           ProviderState = "CLOSED"
	ProviderStateAnnulled         ProviderState = "ANNULLED"
)

// IsTerminal reports whether no further provider-track transitions are allowed.
func (s ProviderState) IsTerminal() bool {
	return s == ProviderStateValued || s == ProviderStateClosed || s == ProviderStateAnnulled
}

// ProviderPriority enumerates urgency as communicated to the vendor.
type ProviderPriority string

const (
	ProviderPriorityLow    ProviderPriority = "LOW"
	ProviderPriorityMedium ProviderPriority = "MEDIUM"
	ProviderPriorityHigh   ProviderPriority = "HIGH"
	ProviderPriorityUrgent ProviderPriority = "URGENT"
)

// ReviewScope identifies which half of a sent-back resolution must be redone.
type ReviewScope string

const (
	ReviewScopeTechnical ReviewScope = "TECHNICAL"
	ReviewScopeEconomic  ReviewScope = "ECONOMIC"
	ReviewScopeBoth      ReviewScope = "BOTH"
)

// Valid reports whether the scope is one of the three recognized values.
func (s ReviewScope) Valid() bool {
	return s == ReviewScopeTechnical || s == ReviewScopeEconomic || s == ReviewScopeBoth
}

// ProviderCase is one vendor's assignment record for one incident.
//
// At most one case per incident may have Active=true. An annulled case keeps
// Active=true until a replacement vendor is assigned or the incident closes,
// so "no active vendor" and "annulled vendor" stay distinguishable.
type ProviderCase struct {
	ID            string
	IncidentID    string
	VendorID      string
	State         ProviderState
	Priority      ProviderPriority
	Instructions  string
	Active        bool
	AssignedAt    time.Time
	AssignedBy    string
	DeactivatedAt *time.Time
	DeactivatedBy *string
	Deactivation  *string
	CloseMonth    *string
	// ReviewScope is what Control requested; ReviewPending is what is still
	// outstanding. They diverge when the technical half of a BOTH review is
	// completed first.
	ReviewScope   *ReviewScope
	ReviewPending *ReviewScope
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
