package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/facilityops/incident-service/internal/domain"
	"github.com/facilityops/incident-service/internal/events"
	"github.com/facilityops/incident-service/internal/repository"
	apperrors "github.com/facilityops/incident-service/pkg/util/errorutil"
)

// OfferService owns the budget sub-workflow: submission by the vendor,
// approval or rejection by Control. Whether a case ever had an approved offer
// is always derived from offer history, never stored, so historic edits can
// not make the ledger drift.
type OfferService struct {
	store      repository.Store
	dispatcher events.Dispatcher
}

// NewOfferService creates the service.
func NewOfferService(store repository.Store, dispatcher events.Dispatcher) *OfferService {
	return &OfferService{store: store, dispatcher: dispatcher}
}

// SubmitOfferInput describes a vendor's priced proposal.
type SubmitOfferInput struct {
	AmountExclTax   domain.Cents
	TaxRate         domain.TaxRate
	EstimatedStart  *time.Time
	EstimatedDays   int
	WorkDescription string
	DocumentKey     *string
}

// SubmitOffer records a pending offer and moves the case to OFFERED.
func (s *OfferService) SubmitOffer(ctx context.Context, caseID string, input SubmitOfferInput, actor domain.Actor) (*TransitionResult, error) {
	if input.AmountExclTax <= 0 {
		return nil, apperrors.NewValidationError("amount_excl_tax must be positive", nil)
	}
	if !input.TaxRate.Valid() {
		return nil, apperrors.NewValidationError("unrecognized tax rate", map[string]any{"tax_rate": input.TaxRate})
	}
	if strings.TrimSpace(input.WorkDescription) == "" {
		return nil, apperrors.NewValidationError("work_description required", nil)
	}

	var result *TransitionResult
	var offer *domain.Offer

	err := s.store.InTx(ctx, func(st repository.Store) error {
		c, err := lockCase(ctx, st, caseID)
		if err != nil {
			return err
		}
		if err := requireCaseVendor(actor, c); err != nil {
			return err
		}
		if !c.Active {
			return apperrors.NewConflict("case is no longer active", map[string]any{"case_id": caseID})
		}

		everApproved, err := st.Offers().HasApproved(ctx, caseID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if !domain.ActionAllowed(c, everApproved, domain.ActionSubmitOffer) {
			if everApproved {
				return guardError(c, everApproved, "an offer was already approved for this case")
			}
			if c.State == domain.ProviderStateOffered {
				return guardError(c, everApproved, "offer awaiting Control's decision")
			}
			return guardError(c, everApproved, "offer submission not allowed in current state")
		}

		offer = &domain.Offer{
			CaseID:          c.ID,
			IncidentID:      c.IncidentID,
			VendorID:        c.VendorID,
			AmountExclTax:   input.AmountExclTax,
			TaxRate:         input.TaxRate,
			AmountInclTax:   input.TaxRate.WithTax(input.AmountExclTax),
			EstimatedStart:  input.EstimatedStart,
			EstimatedDays:   input.EstimatedDays,
			WorkDescription: strings.TrimSpace(input.WorkDescription),
			DocumentKey:     input.DocumentKey,
			State:           domain.OfferStatePending,
		}
		if err := st.Offers().Create(ctx, offer); err != nil {
			return apperrors.MapError(err)
		}

		from := c.State
		c.State = domain.ProviderStateOffered
		if err := st.Cases().Update(ctx, c); err != nil {
			return apperrors.MapError(err)
		}

		entry := &domain.AuditEntry{
			IncidentID: c.IncidentID,
			CaseID:     &c.ID,
			Track:      domain.TrackProvider,
			FromState:  string(from),
			ToState:    string(c.State),
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     domain.ActionTagOfferSubmit,
			Reason:     "offer submitted",
			Metadata: map[string]any{
				"offer_id":        offer.ID,
				"amount_excl_tax": int64(offer.AmountExclTax),
				"tax_rate":        int(offer.TaxRate),
				"amount_incl_tax": int64(offer.AmountInclTax),
			},
		}
		if err := st.Audit().Create(ctx, entry); err != nil {
			return apperrors.MapError(err)
		}
		auditIDs := []string{entry.ID}

		clientEntry, err := markClientInProgress(ctx, st, c.IncidentID, actor)
		if err != nil {
			return err
		}
		if clientEntry != nil {
			auditIDs = append(auditIDs, clientEntry.ID)
		}

		result = &TransitionResult{
			Case:          c,
			NewState:      string(c.State),
			AuditEntryIDs: auditIDs,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:       events.EventOfferSubmitted,
		IncidentID: result.Case.IncidentID,
		Actor:      eventActor(actor),
		Payload: events.OfferSubmittedPayload{
			OfferID:       offer.ID,
			CaseID:        offer.CaseID,
			AmountInclTax: offer.AmountInclTax,
		},
	})
	return result, nil
}

// ApproveOffer marks the live pending offer approved and moves the case to
// OFFER_APPROVED. Re-approving a decided offer is a deterministic conflict,
// never a silent success.
func (s *OfferService) ApproveOffer(ctx context.Context, offerID string, actor domain.Actor) (*TransitionResult, error) {
	if err := requireControl(actor); err != nil {
		return nil, err
	}

	var result *TransitionResult
	var offer *domain.Offer

	err := s.store.InTx(ctx, func(st repository.Store) error {
		var err error
		offer, err = st.Offers().GetByID(ctx, offerID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("offer", map[string]any{"offer_id": offerID})
			}
			return apperrors.MapError(err)
		}
		if _, err := st.Incidents().LockByID(ctx, offer.IncidentID); err != nil {
			return apperrors.MapError(err)
		}
		if offer.State != domain.OfferStatePending {
			return apperrors.NewConflict(fmt.Sprintf("offer already %s", strings.ToLower(string(offer.State))), map[string]any{
				"offer_id": offerID,
				"state":    offer.State,
			})
		}

		c, err := st.Cases().GetByID(ctx, offer.CaseID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if !c.Active {
			return apperrors.NewConflict("case is no longer active", map[string]any{"case_id": c.ID})
		}
		if c.State != domain.ProviderStateOffered {
			return apperrors.NewConflict("case is not awaiting an offer decision", map[string]any{
				"case_id":        c.ID,
				"provider_state": c.State,
			})
		}

		// Conditional flip; loses the race gracefully if another decision
		// landed between the read above and here.
		if err := st.Offers().Decide(ctx, offerID, domain.OfferStateApproved, actor.ID, nil); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewConflict("offer already decided", map[string]any{"offer_id": offerID})
			}
			return apperrors.MapError(err)
		}
		offer.State = domain.OfferStateApproved

		from := c.State
		c.State = domain.ProviderStateOfferApproved
		if err := st.Cases().Update(ctx, c); err != nil {
			return apperrors.MapError(err)
		}

		entry := &domain.AuditEntry{
			IncidentID: c.IncidentID,
			CaseID:     &c.ID,
			Track:      domain.TrackProvider,
			FromState:  string(from),
			ToState:    string(c.State),
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     domain.ActionTagOfferApprove,
			Reason:     "offer approved",
			Metadata: map[string]any{
				"offer_id":        offer.ID,
				"amount_incl_tax": int64(offer.AmountInclTax),
			},
		}
		if err := st.Audit().Create(ctx, entry); err != nil {
			return apperrors.MapError(err)
		}

		note := &domain.IncidentNote{
			IncidentID: c.IncidentID,
			AuthorType: domain.NoteAuthorSystem,
			Scope:      domain.NoteScopeProvider,
			Body:       fmt.Sprintf("Offer approved for %s", formatCents(offer.AmountInclTax)),
		}
		if err := st.Notes().Create(ctx, note); err != nil {
			return apperrors.MapError(err)
		}

		result = &TransitionResult{
			Case:          c,
			NewState:      string(c.State),
			AuditEntryIDs: []string{entry.ID},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:       events.EventOfferApproved,
		IncidentID: result.Case.IncidentID,
		Actor:      eventActor(actor),
		Payload: events.OfferDecidedPayload{
			OfferID:       offer.ID,
			CaseID:        offer.CaseID,
			AmountInclTax: offer.AmountInclTax,
		},
	})
	return result, nil
}

// RejectOffer marks the live pending offer rejected and sends the case to
// OFFER_TO_REVIEW so the vendor can resubmit.
func (s *OfferService) RejectOffer(ctx context.Context, offerID, reason string, actor domain.Actor) (*TransitionResult, error) {
	if err := requireControl(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.NewValidationError("reason required", nil)
	}

	var result *TransitionResult
	var offer *domain.Offer

	err := s.store.InTx(ctx, func(st repository.Store) error {
		var err error
		offer, err = st.Offers().GetByID(ctx, offerID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("offer", map[string]any{"offer_id": offerID})
			}
			return apperrors.MapError(err)
		}
		if _, err := st.Incidents().LockByID(ctx, offer.IncidentID); err != nil {
			return apperrors.MapError(err)
		}
		if offer.State != domain.OfferStatePending {
			return apperrors.NewConflict(fmt.Sprintf("offer already %s", strings.ToLower(string(offer.State))), map[string]any{
				"offer_id": offerID,
				"state":    offer.State,
			})
		}

		c, err := st.Cases().GetByID(ctx, offer.CaseID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if !c.Active {
			return apperrors.NewConflict("case is no longer active", map[string]any{"case_id": c.ID})
		}

		trimmed := strings.TrimSpace(reason)
		if err := st.Offers().Decide(ctx, offerID, domain.OfferStateRejected, actor.ID, &trimmed); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewConflict("offer already decided", map[string]any{"offer_id": offerID})
			}
			return apperrors.MapError(err)
		}
		offer.State = domain.OfferStateRejected

		from := c.State
		c.State = domain.ProviderStateOfferToReview
		if err := st.Cases().Update(ctx, c); err != nil {
			return apperrors.MapError(err)
		}

		entry := &domain.AuditEntry{
			IncidentID: c.IncidentID,
			CaseID:     &c.ID,
			Track:      domain.TrackProvider,
			FromState:  string(from),
			ToState:    string(c.State),
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     domain.ActionTagOfferReject,
			Reason:     trimmed,
			Metadata: map[string]any{
				"offer_id":        offer.ID,
				"amount_incl_tax": int64(offer.AmountInclTax),
			},
		}
		if err := st.Audit().Create(ctx, entry); err != nil {
			return apperrors.MapError(err)
		}

		marker := &domain.NotificationMarker{
			VendorID:   c.VendorID,
			IncidentID: c.IncidentID,
			Kind:       domain.NotificationKindReview,
		}
		if err := st.Notifications().Create(ctx, marker); err != nil {
			return apperrors.MapError(err)
		}

		result = &TransitionResult{
			Case:          c,
			NewState:      string(c.State),
			AuditEntryIDs: []string{entry.ID},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:       events.EventOfferRejected,
		IncidentID: result.Case.IncidentID,
		Actor:      eventActor(actor),
		Payload: events.OfferDecidedPayload{
			OfferID:       offer.ID,
			CaseID:        offer.CaseID,
			AmountInclTax: offer.AmountInclTax,
			Reason:        reason,
		},
	})
	return result, nil
}

// lockCase loads a case and takes the per-incident lock, then re-reads the
// case so guard checks observe a state no concurrent transition can move.
func lockCase(ctx context.Context, st repository.Store, caseID string) (*domain.ProviderCase, error) {
	c, err := st.Cases().GetByID(ctx, caseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("provider case", map[string]any{"case_id": caseID})
		}
		return nil, apperrors.MapError(err)
	}
	if _, err := st.Incidents().LockByID(ctx, c.IncidentID); err != nil {
		return nil, apperrors.MapError(err)
	}
	c, err = st.Cases().GetByID(ctx, caseID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return c, nil
}

func formatCents(amount domain.Cents) string {
	v := int64(amount)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
