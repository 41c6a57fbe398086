package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/facilityops/incident-service/internal/domain"
	"github.com/facilityops/incident-service/internal/events"
	"github.com/facilityops/incident-service/internal/repository"
	apperrors "github.com/facilityops/incident-service/pkg/util/errorutil"
)

// LifecycleService orchestrates the client-track and provider-track state
// machines: intake, resolution, the resolution-review sub-flow, valuation,
// closing and annulment. Assignment and offers live in their own services.
type LifecycleService struct {
	store      repository.Store
	dispatcher events.Dispatcher
}

// NewLifecycleService creates the service.
func NewLifecycleService(store repository.Store, dispatcher events.Dispatcher) *LifecycleService {
	return &LifecycleService{store: store, dispatcher: dispatcher}
}

// IncidentCreateInput describes intake payload.
type IncidentCreateInput struct {
	CenterID       string
	Description    string
	Classification string
	Priority       domain.ClientPriority
}

// CreateIncident registers a new incident in OPEN state.
func (s *LifecycleService) CreateIncident(ctx context.Context, input IncidentCreateInput, actor domain.Actor) (*domain.Incident, error) {
	if actor.Role != domain.RoleReporter && actor.Role != domain.RoleControl {
		return nil, apperrors.NewForbidden("reporter or control role required")
	}
	if input.CenterID == "" || strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.NewValidationError("center_id and description required", nil)
	}

	center, err := s.store.Centers().GetByID(ctx, input.CenterID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("center", map[string]any{"center_id": input.CenterID})
		}
		return nil, apperrors.MapError(err)
	}
	if !center.IsActive {
		return nil, apperrors.NewConflict("center inactive", map[string]any{"center_id": center.ID})
	}

	incident := &domain.Incident{
		RequestNumber:  generateRequestNumber(),
		CenterID:       input.CenterID,
		ReporterID:     actor.ID,
		Description:    strings.TrimSpace(input.Description),
		Classification: strings.TrimSpace(input.Classification),
		ClientState:    domain.ClientStateOpen,
		Priority:       input.Priority,
	}
	if incident.Priority == "" {
		incident.Priority = domain.ClientPriorityMedium
	}

	err = s.store.InTx(ctx, func(st repository.Store) error {
		if err := st.Incidents().Create(ctx, incident); err != nil {
			return apperrors.MapError(err)
		}
		entry := &domain.AuditEntry{
			IncidentID: incident.ID,
			Track:      domain.TrackClient,
			FromState:  "",
			ToState:    string(incident.ClientState),
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     domain.ActionTagIntake,
			Reason:     "incident reported",
			Metadata:   map[string]any{"request_number": incident.RequestNumber},
		}
		return apperrors.MapError(st.Audit().Create(ctx, entry))
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:       events.EventIncidentCreated,
		IncidentID: incident.ID,
		Actor:      eventActor(actor),
	})
	return incident, nil
}

// Resolve marks the vendor's work done. Inside a review-resolution it clears
// the technical half: a TECHNICAL review completes fully, a BOTH review
// narrows to its outstanding economic half.
func (s *LifecycleService) Resolve(ctx context.Context, caseID, comment string, actor domain.Actor) (*TransitionResult, error) {
	var result *TransitionResult

	err := s.store.InTx(ctx, func(st repository.Store) error {
		c, err := lockCase(ctx, st, caseID)
		if err != nil {
			return err
		}
		if actor.Role != domain.RoleControl {
			if err := requireCaseVendor(actor, c); err != nil {
				return err
			}
		}
		if !c.Active {
			return apperrors.NewConflict("case is no longer active", map[string]any{"case_id": caseID})
		}

		everApproved, err := st.Offers().HasApproved(ctx, caseID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if !domain.ActionAllowed(c, everApproved, domain.ActionResolve) {
			return guardError(c, everApproved, "resolve not allowed in current state")
		}

		from := c.State
		metadata := map[string]any{}
		if c.State == domain.ProviderStateReviewResolution {
			if c.ReviewPending != nil && *c.ReviewPending == domain.ReviewScopeBoth {
				// Technical half redone; only the economic half remains.
				pending := domain.ReviewScopeEconomic
				c.ReviewPending = &pending
				metadata["review_pending"] = string(pending)
			} else {
				c.State = domain.ProviderStateResolved
				c.ReviewPending = nil
			}
		} else {
			c.State = domain.ProviderStateResolved
		}
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
			Action:     domain.ActionTagResolve,
			Reason:     strings.TrimSpace(comment),
			Metadata:   metadata,
		}
		if err := st.Audit().Create(ctx, entry); err != nil {
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

	s.publishStateChange(ctx, events.EventCaseResolved, result, actor, comment)
	return result, nil
}

// AcceptResolution moves a resolved case to PENDING_VALUATION, asking the
// vendor for its economic justification.
func (s *LifecycleService) AcceptResolution(ctx context.Context, caseID string, actor domain.Actor) (*TransitionResult, error) {
	if err := requireControl(actor); err != nil {
		return nil, err
	}

	var result *TransitionResult
	err := s.store.InTx(ctx, func(st repository.Store) error {
		c, err := lockCase(ctx, st, caseID)
		if err != nil {
			return err
		}
		if !c.Active {
			return apperrors.NewConflict("case is no longer active", map[string]any{"case_id": caseID})
		}
		if c.State != domain.ProviderStateResolved {
			everApproved, _ := st.Offers().HasApproved(ctx, caseID)
			return guardError(c, everApproved, "case is not resolved")
		}

		from := c.State
		c.State = domain.ProviderStatePendingValuation
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
			Action:     domain.ActionTagResolveAccept,
			Reason:     "resolution accepted",
			Metadata:   map[string]any{},
		}
		if err := st.Audit().Create(ctx, entry); err != nil {
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
	return result, nil
}

// SendToReview sends a resolution back for rework, scoped to its technical
// half, its economic half, or both. The scope is persisted twice: what was
// requested and what is still pending.
func (s *LifecycleService) SendToReview(ctx context.Context, caseID string, scope domain.ReviewScope, reason string, actor domain.Actor) (*TransitionResult, error) {
	if err := requireControl(actor); err != nil {
		return nil, err
	}
	if !scope.Valid() {
		return nil, apperrors.NewValidationError("review scope must be TECHNICAL, ECONOMIC or BOTH", nil)
	}
	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.NewValidationError("reason required", nil)
	}

	var result *TransitionResult
	err := s.store.InTx(ctx, func(st repository.Store) error {
		c, err := lockCase(ctx, st, caseID)
		if err != nil {
			return err
		}
		if !c.Active {
			return apperrors.NewConflict("case is no longer active", map[string]any{"case_id": caseID})
		}
		switch c.State {
		case domain.ProviderStateResolved, domain.ProviderStatePendingValuation, domain.ProviderStateValued:
		default:
			everApproved, _ := st.Offers().HasApproved(ctx, caseID)
			return guardError(c, everApproved, "no resolution to send back in current state")
		}

		from := c.State
		scopeCopy := scope
		pending := scope
		c.State = domain.ProviderStateReviewResolution
		c.ReviewScope = &scopeCopy
		c.ReviewPending = &pending
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
			Action:     domain.ActionTagReviewBack,
			Reason:     strings.TrimSpace(reason),
			Metadata:   map[string]any{"review_scope": string(scope)},
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
	return result, nil
}

// ValuationInput describes the vendor's final economic justification.
type ValuationInput struct {
	AmountExclTax domain.Cents
	TaxRate       domain.TaxRate
	Notes         string
	DocumentKey   *string
}

// Value records the vendor's valuation. When an approved offer exists and the
// valued total differs from it, a justification document is mandatory.
func (s *LifecycleService) Value(ctx context.Context, caseID string, input ValuationInput, actor domain.Actor) (*TransitionResult, error) {
	if input.AmountExclTax <= 0 {
		return nil, apperrors.NewValidationError("amount_excl_tax must be positive", nil)
	}
	if !input.TaxRate.Valid() {
		return nil, apperrors.NewValidationError("unrecognized tax rate", map[string]any{"tax_rate": input.TaxRate})
	}

	var result *TransitionResult
	var amountIncl domain.Cents

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
		if !domain.ActionAllowed(c, everApproved, domain.ActionValue) {
			return guardError(c, everApproved, "valuation not allowed in current state")
		}

		amountIncl = input.TaxRate.WithTax(input.AmountExclTax)
		metadata := map[string]any{
			"amount_excl_tax": int64(input.AmountExclTax),
			"tax_rate":        int(input.TaxRate),
			"amount_incl_tax": int64(amountIncl),
		}
		if everApproved {
			approved, err := st.Offers().GetApprovedByCase(ctx, caseID)
			if err != nil {
				return apperrors.MapError(err)
			}
			delta := amountIncl - approved.AmountInclTax
			metadata["approved_amount_incl_tax"] = int64(approved.AmountInclTax)
			metadata["delta"] = int64(delta)
			if delta != 0 && input.DocumentKey == nil {
				return apperrors.NewValidationError("valued amount differs from approved offer; justification document required", map[string]any{
					"amount_incl_tax":          int64(amountIncl),
					"approved_amount_incl_tax": int64(approved.AmountInclTax),
				})
			}
		}

		valuation := &domain.Valuation{
			CaseID:        c.ID,
			IncidentID:    c.IncidentID,
			AmountExclTax: input.AmountExclTax,
			TaxRate:       input.TaxRate,
			AmountInclTax: amountIncl,
			Notes:         strings.TrimSpace(input.Notes),
			DocumentKey:   input.DocumentKey,
			CreatedBy:     actor.ID,
		}
		if err := st.Offers().CreateValuation(ctx, valuation); err != nil {
			return apperrors.MapError(err)
		}

		from := c.State
		c.State = domain.ProviderStateValued
		c.ReviewPending = nil
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
			Action:     domain.ActionTagValuation,
			Reason:     "valuation submitted",
			Metadata:   metadata,
		}
		if err := st.Audit().Create(ctx, entry); err != nil {
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

	s.publishStateChange(ctx, events.EventCaseValued, result, actor, "")
	return result, nil
}

// Close terminates the client track and, unless the active case was annulled,
// the provider track too. The case gets a close-month label for reporting.
func (s *LifecycleService) Close(ctx context.Context, incidentID, reason string, actor domain.Actor) (*TransitionResult, error) {
	if err := requireControl(actor); err != nil {
		return nil, err
	}

	var result *TransitionResult
	err := s.store.InTx(ctx, func(st repository.Store) error {
		incident, err := st.Incidents().LockByID(ctx, incidentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("incident", map[string]any{"incident_id": incidentID})
			}
			return apperrors.MapError(err)
		}
		if incident.ClientState.IsTerminal() {
			return apperrors.NewConflict("incident already terminal", map[string]any{
				"client_state": incident.ClientState,
			})
		}

		now := time.Now()
		fromClient := incident.ClientState
		incident.ClientState = domain.ClientStateClosed
		incident.ClosedAt = &now
		if err := st.Incidents().Update(ctx, incident); err != nil {
			return apperrors.MapError(err)
		}

		clientEntry := &domain.AuditEntry{
			IncidentID: incident.ID,
			Track:      domain.TrackClient,
			FromState:  string(fromClient),
			ToState:    string(incident.ClientState),
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     domain.ActionTagClose,
			Reason:     strings.TrimSpace(reason),
			Metadata:   map[string]any{},
		}
		if err := st.Audit().Create(ctx, clientEntry); err != nil {
			return apperrors.MapError(err)
		}
		auditIDs := []string{clientEntry.ID}

		c, err := st.Cases().GetActiveByIncident(ctx, incidentID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return apperrors.MapError(err)
		}
		if c != nil && c.State != domain.ProviderStateAnnulled {
			fromProvider := c.State
			month := closeMonthLabel(now)
			c.State = domain.ProviderStateClosed
			c.CloseMonth = &month
			if err := st.Cases().Update(ctx, c); err != nil {
				return apperrors.MapError(err)
			}
			providerEntry := &domain.AuditEntry{
				IncidentID: incident.ID,
				CaseID:     &c.ID,
				Track:      domain.TrackProvider,
				FromState:  string(fromProvider),
				ToState:    string(c.State),
				ActorID:    actor.ID,
				ActorRole:  actor.Role,
				Action:     domain.ActionTagClose,
				Reason:     strings.TrimSpace(reason),
				Metadata:   map[string]any{"close_month": month},
			}
			if err := st.Audit().Create(ctx, providerEntry); err != nil {
				return apperrors.MapError(err)
			}
			auditIDs = append(auditIDs, providerEntry.ID)
		} else if c != nil {
			// An annulled case holds active=true only until a replacement
			// vendor arrives or the incident terminates. The incident is
			// closing, so release the flag; the state stays ANNULLED and no
			// provider-track entry is written.
			releaseAnnulledCase(c, actor.ID, "incident closed", now)
			if err := st.Cases().Update(ctx, c); err != nil {
				return apperrors.MapError(err)
			}
		}

		result = &TransitionResult{
			Incident:      incident,
			Case:          c,
			NewState:      string(incident.ClientState),
			AuditEntryIDs: auditIDs,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:       events.EventIncidentClosed,
		IncidentID: incidentID,
		Actor:      eventActor(actor),
		Payload: events.StateChangedPayload{
			Track:   string(domain.TrackClient),
			ToState: string(domain.ClientStateClosed),
			Comment: reason,
		},
	})
	return result, nil
}

// ManualResolveInput describes a resolution recorded by Control outside the
// regular vendor flow.
type ManualResolveInput struct {
	Description        string
	VendorExternalName *string
	AmountExclTax      *domain.Cents
	TaxRate            *domain.TaxRate
	Documents          []DocumentInput
}

// DocumentInput references an already-stored file.
type DocumentInput struct {
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
}

// ManualResolve resolves the incident from the Control desk, with or without
// an active provider case.
func (s *LifecycleService) ManualResolve(ctx context.Context, incidentID string, input ManualResolveInput, actor domain.Actor) (*TransitionResult, error) {
	if err := requireControl(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.NewValidationError("description required", nil)
	}
	if input.AmountExclTax != nil && *input.AmountExclTax <= 0 {
		return nil, apperrors.NewValidationError("amount_excl_tax must be positive", nil)
	}
	if input.TaxRate != nil && !input.TaxRate.Valid() {
		return nil, apperrors.NewValidationError("unrecognized tax rate", map[string]any{"tax_rate": *input.TaxRate})
	}

	var result *TransitionResult
	err := s.store.InTx(ctx, func(st repository.Store) error {
		incident, err := st.Incidents().LockByID(ctx, incidentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("incident", map[string]any{"incident_id": incidentID})
			}
			return apperrors.MapError(err)
		}
		if incident.ClientState.IsTerminal() {
			return apperrors.NewConflict("incident already terminal", map[string]any{
				"client_state": incident.ClientState,
			})
		}

		fromClient := incident.ClientState
		incident.ClientState = domain.ClientStateResolved
		if err := st.Incidents().Update(ctx, incident); err != nil {
			return apperrors.MapError(err)
		}

		metadata := map[string]any{"documents": len(input.Documents)}
		if input.VendorExternalName != nil {
			metadata["vendor_external_name"] = *input.VendorExternalName
		}
		if input.AmountExclTax != nil {
			metadata["amount_excl_tax"] = int64(*input.AmountExclTax)
		}

		clientEntry := &domain.AuditEntry{
			IncidentID: incident.ID,
			Track:      domain.TrackClient,
			FromState:  string(fromClient),
			ToState:    string(incident.ClientState),
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     domain.ActionTagManualResolve,
			Reason:     strings.TrimSpace(input.Description),
			Metadata:   metadata,
		}
		if err := st.Audit().Create(ctx, clientEntry); err != nil {
			return apperrors.MapError(err)
		}
		auditIDs := []string{clientEntry.ID}

		c, err := st.Cases().GetActiveByIncident(ctx, incidentID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return apperrors.MapError(err)
		}
		if c != nil && !c.State.IsTerminal() {
			fromProvider := c.State
			c.State = domain.ProviderStateResolved
			c.ReviewPending = nil
			if err := st.Cases().Update(ctx, c); err != nil {
				return apperrors.MapError(err)
			}
			providerEntry := &domain.AuditEntry{
				IncidentID: incident.ID,
				CaseID:     &c.ID,
				Track:      domain.TrackProvider,
				FromState:  string(fromProvider),
				ToState:    string(c.State),
				ActorID:    actor.ID,
				ActorRole:  actor.Role,
				Action:     domain.ActionTagManualResolve,
				Reason:     strings.TrimSpace(input.Description),
				Metadata:   map[string]any{},
			}
			if err := st.Audit().Create(ctx, providerEntry); err != nil {
				return apperrors.MapError(err)
			}
			auditIDs = append(auditIDs, providerEntry.ID)
		}

		for _, doc := range input.Documents {
			record := &domain.DocumentRef{
				IncidentID: incident.ID,
				Kind:       "manual_resolution",
				StorageKey: doc.StorageKey,
				FileName:   doc.FileName,
				MimeType:   doc.MimeType,
				SizeBytes:  doc.SizeBytes,
			}
			if err := st.Documents().Create(ctx, record); err != nil {
				return apperrors.MapError(err)
			}
		}

		note := &domain.IncidentNote{
			IncidentID: incident.ID,
			AuthorType: domain.NoteAuthorSystem,
			Scope:      domain.NoteScopeClient,
			Body:       manualResolveNote(input),
		}
		if err := st.Notes().Create(ctx, note); err != nil {
			return apperrors.MapError(err)
		}

		result = &TransitionResult{
			Incident:      incident,
			Case:          c,
			NewState:      string(incident.ClientState),
			AuditEntryIDs: auditIDs,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishStateChange(ctx, events.EventCaseResolved, result, actor, input.Description)
	return result, nil
}

// AnnulIncident cancels the incident on the client track; an active,
// non-terminal provider case is annulled along with it.
func (s *LifecycleService) AnnulIncident(ctx context.Context, incidentID, reason string, actor domain.Actor) (*TransitionResult, error) {
	if err := requireControl(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.NewValidationError("reason required", nil)
	}

	var result *TransitionResult
	err := s.store.InTx(ctx, func(st repository.Store) error {
		incident, err := st.Incidents().LockByID(ctx, incidentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("incident", map[string]any{"incident_id": incidentID})
			}
			return apperrors.MapError(err)
		}
		if incident.ClientState.IsTerminal() {
			return apperrors.NewConflict("incident already terminal", map[string]any{
				"client_state": incident.ClientState,
			})
		}

		fromClient := incident.ClientState
		incident.ClientState = domain.ClientStateAnnulled
		if err := st.Incidents().Update(ctx, incident); err != nil {
			return apperrors.MapError(err)
		}

		clientEntry := &domain.AuditEntry{
			IncidentID: incident.ID,
			Track:      domain.TrackClient,
			FromState:  string(fromClient),
			ToState:    string(incident.ClientState),
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     domain.ActionTagAnnulment,
			Reason:     strings.TrimSpace(reason),
			Metadata:   map[string]any{},
		}
		if err := st.Audit().Create(ctx, clientEntry); err != nil {
			return apperrors.MapError(err)
		}
		auditIDs := []string{clientEntry.ID}

		c, err := st.Cases().GetActiveByIncident(ctx, incidentID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return apperrors.MapError(err)
		}
		if c != nil && !c.State.IsTerminal() {
			if _, err := st.Visits().CancelScheduled(ctx, incident.ID, c.VendorID, reason); err != nil {
				return apperrors.MapError(err)
			}
			fromProvider := c.State
			c.State = domain.ProviderStateAnnulled
			c.ReviewScope = nil
			c.ReviewPending = nil
			// The incident terminates with the annulment, so the case does not
			// linger with active=true the way a plain assignment annulment does.
			releaseAnnulledCase(c, actor.ID, strings.TrimSpace(reason), time.Now())
			if err := st.Cases().Update(ctx, c); err != nil {
				return apperrors.MapError(err)
			}
			providerEntry := &domain.AuditEntry{
				IncidentID: incident.ID,
				CaseID:     &c.ID,
				Track:      domain.TrackProvider,
				FromState:  string(fromProvider),
				ToState:    string(c.State),
				ActorID:    actor.ID,
				ActorRole:  actor.Role,
				Action:     domain.ActionTagAnnulment,
				Reason:     strings.TrimSpace(reason),
				Metadata:   map[string]any{"vendor_id": c.VendorID},
			}
			if err := st.Audit().Create(ctx, providerEntry); err != nil {
				return apperrors.MapError(err)
			}
			auditIDs = append(auditIDs, providerEntry.ID)

			marker := &domain.NotificationMarker{
				VendorID:   c.VendorID,
				IncidentID: incident.ID,
				Kind:       domain.NotificationKindAnnulment,
			}
			if err := st.Notifications().Create(ctx, marker); err != nil {
				return apperrors.MapError(err)
			}
		}

		result = &TransitionResult{
			Incident:      incident,
			Case:          c,
			NewState:      string(incident.ClientState),
			AuditEntryIDs: auditIDs,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:       events.EventIncidentAnnulled,
		IncidentID: incidentID,
		Actor:      eventActor(actor),
		Payload: events.StateChangedPayload{
			Track:   string(domain.TrackClient),
			ToState: string(domain.ClientStateAnnulled),
			Comment: reason,
		},
	})
	return result, nil
}

// ScheduleVisit books a repair visit for the case's vendor.
func (s *LifecycleService) ScheduleVisit(ctx context.Context, caseID string, scheduledFor time.Time, notes string, actor domain.Actor) (*domain.Visit, error) {
	if scheduledFor.Before(time.Now()) {
		return nil, apperrors.NewValidationError("scheduled_for must be in the future", nil)
	}

	var visit *domain.Visit
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
		if !domain.ActionAllowed(c, everApproved, domain.ActionScheduleVisit) {
			return guardError(c, everApproved, "visit scheduling not allowed in current state")
		}

		visit = &domain.Visit{
			IncidentID:   c.IncidentID,
			CaseID:       c.ID,
			VendorID:     c.VendorID,
			ScheduledFor: scheduledFor,
			Notes:        strings.TrimSpace(notes),
			Status:       domain.VisitStatusScheduled,
		}
		if err := st.Visits().Create(ctx, visit); err != nil {
			return apperrors.MapError(err)
		}

		_, err = markClientInProgress(ctx, st, c.IncidentID, actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:       events.EventVisitScheduled,
		IncidentID: visit.IncidentID,
		Actor:      eventActor(actor),
		Payload: events.VisitScheduledPayload{
			VisitID:      visit.ID,
			CaseID:       visit.CaseID,
			ScheduledFor: visit.ScheduledFor,
		},
	})
	return visit, nil
}

// AvailableActions evaluates the guard table for a case.
func (s *LifecycleService) AvailableActions(ctx context.Context, caseID string) ([]domain.CaseAction, error) {
	c, err := s.store.Cases().GetByID(ctx, caseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("provider case", map[string]any{"case_id": caseID})
		}
		return nil, apperrors.MapError(err)
	}
	everApproved, err := s.store.Offers().HasApproved(ctx, caseID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return domain.AllowedActions(c, everApproved), nil
}

// IncidentDetail is the read model for one incident.
type IncidentDetail struct {
	Incident *domain.Incident
	Cases    []domain.ProviderCase
	Offers   []domain.Offer
	Audit    []domain.AuditEntry
	Notes    []domain.IncidentNote
}

// GetIncidentDetail assembles the incident view, with notes filtered by the
// caller's role.
func (s *LifecycleService) GetIncidentDetail(ctx context.Context, incidentID string, actor domain.Actor) (*IncidentDetail, error) {
	incident, err := s.store.Incidents().GetByID(ctx, incidentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("incident", map[string]any{"incident_id": incidentID})
		}
		return nil, apperrors.MapError(err)
	}

	cases, err := s.store.Cases().ListByIncident(ctx, incidentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if actor.IsVendor() {
		if !vendorHasCase(cases, actor) {
			return nil, apperrors.NewForbidden("incident not assigned to vendor")
		}
	}

	offers, err := s.store.Offers().ListByIncident(ctx, incidentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	entries, err := s.store.Audit().ListByIncident(ctx, incidentID, 200, 0)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	var scopes []domain.NoteScope
	switch actor.Role {
	case domain.RoleControl:
		scopes = nil // all
	case domain.RoleVendor:
		scopes = []domain.NoteScope{domain.NoteScopeProvider}
	default:
		scopes = []domain.NoteScope{domain.NoteScopeClient}
	}
	notes, err := s.store.Notes().ListByIncident(ctx, incidentID, scopes)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	return &IncidentDetail{
		Incident: incident,
		Cases:    cases,
		Offers:   offers,
		Audit:    entries,
		Notes:    notes,
	}, nil
}

// ListIncidents returns incidents matching the filter, scoped to the
// reporter's own incidents for reporter actors.
func (s *LifecycleService) ListIncidents(ctx context.Context, filter repository.IncidentFilter, actor domain.Actor) ([]domain.Incident, error) {
	if actor.Role == domain.RoleReporter {
		filter.ReporterID = &actor.ID
	}
	return s.store.Incidents().ListWithFilter(ctx, filter)
}

func (s *LifecycleService) publishStateChange(ctx context.Context, eventType events.EventType, result *TransitionResult, actor domain.Actor, comment string) {
	if result == nil || result.Case == nil {
		return
	}
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:       eventType,
		IncidentID: result.Case.IncidentID,
		Actor:      eventActor(actor),
		Payload: events.StateChangedPayload{
			CaseID:  &result.Case.ID,
			Track:   string(domain.TrackProvider),
			ToState: string(result.Case.State),
			Comment: comment,
		},
	})
}

func vendorHasCase(cases []domain.ProviderCase, actor domain.Actor) bool {
	if actor.VendorID == nil {
		return false
	}
	for _, c := range cases {
		if c.VendorID == *actor.VendorID {
			return true
		}
	}
	return false
}

func manualResolveNote(input ManualResolveInput) string {
	parts := []string{"Manually resolved: " + strings.TrimSpace(input.Description)}
	if input.VendorExternalName != nil {
		parts = append(parts, "vendor: "+*input.VendorExternalName)
	}
	if input.AmountExclTax != nil {
		parts = append(parts, "amount: "+formatCents(*input.AmountExclTax))
	}
	if len(input.Documents) > 0 {
		parts = append(parts, fmt.Sprintf("documents: %d", len(input.Documents)))
	}
	return strings.Join(parts, "; ")
}

func generateRequestNumber() string {
	return "INC-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
