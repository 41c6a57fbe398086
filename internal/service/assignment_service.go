package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/facilityops/incident-service/internal/domain"
	"github.com/facilityops/incident-service/internal/events"
	"github.com/facilityops/incident-service/internal/repository"
	apperrors "github.com/facilityops/incident-service/pkg/util/errorutil"
)

// pgerrUniqueViolation is the postgres error code for unique index conflicts.
const pgerrUniqueViolation = "23505"

// AssignmentService owns the provider-case ledger: assignment, reassignment
// and annulment. Every mutation runs in one unit of work with the incident
// row locked, so concurrent calls on the same incident serialize and the
// at-most-one-active-case invariant holds.
type AssignmentService struct {
	store      repository.Store
	dispatcher events.Dispatcher
}

// NewAssignmentService creates the service.
func NewAssignmentService(store repository.Store, dispatcher events.Dispatcher) *AssignmentService {
	return &AssignmentService{store: store, dispatcher: dispatcher}
}

// AssignProviderInput describes an assignment request.
type AssignProviderInput struct {
	VendorID     string
	Priority     domain.ProviderPriority
	Instructions string
	// Reassign authorizes deactivating the current active case first.
	Reassign bool
	// Reason is mandatory when Reassign is set; it is stamped on the
	// deactivated case.
	Reason string
}

// AssignProvider creates a new active provider case for the incident. With
// Reassign set, the current active case is deactivated in the same unit of
// work; otherwise an existing active case is a conflict.
func (s *AssignmentService) AssignProvider(ctx context.Context, incidentID string, input AssignProviderInput, actor domain.Actor) (*TransitionResult, error) {
	if err := requireControl(actor); err != nil {
		return nil, err
	}
	if input.VendorID == "" {
		return nil, apperrors.NewValidationError("vendor_id required", nil)
	}
	if input.Reassign && strings.TrimSpace(input.Reason) == "" {
		return nil, apperrors.NewValidationError("reason required for reassignment", nil)
	}
	if input.Priority == "" {
		input.Priority = domain.ProviderPriorityMedium
	}

	vendor, err := s.store.Vendors().GetByID(ctx, input.VendorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("vendor", map[string]any{"vendor_id": input.VendorID})
		}
		return nil, apperrors.MapError(err)
	}
	if !vendor.IsActive {
		return nil, apperrors.NewConflict("vendor inactive", map[string]any{"vendor_id": vendor.ID})
	}

	var result *TransitionResult
	var previous *domain.ProviderCase

	err = s.store.InTx(ctx, func(st repository.Store) error {
		incident, err := st.Incidents().LockByID(ctx, incidentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("incident", map[string]any{"incident_id": incidentID})
			}
			return apperrors.MapError(err)
		}
		if incident.ClientState.IsTerminal() {
			return apperrors.NewConflict("incident is terminal", map[string]any{
				"client_state": incident.ClientState,
			})
		}

		existing, err := st.Cases().GetActiveByIncident(ctx, incidentID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return apperrors.MapError(err)
		}
		if existing != nil {
			if !input.Reassign {
				return apperrors.NewConflict("an active provider case already exists", map[string]any{
					"case_id":   existing.ID,
					"vendor_id": existing.VendorID,
				})
			}
			previous = existing
			deactivated, err := st.Cases().DeactivateActive(ctx, incidentID, actor.ID, input.Reason)
			if err != nil {
				return apperrors.MapError(err)
			}
			if deactivated == 0 {
				return apperrors.NewConflict("active case disappeared during reassignment", nil)
			}
		}

		newCase := &domain.ProviderCase{
			IncidentID:   incidentID,
			VendorID:     input.VendorID,
			State:        domain.ProviderStateOpen,
			Priority:     input.Priority,
			Instructions: strings.TrimSpace(input.Instructions),
			Active:       true,
			AssignedBy:   actor.ID,
		}
		// The partial unique index on (incident_id) WHERE active backstops
		// this insert against a concurrent assignment that slipped past the
		// row lock.
		if err := st.Cases().Create(ctx, newCase); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrUniqueViolation {
				return apperrors.NewConflict("concurrent assignment detected", map[string]any{
					"incident_id": incidentID,
				})
			}
			return apperrors.MapError(err)
		}

		action := domain.ActionTagAssignment
		reason := "assignment"
		metadata := map[string]any{
			"vendor_id": newCase.VendorID,
			"case_id":   newCase.ID,
		}
		if previous != nil {
			action = domain.ActionTagReassignment
			reason = input.Reason
			metadata["previous_case_id"] = previous.ID
			metadata["previous_vendor_id"] = previous.VendorID
		}
		entry := &domain.AuditEntry{
			IncidentID: incidentID,
			CaseID:     &newCase.ID,
			Track:      domain.TrackProvider,
			FromState:  "",
			ToState:    string(newCase.State),
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     action,
			Reason:     reason,
			Metadata:   metadata,
		}
		if err := st.Audit().Create(ctx, entry); err != nil {
			return apperrors.MapError(err)
		}
		auditIDs := []string{entry.ID}

		// A fresh incident leaves intake once a vendor holds it.
		if incident.ClientState == domain.ClientStateOpen {
			fromClient := incident.ClientState
			incident.ClientState = domain.ClientStateWaiting
			if err := st.Incidents().Update(ctx, incident); err != nil {
				return apperrors.MapError(err)
			}
			clientEntry := &domain.AuditEntry{
				IncidentID: incidentID,
				Track:      domain.TrackClient,
				FromState:  string(fromClient),
				ToState:    string(incident.ClientState),
				ActorID:    actor.ID,
				ActorRole:  actor.Role,
				Action:     action,
				Reason:     reason,
				Metadata:   map[string]any{"case_id": newCase.ID},
			}
			if err := st.Audit().Create(ctx, clientEntry); err != nil {
				return apperrors.MapError(err)
			}
			auditIDs = append(auditIDs, clientEntry.ID)
		}

		marker := &domain.NotificationMarker{
			VendorID:   newCase.VendorID,
			IncidentID: incidentID,
			Kind:       domain.NotificationKindAssignment,
		}
		if err := st.Notifications().Create(ctx, marker); err != nil {
			return apperrors.MapError(err)
		}

		result = &TransitionResult{
			Incident:      incident,
			Case:          newCase,
			NewState:      string(newCase.State),
			AuditEntryIDs: auditIDs,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	eventType := events.EventProviderAssigned
	if previous != nil {
		eventType = events.EventProviderReassigned
	}
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:       eventType,
		IncidentID: incidentID,
		Actor:      eventActor(actor),
		Payload: events.ProviderAssignedPayload{
			CaseID:   result.Case.ID,
			VendorID: result.Case.VendorID,
			Priority: result.Case.Priority,
			Reassign: previous != nil,
		},
	})
	return result, nil
}

// Reassign replaces the active vendor with a new one.
func (s *AssignmentService) Reassign(ctx context.Context, incidentID, newVendorID string, priority domain.ProviderPriority, reason string, actor domain.Actor) (*TransitionResult, error) {
	return s.AssignProvider(ctx, incidentID, AssignProviderInput{
		VendorID: newVendorID,
		Priority: priority,
		Reassign: true,
		Reason:   reason,
	}, actor)
}

// AnnulAssignment cancels the vendor's assignment without closing the
// incident. The case keeps active=true so downstream consumers can tell an
// annulled vendor apart from no vendor at all; a later reassignment or close
// releases it.
func (s *AssignmentService) AnnulAssignment(ctx context.Context, caseID, reason string, actor domain.Actor) (*TransitionResult, error) {
	if err := requireControl(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.NewValidationError("reason required", nil)
	}

	var result *TransitionResult
	var cancelledVisits int64

	err := s.store.InTx(ctx, func(st repository.Store) error {
		c, err := st.Cases().GetByID(ctx, caseID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("provider case", map[string]any{"case_id": caseID})
			}
			return apperrors.MapError(err)
		}
		if _, err := st.Incidents().LockByID(ctx, c.IncidentID); err != nil {
			return apperrors.MapError(err)
		}
		// Re-read under the lock; another transition may have raced.
		c, err = st.Cases().GetByID(ctx, caseID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if !c.Active {
			return apperrors.NewConflict("case is no longer active", map[string]any{"case_id": caseID})
		}
		if c.State.IsTerminal() {
			return apperrors.NewConflict("case is terminal", map[string]any{
				"case_id":        caseID,
				"provider_state": c.State,
			})
		}

		cancelledVisits, err = st.Visits().CancelScheduled(ctx, c.IncidentID, c.VendorID, reason)
		if err != nil {
			return apperrors.MapError(err)
		}

		from := c.State
		c.State = domain.ProviderStateAnnulled
		c.ReviewScope = nil
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
			Action:     domain.ActionTagAnnulment,
			Reason:     reason,
			Metadata: map[string]any{
				"vendor_id":        c.VendorID,
				"cancelled_visits": cancelledVisits,
			},
		}
		if err := st.Audit().Create(ctx, entry); err != nil {
			return apperrors.MapError(err)
		}

		marker := &domain.NotificationMarker{
			VendorID:   c.VendorID,
			IncidentID: c.IncidentID,
			Kind:       domain.NotificationKindAnnulment,
		}
		if err := st.Notifications().Create(ctx, marker); err != nil {
			return apperrors.MapError(err)
		}

		note := &domain.IncidentNote{
			IncidentID: c.IncidentID,
			AuthorType: domain.NoteAuthorSystem,
			Scope:      domain.NoteScopeProvider,
			Body:       "Assignment annulled: " + reason,
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
		Type:       events.EventAssignmentAnnulled,
		IncidentID: result.Case.IncidentID,
		Actor:      eventActor(actor),
		Payload: events.AssignmentAnnulledPayload{
			CaseID:          result.Case.ID,
			VendorID:        result.Case.VendorID,
			Reason:          reason,
			CancelledVisits: cancelledVisits,
		},
	})
	return result, nil
}
