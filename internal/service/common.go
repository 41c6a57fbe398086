package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/facilityops/incident-service/internal/domain"
	"github.com/facilityops/incident-service/internal/events"
	"github.com/facilityops/incident-service/internal/repository"
	apperrors "github.com/facilityops/incident-service/pkg/util/errorutil"
)

// TransitionResult is returned by every accepted lifecycle operation.
type TransitionResult struct {
	Incident      *domain.Incident
	Case          *domain.ProviderCase
	NewState      string
	AuditEntryIDs []string
}

func legalActionSet(c *domain.ProviderCase, everApproved bool) []string {
	allowed := domain.AllowedActions(c, everApproved)
	result := make([]string, 0, len(allowed))
	for _, action := range allowed {
		result = append(result, string(action))
	}
	return result
}

// guardError rejects an operation the guard table forbids, carrying the
// currently legal action set so the caller can re-render its options.
func guardError(c *domain.ProviderCase, everApproved bool, message string) error {
	return apperrors.NewInvalidTransition(message, legalActionSet(c, everApproved), map[string]any{
		"case_id":        c.ID,
		"provider_state": c.State,
	})
}

func requireControl(actor domain.Actor) error {
	if actor.Role != domain.RoleControl {
		return apperrors.NewForbidden("control role required")
	}
	return nil
}

// requireCaseVendor ensures a vendor actor operates only on its own case.
func requireCaseVendor(actor domain.Actor, c *domain.ProviderCase) error {
	if !actor.IsVendor() {
		return apperrors.NewForbidden("vendor role required")
	}
	if actor.VendorID == nil || *actor.VendorID != c.VendorID {
		return apperrors.NewForbidden("case belongs to another vendor")
	}
	return nil
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}

func eventActor(actor domain.Actor) events.Actor {
	return events.Actor{
		ID:       actor.ID,
		Role:     actor.Role,
		VendorID: actor.VendorID,
	}
}

func closeMonthLabel(t time.Time) string {
	return t.Format("2006-01")
}

// releaseAnnulledCase stamps the deactivation fields on an annulled case once
// the incident terminates. The caller persists the case.
func releaseAnnulledCase(c *domain.ProviderCase, byAccountID, reason string, at time.Time) {
	c.Active = false
	c.DeactivatedAt = &at
	c.DeactivatedBy = &byAccountID
	c.Deactivation = &reason
}

// markClientInProgress advances the client track from WAITING to IN_PROGRESS
// on the first provider activity. Call under the incident lock; returns the
// audit entry when a transition happened, nil otherwise.
func markClientInProgress(ctx context.Context, st repository.Store, incidentID string, actor domain.Actor) (*domain.AuditEntry, error) {
	incident, err := st.Incidents().GetByID(ctx, incidentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if incident.ClientState != domain.ClientStateWaiting {
		return nil, nil
	}
	from := incident.ClientState
	incident.ClientState = domain.ClientStateInProgress
	if err := st.Incidents().Update(ctx, incident); err != nil {
		return nil, apperrors.MapError(err)
	}
	entry := &domain.AuditEntry{
		IncidentID: incidentID,
		Track:      domain.TrackClient,
		FromState:  string(from),
		ToState:    string(incident.ClientState),
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     domain.ActionTagWorkStart,
		Reason:     "provider work started",
		Metadata:   map[string]any{},
	}
	if err := st.Audit().Create(ctx, entry); err != nil {
		return nil, apperrors.MapError(err)
	}
	return entry, nil
}
