package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/facilityops/incident-service/internal/domain"
	apperrors "github.com/facilityops/incident-service/pkg/util/errorutil"
)

func TestAssignProviderCreatesActiveCase(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)

	result, err := f.assignment.AssignProvider(context.Background(), incident.ID, AssignProviderInput{
		VendorID:     vendorID,
		Priority:     domain.ProviderPriorityHigh,
		Instructions: "call the janitor before arriving",
	}, controlActor)
	require.NoError(t, err)

	c := result.Case
	require.Equal(t, domain.ProviderStateOpen, c.State)
	require.True(t, c.Active)
	require.Equal(t, vendorID, c.VendorID)
	require.Equal(t, controlActor.ID, c.AssignedBy)

	// Handing the incident to a vendor moves the client track out of intake.
	require.Equal(t, domain.ClientStateWaiting, f.reloadIncident(t, incident.ID).ClientState)

	// Intake entry, the assignment entry and the client-track entry.
	require.Equal(t, 3, f.auditCount(t, incident.ID))
	require.Len(t, result.AuditEntryIDs, 2)

	markers, err := f.store.Notifications().ListUnseenByVendor(context.Background(), vendorID)
	require.NoError(t, err)
	require.Len(t, markers, 1)
	require.Equal(t, domain.NotificationKindAssignment, markers[0].Kind)
}

func TestAssignProviderRequiresControl(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)

	_, err := f.assignment.AssignProvider(context.Background(), incident.ID, AssignProviderInput{
		VendorID: vendorID,
	}, vendorActor(vendorID))
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestAssignProviderUnknownVendor(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)

	_, err := f.assignment.AssignProvider(context.Background(), incident.ID, AssignProviderInput{
		VendorID: "6f000000-0000-0000-0000-00000000dead",
	}, controlActor)
	require.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestAssignProviderConflictsOnExistingActiveCase(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	f.assign(t, incident.ID, vendorID)

	_, err := f.assignment.AssignProvider(context.Background(), incident.ID, AssignProviderInput{
		VendorID: vendor2ID,
	}, controlActor)
	require.True(t, apperrors.IsCode(err, "CONFLICT"))

	count, err := f.store.Cases().CountActive(context.Background(), incident.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestReassignDeactivatesPreviousCase(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	first := f.assign(t, incident.ID, vendorID)

	result, err := f.assignment.Reassign(context.Background(), incident.ID, vendor2ID, domain.ProviderPriorityMedium, "vendor unresponsive", controlActor)
	require.NoError(t, err)
	require.Equal(t, vendor2ID, result.Case.VendorID)
	require.True(t, result.Case.Active)

	old := f.reloadCase(t, first.ID)
	require.False(t, old.Active)
	require.NotNil(t, old.Deactivation)
	require.Equal(t, "vendor unresponsive", *old.Deactivation)

	count, err := f.store.Cases().CountActive(context.Background(), incident.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestReassignRequiresReason(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	f.assign(t, incident.ID, vendorID)

	_, err := f.assignment.AssignProvider(context.Background(), incident.ID, AssignProviderInput{
		VendorID: vendor2ID,
		Reassign: true,
	}, controlActor)
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestAnnulAssignmentKeepsCaseActive(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	c := f.assign(t, incident.ID, vendorID)

	_, err := f.lifecycle.ScheduleVisit(context.Background(), c.ID, time.Now().Add(24*time.Hour), "morning slot", vendorActor(vendorID))
	require.NoError(t, err)

	result, err := f.assignment.AnnulAssignment(context.Background(), c.ID, "duplicate report", controlActor)
	require.NoError(t, err)
	require.Equal(t, domain.ProviderStateAnnulled, result.Case.State)
	// Annulled cases stay active so "annulled vendor" and "no vendor" remain
	// distinguishable until a reassignment or close.
	require.True(t, result.Case.Active)
	require.Nil(t, result.Case.ReviewScope)

	visits, err := f.store.Visits().ListByCase(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, visits, 1)
	require.Equal(t, domain.VisitStatusCancelled, visits[0].Status)

	notes, err := f.store.Notes().ListByIncident(context.Background(), incident.ID, nil)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Contains(t, notes[0].Body, "duplicate report")
}

func TestAnnulAssignmentRequiresReason(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	c := f.assign(t, incident.ID, vendorID)

	_, err := f.assignment.AnnulAssignment(context.Background(), c.ID, "  ", controlActor)
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestAnnulAssignmentTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	c := f.assign(t, incident.ID, vendorID)

	_, err := f.assignment.AnnulAssignment(context.Background(), c.ID, "duplicate report", controlActor)
	require.NoError(t, err)

	_, err = f.assignment.AnnulAssignment(context.Background(), c.ID, "again", controlActor)
	require.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestReassignAfterAnnulmentReleasesAnnulledCase(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	c := f.assign(t, incident.ID, vendorID)

	_, err := f.assignment.AnnulAssignment(context.Background(), c.ID, "duplicate report", controlActor)
	require.NoError(t, err)

	result, err := f.assignment.Reassign(context.Background(), incident.ID, vendor2ID, domain.ProviderPriorityMedium, "fresh start", controlActor)
	require.NoError(t, err)
	require.Equal(t, vendor2ID, result.Case.VendorID)

	old := f.reloadCase(t, c.ID)
	require.False(t, old.Active)
	require.Equal(t, domain.ProviderStateAnnulled, old.State)
}

func TestDuplicateActiveCaseSurfacesUniqueViolation(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	f.assign(t, incident.ID, vendorID)

	err := f.store.Cases().Create(context.Background(), &domain.ProviderCase{
		IncidentID: incident.ID,
		VendorID:   vendor2ID,
		State:      domain.ProviderStateOpen,
		Active:     true,
		AssignedBy: controlActor.ID,
	})
	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	require.Equal(t, "23505", pgErr.Code)
}

func TestAssignProviderOnTerminalIncidentConflicts(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)

	_, err := f.lifecycle.AnnulIncident(context.Background(), incident.ID, "reported by mistake", controlActor)
	require.NoError(t, err)

	_, err = f.assignment.AssignProvider(context.Background(), incident.ID, AssignProviderInput{
		VendorID: vendorID,
	}, controlActor)
	require.True(t, apperrors.IsCode(err, "CONFLICT"))
}
