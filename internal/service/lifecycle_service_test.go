package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/facilityops/incident-service/internal/domain"
	"github.com/facilityops/incident-service/internal/repository"
	apperrors "github.com/facilityops/incident-service/pkg/util/errorutil"
)

func TestCreateIncident(t *testing.T) {
	f := newFixture(t)

	incident := f.createIncident(t)
	require.Equal(t, domain.ClientStateOpen, incident.ClientState)
	require.True(t, strings.HasPrefix(incident.RequestNumber, "INC-"))
	require.Equal(t, reporterActor.ID, incident.ReporterID)
	require.Equal(t, 1, f.auditCount(t, incident.ID))
}

func TestCreateIncidentUnknownCenter(t *testing.T) {
	f := newFixture(t)

	_, err := f.lifecycle.CreateIncident(context.Background(), IncidentCreateInput{
		CenterID:    "6f000000-0000-0000-0000-00000000dead",
		Description: "leaky faucet",
	}, reporterActor)
	require.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestResolveThenAcceptResolution(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	c := f.assign(t, incident.ID, vendorID)

	result, err := f.lifecycle.Resolve(context.Background(), c.ID, "compressor replaced", vendorActor(vendorID))
	require.NoError(t, err)
	require.Equal(t, domain.ProviderStateResolved, result.Case.State)

	result, err = f.lifecycle.AcceptResolution(context.Background(), c.ID, controlActor)
	require.NoError(t, err)
	require.Equal(t, domain.ProviderStatePendingValuation, result.Case.State)
}

func TestResolveByOtherVendorForbidden(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	c := f.assign(t, incident.ID, vendorID)

	_, err := f.lifecycle.Resolve(context.Background(), c.ID, "", vendorActor(vendor2ID))
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestResolveWhileOfferedRejected(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	c := f.assign(t, incident.ID, vendorID)
	f.submitOffer(t, c.ID, 10000)

	_, err := f.lifecycle.Resolve(context.Background(), c.ID, "", vendorActor(vendorID))
	require.True(t, apperrors.IsCode(err, "INVALID_TRANSITION"))
}

func TestValueWithoutApprovedOffer(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	c := f.assign(t, incident.ID, vendorID)

	_, err := f.lifecycle.Resolve(context.Background(), c.ID, "done", vendorActor(vendorID))
	require.NoError(t, err)

	result, err := f.lifecycle.Value(context.Background(), c.ID, ValuationInput{
		AmountExclTax: 5000,
		TaxRate:       domain.TaxRateReduced10,
		Notes:         "parts and labor",
	}, vendorActor(vendorID))
	require.NoError(t, err)
	require.Equal(t, domain.ProviderStateValued, result.Case.State)

	valuation, err := f.store.Offers().GetValuationByCase(context.Background(), c.ID)
	require.NoError(t, err)
	require.Equal(t, domain.Cents(5500), valuation.AmountInclTax)
}

func TestValueMatchingApprovedOfferNeedsNoDocument(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	c := f.assign(t, incident.ID, vendorID)
	offer := f.submitOffer(t, c.ID, 10000)

	_, err := f.offers.ApproveOffer(context.Background(), offer.ID, controlActor)
	require.NoError(t, err)
	_, err = f.lifecycle.Resolve(context.Background(), c.ID, "done", vendorActor(vendorID))
	require.NoError(t, err)

	result, err := f.lifecycle.Value(context.Background(), c.ID, ValuationInput{
		AmountExclTax: 10000,
		TaxRate:       domain.TaxRateStandard21,
	}, vendorActor(vendorID))
	require.NoError(t, err)
	require.Equal(t, domain.ProviderStateValued, result.Case.State)
}

func TestValueDivergingFromApprovedOfferRequiresDocument(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	c := f.assign(t, incident.ID, vendorID)
	offer := f.submitOffer(t, c.ID, 10000)

	_, err := f.offers.ApproveOffer(context.Background(), offer.ID, controlActor)
	require.NoError(t, err)
	_, err = f.lifecycle.Resolve(context.Background(), c.ID, "done", vendorActor(vendorID))
	require.NoError(t, err)

	_, err = f.lifecycle.Value(context.Background(), c.ID, ValuationInput{
		AmountExclTax: 12000,
		TaxRate:       domain.TaxRateStandard21,
	}, vendorActor(vendorID))
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	docKey := "s3://bucket/justification.pdf"
	result, err := f.lifecycle.Value(context.Background(), c.ID, ValuationInput{
		AmountExclTax: 12000,
		TaxRate:       domain.TaxRateStandard21,
		DocumentKey:   &docKey,
	}, vendorActor(vendorID))
	require.NoError(t, err)
	require.Equal(t, domain.ProviderStateValued, result.Case.State)
}

func TestSendToReviewTechnical(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	c := f.assign(t, incident.ID, vendorID)

	_, err := f.lifecycle.Resolve(context.Background(), c.ID, "done", vendorActor(vendorID))
	require.NoError(t, err)

	result, err := f.lifecycle.SendToReview(context.Background(), c.ID, domain.ReviewScopeTechnical, "leak persists", controlActor)
	require.NoError(t, err)
	require.Equal(t, domain.ProviderStateReviewResolution, result.Case.State)
	require.Equal(t, domain.ReviewScopeTechnical, *result.Case.ReviewPending)

	// Redoing the technical half completes the review.
	result, err = f.lifecycle.Resolve(context.Background(), c.ID, "resealed", vendorActor(vendorID))
	require.NoError(t, err)
	require.Equal(t, domain.ProviderStateResolved, result.Case.State)
	require.Nil(t, result.Case.ReviewPending)
}

func TestSendToReviewBothNarrowsToEconomic(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	c := f.assign(t, incident.ID, vendorID)

	_, err := f.lifecycle.Resolve(context.Background(), c.ID, "done", vendorActor(vendorID))
	require.NoError(t, err)

	_, err = f.lifecycle.SendToReview(context.Background(), c.ID, domain.ReviewScopeBoth, "redo everything", controlActor)
	require.NoError(t, err)

	// Resolving clears only the technical half.
	result, err := f.lifecycle.Resolve(context.Background(), c.ID, "fixed again", vendorActor(vendorID))
	require.NoError(t, err)
	require.Equal(t, domain.ProviderStateReviewResolution, result.Case.State)
	require.Equal(t, domain.ReviewScopeEconomic, *result.Case.ReviewPending)
	require.Equal(t, domain.ReviewScopeBoth, *result.Case.ReviewScope)

	// The economic half completes via valuation.
	result, err = f.lifecycle.Value(context.Background(), c.ID, ValuationInput{
		AmountExclTax: 7000,
		TaxRate:       domain.TaxRateStandard21,
	}, vendorActor(vendorID))
	require.NoError(t, err)
	require.Equal(t, domain.ProviderStateValued, result.Case.State)
	require.Nil(t, result.Case.ReviewPending)
}

func TestSendToReviewEconomicAllowsOnlyValuation(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	c := f.assign(t, incident.ID, vendorID)

	_, err := f.lifecycle.Resolve(context.Background(), c.ID, "done", vendorActor(vendorID))
	require.NoError(t, err)
	_, err = f.lifecycle.SendToReview(context.Background(), c.ID, domain.ReviewScopeEconomic, "price unclear", controlActor)
	require.NoError(t, err)

	_, err = f.lifecycle.Resolve(context.Background(), c.ID, "again", vendorActor(vendorID))
	require.True(t, apperrors.IsCode(err, "INVALID_TRANSITION"))

	result, err := f.lifecycle.Value(context.Background(), c.ID, ValuationInput{
		AmountExclTax: 3000,
		TaxRate:       domain.TaxRateReduced4,
	}, vendorActor(vendorID))
	require.NoError(t, err)
	require.Equal(t, domain.ProviderStateValued, result.Case.State)
}

func TestSendToReviewInvalidScope(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	c := f.assign(t, incident.ID, vendorID)

	_, err := f.lifecycle.SendToReview(context.Background(), c.ID, domain.ReviewScope("PARTIAL"), "reason", controlActor)
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestCloseStampsCloseMonth(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	c := f.assign(t, incident.ID, vendorID)

	_, err := f.lifecycle.Resolve(context.Background(), c.ID, "done", vendorActor(vendorID))
	require.NoError(t, err)

	before := f.auditCount(t, incident.ID)
	result, err := f.lifecycle.Close(context.Background(), incident.ID, "work verified", controlActor)
	require.NoError(t, err)
	require.Equal(t, domain.ClientStateClosed, result.Incident.ClientState)
	require.NotNil(t, result.Incident.ClosedAt)
	require.Len(t, result.AuditEntryIDs, 2)
	require.Equal(t, before+2, f.auditCount(t, incident.ID))

	closed := f.reloadCase(t, c.ID)
	require.Equal(t, domain.ProviderStateClosed, closed.State)
	require.NotNil(t, closed.CloseMonth)
	require.Equal(t, time.Now().Format("2006-01"), *closed.CloseMonth)
}

func TestCloseReleasesAnnulledCase(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	c := f.assign(t, incident.ID, vendorID)

	_, err := f.assignment.AnnulAssignment(context.Background(), c.ID, "duplicate", controlActor)
	require.NoError(t, err)

	// Only the client-track close entry; the annulled case is not re-closed.
	result, err := f.lifecycle.Close(context.Background(), incident.ID, "closing out", controlActor)
	require.NoError(t, err)
	require.Len(t, result.AuditEntryIDs, 1)

	annulled := f.reloadCase(t, c.ID)
	require.Equal(t, domain.ProviderStateAnnulled, annulled.State)
	require.Nil(t, annulled.CloseMonth)
	// Closing the incident releases the active flag the annulment left behind.
	require.False(t, annulled.Active)
	require.NotNil(t, annulled.DeactivatedAt)
	require.NotNil(t, annulled.Deactivation)
	require.Equal(t, "incident closed", *annulled.Deactivation)
}

func TestCloseTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)

	_, err := f.lifecycle.Close(context.Background(), incident.ID, "first", controlActor)
	require.NoError(t, err)

	_, err = f.lifecycle.Close(context.Background(), incident.ID, "second", controlActor)
	require.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestManualResolve(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	f.assign(t, incident.ID, vendorID)

	externalVendor := "Out-of-network plumber"
	amount := domain.Cents(4500)
	rate := domain.TaxRateReduced10
	result, err := f.lifecycle.ManualResolve(context.Background(), incident.ID, ManualResolveInput{
		Description:        "fixed by building staff",
		VendorExternalName: &externalVendor,
		AmountExclTax:      &amount,
		TaxRate:            &rate,
		Documents: []DocumentInput{
			{StorageKey: "s3://bucket/invoice.pdf", FileName: "invoice.pdf", MimeType: "application/pdf", SizeBytes: 1024},
		},
	}, controlActor)
	require.NoError(t, err)
	require.Equal(t, domain.ClientStateResolved, result.Incident.ClientState)
	require.Equal(t, domain.ProviderStateResolved, result.Case.State)
	require.Len(t, result.AuditEntryIDs, 2)

	docs, err := f.store.Documents().ListByIncident(context.Background(), incident.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	notes, err := f.store.Notes().ListByIncident(context.Background(), incident.ID, nil)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Contains(t, notes[0].Body, "fixed by building staff")
	require.Contains(t, notes[0].Body, externalVendor)
}

func TestAnnulIncidentCancelsActiveCase(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	c := f.assign(t, incident.ID, vendorID)

	_, err := f.lifecycle.ScheduleVisit(context.Background(), c.ID, time.Now().Add(time.Hour), "", vendorActor(vendorID))
	require.NoError(t, err)

	result, err := f.lifecycle.AnnulIncident(context.Background(), incident.ID, "duplicate of another report", controlActor)
	require.NoError(t, err)
	require.Equal(t, domain.ClientStateAnnulled, result.Incident.ClientState)
	require.Equal(t, domain.ProviderStateAnnulled, result.Case.State)
	require.False(t, result.Case.Active)
	require.NotNil(t, result.Case.DeactivatedAt)
	require.Len(t, result.AuditEntryIDs, 2)

	visits, err := f.store.Visits().ListByCase(context.Background(), c.ID)
	require.NoError(t, err)
	require.Equal(t, domain.VisitStatusCancelled, visits[0].Status)

	markers, err := f.store.Notifications().ListUnseenByVendor(context.Background(), vendorID)
	require.NoError(t, err)
	kinds := make([]domain.NotificationKind, 0, len(markers))
	for _, m := range markers {
		kinds = append(kinds, m.Kind)
	}
	require.Contains(t, kinds, domain.NotificationKindAnnulment)
}

func TestClientTrackFollowsProviderActivity(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	require.Equal(t, domain.ClientStateOpen, incident.ClientState)

	c := f.assign(t, incident.ID, vendorID)
	require.Equal(t, domain.ClientStateWaiting, f.reloadIncident(t, incident.ID).ClientState)

	_, err := f.lifecycle.ScheduleVisit(context.Background(), c.ID, time.Now().Add(time.Hour), "", vendorActor(vendorID))
	require.NoError(t, err)
	require.Equal(t, domain.ClientStateInProgress, f.reloadIncident(t, incident.ID).ClientState)

	// Intake, assignment (both tracks) and the work-start entry.
	after := f.auditCount(t, incident.ID)
	require.Equal(t, 4, after)

	// Further vendor activity does not write a second work-start entry.
	f.submitOffer(t, c.ID, 10000)
	require.Equal(t, domain.ClientStateInProgress, f.reloadIncident(t, incident.ID).ClientState)
	require.Equal(t, after+1, f.auditCount(t, incident.ID))
}

func TestManualResolveRejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)

	amount := domain.Cents(-4500)
	_, err := f.lifecycle.ManualResolve(context.Background(), incident.ID, ManualResolveInput{
		Description:   "fixed by building staff",
		AmountExclTax: &amount,
	}, controlActor)
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestScheduleVisitGuard(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	c := f.assign(t, incident.ID, vendorID)
	f.submitOffer(t, c.ID, 10000)

	_, err := f.lifecycle.ScheduleVisit(context.Background(), c.ID, time.Now().Add(time.Hour), "", vendorActor(vendorID))
	require.True(t, apperrors.IsCode(err, "INVALID_TRANSITION"))
}

func TestScheduleVisitRejectsPastDate(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	c := f.assign(t, incident.ID, vendorID)

	_, err := f.lifecycle.ScheduleVisit(context.Background(), c.ID, time.Now().Add(-time.Hour), "", vendorActor(vendorID))
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestAvailableActions(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	c := f.assign(t, incident.ID, vendorID)

	actions, err := f.lifecycle.AvailableActions(context.Background(), c.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []domain.CaseAction{domain.ActionScheduleVisit, domain.ActionSubmitOffer, domain.ActionResolve}, actions)

	offer := f.submitOffer(t, c.ID, 10000)
	actions, err = f.lifecycle.AvailableActions(context.Background(), c.ID)
	require.NoError(t, err)
	require.Empty(t, actions)

	_, err = f.offers.ApproveOffer(context.Background(), offer.ID, controlActor)
	require.NoError(t, err)
	actions, err = f.lifecycle.AvailableActions(context.Background(), c.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []domain.CaseAction{domain.ActionScheduleVisit, domain.ActionResolve}, actions)
}

func TestGetIncidentDetailVendorScoping(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	f.assign(t, incident.ID, vendorID)

	detail, err := f.lifecycle.GetIncidentDetail(context.Background(), incident.ID, vendorActor(vendorID))
	require.NoError(t, err)
	require.Len(t, detail.Cases, 1)

	_, err = f.lifecycle.GetIncidentDetail(context.Background(), incident.ID, vendorActor(vendor2ID))
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestListIncidentsScopesReporter(t *testing.T) {
	f := newFixture(t)
	mine := f.createIncident(t)

	other := domain.Actor{ID: "acc-other-reporter", Role: domain.RoleReporter}
	_, err := f.lifecycle.CreateIncident(context.Background(), IncidentCreateInput{
		CenterID:    centerID,
		Description: "flickering lights in lobby",
	}, other)
	require.NoError(t, err)

	listed, err := f.lifecycle.ListIncidents(context.Background(), repository.IncidentFilter{}, reporterActor)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, mine.ID, listed[0].ID)

	all, err := f.lifecycle.ListIncidents(context.Background(), repository.IncidentFilter{}, controlActor)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestListIncidentsFilters(t *testing.T) {
	f := newFixture(t)

	seed := []struct {
		description string
		priority    domain.ClientPriority
	}{
		{"water leak in the basement", domain.ClientPriorityHigh},
		{"flickering lights in lobby", domain.ClientPriorityLow},
		{"elevator stuck between floors", domain.ClientPriorityHigh},
	}
	for _, s := range seed {
		_, err := f.lifecycle.CreateIncident(context.Background(), IncidentCreateInput{
			CenterID:    centerID,
			Description: s.description,
			Priority:    s.priority,
		}, reporterActor)
		require.NoError(t, err)
	}

	high, err := f.lifecycle.ListIncidents(context.Background(), repository.IncidentFilter{
		Priorities: []domain.ClientPriority{domain.ClientPriorityHigh},
	}, controlActor)
	require.NoError(t, err)
	require.Len(t, high, 2)

	term := "LEAK"
	matched, err := f.lifecycle.ListIncidents(context.Background(), repository.IncidentFilter{
		SearchTerm: &term,
	}, controlActor)
	require.NoError(t, err)
	require.Len(t, matched, 1)
	require.Contains(t, matched[0].Description, "leak")

	page, err := f.lifecycle.ListIncidents(context.Background(), repository.IncidentFilter{Limit: 2}, controlActor)
	require.NoError(t, err)
	require.Len(t, page, 2)

	rest, err := f.lifecycle.ListIncidents(context.Background(), repository.IncidentFilter{Limit: 2, Offset: 2}, controlActor)
	require.NoError(t, err)
	require.Len(t, rest, 1)

	none, err := f.lifecycle.ListIncidents(context.Background(), repository.IncidentFilter{Offset: 10}, controlActor)
	require.NoError(t, err)
	require.Empty(t, none)

	future := time.Now().Add(time.Hour)
	upcoming, err := f.lifecycle.ListIncidents(context.Background(), repository.IncidentFilter{
		CreatedFrom: &future,
	}, controlActor)
	require.NoError(t, err)
	require.Empty(t, upcoming)
}
