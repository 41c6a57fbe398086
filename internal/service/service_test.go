package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/facilityops/incident-service/internal/domain"
	"github.com/facilityops/incident-service/internal/events"
	"github.com/facilityops/incident-service/internal/repository/memstore"
)

const (
	centerID  = "6f000000-0000-0000-0000-000000000001"
	vendorID  = "6f000000-0000-0000-0000-000000000002"
	vendor2ID = "6f000000-0000-0000-0000-000000000003"
)

var (
	controlActor  = domain.Actor{ID: "acc-control", Role: domain.RoleControl}
	reporterActor = domain.Actor{ID: "acc-reporter", Role: domain.RoleReporter}
)

func vendorActor(id string) domain.Actor {
	v := id
	return domain.Actor{ID: "acc-" + id, Role: domain.RoleVendor, VendorID: &v}
}

type fixture struct {
	store      *memstore.Store
	dispatcher events.Dispatcher
	assignment *AssignmentService
	offers     *OfferService
	lifecycle  *LifecycleService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	store.SeedCenter(domain.Center{ID: centerID, Name: "Main Street Center"})
	store.SeedVendor(domain.Vendor{ID: vendorID, Name: "Acme Repairs"})
	store.SeedVendor(domain.Vendor{ID: vendor2ID, Name: "Rapid Fix"})

	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	return &fixture{
		store:      store,
		dispatcher: dispatcher,
		assignment: NewAssignmentService(store, dispatcher),
		offers:     NewOfferService(store, dispatcher),
		lifecycle:  NewLifecycleService(store, dispatcher),
	}
}

func (f *fixture) createIncident(t *testing.T) *domain.Incident {
	t.Helper()
	incident, err := f.lifecycle.CreateIncident(context.Background(), IncidentCreateInput{
		CenterID:    centerID,
		Description: "broken air conditioning on floor 2",
		Priority:    domain.ClientPriorityHigh,
	}, reporterActor)
	require.NoError(t, err)
	return incident
}

func (f *fixture) assign(t *testing.T, incidentID, vendor string) *domain.ProviderCase {
	t.Helper()
	result, err := f.assignment.AssignProvider(context.Background(), incidentID, AssignProviderInput{
		VendorID: vendor,
	}, controlActor)
	require.NoError(t, err)
	return result.Case
}

func (f *fixture) submitOffer(t *testing.T, caseID string, amount domain.Cents) *domain.Offer {
	t.Helper()
	_, err := f.offers.SubmitOffer(context.Background(), caseID, SubmitOfferInput{
		AmountExclTax:   amount,
		TaxRate:         domain.TaxRateStandard21,
		WorkDescription: "replace compressor",
	}, vendorActor(vendorID))
	require.NoError(t, err)
	offer, err := f.store.Offers().GetPendingByCase(context.Background(), caseID)
	require.NoError(t, err)
	return offer
}

func (f *fixture) auditCount(t *testing.T, incidentID string) int {
	t.Helper()
	count, err := f.store.Audit().CountByIncident(context.Background(), incidentID)
	require.NoError(t, err)
	return count
}

func (f *fixture) reloadCase(t *testing.T, caseID string) *domain.ProviderCase {
	t.Helper()
	c, err := f.store.Cases().GetByID(context.Background(), caseID)
	require.NoError(t, err)
	return c
}

func (f *fixture) reloadIncident(t *testing.T, incidentID string) *domain.Incident {
	t.Helper()
	incident, err := f.store.Incidents().GetByID(context.Background(), incidentID)
	require.NoError(t, err)
	return incident
}
