package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/facilityops/incident-service/internal/domain"
	apperrors "github.com/facilityops/incident-service/pkg/util/errorutil"
)

func TestSubmitOfferMovesCaseToOffered(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	c := f.assign(t, incident.ID, vendorID)

	offer := f.submitOffer(t, c.ID, 10000)
	require.Equal(t, domain.OfferStatePending, offer.State)
	require.Equal(t, domain.Cents(12100), offer.AmountInclTax)

	require.Equal(t, domain.ProviderStateOffered, f.reloadCase(t, c.ID).State)
}

func TestSubmitOfferStartsClientWork(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	c := f.assign(t, incident.ID, vendorID)
	require.Equal(t, domain.ClientStateWaiting, f.reloadIncident(t, incident.ID).ClientState)

	f.submitOffer(t, c.ID, 10000)
	require.Equal(t, domain.ClientStateInProgress, f.reloadIncident(t, incident.ID).ClientState)
}

func TestSubmitOfferValidation(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	c := f.assign(t, incident.ID, vendorID)

	_, err := f.offers.SubmitOffer(context.Background(), c.ID, SubmitOfferInput{
		AmountExclTax:   -5,
		TaxRate:         domain.TaxRateStandard21,
		WorkDescription: "x",
	}, vendorActor(vendorID))
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	_, err = f.offers.SubmitOffer(context.Background(), c.ID, SubmitOfferInput{
		AmountExclTax:   100,
		TaxRate:         15,
		WorkDescription: "x",
	}, vendorActor(vendorID))
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestSubmitOfferByOtherVendorForbidden(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	c := f.assign(t, incident.ID, vendorID)

	_, err := f.offers.SubmitOffer(context.Background(), c.ID, SubmitOfferInput{
		AmountExclTax:   100,
		TaxRate:         domain.TaxRateStandard21,
		WorkDescription: "replace compressor",
	}, vendorActor(vendor2ID))
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestSubmitOfferWhilePendingRejected(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	c := f.assign(t, incident.ID, vendorID)
	f.submitOffer(t, c.ID, 10000)

	_, err := f.offers.SubmitOffer(context.Background(), c.ID, SubmitOfferInput{
		AmountExclTax:   20000,
		TaxRate:         domain.TaxRateStandard21,
		WorkDescription: "second try",
	}, vendorActor(vendorID))
	require.True(t, apperrors.IsCode(err, "INVALID_TRANSITION"))

	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	require.Contains(t, domainErr.Details, "legal_actions")
}

func TestRejectOfferReopensSubmission(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	c := f.assign(t, incident.ID, vendorID)
	offer := f.submitOffer(t, c.ID, 10000)

	result, err := f.offers.RejectOffer(context.Background(), offer.ID, "too expensive", controlActor)
	require.NoError(t, err)
	require.Equal(t, domain.ProviderStateOfferToReview, result.Case.State)

	rejected, err := f.store.Offers().GetByID(context.Background(), offer.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OfferStateRejected, rejected.State)
	require.NotNil(t, rejected.RejectReason)
	require.Equal(t, "too expensive", *rejected.RejectReason)

	// The vendor may submit a corrected offer.
	second := f.submitOffer(t, c.ID, 8000)
	require.Equal(t, domain.OfferStatePending, second.State)
	require.Equal(t, domain.ProviderStateOffered, f.reloadCase(t, c.ID).State)
}

func TestRejectOfferRequiresReason(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	c := f.assign(t, incident.ID, vendorID)
	offer := f.submitOffer(t, c.ID, 10000)

	_, err := f.offers.RejectOffer(context.Background(), offer.ID, "", controlActor)
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestApproveOffer(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	c := f.assign(t, incident.ID, vendorID)
	offer := f.submitOffer(t, c.ID, 10000)

	result, err := f.offers.ApproveOffer(context.Background(), offer.ID, controlActor)
	require.NoError(t, err)
	require.Equal(t, domain.ProviderStateOfferApproved, result.Case.State)

	approved, err := f.store.Offers().GetApprovedByCase(context.Background(), c.ID)
	require.NoError(t, err)
	require.Equal(t, offer.ID, approved.ID)
}

func TestApproveOfferTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	c := f.assign(t, incident.ID, vendorID)
	offer := f.submitOffer(t, c.ID, 10000)

	_, err := f.offers.ApproveOffer(context.Background(), offer.ID, controlActor)
	require.NoError(t, err)

	_, err = f.offers.ApproveOffer(context.Background(), offer.ID, controlActor)
	require.True(t, apperrors.IsCode(err, "CONFLICT"))

	require.Equal(t, domain.ProviderStateOfferApproved, f.reloadCase(t, c.ID).State)
}

func TestApproveOfferRequiresControl(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	c := f.assign(t, incident.ID, vendorID)
	offer := f.submitOffer(t, c.ID, 10000)

	_, err := f.offers.ApproveOffer(context.Background(), offer.ID, vendorActor(vendorID))
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestNoOfferSubmissionAfterApproval(t *testing.T) {
	f := newFixture(t)
	incident := f.createIncident(t)
	c := f.assign(t, incident.ID, vendorID)
	offer := f.submitOffer(t, c.ID, 10000)

	_, err := f.offers.ApproveOffer(context.Background(), offer.ID, controlActor)
	require.NoError(t, err)

	_, err = f.offers.SubmitOffer(context.Background(), c.ID, SubmitOfferInput{
		AmountExclTax:   500,
		TaxRate:         domain.TaxRateStandard21,
		WorkDescription: "cheaper plan",
	}, vendorActor(vendorID))
	require.True(t, apperrors.IsCode(err, "INVALID_TRANSITION"))
}

func TestFormatCents(t *testing.T) {
	cases := []struct {
		amount domain.Cents
		want   string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{12100, "121.00"},
		{-50, "-0.50"},
		{-12105, "-121.05"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, formatCents(tc.amount))
	}
}
