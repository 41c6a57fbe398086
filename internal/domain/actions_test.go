package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func caseIn(state ProviderState) *ProviderCase {
	return &ProviderCase{ID: "c1", IncidentID: "i1", VendorID: "v1", State: state, Active: true}
}

func TestAllowedActionsPerState(t *testing.T) {
	cases := []struct {
		state ProviderState
		want  []CaseAction
	}{
		{ProviderStateOpen, []CaseAction{ActionScheduleVisit, ActionSubmitOffer, ActionResolve}},
		{ProviderStateInResolution, []CaseAction{ActionScheduleVisit, ActionSubmitOffer, ActionResolve}},
		{ProviderStateAssigned, []CaseAction{ActionScheduleVisit, ActionSubmitOffer, ActionResolve}},
		{ProviderStateOffered, []CaseAction{}},
		{ProviderStateOfferApproved, []CaseAction{ActionScheduleVisit, ActionResolve}},
		{ProviderStateOfferToReview, []CaseAction{ActionSubmitOffer}},
		{ProviderStateResolved, []CaseAction{ActionValue}},
		{ProviderStatePendingValuation, []CaseAction{ActionValue}},
		{ProviderStateValued, []CaseAction{}},
		{ProviderStateClosed, []CaseAction{}},
		{ProviderStateAnnulled, []CaseAction{}},
	}
	for _, tc := range cases {
		t.Run(string(tc.state), func(t *testing.T) {
			require.ElementsMatch(t, tc.want, AllowedActions(caseIn(tc.state), false))
		})
	}
}

func TestAllowedActionsUnknownStateFailsClosed(t *testing.T) {
	require.Empty(t, AllowedActions(caseIn(ProviderState("SOMETHING_NEW")), false))
}

func TestAllowedActionsReviewResolution(t *testing.T) {
	c := caseIn(ProviderStateReviewResolution)

	technical := ReviewScopeTechnical
	c.ReviewPending = &technical
	require.ElementsMatch(t, []CaseAction{ActionResolve}, AllowedActions(c, false))

	economic := ReviewScopeEconomic
	c.ReviewPending = &economic
	require.ElementsMatch(t, []CaseAction{ActionValue}, AllowedActions(c, false))

	both := ReviewScopeBoth
	c.ReviewPending = &both
	require.ElementsMatch(t, []CaseAction{ActionResolve, ActionValue}, AllowedActions(c, false))
}

func TestAllowedActionsReviewResolutionWithoutPendingFailsClosed(t *testing.T) {
	c := caseIn(ProviderStateReviewResolution)
	c.ReviewPending = nil
	require.Empty(t, AllowedActions(c, false))
}

func TestApprovedOfferDisablesSubmitForever(t *testing.T) {
	for _, state := range []ProviderState{ProviderStateOpen, ProviderStateAssigned, ProviderStateOfferToReview} {
		c := caseIn(state)
		require.True(t, ActionAllowed(c, false, ActionSubmitOffer), string(state))
		require.False(t, ActionAllowed(c, true, ActionSubmitOffer), string(state))
	}

	// Other actions are untouched by the override.
	c := caseIn(ProviderStateOfferApproved)
	require.True(t, ActionAllowed(c, true, ActionResolve))
	require.True(t, ActionAllowed(c, true, ActionScheduleVisit))
}

func TestAllowedActionsNilCase(t *testing.T) {
	require.Nil(t, AllowedActions(nil, false))
}
