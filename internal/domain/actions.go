package domain

// CaseAction enumerates the operations a vendor can attempt on a case.
type CaseAction string

const (
	ActionScheduleVisit CaseAction = "SCHEDULE_VISIT"
	ActionSubmitOffer   CaseAction = "SUBMIT_OFFER"
	ActionResolve       CaseAction = "RESOLVE"
	ActionValue         CaseAction = "VALUE"
)

// caseActions is the guard table: provider state to permitted action set.
// States absent from the table permit nothing, so unrecognized states fail
// closed. REVIEW_RESOLUTION is resolved separately from the pending review
// scope.
var caseActions = map[ProviderState][]CaseAction{
	ProviderStateOpen:             {ActionScheduleVisit, ActionSubmitOffer, ActionResolve},
	ProviderStateInResolution:     {ActionScheduleVisit, ActionSubmitOffer, ActionResolve},
	ProviderStateAssigned:         {ActionScheduleVisit, ActionSubmitOffer, ActionResolve},
	ProviderStateOffered:          {},
	ProviderStateOfferApproved:    {ActionScheduleVisit, ActionResolve},
	ProviderStateOfferToReview:    {ActionSubmitOffer},
	ProviderStateResolved:         {ActionValue},
	ProviderStatePendingValuation: {ActionValue},
	ProviderStateValued:           {},
	ProviderStateClosed:           {},
	ProviderStateAnnulled:         {},
}

var reviewActions = map[ReviewScope][]CaseAction{
	ReviewScopeTechnical: {ActionResolve},
	ReviewScopeEconomic:  {ActionValue},
	ReviewScopeBoth:      {ActionResolve, ActionValue},
}

// AllowedActions evaluates the guard table for a case. everOfferApproved
// permanently disables SUBMIT_OFFER once any offer on the case reached
// approval, even when the state would otherwise permit it.
func AllowedActions(c *ProviderCase, everOfferApproved bool) []CaseAction {
	if c == nil {
		return nil
	}
	var base []CaseAction
	if c.State == ProviderStateReviewResolution {
		if c.ReviewPending == nil {
			return nil
		}
		base = reviewActions[*c.ReviewPending]
	} else {
		base = caseActions[c.State]
	}

	actions := make([]CaseAction, 0, len(base))
	for _, action := range base {
		if action == ActionSubmitOffer && everOfferApproved {
			continue
		}
		actions = append(actions, action)
	}
	return actions
}

// ActionAllowed reports whether a single action passes the guard table.
func ActionAllowed(c *ProviderCase, everOfferApproved bool, action CaseAction) bool {
	for _, allowed := range AllowedActions(c, everOfferApproved) {
		if allowed == action {
			return true
		}
	}
	return false
}
