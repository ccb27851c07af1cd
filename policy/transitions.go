package policy

import "github.com/tradepost/go-mediation/models"

// Edge is a single allowed step in the request lifecycle.
type Edge struct {
	From   models.RequestStatus
	Action models.Action
	To     models.RequestStatus

	// AssignsClaimant sets the claimant to the acting (or nominated) mediator.
	AssignsClaimant bool
	// ClearsClaimant removes the current claimant.
	ClearsClaimant bool
}

var edges = []Edge{
	{From: models.RequestStatus_Pending, Action: models.Action_Claim, To: models.RequestStatus_Claimed, AssignsClaimant: true},
	{From: models.RequestStatus_Pending, Action: models.Action_Cancel, To: models.RequestStatus_Cancelled},
	{From: models.RequestStatus_Claimed, Action: models.Action_Complete, To: models.RequestStatus_Completed},
	{From: models.RequestStatus_Claimed, Action: models.Action_Reopen, To: models.RequestStatus_Pending, ClearsClaimant: true},
	{From: models.RequestStatus_Cancelled, Action: models.Action_Reopen, To: models.RequestStatus_Pending},
}

// TransitionFor returns the edge leaving status on action, if there is one.
func TransitionFor(from models.RequestStatus, action models.Action) (Edge, bool) {
	for _, e := range edges {
		if e.From == from && e.Action == action {
			return e, true
		}
	}
	return Edge{}, false
}

// Terminal reports whether no action can move a request out of status.
func Terminal(status models.RequestStatus) bool {
	for _, e := range edges {
		if e.From == status {
			return false
		}
	}
	return true
}
