package policy

import "github.com/tradepost/go-mediation/models"

type grant struct {
	status models.RequestStatus
	action models.Action
	roles  []models.Role
}

// Any one of the listed roles is enough. Cells that are not listed deny.
var grants = []grant{
	{models.RequestStatus_Pending, models.Action_Claim, []models.Role{models.Role_MediatorStaff}},
	{models.RequestStatus_Pending, models.Action_Cancel, []models.Role{models.Role_Requester}},
	{models.RequestStatus_Claimed, models.Action_Complete, []models.Role{models.Role_Claimant, models.Role_MediatorStaff}},
	{models.RequestStatus_Claimed, models.Action_Reopen, []models.Role{models.Role_Requester, models.Role_Claimant, models.Role_MediatorStaff}},
	{models.RequestStatus_Cancelled, models.Action_Reopen, []models.Role{models.Role_Requester, models.Role_MediatorStaff}},
}

// Authorize reports whether an actor holding roles may perform action on a request in status.
func Authorize(status models.RequestStatus, action models.Action, roles models.RoleSet) bool {
	for _, g := range grants {
		if g.status == status && g.action == action {
			return roles.HasAny(g.roles...)
		}
	}
	return false
}

// ResolveRoles computes the roles actorId holds on req. Requester and claimant come from the request as loaded; staff
// membership is an external fact.
func ResolveRoles(req *models.MediationRequest, actorId string, facts models.RoleFacts) models.RoleSet {
	var roles models.RoleSet
	if len(actorId) == 0 {
		return roles
	}
	if req.RequesterId == actorId {
		roles = roles.Add(models.Role_Requester)
	}
	if len(req.ClaimantId) > 0 && req.ClaimantId == actorId {
		roles = roles.Add(models.Role_Claimant)
	}
	if facts.IsMediatorStaff {
		roles = roles.Add(models.Role_MediatorStaff)
	}
	return roles
}
