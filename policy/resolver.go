package policy

import "github.com/tradepost/go-mediation/models"

// AvailableActions lists the actions a viewer holding roles should be offered on a request in status. It is advisory:
// the transition engine checks everything again.
func AvailableActions(status models.RequestStatus, roles models.RoleSet) []models.Action {
	actions := make([]models.Action, 0, len(models.Actions))
	for _, action := range models.Actions {
		if _, found := TransitionFor(status, action); found && Authorize(status, action, roles) {
			actions = append(actions, action)
		}
	}
	return actions
}
