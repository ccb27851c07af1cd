package policy

import (
	"reflect"
	"testing"

	"github.com/tradepost/go-mediation/models"
)

func TestAvailableActions(t *testing.T) {
	tests := map[string]struct {
		status   models.RequestStatus
		roles    models.RoleSet
		expected []models.Action
	}{
		"staff can claim a pending request": {
			status:   models.RequestStatus_Pending,
			roles:    models.NewRoleSet(models.Role_MediatorStaff),
			expected: []models.Action{models.Action_Claim},
		},
		"requester can only cancel a pending request": {
			status:   models.RequestStatus_Pending,
			roles:    models.NewRoleSet(models.Role_Requester),
			expected: []models.Action{models.Action_Cancel},
		},
		"claimant can complete or reopen": {
			status:   models.RequestStatus_Claimed,
			roles:    models.NewRoleSet(models.Role_Claimant),
			expected: []models.Action{models.Action_Complete, models.Action_Reopen},
		},
		"requester cannot complete a claimed request": {
			status:   models.RequestStatus_Claimed,
			roles:    models.NewRoleSet(models.Role_Requester),
			expected: []models.Action{models.Action_Reopen},
		},
		"claimant cannot revive a cancelled request": {
			status:   models.RequestStatus_Cancelled,
			roles:    models.NewRoleSet(models.Role_Claimant),
			expected: []models.Action{},
		},
		"nothing is offered on a completed request": {
			status:   models.RequestStatus_Completed,
			roles:    models.NewRoleSet(models.Role_Requester, models.Role_Claimant, models.Role_MediatorStaff),
			expected: []models.Action{},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			if got := AvailableActions(test.status, test.roles); !reflect.DeepEqual(got, test.expected) {
				t.Errorf("incorrect actions: found=%v, expected=%v", got, test.expected)
			}
		})
	}
}

// Every offered action must be one the engine accepts, and vice versa.
func TestAvailableActionsMatchesAuthorize(t *testing.T) {
	for _, status := range models.RequestStatuses {
		for _, roles := range allRoleSets {
			offered := make(map[models.Action]bool)
			for _, action := range AvailableActions(status, roles) {
				offered[action] = true
			}
			for _, action := range models.Actions {
				_, hasEdge := TransitionFor(status, action)
				permitted := hasEdge && Authorize(status, action, roles)
				if offered[action] != permitted {
					t.Errorf("%s on %s for %s: offered=%v, permitted=%v", action, status, roles, offered[action], permitted)
				}
			}
		}
	}
}
