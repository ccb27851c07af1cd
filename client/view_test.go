package client

import (
	"testing"
	"time"

	"github.com/tradepost/go-mediation/models"
)

func pendingDetail(actions ...models.Action) *models.RequestDetail {
	now := time.Now().UTC()
	return &models.RequestDetail{
		Request: models.MediationRequest{
			Id:          "req-1",
			RequesterId: "trader-1",
			Status:      models.RequestStatus_Pending,
			CreatedAt:   now,
			UpdatedAt:   now,
			Payload:     models.RequestPayload{Item: "Golden Sword"},
		},
		AvailableActions: actions,
	}
}

func TestOptimisticClaim(t *testing.T) {
	tests := map[string]struct {
		outcome          models.Outcome
		expectedState    ViewState
		expectedStatus   models.RequestStatus
		expectedClaimant string
	}{
		"confirmed": {
			outcome:          models.Succeeded(models.RequestStatus_Claimed),
			expectedState:    ViewState_Confirmed,
			expectedStatus:   models.RequestStatus_Claimed,
			expectedClaimant: "mediator-1",
		},
		"conflict reverts": {
			outcome:        models.Failed(models.ErrorKind_Conflict, models.OutcomeMsg_AlreadyClaimed),
			expectedState:  ViewState_RejectedRevert,
			expectedStatus: models.RequestStatus_Pending,
		},
		"timeout reverts": {
			outcome:        models.Failed(models.ErrorKind_Timeout, models.OutcomeMsg_Timeout),
			expectedState:  ViewState_RejectedRevert,
			expectedStatus: models.RequestStatus_Pending,
		},
		"unauthorized reverts": {
			outcome:        models.Failed(models.ErrorKind_Unauthorized, ""),
			expectedState:  ViewState_RejectedRevert,
			expectedStatus: models.RequestStatus_Pending,
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			view := NewRequestView(pendingDetail(models.Action_Claim), "mediator-1", models.RoleFacts{IsMediatorStaff: true})
			if err := view.Apply(models.Action_Claim); err != nil {
				t.Fatalf("apply: %v", err)
			}
			if view.State() != ViewState_PendingLocal {
				t.Errorf("state after apply: found=%s", view.State())
			}
			if current := view.Current(); current.Status != models.RequestStatus_Claimed || current.ClaimantId != "mediator-1" {
				t.Errorf("optimistic view: %+v", current)
			}
			if view.Confirmed().Status != models.RequestStatus_Pending {
				t.Errorf("confirmed state must not change before the server answers")
			}
			if len(view.AvailableActions()) != 0 {
				t.Errorf("no actions should be offered while one is in flight")
			}

			if state := view.Resolve(test.outcome); state != test.expectedState {
				t.Errorf("state: found=%s, expected=%s", state, test.expectedState)
			}
			current := view.Current()
			if current.Status != test.expectedStatus || current.ClaimantId != test.expectedClaimant {
				t.Errorf("current: status=%s claimant=%q, expected status=%s claimant=%q", current.Status, current.ClaimantId, test.expectedStatus, test.expectedClaimant)
			}
			if current != view.Confirmed() {
				t.Errorf("settled view must match the confirmed request")
			}
			if view.LastOutcome() != test.outcome {
				t.Errorf("last outcome: found=%+v", view.LastOutcome())
			}
		})
	}
}

func TestConfirmedClaimOffersNextActions(t *testing.T) {
	view := NewRequestView(pendingDetail(models.Action_Claim), "mediator-1", models.RoleFacts{IsMediatorStaff: true})
	if err := view.Apply(models.Action_Claim); err != nil {
		t.Fatalf("apply: %v", err)
	}
	view.Resolve(models.Succeeded(models.RequestStatus_Claimed))

	actions := view.AvailableActions()
	if len(actions) != 2 || actions[0] != models.Action_Complete || actions[1] != models.Action_Reopen {
		t.Errorf("actions: found=%v", actions)
	}
}

func TestApplyRejected(t *testing.T) {
	view := NewRequestView(pendingDetail(models.Action_Cancel), "trader-1", models.RoleFacts{})
	if err := view.Apply(models.Action_Claim); err != ErrActionUnavailable {
		t.Errorf("found=%v, expected=%v", err, ErrActionUnavailable)
	}
	if err := view.Apply(models.Action_Cancel); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := view.Apply(models.Action_Cancel); err != ErrActionInFlight {
		t.Errorf("found=%v, expected=%v", err, ErrActionInFlight)
	}
	if view.Current().Status != models.RequestStatus_Cancelled {
		t.Errorf("optimistic status: found=%s", view.Current().Status)
	}
}

func TestResolveWithoutApply(t *testing.T) {
	view := NewRequestView(pendingDetail(models.Action_Cancel), "trader-1", models.RoleFacts{})
	if state := view.Resolve(models.Succeeded(models.RequestStatus_Completed)); state != ViewState_Confirmed {
		t.Errorf("state: found=%s", state)
	}
	if view.Current().Status != models.RequestStatus_Pending {
		t.Errorf("a stray outcome must not change the view")
	}
}

func TestRefreshDropsPendingChange(t *testing.T) {
	view := NewRequestView(pendingDetail(models.Action_Claim), "mediator-1", models.RoleFacts{IsMediatorStaff: true})
	if err := view.Apply(models.Action_Claim); err != nil {
		t.Fatalf("apply: %v", err)
	}
	fresh := pendingDetail()
	fresh.Request.Status = models.RequestStatus_Claimed
	fresh.Request.ClaimantId = "mediator-2"
	fresh.Request.Version = 1
	view.Refresh(fresh)

	if view.State() != ViewState_Confirmed {
		t.Errorf("state: found=%s", view.State())
	}
	if view.Current().ClaimantId != "mediator-2" {
		t.Errorf("claimant: found=%s", view.Current().ClaimantId)
	}
	if len(view.AvailableActions()) != 0 {
		t.Errorf("actions: found=%v", view.AvailableActions())
	}
}
