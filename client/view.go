package client

import (
	"context"
	"errors"
	"sync"

	"github.com/tradepost/go-mediation/models"
	"github.com/tradepost/go-mediation/policy"
)

type ViewState string

const (
	ViewState_Confirmed      ViewState = "confirmed"
	ViewState_PendingLocal   ViewState = "pending_local"
	ViewState_RejectedRevert ViewState = "rejected_revert"
)

var (
	ErrActionInFlight    = errors.New("another action is still waiting for the server")
	ErrActionUnavailable = errors.New("action is not available on this request")
)

// RequestView is a client-side copy of one request that can be changed optimistically. Apply shows the expected result
// of an action straight away; Resolve then either confirms it or puts back the last confirmed state. There is at most
// one unconfirmed action at a time.
type RequestView struct {
	mu        sync.Mutex
	viewerId  string
	facts     models.RoleFacts
	confirmed models.MediationRequest
	local     models.MediationRequest
	actions   []models.Action
	state     ViewState
	pending   models.Action
	outcome   models.Outcome
}

func NewRequestView(detail *models.RequestDetail, viewerId string, facts models.RoleFacts) *RequestView {
	v := &RequestView{viewerId: viewerId, facts: facts}
	v.reset(detail.Request, detail.AvailableActions)
	return v
}

func (v *RequestView) reset(req models.MediationRequest, actions []models.Action) {
	v.confirmed = req
	v.local = req
	v.actions = actions
	v.state = ViewState_Confirmed
	v.pending = ""
}

// Apply moves the view to the status action would produce, before the server has answered.
func (v *RequestView) Apply(action models.Action) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state == ViewState_PendingLocal {
		return ErrActionInFlight
	}
	if !v.offered(action) {
		return ErrActionUnavailable
	}
	edge, found := policy.TransitionFor(v.confirmed.Status, action)
	if !found {
		return ErrActionUnavailable
	}
	v.local = v.confirmed
	v.local.Status = edge.To
	if edge.AssignsClaimant {
		v.local.ClaimantId = v.viewerId
	}
	if edge.ClearsClaimant {
		v.local.ClaimantId = ""
	}
	v.state = ViewState_PendingLocal
	v.pending = action
	return nil
}

// Resolve settles the action started by Apply. Any failure, including a Conflict or a Timeout, reverts to the last
// confirmed request; Refresh shows whether a timed out action was applied after all.
func (v *RequestView) Resolve(outcome models.Outcome) ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state != ViewState_PendingLocal {
		return v.state
	}
	v.outcome = outcome
	v.pending = ""
	if outcome.Success {
		v.local.Status = outcome.NewStatus
		v.confirmed = v.local
		roles := policy.ResolveRoles(&v.confirmed, v.viewerId, v.facts)
		v.actions = policy.AvailableActions(v.confirmed.Status, roles)
		v.state = ViewState_Confirmed
	} else {
		v.local = v.confirmed
		v.state = ViewState_RejectedRevert
	}
	return v.state
}

// Refresh replaces the view with what the server currently holds, dropping any unconfirmed change.
func (v *RequestView) Refresh(detail *models.RequestDetail) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.reset(detail.Request, detail.AvailableActions)
}

func (v *RequestView) offered(action models.Action) bool {
	for _, a := range v.actions {
		if a == action {
			return true
		}
	}
	return false
}

func (v *RequestView) State() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Current is the request as it should be displayed right now.
func (v *RequestView) Current() models.MediationRequest {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.local
}

func (v *RequestView) Confirmed() models.MediationRequest {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.confirmed
}

// AvailableActions is empty while an action is in flight.
func (v *RequestView) AvailableActions() []models.Action {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state == ViewState_PendingLocal {
		return []models.Action{}
	}
	return append([]models.Action{}, v.actions...)
}

func (v *RequestView) LastOutcome() models.Outcome {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.outcome
}

// Perform applies action to view optimistically, sends it to the server and resolves the view with the answer.
func (c Client) Perform(ctx context.Context, view *RequestView, action models.Action) (models.Outcome, error) {
	if err := view.Apply(action); err != nil {
		return models.Outcome{}, err
	}
	outcome := c.Transition(ctx, view.Confirmed().Id, action, "")
	view.Resolve(outcome)
	return outcome, nil
}
