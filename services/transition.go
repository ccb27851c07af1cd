package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/tradepost/go-mediation/models"
	"github.com/tradepost/go-mediation/policy"
)

// maxAlertsInFlight bounds the store-failure alerts being sent at once. Failures beyond it are logged and counted only.
const maxAlertsInFlight = 4

type TransitionInput struct {
	RequestId string
	Action    models.Action
	ActorId   string

	// ClaimantOverride nominates someone other than the actor as claimant. Only used by claim.
	ClaimantOverride string

	// Facts, when set, are used as-is instead of asking the staff directory.
	Facts *models.RoleFacts
}

// TransitionService is the only component allowed to change a request's status or claimant. Every change is a
// conditional write against the status and version it was computed from, so concurrent calls on the same request are
// linearized by the store.
type TransitionService struct {
	requestDb     models.RequestRepository
	staff         models.StaffDirectory
	dispatcher    models.EventDispatcher
	notif         models.Notifier
	metricService models.MetricService
	logger        models.Logger
	now           func() time.Time
	alertSlots    chan struct{}
	alerts        sync.WaitGroup
}

func NewTransitionService(
	requestDb models.RequestRepository,
	staff models.StaffDirectory,
	dispatcher models.EventDispatcher,
	notif models.Notifier,
	metricService models.MetricService,
	logger models.Logger,
) *TransitionService {
	return &TransitionService{
		requestDb:     requestDb,
		staff:         staff,
		dispatcher:    dispatcher,
		notif:         notif,
		metricService: metricService,
		logger:        logger,
		now:           time.Now,
		alertSlots:    make(chan struct{}, maxAlertsInFlight),
	}
}

func (t *TransitionService) Transition(ctx context.Context, in TransitionInput) models.Outcome {
	t.metricService.Count(ctx, models.MetricName_TransitionAttempt, 1, models.Attr("action", string(in.Action)))
	outcome := t.transition(ctx, in)
	if outcome.Success {
		t.metricService.Count(ctx, models.MetricName_TransitionSuccess, 1, models.Attr("action", string(in.Action)))
	} else {
		t.metricService.Count(
			ctx,
			models.MetricName_TransitionFailure,
			1,
			models.Attr("action", string(in.Action)),
			models.Attr("kind", string(outcome.ErrorKind)),
		)
		t.logger.Debugf("transition: %s on request %s by %s rejected: %s (%s)", in.Action, in.RequestId, in.ActorId, outcome.ErrorKind, outcome.Message)
	}
	return outcome
}

func (t *TransitionService) transition(ctx context.Context, in TransitionInput) models.Outcome {
	if len(in.ActorId) == 0 {
		return models.Failed(models.ErrorKind_Unauthorized, models.OutcomeMsg_NoIdentity)
	}
	action, err := models.ParseAction(string(in.Action))
	if err != nil {
		return models.Failed(models.ErrorKind_InvalidTransition, err.Error())
	}

	req, err := t.requestDb.GetRequest(ctx, in.RequestId)
	if err != nil {
		if errors.Is(err, models.ErrRequestNotFound) {
			return models.Failed(models.ErrorKind_NotFound, models.OutcomeMsg_NotFound)
		}
		return t.storeFailure(ctx, in, err)
	}

	edge, found := policy.TransitionFor(req.Status, action)
	if !found {
		// A claim that finds the request already taken lost the race at some point, possibly to its own earlier
		// delivery.
		if action == models.Action_Claim && req.Status.HasClaimant() {
			return models.Failed(models.ErrorKind_Conflict, models.OutcomeMsg_AlreadyClaimed)
		}
		return models.Failed(models.ErrorKind_InvalidTransition, fmt.Sprintf(models.OutcomeMsgFmt_Invalid, action, req.Status))
	}

	roles := policy.ResolveRoles(req, in.ActorId, t.roleFacts(ctx, in))
	if !policy.Authorize(req.Status, action, roles) {
		return models.Failed(models.ErrorKind_Unauthorized, fmt.Sprintf(models.OutcomeMsgFmt_Unauthorized, action, req.Status))
	}

	next := *req
	next.Status = edge.To
	if edge.AssignsClaimant {
		next.ClaimantId = in.ActorId
		if len(in.ClaimantOverride) > 0 && in.ClaimantOverride != in.ActorId {
			if !t.isMediatorStaff(ctx, in.ClaimantOverride) {
				return models.Failed(models.ErrorKind_Unauthorized, fmt.Sprintf(models.OutcomeMsgFmt_NotStaff, in.ClaimantOverride))
			}
			next.ClaimantId = in.ClaimantOverride
		}
	}
	if edge.ClearsClaimant {
		next.ClaimantId = ""
	}
	next.UpdatedAt = t.now().UTC().Truncate(time.Millisecond)
	if next.UpdatedAt.Before(req.UpdatedAt) {
		next.UpdatedAt = req.UpdatedAt
	}
	next.Version = req.Version + 1

	if applied, err := t.requestDb.UpdateRequest(ctx, req, &next); err != nil {
		return t.storeFailure(ctx, in, err)
	} else if !applied {
		if action == models.Action_Claim {
			return models.Failed(models.ErrorKind_Conflict, models.OutcomeMsg_AlreadyClaimed)
		}
		return models.Failed(models.ErrorKind_Conflict, models.OutcomeMsg_StateChanged)
	}

	t.dispatcher.Dispatch(&models.TransitionEvent{
		RequestId:  next.Id,
		OldStatus:  req.Status,
		NewStatus:  next.Status,
		Action:     action,
		ActorId:    in.ActorId,
		ClaimantId: next.ClaimantId,
		Timestamp:  next.UpdatedAt,
	})
	return models.Succeeded(next.Status)
}

func (t *TransitionService) roleFacts(ctx context.Context, in TransitionInput) models.RoleFacts {
	if in.Facts != nil {
		return *in.Facts
	}
	return models.RoleFacts{IsMediatorStaff: t.isMediatorStaff(ctx, in.ActorId)}
}

// isMediatorStaff treats a failed lookup as "not staff", which can only ever deny.
func (t *TransitionService) isMediatorStaff(ctx context.Context, actorId string) bool {
	isStaff, err := t.staff.IsMediatorStaff(ctx, actorId)
	if err != nil {
		t.logger.Warnf("transition: staff lookup for %s failed: %v", actorId, err)
		return false
	}
	return isStaff
}

func (t *TransitionService) storeFailure(ctx context.Context, in TransitionInput, err error) models.Outcome {
	if isTimeout(err) {
		t.logger.Warnf("transition: %s on request %s by %s timed out: %v", in.Action, in.RequestId, in.ActorId, err)
		return models.Failed(models.ErrorKind_Timeout, models.OutcomeMsg_Timeout)
	}
	t.logger.Errorf("transition: %s on request %s by %s failed: %v", in.Action, in.RequestId, in.ActorId, err)
	t.alert(ctx, fmt.Sprintf(models.AlertFmt_TransitionFailure, in.Action, in.RequestId, in.ActorId, err))
	return models.Failed(models.ErrorKind_Unknown, models.OutcomeMsg_Unknown)
}

// alert sends content in the background unless maxAlertsInFlight alerts are already being sent, in which case it is
// dropped.
func (t *TransitionService) alert(ctx context.Context, content string) {
	select {
	case t.alertSlots <- struct{}{}:
	default:
		t.logger.Warnf("transition: dropping alert, %d already in flight", maxAlertsInFlight)
		t.metricService.Count(ctx, models.MetricName_AlertDropped, 1)
		return
	}
	t.alerts.Add(1)
	go func() {
		defer func() {
			<-t.alertSlots
			t.alerts.Done()
		}()
		if err := t.notif.SendAlert(models.AlertTitle, models.AlertDesc_TransitionFailure, content); err != nil {
			t.logger.Errorf("transition: error sending alert: %v", err)
		}
	}()
}

// Wait blocks until every alert started so far has been sent.
func (t *TransitionService) Wait() {
	t.alerts.Wait()
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
