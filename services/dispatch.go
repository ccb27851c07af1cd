package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/abevier/tsk/ratelimiter"

	"github.com/tradepost/go-mediation/models"
)

var _ models.EventDispatcher = &DispatchService{}

// DispatchService fans transition events out to every configured publisher in the background. Delivery is best
// effort: failures are logged and counted, and the transition that produced the event is never affected.
type DispatchService struct {
	serverCtx     context.Context
	publishers    []models.EventPublisher
	rateLimiter   *ratelimiter.RateLimiter[*models.TransitionEvent, int]
	notif         models.Notifier
	metricService models.MetricService
	logger        models.Logger
	wg            sync.WaitGroup
}

func NewDispatchService(
	serverCtx context.Context,
	publishers []models.EventPublisher,
	queueDepth int,
	notif models.Notifier,
	metricService models.MetricService,
	logger models.Logger,
) *DispatchService {
	dispatchService := DispatchService{
		serverCtx:     serverCtx,
		publishers:    publishers,
		notif:         notif,
		metricService: metricService,
		logger:        logger,
	}
	rlOpts := ratelimiter.Opts{
		Limit:             models.DefaultEventRateLimit,
		Burst:             models.DefaultEventRateLimit,
		MaxQueueDepth:     queueDepth,
		FullQueueStrategy: ratelimiter.BlockWhenFull,
	}
	dispatchService.rateLimiter = ratelimiter.New(rlOpts, dispatchService.publish)
	return &dispatchService
}

// Dispatch returns immediately. The event is handed to the publishers from a separate goroutine.
func (d *DispatchService) Dispatch(event *models.TransitionEvent) {
	if len(d.publishers) == 0 {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(d.serverCtx, models.DefaultEventWaitTime)
		defer cancel()

		if _, err := d.rateLimiter.Submit(ctx, event); err != nil {
			d.logger.Warnf("dispatch: dropped event for request %s: %v", event.RequestId, err)
			d.metricService.Count(ctx, models.MetricName_EventDispatchFailed, len(d.publishers), models.Attr("reason", "queue"))
		}
	}()
}

// publish sends the event to all publishers in parallel, each with its own deadline, and returns how many succeeded.
func (d *DispatchService) publish(ctx context.Context, event *models.TransitionEvent) (int, error) {
	var wg sync.WaitGroup
	results := make([]error, len(d.publishers))
	for i, publisher := range d.publishers {
		wg.Add(1)
		go func(i int, publisher models.EventPublisher) {
			defer wg.Done()

			publishCtx, publishCancel := context.WithTimeout(ctx, models.DefaultEventWaitTime)
			defer publishCancel()

			results[i] = publisher.Publish(publishCtx, event)
		}(i, publisher)
	}
	wg.Wait()

	numPublished := 0
	for i, err := range results {
		publisherName := fmt.Sprintf("%T", d.publishers[i])
		if err != nil {
			d.logger.Errorf("dispatch: %s failed to publish event for request %s: %v", publisherName, event.RequestId, err)
			d.metricService.Count(ctx, models.MetricName_EventDispatchFailed, 1, models.Attr("publisher", publisherName))
			continue
		}
		numPublished++
		d.metricService.Count(ctx, models.MetricName_EventDispatched, 1, models.Attr("publisher", publisherName))
	}
	if numPublished == 0 {
		d.alert(event)
	}
	return numPublished, nil
}

func (d *DispatchService) alert(event *models.TransitionEvent) {
	if err := d.notif.SendAlert(
		models.AlertTitle,
		models.AlertDesc_DispatchFailure,
		fmt.Sprintf(models.AlertFmt_DispatchFailure, event.Action, event.RequestId, len(d.publishers)),
	); err != nil {
		d.logger.Errorf("dispatch: error sending alert: %v", err)
	}
}

// Wait blocks until every event dispatched so far has been handled.
func (d *DispatchService) Wait() {
	d.wg.Wait()
}
