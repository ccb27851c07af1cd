package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/abevier/go-sqs/gosqs"

	"github.com/tradepost/go-mediation/models"
)

var _ models.EventPublisher = &Publisher{}

const maxLinger = 250 * time.Millisecond

// Publisher posts transition events to an SQS queue for downstream consumers (notification delivery, view refresh).
type Publisher struct {
	queueType Type
	name      string
	url       string
	publisher *gosqs.SQSPublisher
	monitor   *Monitor
}

func NewPublisher(ctx context.Context, sqsClient *sqs.Client, opts Opts) (*Publisher, error) {
	// Create the queue if it didn't already exist
	if url, name, err := CreateQueue(ctx, sqsClient, opts); err != nil {
		return nil, err
	} else {
		return &Publisher{
			opts.QueueType,
			name,
			url,
			gosqs.NewPublisher(
				sqsClient,
				url,
				maxLinger,
			),
			NewMonitor(url, sqsClient),
		}, nil
	}
}

func (p Publisher) Publish(ctx context.Context, event *models.TransitionEvent) error {
	_, err := p.SendMessage(ctx, event)
	return err
}

func (p Publisher) SendMessage(ctx context.Context, event any) (string, error) {
	if eventBody, err := json.Marshal(event); err != nil {
		return "", err
	} else if msgId, err := p.publisher.SendMessage(ctx, string(eventBody)); err != nil {
		return "", err
	} else {
		return msgId, nil
	}
}

func (p Publisher) Name() string {
	return p.name
}

func (p Publisher) Monitor() models.QueueMonitor {
	return p.monitor
}
