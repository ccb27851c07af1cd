package ipfs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	iface "github.com/ipfs/boxo/coreiface"

	"github.com/tradepost/go-mediation/common/loggers"
	"github.com/tradepost/go-mediation/models"
)

type publishedMessage struct {
	topic string
	data  []byte
}

type MockPubSub struct {
	iface.PubSubAPI
	err               error
	publishedMessages []publishedMessage
}

func (m *MockPubSub) Publish(_ context.Context, topic string, data []byte) error {
	if m.err != nil {
		return m.err
	}
	m.publishedMessages = append(m.publishedMessages, publishedMessage{topic, data})
	return nil
}

type MockCoreApi struct {
	iface.CoreAPI
	pubsub *MockPubSub
}

func (m *MockCoreApi) PubSub() iface.PubSubAPI {
	return m.pubsub
}

func TestPublish(t *testing.T) {
	event := &models.TransitionEvent{
		RequestId:  "req-1",
		OldStatus:  models.RequestStatus_Pending,
		NewStatus:  models.RequestStatus_Claimed,
		Action:     models.Action_Claim,
		ActorId:    "mediator-1",
		ClaimantId: "mediator-1",
		Timestamp:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	tests := map[string]struct {
		topicPrefix   string
		publishErr    error
		expectedTopic string
		shouldError   bool
	}{
		"publishes on the request topic":   {topicPrefix: "/mediation/dev", expectedTopic: "/mediation/dev/req-1"},
		"trailing slash in prefix ignored": {topicPrefix: "/mediation/dev/", expectedTopic: "/mediation/dev/req-1"},
		"publish failure is returned":      {topicPrefix: "/mediation/dev", publishErr: errors.New("node offline"), shouldError: true},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			core := &MockCoreApi{pubsub: &MockPubSub{err: test.publishErr}}
			publisher := NewPubsubPublisherWithCore(loggers.NewTestLogger(), "test", test.topicPrefix, core)

			err := publisher.Publish(context.Background(), event)
			if test.shouldError {
				if err == nil {
					t.Fatalf("should have failed publishing")
				}
				if len(core.pubsub.publishedMessages) != 0 {
					t.Errorf("should not have published %v", core.pubsub.publishedMessages)
				}
				return
			}
			if err != nil {
				t.Fatalf("failed publishing: %v", err)
			}
			if len(core.pubsub.publishedMessages) != 1 {
				t.Fatalf("should have published 1 message, published %d", len(core.pubsub.publishedMessages))
			}
			msg := core.pubsub.publishedMessages[0]
			if msg.topic != test.expectedTopic {
				t.Errorf("topic: found=%s, expected=%s", msg.topic, test.expectedTopic)
			}
			var decoded models.TransitionEvent
			if err = json.Unmarshal(msg.data, &decoded); err != nil {
				t.Fatalf("message is not a transition event: %v", err)
			}
			if decoded.RequestId != event.RequestId || decoded.NewStatus != event.NewStatus || !decoded.Timestamp.Equal(event.Timestamp) {
				t.Errorf("published event mismatch: found=%+v, expected=%+v", decoded, *event)
			}
		})
	}
}
