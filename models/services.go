package models

import (
	"context"
)

type RequestRepository interface {
	GetRequest(ctx context.Context, id string) (*MediationRequest, error)
	CreateRequest(ctx context.Context, req *MediationRequest) error
	// UpdateRequest replaces the stored request with next only if the stored status and version still match expected.
	// Losing that race is not an error: it returns false.
	UpdateRequest(ctx context.Context, expected *MediationRequest, next *MediationRequest) (bool, error)
	RequestCount(ctx context.Context, status RequestStatus) (int, error)
}

type StaffDirectory interface {
	IsMediatorStaff(ctx context.Context, actorId string) (bool, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event *TransitionEvent) error
}

type EventDispatcher interface {
	Dispatch(event *TransitionEvent)
}

type QueueMonitor interface {
	GetUtilization(ctx context.Context) (int, int, error)
}

type ResourceMonitor interface {
	GetValue(ctx context.Context) (int, error)
}

type Notifier interface {
	SendAlert(title, desc, content string) error
}

type MetricService interface {
	Count(ctx context.Context, name MetricName, val int, attrs ...MetricAttr) error
	Gauge(ctx context.Context, name MetricName, monitor ResourceMonitor) error
	QueueGauge(ctx context.Context, queueName string, monitor QueueMonitor) error
	Shutdown(ctx context.Context)
}

type Logger interface {
	Debugf(template string, args ...interface{})
	Debugw(msg string, args ...interface{})
	Errorf(template string, args ...interface{})
	Fatalf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Sync() error
}
