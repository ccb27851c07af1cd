package models

type MetricName string

// Counts
const (
	MetricName_AlertDropped        MetricName = "alert_dropped"
	MetricName_EventDispatched     MetricName = "event_dispatched"
	MetricName_EventDispatchFailed MetricName = "event_dispatch_failed"
	MetricName_RequestCreated      MetricName = "request_created"
	MetricName_TransitionAttempt   MetricName = "transition_attempt"
	MetricName_TransitionFailure   MetricName = "transition_failure"
	MetricName_TransitionSuccess   MetricName = "transition_success"
)

// Gauges
const (
	MetricName_PendingRequests MetricName = "pending_requests"
)

const MetricsCallerName = "go-mediation"

// MetricAttr is a string-valued attribute attached to a count.
type MetricAttr struct {
	Key   string
	Value string
}

func Attr(key, value string) MetricAttr {
	return MetricAttr{key, value}
}
