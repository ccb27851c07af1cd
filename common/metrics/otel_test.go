package metrics

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdk "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/tradepost/go-mediation/common/loggers"
	"github.com/tradepost/go-mediation/models"
)

type fakeResourceMonitor struct {
	value int
	err   error
}

func (f fakeResourceMonitor) GetValue(context.Context) (int, error) {
	return f.value, f.err
}

type fakeQueueMonitor struct {
	unprocessed int
	inFlight    int
}

func (f fakeQueueMonitor) GetUtilization(context.Context) (int, int, error) {
	return f.unprocessed, f.inFlight, nil
}

func collect(t *testing.T, reader sdk.Reader) map[string]metricdata.Metrics {
	rm := metricdata.ResourceMetrics{}
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	found := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			found[m.Name] = m
		}
	}
	return found
}

func TestCount(t *testing.T) {
	reader := sdk.NewManualReader()
	metricService := newOtelMetricService(reader, loggers.NewTestLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := metricService.Count(ctx, models.MetricName_TransitionFailure, 1, models.Attr("kind", string(models.ErrorKind_Conflict))); err != nil {
			t.Fatalf("count: %v", err)
		}
	}
	if err := metricService.Count(ctx, models.MetricName_TransitionFailure, 1, models.Attr("kind", string(models.ErrorKind_NotFound))); err != nil {
		t.Fatalf("count: %v", err)
	}

	found := collect(t, reader)
	sum, ok := found[string(models.MetricName_TransitionFailure)].Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("transition_failure missing or not an int64 sum")
	}
	byKind := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		kind, _ := dp.Attributes.Value(attribute.Key("kind"))
		byKind[kind.AsString()] = dp.Value
	}
	if byKind[string(models.ErrorKind_Conflict)] != 3 {
		t.Errorf("conflicts: found=%d, expected=3", byKind[string(models.ErrorKind_Conflict)])
	}
	if byKind[string(models.ErrorKind_NotFound)] != 1 {
		t.Errorf("not found: found=%d, expected=1", byKind[string(models.ErrorKind_NotFound)])
	}
}

func TestGauges(t *testing.T) {
	reader := sdk.NewManualReader()
	metricService := newOtelMetricService(reader, loggers.NewTestLogger())
	ctx := context.Background()

	if err := metricService.Gauge(ctx, models.MetricName_PendingRequests, fakeResourceMonitor{value: 7}); err != nil {
		t.Fatalf("gauge: %v", err)
	}
	if err := metricService.QueueGauge(ctx, "events_queue", fakeQueueMonitor{unprocessed: 4, inFlight: 2}); err != nil {
		t.Fatalf("queue gauge: %v", err)
	}

	found := collect(t, reader)
	tests := map[string]int64{
		string(models.MetricName_PendingRequests): 7,
		"events_queue_unprocessed":                4,
		"events_queue_in_flight":                  2,
	}
	for name, expected := range tests {
		gauge, ok := found[name].Data.(metricdata.Gauge[int64])
		if !ok || len(gauge.DataPoints) != 1 {
			t.Errorf("%s: missing gauge", name)
			continue
		}
		if gauge.DataPoints[0].Value != expected {
			t.Errorf("%s: found=%d, expected=%d", name, gauge.DataPoints[0].Value, expected)
		}
	}
}

func TestGaugeErrorSkipsObservation(t *testing.T) {
	reader := sdk.NewManualReader()
	metricService := newOtelMetricService(reader, loggers.NewTestLogger())

	if err := metricService.Gauge(context.Background(), models.MetricName_PendingRequests, fakeResourceMonitor{err: errors.New("db down")}); err != nil {
		t.Fatalf("gauge: %v", err)
	}
	rm := metricdata.ResourceMetrics{}
	// Callback errors are reported by Collect but must not stop other instruments from being read
	_ = reader.Collect(context.Background(), &rm)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if gauge, ok := m.Data.(metricdata.Gauge[int64]); ok && len(gauge.DataPoints) > 0 {
				t.Errorf("%s: unexpected observation %d", m.Name, gauge.DataPoints[0].Value)
			}
		}
	}
}
