package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdk "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"

	mediation "github.com/tradepost/go-mediation"
	"github.com/tradepost/go-mediation/models"
)

const exportInterval = 30 * time.Second

var _ models.MetricService = &OtelMetricService{}

type OtelMetricService struct {
	meterProvider *sdk.MeterProvider
	meter         metric.Meter
	logger        models.Logger

	mu       sync.Mutex
	counters map[models.MetricName]metric.Int64Counter
}

// NewOtelMetricService exports to the OTLP collector at collectorHost, or to stdout when no collector is configured.
func NewOtelMetricService(ctx context.Context, collectorHost string, logger models.Logger) (*OtelMetricService, error) {
	var exporter sdk.Exporter
	var err error
	if len(collectorHost) > 0 {
		exporter, err = otlpmetrichttp.New(ctx, otlpmetrichttp.WithInsecure(), otlpmetrichttp.WithEndpoint(collectorHost))
	} else {
		exporter, err = stdoutmetric.New()
	}
	if err != nil {
		return nil, fmt.Errorf("metrics: error creating exporter: %w", err)
	}
	return newOtelMetricService(sdk.NewPeriodicReader(exporter, sdk.WithInterval(exportInterval)), logger), nil
}

func newOtelMetricService(reader sdk.Reader, logger models.Logger) *OtelMetricService {
	res := resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceNameKey.String(mediation.ServiceName))
	meterProvider := sdk.NewMeterProvider(sdk.WithReader(reader), sdk.WithResource(res))
	return &OtelMetricService{
		meterProvider: meterProvider,
		meter:         meterProvider.Meter(models.MetricsCallerName),
		logger:        logger,
		counters:      make(map[models.MetricName]metric.Int64Counter),
	}
}

func (o *OtelMetricService) Count(ctx context.Context, name models.MetricName, val int, attrs ...models.MetricAttr) error {
	counter, err := o.counter(name)
	if err != nil {
		return err
	}
	counter.Add(ctx, int64(val), metric.WithAttributes(otelAttrs(attrs)...))
	return nil
}

func (o *OtelMetricService) counter(name models.MetricName) (metric.Int64Counter, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if counter, found := o.counters[name]; found {
		return counter, nil
	}
	counter, err := o.meter.Int64Counter(string(name))
	if err != nil {
		return nil, fmt.Errorf("metrics: error creating counter %s: %w", name, err)
	}
	o.counters[name] = counter
	return counter, nil
}

func (o *OtelMetricService) Gauge(_ context.Context, name models.MetricName, monitor models.ResourceMonitor) error {
	_, err := o.meter.Int64ObservableGauge(string(name), metric.WithInt64Callback(func(ctx context.Context, observer metric.Int64Observer) error {
		if value, err := monitor.GetValue(ctx); err != nil {
			o.logger.Warnf("metrics: error reading %s: %v", name, err)
			return err
		} else {
			observer.Observe(int64(value))
		}
		return nil
	}))
	return err
}

// QueueGauge reports the number of unprocessed and in-flight messages in a queue as two gauges.
func (o *OtelMetricService) QueueGauge(_ context.Context, queueName string, monitor models.QueueMonitor) error {
	unprocessed, err := o.meter.Int64ObservableGauge(fmt.Sprintf("%s_unprocessed", queueName))
	if err != nil {
		return err
	}
	inFlight, err := o.meter.Int64ObservableGauge(fmt.Sprintf("%s_in_flight", queueName))
	if err != nil {
		return err
	}
	_, err = o.meter.RegisterCallback(func(ctx context.Context, observer metric.Observer) error {
		if numUnprocessed, numInFlight, err := monitor.GetUtilization(ctx); err != nil {
			o.logger.Warnf("metrics: error reading utilization for %s: %v", queueName, err)
			return err
		} else {
			observer.ObserveInt64(unprocessed, int64(numUnprocessed))
			observer.ObserveInt64(inFlight, int64(numInFlight))
		}
		return nil
	}, unprocessed, inFlight)
	return err
}

func (o *OtelMetricService) Shutdown(ctx context.Context) {
	if err := o.meterProvider.Shutdown(ctx); err != nil {
		o.logger.Errorf("metrics: error shutting down meter provider: %v", err)
	}
}

func otelAttrs(attrs []models.MetricAttr) []attribute.KeyValue {
	kvs := make([]attribute.KeyValue, len(attrs))
	for i, attr := range attrs {
		kvs[i] = attribute.String(attr.Key, attr.Value)
	}
	return kvs
}
