package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// QueueDepthFunc reports the current retry queue depth; the queue
// store provides it.
type QueueDepthFunc func(ctx context.Context) (int, error)

/* Recorder exports integration metrics in Prometheus format via the
 * OpenTelemetry SDK. It satisfies both the dispatcher's and the
 * authenticator's recorder interfaces.
 */
type Recorder struct {
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter

	deliveries metric.Int64Counter
	decisions  metric.Int64Counter
	queueDepth metric.Int64ObservableGauge
}

// NewRecorder creates the OTel meter provider with a Prometheus reader
// and registers the integration instruments.
func NewRecorder(queueDepth QueueDepthFunc) (*Recorder, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	meter := meterProvider.Meter(
		"portal-integration",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	r := &Recorder{
		meterProvider: meterProvider,
		meter:         meter,
	}

	r.deliveries, err = meter.Int64Counter(
		"webhook_deliveries_total",
		metric.WithDescription("Webhook delivery attempts by event kind and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("registering deliveries counter: %w", err)
	}

	r.decisions, err = meter.Int64Counter(
		"auth_decisions_total",
		metric.WithDescription("Internal API authentication decisions by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("registering decisions counter: %w", err)
	}

	r.queueDepth, err = meter.Int64ObservableGauge(
		"webhook_queue_depth",
		metric.WithDescription("Webhooks currently waiting for a retry"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			if queueDepth == nil {
				return nil
			}
			depth, err := queueDepth(ctx)
			if err != nil {
				return fmt.Errorf("observing queue depth: %w", err)
			}
			o.Observe(int64(depth))
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue depth gauge: %w", err)
	}

	return r, nil
}

// Delivery counts one delivery attempt outcome for an event kind
func (r *Recorder) Delivery(kind string, outcome string) {
	r.deliveries.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String("event", kind),
			attribute.String("outcome", outcome),
		))
}

// Decision counts one authentication decision outcome
func (r *Recorder) Decision(outcome string) {
	r.decisions.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("outcome", outcome)))
}

// Handler returns the Prometheus scrape endpoint
func (r *Recorder) Handler() http.Handler {
	return promhttp.Handler()
}

// Shutdown flushes and stops the meter provider
func (r *Recorder) Shutdown(ctx context.Context) error {
	if err := r.meterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down meter provider: %w", err)
	}
	return nil
}
