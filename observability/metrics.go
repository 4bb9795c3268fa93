package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// MetricsConfig selects where frame-loop metrics go.
type MetricsConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string // OTLP gRPC endpoint, e.g. "localhost:4317"
	Insecure       bool
	Enabled        bool
}

// Metrics holds the instruments recorded by the frame loop.
type Metrics struct {
	provider *sdkmetric.MeterProvider

	frames        metric.Int64Counter
	frameDuration metric.Float64Histogram
	finalized     metric.Int64Counter
	sinkFailures  metric.Int64Counter
	frameErrors   metric.Int64Counter
}

// NewMetrics exports through OTLP when enabled and records into a no-op meter otherwise.
func NewMetrics(ctx context.Context, cfg MetricsConfig, log logrus.FieldLogger) (*Metrics, error) {
	if !cfg.Enabled {
		return newMetrics(noop.NewMeterProvider().Meter("signbridge"), nil)
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("metric exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("metric resource: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(15*time.Second))),
	)
	log.WithField("endpoint", cfg.Endpoint).Info("metrics export enabled")
	return newMetrics(mp.Meter("signbridge"), mp)
}

// NewMetricsWithProvider records into an existing provider (tests use a manual reader).
func NewMetricsWithProvider(mp *sdkmetric.MeterProvider) (*Metrics, error) {
	return newMetrics(mp.Meter("signbridge"), mp)
}

func newMetrics(m metric.Meter, mp *sdkmetric.MeterProvider) (*Metrics, error) {
	out := &Metrics{provider: mp}
	var err error
	if out.frames, err = m.Int64Counter("signbridge.frames",
		metric.WithDescription("Frames processed by the pipeline loop")); err != nil {
		return nil, err
	}
	if out.frameDuration, err = m.Float64Histogram("signbridge.frame.duration",
		metric.WithDescription("Wall time spent processing one frame"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if out.finalized, err = m.Int64Counter("signbridge.sentences.finalized",
		metric.WithDescription("Sentences finalized by the composer")); err != nil {
		return nil, err
	}
	if out.sinkFailures, err = m.Int64Counter("signbridge.sink.failures",
		metric.WithDescription("Side-effect sink failures")); err != nil {
		return nil, err
	}
	if out.frameErrors, err = m.Int64Counter("signbridge.frame.errors",
		metric.WithDescription("Recoverable per-frame capability failures")); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Metrics) Frame(ctx context.Context, d time.Duration) {
	m.frames.Add(ctx, 1)
	m.frameDuration.Record(ctx, d.Seconds())
}

func (m *Metrics) Finalized(ctx context.Context) { m.finalized.Add(ctx, 1) }

func (m *Metrics) SinkFailure(ctx context.Context, sink string) {
	m.sinkFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("sink", sink)))
}

func (m *Metrics) FrameError(ctx context.Context, stage string) {
	m.frameErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

// Shutdown flushes pending exports.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m.provider == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}
