package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records dispatch telemetry: routing decisions, circuit breaker
// transitions and health monitoring cycles.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordRoute records one routing decision. name is empty when no
	// handler was available.
	RecordRoute(ctx context.Context, name string, score float64, duration time.Duration, err error)

	// RecordBreakerTransition records a circuit breaker state change.
	RecordBreakerTransition(ctx context.Context, name, from, to string)

	// RecordHealthCycle records one completed health monitoring cycle.
	RecordHealthCycle(ctx context.Context, duration time.Duration, probed, unhealthy int)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	routeTotal     metric.Int64Counter
	routeMisses    metric.Int64Counter
	routeDuration  metric.Float64Histogram
	routeScore     metric.Float64Histogram
	breakerChanges metric.Int64Counter
	healthDuration metric.Float64Histogram
	healthUnwell   metric.Int64Counter
}

// NewMetrics creates a Metrics instance backed by the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	routeTotal, err := meter.Int64Counter(
		"dispatch.route.total",
		metric.WithDescription("Total number of routing decisions"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, err
	}

	routeMisses, err := meter.Int64Counter(
		"dispatch.route.misses",
		metric.WithDescription("Routing decisions that found no available handler"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, err
	}

	routeDuration, err := meter.Float64Histogram(
		"dispatch.route.duration_ms",
		metric.WithDescription("Routing decision duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	routeScore, err := meter.Float64Histogram(
		"dispatch.route.score",
		metric.WithDescription("Score of the winning handler"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	breakerChanges, err := meter.Int64Counter(
		"dispatch.breaker.transitions",
		metric.WithDescription("Circuit breaker state transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	healthDuration, err := meter.Float64Histogram(
		"dispatch.health.cycle_duration_ms",
		metric.WithDescription("Health monitoring cycle duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	healthUnwell, err := meter.Int64Counter(
		"dispatch.health.unhealthy",
		metric.WithDescription("Handlers found unhealthy per monitoring cycle"),
		metric.WithUnit("{handler}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		routeTotal:     routeTotal,
		routeMisses:    routeMisses,
		routeDuration:  routeDuration,
		routeScore:     routeScore,
		breakerChanges: breakerChanges,
		healthDuration: healthDuration,
		healthUnwell:   healthUnwell,
	}, nil
}

// RecordRoute records metrics for one routing decision.
func (m *metricsImpl) RecordRoute(ctx context.Context, name string, score float64, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{}
	if name != "" {
		attrs = append(attrs, attribute.String("handler.name", name))
	}
	opt := metric.WithAttributes(attrs...)

	m.routeTotal.Add(ctx, 1, opt)
	if err != nil {
		m.routeMisses.Add(ctx, 1, opt)
	} else {
		m.routeScore.Record(ctx, score, opt)
	}
	m.routeDuration.Record(ctx, float64(duration.Microseconds())/1000.0, opt)
}

// RecordBreakerTransition records a circuit breaker state change.
func (m *metricsImpl) RecordBreakerTransition(ctx context.Context, name, from, to string) {
	m.breakerChanges.Add(ctx, 1, metric.WithAttributes(
		attribute.String("handler.name", name),
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// RecordHealthCycle records one completed health monitoring cycle.
func (m *metricsImpl) RecordHealthCycle(ctx context.Context, duration time.Duration, probed, unhealthy int) {
	m.healthDuration.Record(ctx, float64(duration.Microseconds())/1000.0, metric.WithAttributes(
		attribute.Int("probed", probed),
	))
	if unhealthy > 0 {
		m.healthUnwell.Add(ctx, int64(unhealthy))
	}
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

// NopMetrics returns a Metrics implementation that discards everything.
func NopMetrics() Metrics {
	return &noopMetrics{}
}

func (m *noopMetrics) RecordRoute(ctx context.Context, name string, score float64, duration time.Duration, err error) {
}
func (m *noopMetrics) RecordBreakerTransition(ctx context.Context, name, from, to string) {}
func (m *noopMetrics) RecordHealthCycle(ctx context.Context, duration time.Duration, probed, unhealthy int) {
}
