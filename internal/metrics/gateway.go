package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// GatewayMetrics records requests the gateway pipeline turned away before they
// reached a handler, and limiter backends that failed open.
type GatewayMetrics interface {
	// RecordRejection counts a rejection at stage ("authenticate", "authorize",
	// "rate_limit", "validate", "handler") with the failure kind.
	RecordRejection(ctx context.Context, stage, kind string)

	// RecordLimiterFailure counts a limiter error that admitted the request.
	RecordLimiterFailure(ctx context.Context, route string)
}

type gatewayMetrics struct {
	rejections      metric.Int64Counter
	limiterFailures metric.Int64Counter
}

// NewGatewayMetrics creates {namespace}_gateway_rejections_total and
// {namespace}_gateway_limiter_failures_total.
func NewGatewayMetrics(meterProvider metric.MeterProvider, namespace string) (GatewayMetrics, error) {
	meter := meterProvider.Meter(namespace)

	rejections, err := meter.Int64Counter(
		fmt.Sprintf("%s_gateway_rejections_total", namespace),
		metric.WithDescription("Total number of requests rejected by the gateway pipeline"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rejection counter: %w", err)
	}

	limiterFailures, err := meter.Int64Counter(
		fmt.Sprintf("%s_gateway_limiter_failures_total", namespace),
		metric.WithDescription("Total number of rate limiter errors that admitted the request"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create limiter failure counter: %w", err)
	}

	return &gatewayMetrics{rejections: rejections, limiterFailures: limiterFailures}, nil
}

func (g *gatewayMetrics) RecordRejection(ctx context.Context, stage, kind string) {
	g.rejections.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("kind", kind),
	))
}

func (g *gatewayMetrics) RecordLimiterFailure(ctx context.Context, route string) {
	g.limiterFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("route", route)))
}

// NoOpGatewayMetrics discards every measurement.
type NoOpGatewayMetrics struct{}

// NewNoOpGatewayMetrics creates a no-op GatewayMetrics implementation.
func NewNoOpGatewayMetrics() GatewayMetrics {
	return &NoOpGatewayMetrics{}
}

func (n *NoOpGatewayMetrics) RecordRejection(ctx context.Context, stage, kind string) {}

func (n *NoOpGatewayMetrics) RecordLimiterFailure(ctx context.Context, route string) {}
