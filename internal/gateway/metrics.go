package gateway

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mkmemoportal/auth-gateway/internal/serviceerr"
)

const meterName = "mkmemoportal/auth-gateway"

type meters struct {
	decisions        metric.Int64Counter
	exchangeDuration metric.Int64Histogram
}

func newMeters(provider metric.MeterProvider) (*meters, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}

	meter := provider.Meter(meterName, metric.WithInstrumentationVersion(otel.Version()))

	decisions, err := meter.Int64Counter(
		"gateway.decisions",
		metric.WithDescription("Requests handled, by outcome"),
		metric.WithUnit("request"),
	)
	if err != nil {
		return nil, err
	}

	exchangeDuration, err := meter.Int64Histogram(
		"gateway.token_exchange.duration",
		metric.WithDescription("Authorization code exchange duration"),
		metric.WithUnit("milliseconds"),
	)
	if err != nil {
		return nil, err
	}

	return &meters{
		decisions:        decisions,
		exchangeDuration: exchangeDuration,
	}, nil
}

func (m *meters) recordDecision(ctx context.Context, outcome Outcome) {
	m.decisions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(outcome))))
}

func (m *meters) recordExchange(ctx context.Context, elapsed time.Duration, err error) {
	status := "ok"
	switch {
	case err == nil:
	case errors.Is(err, serviceerr.ErrTokenExchange):
		status = "rejected"
	default:
		status = "failed"
	}

	m.exchangeDuration.Record(ctx, elapsed.Milliseconds(), metric.WithAttributes(attribute.String("status", status)))
}
