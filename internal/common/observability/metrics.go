package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

type Observability struct {
	meterProvider      *metric.MeterProvider
	meter              otelmetric.Meter
	validationCounter  otelmetric.Int64Counter
	validationDuration otelmetric.Float64Histogram
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	validationCounter, _ := meter.Int64Counter(
		"validations.processed",
		otelmetric.WithDescription("Number of payment validations processed"),
	)

	validationDuration, _ := meter.Float64Histogram(
		"validations.duration",
		otelmetric.WithDescription("Payment validation duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider:      provider,
		meter:              meter,
		validationCounter:  validationCounter,
		validationDuration: validationDuration,
	}
}

func (o *Observability) RecordValidation(ctx context.Context, status string) {
	if o == nil || o.validationCounter == nil {
		return
	}
	o.validationCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("status", status),
	))
}

func (o *Observability) RecordValidationDuration(ctx context.Context, duration time.Duration, status string) {
	if o == nil || o.validationDuration == nil {
		return
	}
	o.validationDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("status", status),
	))
}

func (o *Observability) Shutdown() {
	if o == nil || o.meterProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	o.meterProvider.Shutdown(ctx)
}
