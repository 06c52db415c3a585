package telemetry

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all custom metrics for the service
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal metric.Int64Counter
	HTTPDurationMs    metric.Float64Histogram

	// Business metrics
	PatientTotal metric.Int64Counter

	// Collaborator metrics
	BillingCallDurationMs     metric.Float64Histogram
	BillingFailuresTotal      metric.Int64Counter
	EventPublishFailuresTotal metric.Int64Counter

	// Auth metrics
	AuthFailuresTotal metric.Int64Counter
}

// InitMetrics initializes all custom metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("github.com/pm-health/patient-service")

	httpRequestsTotal, err := meter.Int64Counter(
		"http_server_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	httpDurationMs, err := meter.Float64Histogram(
		"http_server_duration_milliseconds",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	patientTotal, err := meter.Int64Counter(
		"patient_total",
		metric.WithDescription("Total number of patient operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	billingCallDurationMs, err := meter.Float64Histogram(
		"billing_call_duration_milliseconds",
		metric.WithDescription("Billing provisioning call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	billingFailuresTotal, err := meter.Int64Counter(
		"billing_failures_total",
		metric.WithDescription("Total number of failed billing provisioning calls"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, err
	}

	eventPublishFailuresTotal, err := meter.Int64Counter(
		"event_publish_failures_total",
		metric.WithDescription("Total number of failed event publishes"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, err
	}

	authFailuresTotal, err := meter.Int64Counter(
		"auth_failures_total",
		metric.WithDescription("Total number of authentication failures"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, err
	}

	log.Println("✓ Custom metrics initialized")

	return &Metrics{
		HTTPRequestsTotal:         httpRequestsTotal,
		HTTPDurationMs:            httpDurationMs,
		PatientTotal:              patientTotal,
		BillingCallDurationMs:     billingCallDurationMs,
		BillingFailuresTotal:      billingFailuresTotal,
		EventPublishFailuresTotal: eventPublishFailuresTotal,
		AuthFailuresTotal:         authFailuresTotal,
	}, nil
}

// RecordHTTPRequest records an HTTP request metric
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, statusCode int, durationMs float64) {
	attrs := []attribute.KeyValue{
		attribute.String("http_method", method),
		attribute.String("http_route", route),
		attribute.Int("http_status_code", statusCode),
	}

	m.HTTPRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.HTTPDurationMs.Record(ctx, durationMs, metric.WithAttributes(attrs...))
}

// RecordPatientOperation records a patient operation metric
func (m *Metrics) RecordPatientOperation(ctx context.Context, operation string) {
	m.PatientTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

// RecordBillingCall records the outcome of a billing provisioning call
func (m *Metrics) RecordBillingCall(ctx context.Context, durationMs float64, success bool) {
	m.BillingCallDurationMs.Record(ctx, durationMs, metric.WithAttributes(
		attribute.Bool("success", success),
	))
	if !success {
		m.BillingFailuresTotal.Add(ctx, 1)
	}
}

// RecordPublishFailure records a failed event publish
func (m *Metrics) RecordPublishFailure(ctx context.Context, routingKey string) {
	m.EventPublishFailuresTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("routing_key", routingKey),
	))
}

// RecordAuthFailure records an authentication failure metric
func (m *Metrics) RecordAuthFailure(ctx context.Context, reason string) {
	m.AuthFailuresTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
	))
}
