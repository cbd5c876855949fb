package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SecurityMetrics counts audit ledger events and chain verifications.
type SecurityMetrics interface {
	// RecordAuditEvent counts one appended ledger entry.
	RecordAuditEvent(ctx context.Context, action, outcome string)
	// RecordChainVerification counts one full replay of the hash chain.
	RecordChainVerification(ctx context.Context, valid bool)
}

type securityMetrics struct {
	events        metric.Int64Counter
	verifications metric.Int64Counter
}

// NewSecurityMetrics creates the audit event and verification counters.
func NewSecurityMetrics(meterProvider metric.MeterProvider, namespace string) (SecurityMetrics, error) {
	meter := meterProvider.Meter(namespace)

	events, err := meter.Int64Counter(
		name(namespace, "audit_events_total"),
		metric.WithDescription("Audit ledger entries by action and outcome"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit event counter: %w", err)
	}

	verifications, err := meter.Int64Counter(
		name(namespace, "audit_chain_verifications_total"),
		metric.WithDescription("Audit chain verifications by result"),
		metric.WithUnit("{verification}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chain verification counter: %w", err)
	}

	return &securityMetrics{events: events, verifications: verifications}, nil
}

func (s *securityMetrics) RecordAuditEvent(ctx context.Context, action, outcome string) {
	s.events.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("outcome", outcome),
	))
}

func (s *securityMetrics) RecordChainVerification(ctx context.Context, valid bool) {
	s.verifications.Add(ctx, 1, metric.WithAttributes(attribute.Bool("valid", valid)))
}

type noopSecurityMetrics struct{}

// NewNoOpSecurityMetrics returns a SecurityMetrics that drops every measurement.
func NewNoOpSecurityMetrics() SecurityMetrics {
	return noopSecurityMetrics{}
}

func (noopSecurityMetrics) RecordAuditEvent(context.Context, string, string) {}

func (noopSecurityMetrics) RecordChainVerification(context.Context, bool) {}
