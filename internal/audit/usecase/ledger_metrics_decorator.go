package usecase

import (
	"context"

	auditDomain "github.com/allisson/cedms/internal/audit/domain"
	"github.com/allisson/cedms/internal/metrics"
)

// ledgerWithMetrics counts appended entries and chain verifications.
type ledgerWithMetrics struct {
	Ledger
	metrics metrics.SecurityMetrics
}

// NewLedgerWithMetrics wraps a Ledger with security event counters.
func NewLedgerWithMetrics(next Ledger, m metrics.SecurityMetrics) Ledger {
	return &ledgerWithMetrics{Ledger: next, metrics: m}
}

func (l *ledgerWithMetrics) Append(
	ctx context.Context,
	action auditDomain.Action,
	actor auditDomain.Actor,
	metadata map[string]any,
	outcome auditDomain.Outcome,
) (*auditDomain.Entry, error) {
	entry, err := l.Ledger.Append(ctx, action, actor, metadata, outcome)
	if err == nil {
		l.metrics.RecordAuditEvent(ctx, string(action), string(outcome))
	}
	return entry, err
}

func (l *ledgerWithMetrics) VerifyIntegrity(ctx context.Context) (auditDomain.IntegrityReport, error) {
	report, err := l.Ledger.VerifyIntegrity(ctx)
	if err == nil {
		l.metrics.RecordChainVerification(ctx, report.Valid)
	}
	return report, err
}

func (l *ledgerWithMetrics) Clear(ctx context.Context, actor auditDomain.Actor) (*auditDomain.Entry, error) {
	entry, err := l.Ledger.Clear(ctx, actor)
	if err == nil {
		l.metrics.RecordAuditEvent(ctx, string(entry.Action), string(entry.Status))
	}
	return entry, err
}
