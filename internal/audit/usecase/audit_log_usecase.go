package usecase

import (
	"context"

	auditDomain "github.com/allisson/cedms/internal/audit/domain"
	apperrors "github.com/allisson/cedms/internal/errors"
)

// Permission names on the audit_logs resource.
const (
	resourceAuditLogs = "audit_logs"
	actionRead        = "read"
	actionVerify      = "verify"
	actionClear       = "clear"
)

// ErrAuditAccessDenied is returned when the caller's role lacks the permission.
var ErrAuditAccessDenied = apperrors.Wrap(apperrors.ErrForbidden, "audit log access denied")

type auditLogUseCase struct {
	ledger Ledger
	authz  Authorizer
}

// NewAuditLogUseCase creates the authorized audit log operations.
func NewAuditLogUseCase(ledger Ledger, authz Authorizer) AuditLogUseCase {
	return &auditLogUseCase{ledger: ledger, authz: authz}
}

// deny records a refused call and returns ErrAuditAccessDenied, or the append
// failure if the refusal could not be recorded.
func (a *auditLogUseCase) deny(
	ctx context.Context,
	action auditDomain.Action,
	actor auditDomain.Actor,
) error {
	if _, err := a.ledger.Append(ctx, action, actor, map[string]any{
		"error": "Access Denied",
	}, auditDomain.OutcomeFailure); err != nil {
		return err
	}
	return ErrAuditAccessDenied
}

// List queries the ledger and replays the chain, then records the view. The
// view entry itself is not part of the returned page or its integrity report.
func (a *auditLogUseCase) List(
	ctx context.Context,
	actor auditDomain.Actor,
	filter auditDomain.Filter,
) (*auditDomain.Page, error) {
	if !a.authz.Authorize(actor.Role, resourceAuditLogs, actionRead, false) {
		return nil, a.deny(ctx, auditDomain.ActionAuditLogsViewed, actor)
	}

	entries, total, err := a.ledger.Query(ctx, filter)
	if err != nil {
		return nil, err
	}
	report, err := a.ledger.VerifyIntegrity(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := a.ledger.Append(ctx, auditDomain.ActionAuditLogsViewed, actor, map[string]any{
		"returned":   len(entries),
		"total":      total,
		"chainValid": report.Valid,
	}, auditDomain.OutcomeSuccess); err != nil {
		return nil, err
	}
	return &auditDomain.Page{Entries: entries, Total: total, Integrity: report}, nil
}

// Verify replays the chain and records the outcome. A broken chain is recorded
// as FAILURE with the tampered index.
func (a *auditLogUseCase) Verify(
	ctx context.Context,
	actor auditDomain.Actor,
) (auditDomain.IntegrityReport, error) {
	if !a.authz.Authorize(actor.Role, resourceAuditLogs, actionVerify, false) {
		return auditDomain.IntegrityReport{}, a.deny(ctx, auditDomain.ActionAuditLogsVerified, actor)
	}

	report, err := a.ledger.VerifyIntegrity(ctx)
	if err != nil {
		return auditDomain.IntegrityReport{}, err
	}

	outcome := auditDomain.OutcomeSuccess
	if !report.Valid {
		outcome = auditDomain.OutcomeFailure
	}
	if _, err := a.ledger.Append(ctx, auditDomain.ActionAuditLogsVerified, actor, map[string]any{
		"valid":         report.Valid,
		"tamperedIndex": report.TamperedIndex,
		"total":         report.Total,
	}, outcome); err != nil {
		return auditDomain.IntegrityReport{}, err
	}
	return report, nil
}

// Clear truncates the ledger. The clear is recorded by the ledger itself.
func (a *auditLogUseCase) Clear(ctx context.Context, actor auditDomain.Actor) (*auditDomain.Entry, error) {
	if !a.authz.Authorize(actor.Role, resourceAuditLogs, actionClear, false) {
		return nil, a.deny(ctx, auditDomain.ActionAuditLogsCleared, actor)
	}
	return a.ledger.Clear(ctx, actor)
}
