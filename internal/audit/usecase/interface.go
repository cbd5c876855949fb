// Package usecase implements the audit ledger and the authorized operations on it.
//
// Ledger is the single writer of the hash chain: every component appends
// through it and the append path holds one mutex around "read last hash,
// compute, write". AuditLogUseCase layers role checks and self-auditing on top
// for the read, verify and clear operations exposed to administrators.
package usecase

import (
	"context"

	auditDomain "github.com/allisson/cedms/internal/audit/domain"
)

// EntryRepository persists ledger entries in append order.
type EntryRepository interface {
	Append(ctx context.Context, entry *auditDomain.Entry) error
	Last(ctx context.Context) (*auditDomain.Entry, error)
	List(ctx context.Context) ([]*auditDomain.Entry, error)
	Replace(ctx context.Context, entries []*auditDomain.Entry) error
}

// Authorizer decides whether a role may perform an action on a resource.
type Authorizer interface {
	Authorize(role, resource, action string, isOwner bool) bool
}

// Ledger is the append-only, hash-chained security event log.
type Ledger interface {
	// Append seals and stores a new entry. Origin IP and user agent are taken
	// from ctx (see auditDomain.WithOrigin).
	Append(
		ctx context.Context,
		action auditDomain.Action,
		actor auditDomain.Actor,
		metadata map[string]any,
		outcome auditDomain.Outcome,
	) (*auditDomain.Entry, error)

	// VerifyIntegrity replays the chain from genesis.
	VerifyIntegrity(ctx context.Context) (auditDomain.IntegrityReport, error)

	// Query returns matching entries newest first, paginated, and the number of
	// matches before pagination.
	Query(ctx context.Context, filter auditDomain.Filter) ([]*auditDomain.Entry, int, error)

	// Clear truncates the ledger, leaving a single AUDIT_LOGS_CLEARED entry.
	Clear(ctx context.Context, actor auditDomain.Actor) (*auditDomain.Entry, error)

	// DeletedHistory lists successful document deletions newest first.
	DeletedHistory(ctx context.Context) ([]auditDomain.DeletionRecord, error)
}

// AuditLogUseCase exposes the ledger to authenticated callers. Each call is
// itself recorded in the ledger.
type AuditLogUseCase interface {
	List(ctx context.Context, actor auditDomain.Actor, filter auditDomain.Filter) (*auditDomain.Page, error)
	Verify(ctx context.Context, actor auditDomain.Actor) (auditDomain.IntegrityReport, error)
	Clear(ctx context.Context, actor auditDomain.Actor) (*auditDomain.Entry, error)
}
