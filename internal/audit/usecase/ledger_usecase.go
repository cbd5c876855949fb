package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	auditDomain "github.com/allisson/cedms/internal/audit/domain"
	auditService "github.com/allisson/cedms/internal/audit/service"
	apperrors "github.com/allisson/cedms/internal/errors"
)

// ledger implements Ledger over an EntryRepository.
type ledger struct {
	mu   sync.Mutex
	repo EntryRepository
	now  func() time.Time
}

// NewLedger creates the ledger. Only one ledger may write to a repository.
func NewLedger(repo EntryRepository) Ledger {
	return &ledger{repo: repo, now: time.Now}
}

func (l *ledger) newEntry(
	ctx context.Context,
	action auditDomain.Action,
	actor auditDomain.Actor,
	metadata map[string]any,
	outcome auditDomain.Outcome,
) *auditDomain.Entry {
	origin := auditDomain.OriginFromContext(ctx)

	meta := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		meta[k] = v
	}
	if origin.UserAgent != "" {
		meta["userAgent"] = origin.UserAgent
	}

	return &auditDomain.Entry{
		Timestamp: l.now().UTC().Format(time.RFC3339Nano),
		Action:    action,
		UserID:    actor.UserID,
		Username:  actor.Username,
		Role:      actor.Role,
		IP:        origin.IP,
		Metadata:  meta,
		Status:    outcome,
	}
}

// appendLocked links entry to the current head and stores it. Callers hold l.mu.
func (l *ledger) appendLocked(ctx context.Context, entry *auditDomain.Entry) error {
	previous := auditService.GenesisHash
	last, err := l.repo.Last(ctx)
	if err != nil {
		return apperrors.Wrap(err, "failed to read ledger head")
	}
	if last != nil {
		previous = last.Hash
	}

	if err := auditService.Seal(entry, previous); err != nil {
		return apperrors.Wrap(err, "failed to seal audit entry")
	}
	if err := l.repo.Append(ctx, entry); err != nil {
		return apperrors.Wrap(err, "failed to append audit entry")
	}
	return nil
}

// Append seals and stores a new entry.
func (l *ledger) Append(
	ctx context.Context,
	action auditDomain.Action,
	actor auditDomain.Actor,
	metadata map[string]any,
	outcome auditDomain.Outcome,
) (*auditDomain.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := l.newEntry(ctx, action, actor, metadata, outcome)

	if err := l.appendLocked(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// VerifyIntegrity replays the stored chain. An empty ledger is valid.
func (l *ledger) VerifyIntegrity(ctx context.Context) (auditDomain.IntegrityReport, error) {
	l.mu.Lock()
	entries, err := l.repo.List(ctx)
	l.mu.Unlock()
	if err != nil {
		return auditDomain.IntegrityReport{}, apperrors.Wrap(err, "failed to list audit entries")
	}
	return auditService.Verify(entries), nil
}

// Query filters by action, actor (user id or username, case-insensitive),
// outcome and inclusive time range. A non-positive limit returns every match.
func (l *ledger) Query(
	ctx context.Context,
	filter auditDomain.Filter,
) ([]*auditDomain.Entry, int, error) {
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, 0, auditDomain.ErrInvalidTimeRange
	}

	entries, err := l.repo.List(ctx)
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "failed to list audit entries")
	}

	matched := make([]*auditDomain.Entry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		if matches(entries[i], filter) {
			matched = append(matched, entries[i])
		}
	}

	total := len(matched)
	offset := max(filter.Offset, 0)
	if offset >= total {
		return []*auditDomain.Entry{}, total, nil
	}
	matched = matched[offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func matches(entry *auditDomain.Entry, filter auditDomain.Filter) bool {
	if filter.Action != "" && entry.Action != filter.Action {
		return false
	}
	if filter.Outcome != "" && entry.Status != filter.Outcome {
		return false
	}
	if filter.Actor != "" &&
		!strings.EqualFold(entry.UserID, filter.Actor) &&
		!strings.EqualFold(entry.Username, filter.Actor) {
		return false
	}
	if filter.From != nil || filter.To != nil {
		ts := entry.Time()
		if filter.From != nil && ts.Before(*filter.From) {
			return false
		}
		if filter.To != nil && ts.After(*filter.To) {
			return false
		}
	}
	return true
}

// Clear records the clear on the live chain, then swaps the whole ledger for a
// single AUDIT_LOGS_CLEARED entry hashed from genesis. Its metadata keeps the
// number of entries removed and the head hash of the discarded chain.
func (l *ledger) Clear(ctx context.Context, actor auditDomain.Actor) (*auditDomain.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit entries")
	}

	marker := l.newEntry(ctx, auditDomain.ActionAuditLogsCleared, actor, map[string]any{
		"clearedEntries": len(entries),
	}, auditDomain.OutcomeSuccess)
	if err := l.appendLocked(ctx, marker); err != nil {
		return nil, err
	}

	head := l.newEntry(ctx, auditDomain.ActionAuditLogsCleared, actor, map[string]any{
		"clearedEntries": len(entries) + 1,
		"previousHead":   marker.Hash,
	}, auditDomain.OutcomeSuccess)
	if err := auditService.Seal(head, auditService.GenesisHash); err != nil {
		return nil, apperrors.Wrap(err, "failed to seal audit entry")
	}
	if err := l.repo.Replace(ctx, []*auditDomain.Entry{head}); err != nil {
		return nil, apperrors.Wrap(err, "failed to truncate audit ledger")
	}
	return head, nil
}

// DeletedHistory projects DOCUMENT_DELETE successes, newest first.
func (l *ledger) DeletedHistory(ctx context.Context) ([]auditDomain.DeletionRecord, error) {
	entries, err := l.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit entries")
	}

	history := make([]auditDomain.DeletionRecord, 0)
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		if entry.Action != auditDomain.ActionDocumentDelete || entry.Status != auditDomain.OutcomeSuccess {
			continue
		}
		history = append(history, auditDomain.DeletionRecord{
			Timestamp: entry.Timestamp,
			Filename:  metadataString(entry.Metadata, "filename"),
			DocID:     metadataString(entry.Metadata, "docId"),
			DeletedBy: entry.Username,
			Role:      entry.Role,
			IP:        entry.IP,
		})
	}
	return history, nil
}

func metadataString(metadata map[string]any, key string) string {
	s, _ := metadata[key].(string)
	return s
}
