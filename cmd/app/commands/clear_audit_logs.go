package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	auditDomain "github.com/allisson/cedms/internal/audit/domain"
)

// errClearAborted is returned when the operator declines the prompt.
var errClearAborted = errors.New("clear aborted")

// LedgerClearer truncates the audit ledger.
type LedgerClearer interface {
	Clear(ctx context.Context, actor auditDomain.Actor) (*auditDomain.Entry, error)
}

// RunClearAuditLogs truncates the ledger on behalf of the SYSTEM actor. The
// surviving AUDIT_LOGS_CLEARED entry records how many entries were removed.
// Without skipConfirm the operator must type "yes" on streams.Reader.
func RunClearAuditLogs(
	ctx context.Context,
	clearer LedgerClearer,
	logger *slog.Logger,
	streams IOTuple,
	skipConfirm bool,
	format string,
) error {
	if !skipConfirm {
		_, _ = fmt.Fprint(streams.Writer, "This permanently removes every audit entry. Type 'yes' to continue: ")
		answer, _ := bufio.NewReader(streams.Reader).ReadString('\n')
		if strings.TrimSpace(strings.ToLower(answer)) != "yes" {
			return errClearAborted
		}
	}

	entry, err := clearer.Clear(ctx, auditDomain.SystemActor)
	if err != nil {
		return fmt.Errorf("failed to clear audit logs: %w", err)
	}

	cleared := entry.Metadata["clearedEntries"]

	if format == "json" {
		if err := writeJSON(streams.Writer, map[string]any{
			"cleared_entries": cleared,
			"timestamp":       entry.Timestamp,
			"hash":            entry.Hash,
		}); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(streams.Writer, "Cleared %v audit entries at %s\n", cleared, entry.Timestamp)
		_, _ = fmt.Fprintf(streams.Writer, "New chain head: %s\n", entry.Hash)
	}

	logger.Warn("audit logs cleared",
		slog.Any("cleared_entries", cleared),
		slog.String("actor", auditDomain.SystemActor.Username),
	)
	return nil
}
