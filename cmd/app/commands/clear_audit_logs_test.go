package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/cedms/internal/audit/domain"
)

func TestRunClearAuditLogs(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("Success_Confirmed", func(t *testing.T) {
		ledger, _ := newTestLedger(t, 5)

		var out bytes.Buffer
		streams := IOTuple{Reader: strings.NewReader("yes\n"), Writer: &out}
		require.NoError(t, RunClearAuditLogs(ctx, ledger, logger, streams, false, "text"))
		require.Contains(t, out.String(), "Cleared 6 audit entries")

		entries, total, err := ledger.Query(ctx, auditDomain.Filter{})
		require.NoError(t, err)
		require.Equal(t, 1, total)
		require.Equal(t, auditDomain.ActionAuditLogsCleared, entries[0].Action)
		require.Equal(t, auditDomain.SystemActor.UserID, entries[0].UserID)

		report, err := ledger.VerifyIntegrity(ctx)
		require.NoError(t, err)
		require.True(t, report.Valid)
	})

	t.Run("Success_SkipConfirmJSON", func(t *testing.T) {
		ledger, _ := newTestLedger(t, 1)

		var out bytes.Buffer
		streams := IOTuple{Reader: strings.NewReader(""), Writer: &out}
		require.NoError(t, RunClearAuditLogs(ctx, ledger, logger, streams, true, "json"))

		var result map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &result))
		require.Equal(t, float64(2), result["cleared_entries"])
		require.NotEmpty(t, result["hash"])
	})

	t.Run("Error_Declined", func(t *testing.T) {
		ledger, _ := newTestLedger(t, 2)

		var out bytes.Buffer
		streams := IOTuple{Reader: strings.NewReader("no\n"), Writer: &out}
		err := RunClearAuditLogs(ctx, ledger, logger, streams, false, "text")
		require.ErrorIs(t, err, errClearAborted)

		_, total, err := ledger.Query(ctx, auditDomain.Filter{})
		require.NoError(t, err)
		require.Equal(t, 2, total)
	})
}
