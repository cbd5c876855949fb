package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/cedms/internal/audit/domain"
	auditRepository "github.com/allisson/cedms/internal/audit/repository"
	apperrors "github.com/allisson/cedms/internal/errors"
)

// mockAuthorizer is a mock implementation of Authorizer for testing.
type mockAuthorizer struct {
	mock.Mock
}

func (m *mockAuthorizer) Authorize(role, resource, action string, isOwner bool) bool {
	args := m.Called(role, resource, action, isOwner)
	return args.Bool(0)
}

func TestAuditLogUseCase_List(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_RecordsViewAfterQuery", func(t *testing.T) {
		l, _ := newTestLedger(t)
		_, err := l.Append(ctx, auditDomain.ActionLoginComplete, testActor, nil, auditDomain.OutcomeSuccess)
		require.NoError(t, err)

		authz := &mockAuthorizer{}
		authz.On("Authorize", "ADMIN", "audit_logs", "read", false).Return(true)

		uc := NewAuditLogUseCase(l, authz)
		page, err := uc.List(ctx, testActor, auditDomain.Filter{})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)
		require.Len(t, page.Entries, 1)
		assert.Equal(t, auditDomain.ActionLoginComplete, page.Entries[0].Action)
		assert.Equal(t, auditDomain.IntegrityReport{Valid: true, TamperedIndex: auditDomain.NoTamperedIndex, Total: 1},
			page.Integrity)

		all, _, err := l.Query(ctx, auditDomain.Filter{})
		require.NoError(t, err)
		assert.Equal(t, auditDomain.ActionAuditLogsViewed, all[0].Action)
		authz.AssertExpectations(t)
	})

	t.Run("Success_ReportsBrokenChain", func(t *testing.T) {
		l, store := newTestLedger(t)
		for i := 0; i < 3; i++ {
			_, err := l.Append(ctx, auditDomain.ActionLoginComplete, testActor, nil, auditDomain.OutcomeSuccess)
			require.NoError(t, err)
		}
		records, err := store.List(ctx, auditRepository.Collection)
		require.NoError(t, err)
		forged := strings.Replace(string(records[1].Value), `"alice"`, `"mallory"`, 1)
		require.NoError(t, store.Put(ctx, auditRepository.Collection, records[1].Key, []byte(forged)))

		authz := &mockAuthorizer{}
		authz.On("Authorize", "ADMIN", "audit_logs", "read", false).Return(true)

		page, err := NewAuditLogUseCase(l, authz).List(ctx, testActor, auditDomain.Filter{})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
		assert.False(t, page.Integrity.Valid)
		assert.Equal(t, 1, page.Integrity.TamperedIndex)
	})

	t.Run("Error_ForbiddenIsAudited", func(t *testing.T) {
		l, _ := newTestLedger(t)
		employee := auditDomain.Actor{UserID: "u-9", Username: "eve", Role: "EMPLOYEE"}

		authz := &mockAuthorizer{}
		authz.On("Authorize", "EMPLOYEE", "audit_logs", "read", false).Return(false)

		_, err := NewAuditLogUseCase(l, authz).List(ctx, employee, auditDomain.Filter{})
		assert.ErrorIs(t, err, ErrAuditAccessDenied)
		assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

		entries, _, err := l.Query(ctx, auditDomain.Filter{})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, auditDomain.OutcomeFailure, entries[0].Status)
		assert.Equal(t, "eve", entries[0].Username)
	})
}

func TestAuditLogUseCase_Verify(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_ValidChainRecorded", func(t *testing.T) {
		l, _ := newTestLedger(t)
		authz := &mockAuthorizer{}
		authz.On("Authorize", "ADMIN", "audit_logs", "verify", false).Return(true)

		report, err := NewAuditLogUseCase(l, authz).Verify(ctx, testActor)
		require.NoError(t, err)
		assert.True(t, report.Valid)

		entries, _, err := l.Query(ctx, auditDomain.Filter{Action: auditDomain.ActionAuditLogsVerified})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, auditDomain.OutcomeSuccess, entries[0].Status)
	})

	t.Run("Error_Forbidden", func(t *testing.T) {
		l, _ := newTestLedger(t)
		authz := &mockAuthorizer{}
		authz.On("Authorize", "MANAGER", "audit_logs", "verify", false).Return(false)

		_, err := NewAuditLogUseCase(l, authz).Verify(ctx, auditDomain.Actor{Role: "MANAGER"})
		assert.ErrorIs(t, err, ErrAuditAccessDenied)
	})
}

func TestAuditLogUseCase_Clear(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_AdminClears", func(t *testing.T) {
		l, _ := newTestLedger(t)
		for i := 0; i < 3; i++ {
			_, err := l.Append(ctx, auditDomain.ActionDocumentUpload, testActor, nil, auditDomain.OutcomeSuccess)
			require.NoError(t, err)
		}
		authz := &mockAuthorizer{}
		authz.On("Authorize", "ADMIN", "audit_logs", "clear", false).Return(true)

		head, err := NewAuditLogUseCase(l, authz).Clear(ctx, testActor)
		require.NoError(t, err)
		assert.Equal(t, auditDomain.ActionAuditLogsCleared, head.Action)

		report, err := l.VerifyIntegrity(ctx)
		require.NoError(t, err)
		assert.True(t, report.Valid)
		assert.Equal(t, 1, report.Total)
	})

	t.Run("Error_ForbiddenKeepsLedger", func(t *testing.T) {
		l, _ := newTestLedger(t)
		_, err := l.Append(ctx, auditDomain.ActionDocumentUpload, testActor, nil, auditDomain.OutcomeSuccess)
		require.NoError(t, err)
		authz := &mockAuthorizer{}
		authz.On("Authorize", "EMPLOYEE", "audit_logs", "clear", false).Return(false)

		_, err = NewAuditLogUseCase(l, authz).Clear(ctx, auditDomain.Actor{Role: "EMPLOYEE"})
		assert.ErrorIs(t, err, ErrAuditAccessDenied)

		report, err := l.VerifyIntegrity(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, report.Total)
	})
}
