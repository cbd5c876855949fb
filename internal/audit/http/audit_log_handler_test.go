package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/cedms/internal/audit/domain"
	"github.com/allisson/cedms/internal/audit/http/dto"
	auditUseCase "github.com/allisson/cedms/internal/audit/usecase"
	auditMocks "github.com/allisson/cedms/internal/audit/usecase/mocks"
	authDomain "github.com/allisson/cedms/internal/auth/domain"
	authHTTP "github.com/allisson/cedms/internal/auth/http"
	userDomain "github.com/allisson/cedms/internal/user/domain"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

var admin = &authDomain.Principal{UserID: "admin-1", Username: "root", Role: userDomain.RoleAdmin}

func setupAuditRouter(t *testing.T, principal *authDomain.Principal) (*gin.Engine, *auditMocks.MockAuditLogUseCase) {
	t.Helper()

	useCase := &auditMocks.MockAuditLogUseCase{}
	handler := NewAuditLogHandler(useCase, slog.New(slog.NewTextHandler(io.Discard, nil)))

	router := gin.New()
	group := router.Group("/api/audit-logs", func(c *gin.Context) {
		if principal != nil {
			c.Request = c.Request.WithContext(authHTTP.WithPrincipal(c.Request.Context(), principal))
		}
		c.Next()
	})
	handler.RegisterRoutes(group)
	return router, useCase
}

func serve(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestAuditLogHandler_List(t *testing.T) {
	t.Run("Success_FiltersForwarded", func(t *testing.T) {
		router, useCase := setupAuditRouter(t, admin)
		from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		expected := auditDomain.Filter{
			Action:  auditDomain.ActionDocumentDelete,
			Actor:   "alice",
			Outcome: auditDomain.OutcomeFailure,
			From:    &from,
			Offset:  10,
			Limit:   5,
		}
		entries := []*auditDomain.Entry{{Action: auditDomain.ActionDocumentDelete, Username: "alice"}}
		page := &auditDomain.Page{
			Entries:   entries,
			Total:     11,
			Integrity: auditDomain.IntegrityReport{Valid: true, TamperedIndex: auditDomain.NoTamperedIndex, Total: 40},
		}
		useCase.On("List", mock.Anything, admin.Actor(), expected).Return(page, nil).Once()

		w := serve(router, http.MethodGet,
			"/api/audit-logs?action=document_delete&actor=alice&status=failure&from=2026-01-01&offset=10&limit=5")

		assert.Equal(t, http.StatusOK, w.Code)
		var resp dto.ListAuditLogsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 11, resp.Total)
		assert.Len(t, resp.Logs, 1)
		assert.True(t, resp.Integrity.Valid)
		assert.Nil(t, resp.Integrity.TamperedIndex)
		assert.Equal(t, 40, resp.Integrity.Total)
		useCase.AssertExpectations(t)
	})

	t.Run("Success_BrokenChainSummarized", func(t *testing.T) {
		router, useCase := setupAuditRouter(t, admin)
		page := &auditDomain.Page{
			Entries:   []*auditDomain.Entry{{Action: auditDomain.ActionLoginComplete}},
			Total:     1,
			Integrity: auditDomain.IntegrityReport{Valid: false, TamperedIndex: 3, Total: 9},
		}
		useCase.On("List", mock.Anything, admin.Actor(), mock.Anything).Return(page, nil).Once()

		w := serve(router, http.MethodGet, "/api/audit-logs")

		assert.Equal(t, http.StatusOK, w.Code)
		var resp dto.ListAuditLogsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Integrity.Valid)
		require.NotNil(t, resp.Integrity.TamperedIndex)
		assert.Equal(t, 3, *resp.Integrity.TamperedIndex)
		assert.Equal(t, "Audit log chain is broken", resp.Integrity.Message)
	})

	t.Run("Success_EmptyListIsArray", func(t *testing.T) {
		router, useCase := setupAuditRouter(t, admin)
		useCase.On("List", mock.Anything, admin.Actor(), mock.Anything).
			Return(&auditDomain.Page{Integrity: auditDomain.IntegrityReport{Valid: true}}, nil).Once()

		w := serve(router, http.MethodGet, "/api/audit-logs")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"logs":[]`)
	})

	t.Run("Error_InvalidTime", func(t *testing.T) {
		router, useCase := setupAuditRouter(t, admin)

		w := serve(router, http.MethodGet, "/api/audit-logs?to=tomorrow")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		useCase.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error_Forbidden", func(t *testing.T) {
		employee := &authDomain.Principal{UserID: "e-1", Username: "bob", Role: userDomain.RoleEmployee}
		router, useCase := setupAuditRouter(t, employee)
		useCase.On("List", mock.Anything, employee.Actor(), mock.Anything).
			Return(nil, auditUseCase.ErrAuditAccessDenied).Once()

		w := serve(router, http.MethodGet, "/api/audit-logs")

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Error_NoPrincipal", func(t *testing.T) {
		router, _ := setupAuditRouter(t, nil)

		w := serve(router, http.MethodGet, "/api/audit-logs")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuditLogHandler_Verify(t *testing.T) {
	t.Run("Success_Intact", func(t *testing.T) {
		router, useCase := setupAuditRouter(t, admin)
		useCase.On("Verify", mock.Anything, admin.Actor()).
			Return(auditDomain.IntegrityReport{Valid: true, TamperedIndex: auditDomain.NoTamperedIndex, Total: 7}, nil).Once()

		w := serve(router, http.MethodGet, "/api/audit-logs/verify")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"valid":true,"tamperedIndex":null,"total":7,"message":"Audit log chain is intact"}`, w.Body.String())
	})

	t.Run("Success_BrokenChainReported", func(t *testing.T) {
		router, useCase := setupAuditRouter(t, admin)
		useCase.On("Verify", mock.Anything, admin.Actor()).
			Return(auditDomain.IntegrityReport{Valid: false, TamperedIndex: 4, Total: 10}, nil).Once()

		w := serve(router, http.MethodGet, "/api/audit-logs/verify")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"valid":false,"tamperedIndex":4,"total":10,"message":"Audit log chain is broken"}`, w.Body.String())
	})
}

func TestAuditLogHandler_Clear(t *testing.T) {
	t.Run("Success_Cleared", func(t *testing.T) {
		router, useCase := setupAuditRouter(t, admin)
		head := &auditDomain.Entry{Action: auditDomain.ActionAuditLogsCleared, Hash: "abc"}
		useCase.On("Clear", mock.Anything, admin.Actor()).Return(head, nil).Once()

		w := serve(router, http.MethodDelete, "/api/audit-logs")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "AUDIT_LOGS_CLEARED")
	})

	t.Run("Error_Forbidden", func(t *testing.T) {
		router, useCase := setupAuditRouter(t, admin)
		useCase.On("Clear", mock.Anything, admin.Actor()).Return(nil, auditUseCase.ErrAuditAccessDenied).Once()

		w := serve(router, http.MethodDelete, "/api/audit-logs")

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
