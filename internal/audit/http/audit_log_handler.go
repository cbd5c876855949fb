// Package http provides the HTTP handlers of the audit ledger.
package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	auditDomain "github.com/allisson/cedms/internal/audit/domain"
	"github.com/allisson/cedms/internal/audit/http/dto"
	auditUseCase "github.com/allisson/cedms/internal/audit/usecase"
	authHTTP "github.com/allisson/cedms/internal/auth/http"
	"github.com/allisson/cedms/internal/httputil"
)

// AuditLogHandler handles the /api/audit-logs endpoints.
type AuditLogHandler struct {
	auditLogUseCase auditUseCase.AuditLogUseCase
	logger          *slog.Logger
}

// NewAuditLogHandler creates a new audit log handler.
func NewAuditLogHandler(auditLogUseCase auditUseCase.AuditLogUseCase, logger *slog.Logger) *AuditLogHandler {
	return &AuditLogHandler{
		auditLogUseCase: auditLogUseCase,
		logger:          logger,
	}
}

// parseFilter reads the list filter from query parameters:
// action, actor, status, from, to, offset and limit.
func parseFilter(c *gin.Context) (auditDomain.Filter, error) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		return auditDomain.Filter{}, err
	}
	from, err := httputil.ParseTimeQuery(c, "from")
	if err != nil {
		return auditDomain.Filter{}, err
	}
	to, err := httputil.ParseTimeQuery(c, "to")
	if err != nil {
		return auditDomain.Filter{}, err
	}

	return auditDomain.Filter{
		Action:  auditDomain.Action(strings.ToUpper(strings.TrimSpace(c.Query("action")))),
		Actor:   strings.TrimSpace(c.Query("actor")),
		Outcome: auditDomain.Outcome(strings.ToUpper(strings.TrimSpace(c.Query("status")))),
		From:    from,
		To:      to,
		Offset:  offset,
		Limit:   limit,
	}, nil
}

// ListHandler returns a page of audit entries, newest first.
// GET /api/audit-logs - Requires audit_logs:read.
func (h *AuditLogHandler) ListHandler(c *gin.Context) {
	principal, ok := authHTTP.RequirePrincipal(c, h.logger)
	if !ok {
		return
	}

	filter, err := parseFilter(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	page, err := h.auditLogUseCase.List(c.Request.Context(), principal.Actor(), filter)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	if !page.Integrity.Valid {
		h.logger.Warn("audit log chain broken",
			slog.Int("tampered_index", page.Integrity.TamperedIndex),
			slog.Int("total", page.Integrity.Total))
	}

	c.JSON(http.StatusOK, dto.MapPageToResponse(page, filter))
}

// VerifyHandler replays the hash chain.
// GET /api/audit-logs/verify - Requires audit_logs:verify.
// A broken chain is reported with 200 and valid=false; only failures to run the
// check are errors.
func (h *AuditLogHandler) VerifyHandler(c *gin.Context) {
	principal, ok := authHTTP.RequirePrincipal(c, h.logger)
	if !ok {
		return
	}

	report, err := h.auditLogUseCase.Verify(c.Request.Context(), principal.Actor())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	if !report.Valid {
		h.logger.Warn("audit log chain broken",
			slog.Int("tampered_index", report.TamperedIndex),
			slog.Int("total", report.Total))
	}

	c.JSON(http.StatusOK, dto.MapReportToResponse(report))
}

// ClearHandler truncates the ledger.
// DELETE /api/audit-logs - Requires audit_logs:clear.
func (h *AuditLogHandler) ClearHandler(c *gin.Context) {
	principal, ok := authHTTP.RequirePrincipal(c, h.logger)
	if !ok {
		return
	}

	entry, err := h.auditLogUseCase.Clear(c.Request.Context(), principal.Actor())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ClearAuditLogsResponse{
		Message: "Audit logs cleared successfully",
		Entry:   entry,
	})
}

// RegisterRoutes mounts the audit endpoints on an authenticated group.
func (h *AuditLogHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("", h.ListHandler)
	group.GET("/verify", h.VerifyHandler)
	group.DELETE("", h.ClearHandler)
}
