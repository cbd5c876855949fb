// Package dto provides data transfer objects for the audit log endpoints.
package dto

import (
	auditDomain "github.com/allisson/cedms/internal/audit/domain"
)

// ListAuditLogsResponse is a page of ledger entries, newest first, with the
// integrity of the whole chain.
type ListAuditLogsResponse struct {
	Logs      []*auditDomain.Entry `json:"logs"`
	Total     int                  `json:"total"`
	Offset    int                  `json:"offset"`
	Limit     int                  `json:"limit"`
	Integrity IntegrityResponse    `json:"integrity"`
}

// MapPageToResponse converts a ledger page to an API response. A nil entry
// slice is rendered as an empty array.
func MapPageToResponse(page *auditDomain.Page, filter auditDomain.Filter) ListAuditLogsResponse {
	entries := page.Entries
	if entries == nil {
		entries = []*auditDomain.Entry{}
	}
	return ListAuditLogsResponse{
		Logs:      entries,
		Total:     page.Total,
		Offset:    filter.Offset,
		Limit:     filter.Limit,
		Integrity: MapReportToResponse(page.Integrity),
	}
}

// IntegrityResponse reports the outcome of a full chain verification.
type IntegrityResponse struct {
	Valid         bool   `json:"valid"`
	TamperedIndex *int   `json:"tamperedIndex"`
	Total         int    `json:"total"`
	Message       string `json:"message"`
}

// MapReportToResponse converts an integrity report to an API response.
func MapReportToResponse(report auditDomain.IntegrityReport) IntegrityResponse {
	resp := IntegrityResponse{
		Valid: report.Valid,
		Total: report.Total,
	}
	if report.Valid {
		resp.Message = "Audit log chain is intact"
		return resp
	}
	index := report.TamperedIndex
	resp.TamperedIndex = &index
	resp.Message = "Audit log chain is broken"
	return resp
}

// ClearAuditLogsResponse acknowledges a truncation.
type ClearAuditLogsResponse struct {
	Message string             `json:"message"`
	Entry   *auditDomain.Entry `json:"entry"`
}
