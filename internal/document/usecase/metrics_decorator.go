package usecase

import (
	"context"
	"time"

	auditDomain "github.com/allisson/cedms/internal/audit/domain"
	authDomain "github.com/allisson/cedms/internal/auth/domain"
	documentDomain "github.com/allisson/cedms/internal/document/domain"
	"github.com/allisson/cedms/internal/metrics"
)

// documentUseCaseWithMetrics decorates DocumentUseCase with metrics instrumentation.
type documentUseCaseWithMetrics struct {
	next    DocumentUseCase
	metrics metrics.BusinessMetrics
}

// NewDocumentUseCaseWithMetrics wraps a DocumentUseCase with metrics recording.
func NewDocumentUseCaseWithMetrics(useCase DocumentUseCase, m metrics.BusinessMetrics) DocumentUseCase {
	return &documentUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (d *documentUseCaseWithMetrics) observe(ctx context.Context, operation string, start time.Time, err error) {
	status := metrics.StatusOf(err)
	d.metrics.RecordOperation(ctx, "documents", operation, status)
	d.metrics.RecordDuration(ctx, "documents", operation, time.Since(start), status)
}

// Upload records metrics for document uploads.
func (d *documentUseCaseWithMetrics) Upload(
	ctx context.Context,
	principal *authDomain.Principal,
	input documentDomain.UploadInput,
) (*documentDomain.Document, error) {
	start := time.Now()
	doc, err := d.next.Upload(ctx, principal, input)
	d.observe(ctx, "upload", start, err)
	return doc, err
}

// List records metrics for document listings.
func (d *documentUseCaseWithMetrics) List(
	ctx context.Context,
	principal *authDomain.Principal,
	filter documentDomain.Filter,
) ([]*documentDomain.Document, error) {
	start := time.Now()
	docs, err := d.next.List(ctx, principal, filter)
	d.observe(ctx, "list", start, err)
	return docs, err
}

// SetStatus records metrics for approvals and rejections.
func (d *documentUseCaseWithMetrics) SetStatus(
	ctx context.Context,
	principal *authDomain.Principal,
	id string,
	status documentDomain.Status,
) (*documentDomain.Document, error) {
	start := time.Now()
	doc, err := d.next.SetStatus(ctx, principal, id, status)
	operation := "approve"
	if status == documentDomain.StatusRejected {
		operation = "reject"
	}
	d.observe(ctx, operation, start, err)
	return doc, err
}

// Download records metrics for verified downloads.
func (d *documentUseCaseWithMetrics) Download(
	ctx context.Context,
	principal *authDomain.Principal,
	id string,
) (*documentDomain.Download, error) {
	start := time.Now()
	download, err := d.next.Download(ctx, principal, id)
	d.observe(ctx, "download", start, err)
	return download, err
}

// Delete records metrics for deletions.
func (d *documentUseCaseWithMetrics) Delete(ctx context.Context, principal *authDomain.Principal, id string) error {
	start := time.Now()
	err := d.next.Delete(ctx, principal, id)
	d.observe(ctx, "delete", start, err)
	return err
}

// DeletedHistory records metrics for deletion history queries.
func (d *documentUseCaseWithMetrics) DeletedHistory(
	ctx context.Context,
	principal *authDomain.Principal,
) ([]auditDomain.DeletionRecord, error) {
	start := time.Now()
	history, err := d.next.DeletedHistory(ctx, principal)
	d.observe(ctx, "deleted_history", start, err)
	return history, err
}
