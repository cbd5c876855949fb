// Package usecase implements the document lifecycle: encrypted upload,
// signed approval, verified download and unit deletion.
//
// Every call checks the role permission matrix before touching a document and
// records exactly one audit entry for each security-relevant outcome. Input
// validation happens first and is never audited.
package usecase

import (
	"context"

	auditDomain "github.com/allisson/cedms/internal/audit/domain"
	authDomain "github.com/allisson/cedms/internal/auth/domain"
	documentDomain "github.com/allisson/cedms/internal/document/domain"
)

// DocumentRepository persists document metadata.
type DocumentRepository interface {
	Create(ctx context.Context, doc *documentDomain.Document) error
	Get(ctx context.Context, id string) (*documentDomain.Document, error)
	List(ctx context.Context) ([]*documentDomain.Document, error)
	Update(
		ctx context.Context,
		id string,
		fn func(doc *documentDomain.Document) error,
	) (*documentDomain.Document, error)
	Delete(ctx context.Context, id string) error
}

// BlobStore persists encrypted document bytes.
type BlobStore interface {
	Write(ctx context.Context, key string, data []byte) error
	Read(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Authorizer decides whether a role may perform an action on a resource.
type Authorizer interface {
	Authorize(role, resource, action string, isOwner bool) bool
}

// AuditLedger records document events and answers deletion history queries.
type AuditLedger interface {
	Append(
		ctx context.Context,
		action auditDomain.Action,
		actor auditDomain.Actor,
		metadata map[string]any,
		outcome auditDomain.Outcome,
	) (*auditDomain.Entry, error)
	DeletedHistory(ctx context.Context) ([]auditDomain.DeletionRecord, error)
}

// DocumentUseCase defines the document lifecycle operations.
type DocumentUseCase interface {
	Upload(
		ctx context.Context,
		principal *authDomain.Principal,
		input documentDomain.UploadInput,
	) (*documentDomain.Document, error)
	List(
		ctx context.Context,
		principal *authDomain.Principal,
		filter documentDomain.Filter,
	) ([]*documentDomain.Document, error)
	SetStatus(
		ctx context.Context,
		principal *authDomain.Principal,
		id string,
		status documentDomain.Status,
	) (*documentDomain.Document, error)
	Download(ctx context.Context, principal *authDomain.Principal, id string) (*documentDomain.Download, error)
	Delete(ctx context.Context, principal *authDomain.Principal, id string) error
	DeletedHistory(ctx context.Context, principal *authDomain.Principal) ([]auditDomain.DeletionRecord, error)
}
