package usecase

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/cedms/internal/audit/domain"
	authDomain "github.com/allisson/cedms/internal/auth/domain"
	"github.com/allisson/cedms/internal/authz"
	cryptoService "github.com/allisson/cedms/internal/crypto/service"
	documentDomain "github.com/allisson/cedms/internal/document/domain"
	apperrors "github.com/allisson/cedms/internal/errors"
)

// Reasons recorded in the metadata of FAILURE entries.
const (
	reasonAccessDenied      = "Access Denied"
	reasonNotFound          = "Not found"
	reasonNotApproved       = "Not approved"
	reasonSignatureFailure  = "Signature failure"
	reasonInvalidTransition = "Invalid transition"
	reasonStorageFailure    = "Storage failure"
	reasonEncryptionFailure = "Encryption failure"
	reasonDecryptionFailure = "Decryption failure"
	reasonFileMissing       = "File not found"
)

// Options tunes lifecycle policy.
type Options struct {
	// AllowReapproval lets an APPROVED document be approved again. The new
	// attestation replaces the old one and the superseded signature is recorded
	// in the audit entry.
	AllowReapproval bool
}

type documentUseCase struct {
	repo    DocumentRepository
	blobs   BlobStore
	cipher  cryptoService.BlobCipher
	signer  cryptoService.Signer
	authz   Authorizer
	ledger  AuditLedger
	options Options
	logger  *slog.Logger
	now     func() time.Time
}

// NewDocumentUseCase creates the document lifecycle.
func NewDocumentUseCase(
	repo DocumentRepository,
	blobs BlobStore,
	cipher cryptoService.BlobCipher,
	signer cryptoService.Signer,
	authorizer Authorizer,
	ledger AuditLedger,
	options Options,
	logger *slog.Logger,
) DocumentUseCase {
	return &documentUseCase{
		repo:    repo,
		blobs:   blobs,
		cipher:  cipher,
		signer:  signer,
		authz:   authorizer,
		ledger:  ledger,
		options: options,
		logger:  logger,
		now:     time.Now,
	}
}

func (u *documentUseCase) record(
	ctx context.Context,
	action auditDomain.Action,
	principal *authDomain.Principal,
	metadata map[string]any,
	outcome auditDomain.Outcome,
) error {
	if _, err := u.ledger.Append(ctx, action, principal.Actor(), metadata, outcome); err != nil {
		u.logger.ErrorContext(ctx, "failed to record audit entry",
			slog.String("action", string(action)),
			slog.Any("error", err))
		return err
	}
	return nil
}

// fail records a FAILURE entry with reason and returns cause. If the entry
// cannot be written both errors are returned.
func (u *documentUseCase) fail(
	ctx context.Context,
	action auditDomain.Action,
	principal *authDomain.Principal,
	metadata map[string]any,
	reason string,
	cause error,
) error {
	metadata["error"] = reason
	if err := u.record(ctx, action, principal, metadata, auditDomain.OutcomeFailure); err != nil {
		return apperrors.Join(cause, err)
	}
	return cause
}

// lookup loads a document and records a FAILURE entry when it does not exist.
func (u *documentUseCase) lookup(
	ctx context.Context,
	action auditDomain.Action,
	principal *authDomain.Principal,
	id string,
) (*documentDomain.Document, error) {
	doc, err := u.repo.Get(ctx, id)
	if err == nil {
		return doc, nil
	}
	reason := reasonStorageFailure
	if errors.Is(err, documentDomain.ErrDocumentNotFound) {
		reason = reasonNotFound
	}
	return nil, u.fail(ctx, action, principal, map[string]any{"docId": id}, reason, err)
}

func (u *documentUseCase) allowed(principal *authDomain.Principal, action string, doc *documentDomain.Document) bool {
	isOwner := doc != nil && doc.UploaderID == principal.UserID
	return u.authz.Authorize(string(principal.Role), authz.ResourceDocuments, action, isOwner)
}

// sanitizeFilename keeps the base name of an uploaded file.
func sanitizeFilename(name string) (string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	base := filepath.Base(name)
	if name == "" || base == "." || base == "/" || base == ".." {
		return "", documentDomain.ErrInvalidFilename
	}
	return base, nil
}

// Upload encrypts the content, stores the blob and creates a PENDING record.
func (u *documentUseCase) Upload(
	ctx context.Context,
	principal *authDomain.Principal,
	input documentDomain.UploadInput,
) (*documentDomain.Document, error) {
	if len(input.Content) == 0 {
		return nil, documentDomain.ErrEmptyFile
	}
	filename, err := sanitizeFilename(input.Filename)
	if err != nil {
		return nil, err
	}

	meta := map[string]any{"filename": filename}
	if !u.allowed(principal, authz.ActionUpload, &documentDomain.Document{UploaderID: principal.UserID}) {
		return nil, u.fail(ctx, auditDomain.ActionDocumentUpload, principal, meta,
			reasonAccessDenied, documentDomain.ErrDocumentAccessDenied)
	}

	ciphertext, err := u.cipher.Encrypt(input.Content)
	if err != nil {
		return nil, u.fail(ctx, auditDomain.ActionDocumentUpload, principal, meta,
			reasonEncryptionFailure, apperrors.Wrap(err, "failed to encrypt document"))
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to generate document id")
	}
	doc := &documentDomain.Document{
		ID:           id.String(),
		Filename:     filename,
		StorageRef:   uuid.NewString() + ".enc",
		ContentType:  input.ContentType,
		Size:         int64(len(input.Content)),
		UploaderID:   principal.UserID,
		UploaderName: principal.Username,
		UploadedAt:   u.now().UTC(),
		Status:       documentDomain.StatusPending,
	}
	meta["docId"] = doc.ID

	if err := u.blobs.Write(ctx, doc.StorageRef, ciphertext); err != nil {
		return nil, u.fail(ctx, auditDomain.ActionDocumentUpload, principal, meta, reasonStorageFailure, err)
	}
	if err := u.repo.Create(ctx, doc); err != nil {
		if delErr := u.blobs.Delete(ctx, doc.StorageRef); delErr != nil {
			u.logger.ErrorContext(ctx, "failed to remove blob of unsaved document",
				slog.String("storage_ref", doc.StorageRef),
				slog.Any("error", delErr))
		}
		return nil, u.fail(ctx, auditDomain.ActionDocumentUpload, principal, meta, reasonStorageFailure, err)
	}

	meta["size"] = doc.Size
	if err := u.record(ctx, auditDomain.ActionDocumentUpload, principal, meta, auditDomain.OutcomeSuccess); err != nil {
		return nil, err
	}
	return doc, nil
}

// List returns the documents visible to the caller: all of them with the list
// permission, only their own with list_own. The uploader filter is honored only
// for callers who can see every document.
func (u *documentUseCase) List(
	ctx context.Context,
	principal *authDomain.Principal,
	filter documentDomain.Filter,
) ([]*documentDomain.Document, error) {
	role := string(principal.Role)
	seeAll := u.authz.Authorize(role, authz.ResourceDocuments, authz.ActionList, false)
	if !seeAll && !u.authz.Authorize(role, authz.ResourceDocuments, authz.ActionList, true) {
		return nil, documentDomain.ErrDocumentAccessDenied
	}
	if !seeAll {
		filter.Uploader = ""
	}

	docs, err := u.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	visible := make([]*documentDomain.Document, 0, len(docs))
	for _, doc := range docs {
		if !seeAll && doc.UploaderID != principal.UserID {
			continue
		}
		if filter.Matches(doc) {
			visible = append(visible, doc)
		}
	}
	return visible, nil
}

// transition validates a status change and applies it to doc. It returns the
// signature replaced by a re-approval, if any.
func (u *documentUseCase) transition(
	doc *documentDomain.Document,
	principal *authDomain.Principal,
	status documentDomain.Status,
) (string, error) {
	var superseded string
	switch {
	case doc.Status == documentDomain.StatusRejected:
		return "", documentDomain.ErrInvalidTransition
	case status == documentDomain.StatusApproved && doc.Status == documentDomain.StatusApproved:
		if !u.options.AllowReapproval {
			return "", documentDomain.ErrInvalidTransition
		}
		if doc.ApprovalData != nil {
			superseded = doc.ApprovalData.Signature
		}
	}

	doc.ApproverID = principal.UserID
	doc.ApproverName = principal.Username
	doc.Status = status

	if status == documentDomain.StatusRejected {
		doc.ApprovalData = nil
		return superseded, nil
	}

	signedAt := u.now().UTC().Format(time.RFC3339Nano)
	canonical, err := documentDomain.CanonicalMetadata(doc, principal.UserID, signedAt)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to encode approval metadata")
	}
	hash := documentDomain.MetadataHash(canonical)
	signature, err := u.signer.Sign([]byte(hash))
	if err != nil {
		return "", err
	}
	doc.ApprovalData = &documentDomain.ApprovalData{
		SignedAt:     signedAt,
		Signature:    signature,
		MetadataHash: hash,
	}
	return superseded, nil
}

// SetStatus approves or rejects a document. Approval signs the canonical
// approval metadata; rejection clears any attestation. The change is one atomic
// read-modify-write of the record.
func (u *documentUseCase) SetStatus(
	ctx context.Context,
	principal *authDomain.Principal,
	id string,
	status documentDomain.Status,
) (*documentDomain.Document, error) {
	action := authz.ActionApprove
	switch status {
	case documentDomain.StatusApproved:
	case documentDomain.StatusRejected:
		action = authz.ActionReject
	default:
		return nil, documentDomain.ErrInvalidStatus
	}

	doc, err := u.lookup(ctx, auditDomain.ActionDocumentStatusUpdate, principal, id)
	if err != nil {
		return nil, err
	}
	meta := map[string]any{"docId": id, "filename": doc.Filename, "newStatus": string(status)}
	if !u.allowed(principal, action, doc) {
		return nil, u.fail(ctx, auditDomain.ActionDocumentStatusUpdate, principal, meta,
			reasonAccessDenied, documentDomain.ErrDocumentAccessDenied)
	}

	var previous documentDomain.Status
	var superseded string
	updated, err := u.repo.Update(ctx, id, func(current *documentDomain.Document) error {
		previous = current.Status
		var err error
		superseded, err = u.transition(current, principal, status)
		return err
	})
	if err != nil {
		reason := reasonStorageFailure
		switch {
		case errors.Is(err, documentDomain.ErrInvalidTransition):
			reason = reasonInvalidTransition
			meta["currentStatus"] = string(previous)
		case errors.Is(err, documentDomain.ErrDocumentNotFound):
			reason = reasonNotFound
		}
		return nil, u.fail(ctx, auditDomain.ActionDocumentStatusUpdate, principal, meta, reason, err)
	}

	meta["previousStatus"] = string(previous)
	meta["isSigned"] = updated.IsSigned()
	if superseded != "" {
		meta["supersededSignature"] = superseded
	}
	if err := u.record(ctx, auditDomain.ActionDocumentStatusUpdate, principal, meta, auditDomain.OutcomeSuccess); err != nil {
		return nil, err
	}
	return updated, nil
}

// verifyAttestation re-derives the approval metadata from the stored record
// and checks it against the stored hash and signature.
func (u *documentUseCase) verifyAttestation(doc *documentDomain.Document) error {
	if doc.ApprovalData == nil {
		return documentDomain.ErrSignatureInvalid
	}
	canonical, err := documentDomain.CanonicalMetadata(doc, doc.ApproverID, doc.ApprovalData.SignedAt)
	if err != nil {
		return apperrors.Wrap(documentDomain.ErrSignatureInvalid, err.Error())
	}
	hash := documentDomain.MetadataHash(canonical)
	if hash != doc.ApprovalData.MetadataHash || !u.signer.Verify([]byte(hash), doc.ApprovalData.Signature) {
		return documentDomain.ErrSignatureInvalid
	}
	return nil
}

// Download authorizes the caller, requires APPROVED, verifies the signature and
// only then decrypts.
func (u *documentUseCase) Download(
	ctx context.Context,
	principal *authDomain.Principal,
	id string,
) (*documentDomain.Download, error) {
	doc, err := u.lookup(ctx, auditDomain.ActionDocumentDownload, principal, id)
	if err != nil {
		return nil, err
	}
	meta := map[string]any{"docId": id, "filename": doc.Filename}

	if !u.allowed(principal, authz.ActionDownload, doc) {
		return nil, u.fail(ctx, auditDomain.ActionDocumentDownload, principal, meta,
			reasonAccessDenied, documentDomain.ErrDocumentAccessDenied)
	}
	if doc.Status != documentDomain.StatusApproved {
		meta["status"] = string(doc.Status)
		return nil, u.fail(ctx, auditDomain.ActionDocumentDownload, principal, meta,
			reasonNotApproved, documentDomain.ErrDocumentNotApproved)
	}
	if err := u.verifyAttestation(doc); err != nil {
		u.logger.WarnContext(ctx, "document signature verification failed", slog.String("doc_id", id))
		return nil, u.fail(ctx, auditDomain.ActionDocumentDownload, principal, meta, reasonSignatureFailure, err)
	}

	ciphertext, err := u.blobs.Read(ctx, doc.StorageRef)
	if err != nil {
		reason := reasonStorageFailure
		if errors.Is(err, documentDomain.ErrBlobNotFound) {
			reason = reasonFileMissing
		}
		return nil, u.fail(ctx, auditDomain.ActionDocumentDownload, principal, meta, reason, err)
	}
	content, err := u.cipher.Decrypt(ciphertext)
	if err != nil {
		return nil, u.fail(ctx, auditDomain.ActionDocumentDownload, principal, meta, reasonDecryptionFailure, err)
	}

	if err := u.record(ctx, auditDomain.ActionDocumentDownload, principal, meta, auditDomain.OutcomeSuccess); err != nil {
		return nil, err
	}
	return &documentDomain.Download{Document: doc, Content: content}, nil
}

// Delete removes the blob and the record as a unit. If the record cannot be
// removed the blob is written back.
func (u *documentUseCase) Delete(ctx context.Context, principal *authDomain.Principal, id string) error {
	doc, err := u.lookup(ctx, auditDomain.ActionDocumentDelete, principal, id)
	if err != nil {
		return err
	}
	meta := map[string]any{"docId": id, "filename": doc.Filename}

	if !u.allowed(principal, authz.ActionDelete, doc) {
		return u.fail(ctx, auditDomain.ActionDocumentDelete, principal, meta,
			reasonAccessDenied, documentDomain.ErrDocumentAccessDenied)
	}

	ciphertext, err := u.blobs.Read(ctx, doc.StorageRef)
	switch {
	case errors.Is(err, documentDomain.ErrBlobNotFound):
		ciphertext = nil
	case err != nil:
		return u.fail(ctx, auditDomain.ActionDocumentDelete, principal, meta, reasonStorageFailure, err)
	}

	if ciphertext != nil {
		if err := u.blobs.Delete(ctx, doc.StorageRef); err != nil && !errors.Is(err, documentDomain.ErrBlobNotFound) {
			return u.fail(ctx, auditDomain.ActionDocumentDelete, principal, meta, reasonStorageFailure, err)
		}
	}

	if err := u.repo.Delete(ctx, id); err != nil {
		if ciphertext != nil {
			if restoreErr := u.blobs.Write(ctx, doc.StorageRef, ciphertext); restoreErr != nil {
				u.logger.ErrorContext(ctx, "failed to restore blob after record deletion failure",
					slog.String("doc_id", id),
					slog.Any("error", restoreErr))
			}
		}
		return u.fail(ctx, auditDomain.ActionDocumentDelete, principal, meta, reasonStorageFailure, err)
	}

	return u.record(ctx, auditDomain.ActionDocumentDelete, principal, meta, auditDomain.OutcomeSuccess)
}

// DeletedHistory lists successful deletions newest first.
func (u *documentUseCase) DeletedHistory(
	ctx context.Context,
	principal *authDomain.Principal,
) ([]auditDomain.DeletionRecord, error) {
	if !u.allowed(principal, authz.ActionViewDeleted, nil) {
		return nil, u.fail(ctx, auditDomain.ActionDeletedHistoryViewed, principal, map[string]any{},
			reasonAccessDenied, documentDomain.ErrDocumentAccessDenied)
	}

	history, err := u.ledger.DeletedHistory(ctx)
	if err != nil {
		return nil, err
	}

	if err := u.record(ctx, auditDomain.ActionDeletedHistoryViewed, principal, map[string]any{
		"returned": len(history),
	}, auditDomain.OutcomeSuccess); err != nil {
		return nil, err
	}
	return history, nil
}
