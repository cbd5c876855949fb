package domain

import (
	"github.com/allisson/cedms/internal/errors"
)

// Document lifecycle errors.
var (
	// ErrDocumentNotFound indicates no document has the requested id.
	ErrDocumentNotFound = errors.Wrap(errors.ErrNotFound, "document not found")

	// ErrBlobNotFound indicates the encrypted file of a document is missing.
	ErrBlobNotFound = errors.Wrap(errors.ErrNotFound, "file not found on server")

	// ErrDocumentNotApproved indicates a download of a document that is not APPROVED.
	ErrDocumentNotApproved = errors.Wrap(errors.ErrForbidden, "document must be approved before download")

	// ErrSignatureInvalid indicates the stored attestation does not match the
	// re-derived approval metadata.
	ErrSignatureInvalid = errors.Wrap(errors.ErrIntegrity, "digital signature verification failed")

	// ErrInvalidTransition indicates a status change not allowed from the current status.
	ErrInvalidTransition = errors.Wrap(errors.ErrConflict, "invalid status transition")

	// ErrInvalidStatus indicates a requested status other than APPROVED or REJECTED.
	ErrInvalidStatus = errors.Wrap(errors.ErrInvalidInput, "invalid status, use APPROVED or REJECTED")

	// ErrEmptyFile indicates an upload without content.
	ErrEmptyFile = errors.Wrap(errors.ErrInvalidInput, "no file uploaded")

	// ErrInvalidFilename indicates an upload whose filename is empty or unusable.
	ErrInvalidFilename = errors.Wrap(errors.ErrInvalidInput, "invalid filename")

	// ErrDocumentAccessDenied indicates the caller's role or ownership does not grant the action.
	ErrDocumentAccessDenied = errors.Wrap(errors.ErrForbidden, "document access denied")
)
