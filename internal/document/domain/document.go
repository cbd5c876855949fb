// Package domain defines the document entity and its approval attestation.
//
// A document moves through PENDING, APPROVED and REJECTED. An approved document
// carries an attestation: the hex SHA-256 of its canonical approval metadata and
// an RSA signature over that hash. The metadata is never stored alongside the
// signature; it is re-derived from the record at verify time, so any later edit
// of the document id, filename, uploader or approver invalidates the signature.
package domain

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
)

// Status is the approval state of a document.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// ParseStatus maps s case-insensitively to a Status.
func ParseStatus(s string) (Status, bool) {
	switch Status(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, true
	case StatusApproved:
		return StatusApproved, true
	case StatusRejected:
		return StatusRejected, true
	default:
		return "", false
	}
}

// ApprovalData is the attestation of an approved document.
type ApprovalData struct {
	SignedAt     string `json:"signedAt"`
	Signature    string `json:"signature"`
	MetadataHash string `json:"metadataHash"`
}

// Document is the metadata record of a stored encrypted file.
// ApprovalData is non-nil iff Status is StatusApproved.
type Document struct {
	ID           string        `json:"id"`
	Filename     string        `json:"filename"`
	StorageRef   string        `json:"storageRef"`
	ContentType  string        `json:"contentType,omitempty"`
	Size         int64         `json:"size"`
	UploaderID   string        `json:"uploaderId"`
	UploaderName string        `json:"uploaderName"`
	UploadedAt   time.Time     `json:"uploadedAt"`
	Status       Status        `json:"status"`
	ApproverID   string        `json:"approverId,omitempty"`
	ApproverName string        `json:"approverName,omitempty"`
	ApprovalData *ApprovalData `json:"approvalData"`
}

// IsSigned reports whether the document carries an attestation.
func (d *Document) IsSigned() bool {
	return d.ApprovalData != nil
}

// canonicalMetadata fixes the field order of the signed approval payload.
type canonicalMetadata struct {
	DocID      string `json:"docId"`
	Filename   string `json:"filename"`
	UploaderID string `json:"uploaderId"`
	ApproverID string `json:"approverId"`
	Timestamp  string `json:"timestamp"`
}

// CanonicalMetadata serializes the approval metadata of doc as compact JSON in
// the order docId, filename, uploaderId, approverId, timestamp.
func CanonicalMetadata(doc *Document, approverID, timestamp string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(canonicalMetadata{
		DocID:      doc.ID,
		Filename:   doc.Filename,
		UploaderID: doc.UploaderID,
		ApproverID: approverID,
		Timestamp:  timestamp,
	}); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// MetadataHash returns the hex SHA-256 of canonical metadata.
func MetadataHash(canonical []byte) string {
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}

// Filter selects documents in List. Zero values match everything.
type Filter struct {
	Status   Status
	Uploader string
	From     *time.Time
	To       *time.Time
}

// Matches reports whether doc satisfies every set criterion. Uploader is a
// case-insensitive substring match on uploader id or name; From and To are inclusive.
func (f Filter) Matches(doc *Document) bool {
	if f.Status != "" && doc.Status != f.Status {
		return false
	}
	if f.Uploader != "" {
		needle := strings.ToLower(f.Uploader)
		if !strings.Contains(strings.ToLower(doc.UploaderID), needle) &&
			!strings.Contains(strings.ToLower(doc.UploaderName), needle) {
			return false
		}
	}
	if f.From != nil && doc.UploadedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && doc.UploadedAt.After(*f.To) {
		return false
	}
	return true
}

// UploadInput is a file received for storage.
type UploadInput struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Download is a verified, decrypted document.
type Download struct {
	Document *Document
	Content  []byte
}
