package dto

import (
	"encoding/base64"
	"time"

	auditDomain "github.com/allisson/cedms/internal/audit/domain"
	documentDomain "github.com/allisson/cedms/internal/document/domain"
)

// EncryptionAlgorithm names the at-rest cipher reported to clients.
const EncryptionAlgorithm = "AES-256-CBC"

// EncodeID encodes a document id for use in URLs.
func EncodeID(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}

// DocumentResponse is the transport form of a document. The id is base64url.
type DocumentResponse struct {
	ID                  string                `json:"id"`
	Filename            string                `json:"filename"`
	ContentType         string                `json:"contentType,omitempty"`
	Size                int64                 `json:"size"`
	UploaderID          string                `json:"uploaderId"`
	UploaderName        string                `json:"uploaderName"`
	UploadedAt          time.Time             `json:"uploadedAt"`
	Status              documentDomain.Status `json:"status"`
	ApproverID          *string               `json:"approverId"`
	ApproverName        *string               `json:"approverName"`
	IsSigned            bool                  `json:"isSigned"`
	ApprovedAt          *string               `json:"approvedAt"`
	Signature           *string               `json:"signature"`
	MetadataHash        *string               `json:"metadataHash"`
	StorageRef          string                `json:"storageRef"`
	EncryptionAlgorithm string                `json:"encryptionAlgorithm"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// MapDocumentToResponse converts a document to its transport form.
func MapDocumentToResponse(doc *documentDomain.Document) DocumentResponse {
	resp := DocumentResponse{
		ID:                  EncodeID(doc.ID),
		Filename:            doc.Filename,
		ContentType:         doc.ContentType,
		Size:                doc.Size,
		UploaderID:          doc.UploaderID,
		UploaderName:        doc.UploaderName,
		UploadedAt:          doc.UploadedAt,
		Status:              doc.Status,
		ApproverID:          optional(doc.ApproverID),
		ApproverName:        optional(doc.ApproverName),
		IsSigned:            doc.IsSigned(),
		StorageRef:          doc.StorageRef,
		EncryptionAlgorithm: EncryptionAlgorithm,
	}
	if doc.ApprovalData != nil {
		resp.ApprovedAt = optional(doc.ApprovalData.SignedAt)
		resp.Signature = optional(doc.ApprovalData.Signature)
		resp.MetadataHash = optional(doc.ApprovalData.MetadataHash)
	}
	return resp
}

// DocumentEnvelope wraps a single document with a message.
type DocumentEnvelope struct {
	Message  string           `json:"message"`
	Document DocumentResponse `json:"document"`
}

// ListDocumentsResponse holds the documents visible to the caller.
type ListDocumentsResponse struct {
	Documents []DocumentResponse `json:"documents"`
}

// MapDocumentsToResponse converts a document list. A nil list becomes empty.
func MapDocumentsToResponse(docs []*documentDomain.Document) ListDocumentsResponse {
	resp := ListDocumentsResponse{Documents: make([]DocumentResponse, 0, len(docs))}
	for _, doc := range docs {
		resp.Documents = append(resp.Documents, MapDocumentToResponse(doc))
	}
	return resp
}

// DeletionResponse is one row of the deleted documents history.
type DeletionResponse struct {
	Timestamp string `json:"timestamp"`
	Filename  string `json:"filename"`
	DocID     string `json:"docId"`
	DeletedBy string `json:"deletedBy"`
	Role      string `json:"role"`
	IP        string `json:"ip"`
}

// DeletedHistoryResponse lists deletions newest first.
type DeletedHistoryResponse struct {
	History []DeletionResponse `json:"history"`
}

// MapHistoryToResponse converts deletion records.
func MapHistoryToResponse(records []auditDomain.DeletionRecord) DeletedHistoryResponse {
	resp := DeletedHistoryResponse{History: make([]DeletionResponse, 0, len(records))}
	for _, r := range records {
		resp.History = append(resp.History, DeletionResponse{
			Timestamp: r.Timestamp,
			Filename:  r.Filename,
			DocID:     EncodeID(r.DocID),
			DeletedBy: r.DeletedBy,
			Role:      r.Role,
			IP:        r.IP,
		})
	}
	return resp
}

// MessageResponse is a bare acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}
