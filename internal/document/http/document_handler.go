// Package http provides the HTTP handlers of the document lifecycle.
package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	authHTTP "github.com/allisson/cedms/internal/auth/http"
	documentDomain "github.com/allisson/cedms/internal/document/domain"
	"github.com/allisson/cedms/internal/document/http/dto"
	documentUseCase "github.com/allisson/cedms/internal/document/usecase"
	"github.com/allisson/cedms/internal/httputil"
	customValidation "github.com/allisson/cedms/internal/validation"
)

// multipartOverhead is the slack allowed on top of the file size for the
// multipart envelope.
const multipartOverhead = 1 << 20

// DocumentHandler handles the /api/documents endpoints.
type DocumentHandler struct {
	documentUseCase documentUseCase.DocumentUseCase
	maxUploadSize   int64
	logger          *slog.Logger
}

// NewDocumentHandler creates a new document handler. maxUploadSize caps the
// size of a single uploaded file in bytes.
func NewDocumentHandler(
	documentUseCase documentUseCase.DocumentUseCase,
	maxUploadSize int64,
	logger *slog.Logger,
) *DocumentHandler {
	return &DocumentHandler{
		documentUseCase: documentUseCase,
		maxUploadSize:   maxUploadSize,
		logger:          logger,
	}
}

// documentID decodes the base64url :id path parameter.
func (h *DocumentHandler) documentID(c *gin.Context) (string, bool) {
	raw, err := customValidation.DecodeBase64URL(c.Param("id"))
	if err != nil || len(raw) == 0 {
		httputil.HandleBadRequestGin(c, errors.New("invalid document id"), h.logger)
		return "", false
	}
	return string(raw), true
}

func (h *DocumentHandler) tooLarge(c *gin.Context) {
	h.logger.Warn("upload rejected", slog.Int64("max_upload_size", h.maxUploadSize))
	c.JSON(http.StatusRequestEntityTooLarge, httputil.ErrorResponse{
		Error:   "payload_too_large",
		Message: fmt.Sprintf("file exceeds the maximum upload size of %d bytes", h.maxUploadSize),
	})
}

// UploadHandler encrypts and stores the multipart "file" field.
// POST /api/documents/upload
func (h *DocumentHandler) UploadHandler(c *gin.Context) {
	principal, ok := authHTTP.RequirePrincipal(c, h.logger)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+multipartOverhead)
	header, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.tooLarge(c)
			return
		}
		httputil.HandleBadRequestGin(c, errors.New("no file uploaded"), h.logger)
		return
	}
	if header.Size > h.maxUploadSize {
		h.tooLarge(c)
		return
	}

	file, err := header.Open()
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("failed to open uploaded file: %w", err), h.logger)
		return
	}
	defer func() {
		_ = file.Close()
	}()
	content, err := io.ReadAll(file)
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("failed to read uploaded file: %w", err), h.logger)
		return
	}

	doc, err := h.documentUseCase.Upload(c.Request.Context(), principal, documentDomain.UploadInput{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.DocumentEnvelope{
		Message:  "Document uploaded and encrypted successfully",
		Document: dto.MapDocumentToResponse(doc),
	})
}

// parseFilter reads status, uploader, from and to query parameters.
func parseFilter(c *gin.Context) (documentDomain.Filter, error) {
	var filter documentDomain.Filter
	if raw := c.Query("status"); raw != "" {
		status, ok := documentDomain.ParseStatus(raw)
		if !ok {
			return filter, documentDomain.ErrInvalidStatus
		}
		filter.Status = status
	}
	filter.Uploader = strings.TrimSpace(c.Query("uploader"))

	var err error
	if filter.From, err = httputil.ParseTimeQuery(c, "from"); err != nil {
		return filter, err
	}
	if filter.To, err = httputil.ParseTimeQuery(c, "to"); err != nil {
		return filter, err
	}
	return filter, nil
}

// ListHandler returns the documents visible to the caller.
// GET /api/documents
func (h *DocumentHandler) ListHandler(c *gin.Context) {
	principal, ok := authHTTP.RequirePrincipal(c, h.logger)
	if !ok {
		return
	}

	filter, err := parseFilter(c)
	if err != nil {
		if errors.Is(err, documentDomain.ErrInvalidStatus) {
			httputil.HandleErrorGin(c, err, h.logger)
			return
		}
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	docs, err := h.documentUseCase.List(c.Request.Context(), principal, filter)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDocumentsToResponse(docs))
}

// UpdateStatusHandler approves or rejects a document.
// PATCH /api/documents/:id/status
func (h *DocumentHandler) UpdateStatusHandler(c *gin.Context) {
	principal, ok := authHTTP.RequirePrincipal(c, h.logger)
	if !ok {
		return
	}
	id, ok := h.documentID(c)
	if !ok {
		return
	}

	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}
	status, ok := documentDomain.ParseStatus(req.Status)
	if !ok {
		httputil.HandleErrorGin(c, documentDomain.ErrInvalidStatus, h.logger)
		return
	}

	doc, err := h.documentUseCase.SetStatus(c.Request.Context(), principal, id, status)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.DocumentEnvelope{
		Message:  fmt.Sprintf("Document %s successfully", strings.ToLower(string(doc.Status))),
		Document: dto.MapDocumentToResponse(doc),
	})
}

// DownloadHandler streams the decrypted content of a verified approved document.
// GET /api/documents/:id/download
func (h *DocumentHandler) DownloadHandler(c *gin.Context) {
	principal, ok := authHTTP.RequirePrincipal(c, h.logger)
	if !ok {
		return
	}
	id, ok := h.documentID(c)
	if !ok {
		return
	}

	download, err := h.documentUseCase.Download(c.Request.Context(), principal, id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": download.Document.Filename})
	c.Header("Content-Disposition", disposition)
	c.Header("X-Document-Verified", "true")
	c.Data(http.StatusOK, "application/octet-stream", download.Content)
}

// DeleteHandler removes a document and its encrypted blob.
// DELETE /api/documents/:id
func (h *DocumentHandler) DeleteHandler(c *gin.Context) {
	principal, ok := authHTTP.RequirePrincipal(c, h.logger)
	if !ok {
		return
	}
	id, ok := h.documentID(c)
	if !ok {
		return
	}

	if err := h.documentUseCase.Delete(c.Request.Context(), principal, id); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Document deleted successfully"})
}

// DeletedHistoryHandler lists successful deletions newest first.
// GET /api/documents/deleted-history
func (h *DocumentHandler) DeletedHistoryHandler(c *gin.Context) {
	principal, ok := authHTTP.RequirePrincipal(c, h.logger)
	if !ok {
		return
	}

	history, err := h.documentUseCase.DeletedHistory(c.Request.Context(), principal)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapHistoryToResponse(history))
}

// RegisterRoutes mounts the document endpoints on an authenticated group.
func (h *DocumentHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/upload", h.UploadHandler)
	group.GET("", h.ListHandler)
	group.GET("/deleted-history", h.DeletedHistoryHandler)
	group.PATCH("/:id/status", h.UpdateStatusHandler)
	group.GET("/:id/download", h.DownloadHandler)
	group.DELETE("/:id", h.DeleteHandler)
}
