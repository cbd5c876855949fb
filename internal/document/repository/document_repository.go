// Package repository persists document metadata in the record store and the
// encrypted document bytes in a blob bucket.
package repository

import (
	"context"
	"encoding/json"
	"errors"

	documentDomain "github.com/allisson/cedms/internal/document/domain"
	apperrors "github.com/allisson/cedms/internal/errors"
	"github.com/allisson/cedms/internal/storage"
)

// Collection holds one record per document keyed by document id.
const Collection = "documents"

// DocumentRepository stores document metadata.
type DocumentRepository struct {
	store storage.Store
}

// NewDocumentRepository creates a repository over store.
func NewDocumentRepository(store storage.Store) *DocumentRepository {
	return &DocumentRepository{store: store}
}

// Create stores a new document.
func (r *DocumentRepository) Create(ctx context.Context, doc *documentDomain.Document) error {
	value, err := json.Marshal(doc)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode document")
	}
	return r.store.Create(ctx, Collection, doc.ID, value)
}

// Get returns the document or ErrDocumentNotFound.
func (r *DocumentRepository) Get(ctx context.Context, id string) (*documentDomain.Document, error) {
	value, err := r.store.Get(ctx, Collection, id)
	if errors.Is(err, storage.ErrRecordNotFound) {
		return nil, documentDomain.ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return decode(value)
}

// List returns every document in upload order.
func (r *DocumentRepository) List(ctx context.Context) ([]*documentDomain.Document, error) {
	records, err := r.store.List(ctx, Collection)
	if err != nil {
		return nil, err
	}

	docs := make([]*documentDomain.Document, 0, len(records))
	for _, record := range records {
		doc, err := decode(record.Value)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Update applies fn to the stored document as one atomic read-modify-write and
// returns the result. An error from fn aborts the update.
func (r *DocumentRepository) Update(
	ctx context.Context,
	id string,
	fn func(doc *documentDomain.Document) error,
) (*documentDomain.Document, error) {
	var updated *documentDomain.Document
	err := r.store.Update(ctx, Collection, id, func(current []byte) ([]byte, error) {
		doc, err := decode(current)
		if err != nil {
			return nil, err
		}
		if err := fn(doc); err != nil {
			return nil, err
		}
		updated = doc
		return json.Marshal(doc)
	})
	if errors.Is(err, storage.ErrRecordNotFound) {
		return nil, documentDomain.ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the document record.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	err := r.store.Delete(ctx, Collection, id)
	if errors.Is(err, storage.ErrRecordNotFound) {
		return documentDomain.ErrDocumentNotFound
	}
	return err
}

func decode(value []byte) (*documentDomain.Document, error) {
	var doc documentDomain.Document
	if err := json.Unmarshal(value, &doc); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode document")
	}
	return &doc, nil
}
