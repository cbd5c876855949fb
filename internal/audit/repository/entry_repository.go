// Package repository persists audit entries in the record store.
package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/cedms/internal/audit/domain"
	apperrors "github.com/allisson/cedms/internal/errors"
	"github.com/allisson/cedms/internal/storage"
)

// Collection is the record store collection holding the ledger.
const Collection = "audit_logs"

// EntryRepository stores entries in append order under time-ordered UUIDv7 keys.
type EntryRepository struct {
	store storage.Store
}

// NewEntryRepository creates a repository over store.
func NewEntryRepository(store storage.Store) *EntryRepository {
	return &EntryRepository{store: store}
}

// Append stores entry after every existing entry.
func (r *EntryRepository) Append(ctx context.Context, entry *auditDomain.Entry) error {
	value, err := json.Marshal(entry)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode audit entry")
	}
	return r.store.Create(ctx, Collection, uuid.Must(uuid.NewV7()).String(), value)
}

// Last returns the most recent entry, or nil when the ledger is empty.
func (r *EntryRepository) Last(ctx context.Context) (*auditDomain.Entry, error) {
	record, err := r.store.Last(ctx, Collection)
	if errors.Is(err, storage.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(record.Value)
}

// List returns all entries in append order.
func (r *EntryRepository) List(ctx context.Context) ([]*auditDomain.Entry, error) {
	records, err := r.store.List(ctx, Collection)
	if err != nil {
		return nil, err
	}

	entries := make([]*auditDomain.Entry, 0, len(records))
	for _, record := range records {
		entry, err := decode(record.Value)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Replace atomically swaps the whole ledger for entries.
func (r *EntryRepository) Replace(ctx context.Context, entries []*auditDomain.Entry) error {
	records := make([]storage.Record, 0, len(entries))
	for _, entry := range entries {
		value, err := json.Marshal(entry)
		if err != nil {
			return apperrors.Wrap(err, "failed to encode audit entry")
		}
		records = append(records, storage.Record{Key: uuid.Must(uuid.NewV7()).String(), Value: value})
	}
	return r.store.Replace(ctx, Collection, records)
}

// decode keeps metadata numbers as json.Number so re-serialization for hash
// verification reproduces the stored digits exactly.
func decode(value []byte) (*auditDomain.Entry, error) {
	dec := json.NewDecoder(bytes.NewReader(value))
	dec.UseNumber()

	var entry auditDomain.Entry
	if err := dec.Decode(&entry); err != nil {
		return nil, apperrors.Wrap(auditDomain.ErrCorruptedEntry, err.Error())
	}
	return &entry, nil
}
