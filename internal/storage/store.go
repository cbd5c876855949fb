// Package storage provides the keyed record store behind every repository.
//
// Records are opaque JSON documents grouped in named collections and keyed by a
// string. Each collection keeps insertion order, which the audit ledger relies on
// for its hash chain. Update is an atomic read-modify-write on one key and
// Replace swaps a whole collection in one step.
//
// Three backends are available: an in-memory map, a JSON file per collection and
// a SQL table shared by all collections (PostgreSQL or MySQL).
package storage

import (
	"context"
	"fmt"

	apperrors "github.com/allisson/cedms/internal/errors"
)

var (
	// ErrRecordNotFound indicates the key does not exist in the collection.
	ErrRecordNotFound = apperrors.Wrap(apperrors.ErrNotFound, "record not found")

	// ErrRecordExists indicates Create was called for a key that already exists.
	ErrRecordExists = apperrors.Wrap(apperrors.ErrConflict, "record already exists")
)

// Record is a single stored document.
type Record struct {
	Key   string
	Value []byte
}

// UpdateFunc receives the current value of a record and returns its replacement.
// Returning an error aborts the update and leaves the record unchanged.
type UpdateFunc func(current []byte) ([]byte, error)

// Store is a collection-oriented keyed document store.
type Store interface {
	// Get returns the value stored under key or ErrRecordNotFound.
	Get(ctx context.Context, collection, key string) ([]byte, error)

	// Create inserts a new record and fails with ErrRecordExists if key is taken.
	Create(ctx context.Context, collection, key string, value []byte) error

	// Put inserts or overwrites a record. Overwriting keeps the original position.
	Put(ctx context.Context, collection, key string, value []byte) error

	// Update atomically replaces the value of an existing record.
	Update(ctx context.Context, collection, key string, fn UpdateFunc) error

	// Delete removes a record or returns ErrRecordNotFound.
	Delete(ctx context.Context, collection, key string) error

	// List returns every record of the collection in insertion order.
	List(ctx context.Context, collection string) ([]Record, error)

	// Last returns the most recently inserted record or ErrRecordNotFound.
	Last(ctx context.Context, collection string) (*Record, error)

	// Replace atomically swaps the content of the collection for records.
	Replace(ctx context.Context, collection string, records []Record) error

	// Close releases backend resources.
	Close() error
}

// storageError wraps a backend failure into the storage error class while keeping
// the driver error inspectable.
func storageError(err error, op string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, apperrors.ErrStorage, err)
}
