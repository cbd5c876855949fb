package repository

import (
	"context"
	"fmt"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	documentDomain "github.com/allisson/cedms/internal/document/domain"
	apperrors "github.com/allisson/cedms/internal/errors"

	// Register bucket drivers for BLOB_URL
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

// BlobContentType is the content type of every stored object. Objects are
// ciphertext regardless of what was uploaded.
const BlobContentType = "application/octet-stream"

// BlobStore keeps encrypted document bytes in a gocloud.dev bucket.
type BlobStore struct {
	bucket *blob.Bucket
}

// OpenBlobStore opens the bucket at url. Supports file://, mem:// and s3://.
func OpenBlobStore(ctx context.Context, url string) (*BlobStore, error) {
	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open blob bucket: %w", err)
	}
	return NewBlobStore(bucket), nil
}

// NewBlobStore wraps an open bucket.
func NewBlobStore(bucket *blob.Bucket) *BlobStore {
	return &BlobStore{bucket: bucket}
}

// Write stores data under key, overwriting any existing object.
func (s *BlobStore) Write(ctx context.Context, key string, data []byte) error {
	err := s.bucket.WriteAll(ctx, key, data, &blob.WriterOptions{ContentType: BlobContentType})
	if err != nil {
		return blobError(err, "write blob")
	}
	return nil
}

// Read returns the object stored under key or ErrBlobNotFound.
func (s *BlobStore) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := s.bucket.ReadAll(ctx, key)
	if err != nil {
		return nil, blobError(err, "read blob")
	}
	return data, nil
}

// Delete removes the object stored under key or returns ErrBlobNotFound.
func (s *BlobStore) Delete(ctx context.Context, key string) error {
	if err := s.bucket.Delete(ctx, key); err != nil {
		return blobError(err, "delete blob")
	}
	return nil
}

// Exists reports whether an object is stored under key.
func (s *BlobStore) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := s.bucket.Exists(ctx, key)
	if err != nil {
		return false, blobError(err, "stat blob")
	}
	return ok, nil
}

// Close releases the bucket.
func (s *BlobStore) Close() error {
	return s.bucket.Close()
}

func blobError(err error, op string) error {
	if gcerrors.Code(err) == gcerrors.NotFound {
		return documentDomain.ErrBlobNotFound
	}
	return fmt.Errorf("%s: %w: %w", op, apperrors.ErrStorage, err)
}
