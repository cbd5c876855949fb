// Package service provides the cryptographic services of the document vault:
// AES-256-CBC blob encryption, RSA PKCS#1 v1.5 approval signatures, master key
// envelope wrapping and key material persistence.
package service

import (
	"context"

	cryptoDomain "github.com/allisson/cedms/internal/crypto/domain"
)

// BlobCipher encrypts and decrypts document bytes under the master key.
type BlobCipher interface {
	// Seal encrypts plaintext under a fresh random IV and returns the ciphertext
	// and the IV separately.
	Seal(plaintext []byte) (ciphertext, iv []byte, err error)

	// Open decrypts ciphertext produced by Seal with the matching IV.
	Open(ciphertext, iv []byte) ([]byte, error)

	// Encrypt is Seal with the IV prepended to the returned ciphertext.
	Encrypt(plaintext []byte) ([]byte, error)

	// Decrypt reverses Encrypt.
	Decrypt(data []byte) ([]byte, error)
}

// Signer produces and checks detached signatures over canonical bytes.
type Signer interface {
	// Sign returns the base64 encoded signature of payload.
	Sign(payload []byte) (string, error)

	// Verify reports whether signature is a valid signature of payload.
	// Malformed input yields false, never an error.
	Verify(payload []byte, signature string) bool
}

// KeyWrapper protects the master key at rest.
type KeyWrapper interface {
	// Wrap returns the persisted representation of key.
	Wrap(ctx context.Context, key []byte) ([]byte, error)

	// Unwrap recovers the key from its persisted representation.
	Unwrap(ctx context.Context, data []byte) ([]byte, error)
}

// KeyStore loads, and on first use generates, the vault key material.
type KeyStore interface {
	LoadOrGenerate(ctx context.Context) (*cryptoDomain.KeyMaterial, error)
}
