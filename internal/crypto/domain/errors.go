package domain

import (
	"github.com/allisson/cedms/internal/errors"
)

// Cryptographic operation error definitions.
//
// These domain-specific errors wrap standard errors from internal/errors
// to provide context for cryptographic failures. All errors are mapped to
// appropriate HTTP status codes by the error handling layer.
var (
	// ErrInvalidKeySize indicates the cryptographic key size is invalid.
	//
	// The master key must be exactly 32 bytes (256 bits) for AES-256 and the
	// RSA key pair must be at least 2048 bits.
	//
	// HTTP Status: 422 Unprocessable Entity
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrDecryptionFailed indicates a decryption operation failed.
	//
	// This error can occur due to:
	//   - Wrong decryption key used
	//   - Ciphertext shorter than one block or not block aligned
	//   - Invalid PKCS#7 padding after decryption
	//   - Corrupted encrypted data
	//
	// For security reasons, the specific cause is not disclosed to prevent
	// padding-oracle style information leakage.
	//
	// HTTP Status: 500 Internal Server Error (integrity_error)
	ErrDecryptionFailed = errors.Wrap(errors.ErrIntegrity, "decryption failed")

	// ErrInvalidKeyMaterial indicates persisted key material could not be parsed.
	//
	// Returned when master.key, private.pem or public.pem exist but are corrupted,
	// use an unexpected PEM type, or the public key does not match the private key.
	ErrInvalidKeyMaterial = errors.Wrap(errors.ErrIntegrity, "invalid key material")

	// ErrUnsupportedKeeperURI indicates a MASTER_KEY_KMS_URI whose scheme has no
	// registered keeper driver.
	ErrUnsupportedKeeperURI = errors.Wrap(errors.ErrInvalidInput, "unsupported keeper uri")

	// ErrUnsupportedKeyProtection indicates an unknown master key protection mode.
	ErrUnsupportedKeyProtection = errors.Wrap(errors.ErrInvalidInput, "unsupported key protection")
)
