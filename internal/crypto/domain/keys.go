// Package domain defines the key material owned by the crypto vault.
//
// The vault holds exactly two secrets for the lifetime of the process: a
// 256-bit AES master key used for every stored document, and an RSA-2048 key
// pair used only for approval signatures. Both are generated once when absent
// and treated as immutable shared state after loading.
package domain

import (
	"context"
	"crypto/rsa"
)

const (
	// MasterKeySize is the AES-256 master key length in bytes.
	MasterKeySize = 32

	// RSAKeyBits is the modulus size of the signing key pair.
	RSAKeyBits = 2048

	// IVSize is the AES block size, used as the CBC initialization vector length.
	IVSize = 16

	// EncryptionAlgorithm names the document cipher in API responses.
	EncryptionAlgorithm = "AES-256-CBC"
)

// File names of the persisted key material inside the keys directory.
const (
	MasterKeyFile  = "master.key"
	PrivateKeyFile = "private.pem"
	PublicKeyFile  = "public.pem"
)

// KeyProtection selects how the master key is written to storage.
type KeyProtection string

const (
	// KeyProtectionPlain stores the master key hex-encoded.
	KeyProtectionPlain KeyProtection = "plain"

	// KeyProtectionRSA stores the master key encrypted with RSA-OAEP under the
	// vault's own public key.
	KeyProtectionRSA KeyProtection = "rsa"

	// KeyProtectionKMS stores the master key encrypted by an external KMS keeper.
	KeyProtectionKMS KeyProtection = "kms"
)

// KeyMaterial groups the vault secrets loaded at startup.
type KeyMaterial struct {
	MasterKey  []byte
	PrivateKey *rsa.PrivateKey
}

// PublicKey returns the public half of the signing key pair.
func (k *KeyMaterial) PublicKey() *rsa.PublicKey {
	return &k.PrivateKey.PublicKey
}

// Zero clears the master key from memory.
func (k *KeyMaterial) Zero() {
	Zero(k.MasterKey)
}

// KMSKeeper is the subset of *secrets.Keeper used to wrap the master key.
type KMSKeeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// Zero securely overwrites a byte slice with zeros to clear sensitive data from memory.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
