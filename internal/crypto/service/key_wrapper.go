package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	cryptoDomain "github.com/allisson/cedms/internal/crypto/domain"
)

var (
	rsaWrapPrefix = []byte("rsa:")
	kmsWrapPrefix = []byte("kms:")

	masterKeyLabel = []byte("cedms-master-key")
)

// plainWrapper persists the master key hex-encoded.
type plainWrapper struct{}

// NewPlainWrapper returns a KeyWrapper storing the key as hex text.
func NewPlainWrapper() KeyWrapper {
	return plainWrapper{}
}

func (plainWrapper) Wrap(_ context.Context, key []byte) ([]byte, error) {
	out := make([]byte, hex.EncodedLen(len(key)))
	hex.Encode(out, key)
	return out, nil
}

func (plainWrapper) Unwrap(_ context.Context, data []byte) ([]byte, error) {
	data = bytes.TrimSpace(data)
	key := make([]byte, hex.DecodedLen(len(data)))
	if _, err := hex.Decode(key, data); err != nil {
		return nil, cryptoDomain.ErrInvalidKeyMaterial
	}
	return key, nil
}

// rsaWrapper encrypts the master key with RSA-OAEP (SHA-256) under the vault
// public key, so the symmetric key only ever rests on disk in wrapped form.
type rsaWrapper struct {
	privateKey *rsa.PrivateKey
}

// NewRSAWrapper returns a KeyWrapper backed by the vault key pair.
func NewRSAWrapper(privateKey *rsa.PrivateKey) KeyWrapper {
	return &rsaWrapper{privateKey: privateKey}
}

func (w *rsaWrapper) Wrap(_ context.Context, key []byte) ([]byte, error) {
	ciphertext, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, &w.privateKey.PublicKey, key, masterKeyLabel)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap master key: %w", err)
	}
	return encodePrefixed(rsaWrapPrefix, ciphertext), nil
}

func (w *rsaWrapper) Unwrap(_ context.Context, data []byte) ([]byte, error) {
	ciphertext, err := decodePrefixed(rsaWrapPrefix, data)
	if err != nil {
		return nil, err
	}

	key, err := rsa.DecryptOAEP(sha256.New(), nil, w.privateKey, ciphertext, masterKeyLabel)
	if err != nil {
		return nil, cryptoDomain.ErrInvalidKeyMaterial
	}
	return key, nil
}

// keeperWrapper delegates wrapping to an external KMS keeper.
type keeperWrapper struct {
	keeper cryptoDomain.KMSKeeper
}

// NewKeeperWrapper returns a KeyWrapper backed by a gocloud.dev secrets keeper.
func NewKeeperWrapper(keeper cryptoDomain.KMSKeeper) KeyWrapper {
	return &keeperWrapper{keeper: keeper}
}

func (w *keeperWrapper) Wrap(ctx context.Context, key []byte) ([]byte, error) {
	ciphertext, err := w.keeper.Encrypt(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap master key with kms: %w", err)
	}
	return encodePrefixed(kmsWrapPrefix, ciphertext), nil
}

func (w *keeperWrapper) Unwrap(ctx context.Context, data []byte) ([]byte, error) {
	ciphertext, err := decodePrefixed(kmsWrapPrefix, data)
	if err != nil {
		return nil, err
	}

	key, err := w.keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap master key with kms: %w", err)
	}
	return key, nil
}

func encodePrefixed(prefix, raw []byte) []byte {
	out := make([]byte, len(prefix)+base64.StdEncoding.EncodedLen(len(raw)))
	copy(out, prefix)
	base64.StdEncoding.Encode(out[len(prefix):], raw)
	return out
}

func decodePrefixed(prefix, data []byte) ([]byte, error) {
	data = bytes.TrimSpace(data)
	if !bytes.HasPrefix(data, prefix) {
		return nil, cryptoDomain.ErrInvalidKeyMaterial
	}

	raw, err := base64.StdEncoding.DecodeString(string(data[len(prefix):]))
	if err != nil {
		return nil, cryptoDomain.ErrInvalidKeyMaterial
	}
	return raw, nil
}
