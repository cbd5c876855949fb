package service

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// RSASigner implements Signer with SHA-256 digests and RSA PKCS#1 v1.5 padding.
//
// Signatures are always taken over small canonical metadata, never over document
// bytes, so the signature size (256 bytes for RSA-2048) is independent of the
// document size. PKCS#1 v1.5 signing is deterministic: the same payload and key
// always yield the same signature.
type RSASigner struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
}

// NewRSASigner creates a signer from the vault's private key.
func NewRSASigner(privateKey *rsa.PrivateKey) *RSASigner {
	return &RSASigner{privateKey: privateKey, publicKey: &privateKey.PublicKey}
}

// Sign hashes payload with SHA-256 and signs the digest.
func (s *RSASigner) Sign(payload []byte) (string, error) {
	digest := sha256.Sum256(payload)

	signature, err := rsa.SignPKCS1v15(rand.Reader, s.privateKey, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("failed to sign payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(signature), nil
}

// Verify reports whether signature (base64) is valid for payload.
func (s *RSASigner) Verify(payload []byte, signature string) bool {
	raw, err := base64.StdEncoding.DecodeString(signature)
	if err != nil || len(raw) != s.publicKey.Size() {
		return false
	}

	digest := sha256.Sum256(payload)
	return rsa.VerifyPKCS1v15(s.publicKey, crypto.SHA256, digest[:], raw) == nil
}
