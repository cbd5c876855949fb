package service

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// SessionTokenKeyInfo is the HKDF info string for the session token signing key.
// Bumping the version suffix invalidates every issued session token.
const SessionTokenKeyInfo = "session-token-signing-v1"

// DeriveKey derives a subkey of the given size from the master key with HKDF-SHA256.
// Distinct info strings yield independent keys, so the master key itself is never
// used for anything but document encryption.
func DeriveKey(masterKey []byte, info string, size int) ([]byte, error) {
	reader := hkdf.New(sha256.New, masterKey, nil, []byte(info))

	key := make([]byte, size)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}
