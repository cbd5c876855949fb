package service

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	cryptoDomain "github.com/allisson/cedms/internal/crypto/domain"
)

// AESCBCCipher implements BlobCipher using AES-256 in CBC mode with PKCS#7 padding.
//
// Every call to Seal or Encrypt draws a new 16-byte IV from crypto/rand, so encrypting
// the same document twice never produces the same ciphertext. CBC provides
// confidentiality only; document authenticity is established separately by the
// approval signature that is verified before any download is decrypted.
//
// Wire format produced by Encrypt:
//
//	IV (16 bytes) || AES-256-CBC(PKCS#7(plaintext))
//
// Thread safety:
//
//	The cipher holds only the immutable block cipher and is safe for concurrent
//	use from multiple goroutines.
//
// Example usage:
//
//	c, err := NewAESCBC(masterKey)
//	if err != nil {
//	    return err
//	}
//	blob, err := c.Encrypt(fileBytes)
//	...
//	original, err := c.Decrypt(blob)
type AESCBCCipher struct {
	block cipher.Block
}

// NewAESCBC creates a new AES-256-CBC cipher.
//
// The key must be exactly 32 bytes. The key slice is not retained after the block
// cipher has been expanded, so callers may zero it afterwards.
func NewAESCBC(key []byte) (*AESCBCCipher, error) {
	if len(key) != cryptoDomain.MasterKeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	return &AESCBCCipher{block: block}, nil
}

// Seal encrypts plaintext under a freshly generated IV.
func (a *AESCBCCipher) Seal(plaintext []byte) (ciphertext, iv []byte, err error) {
	iv = make([]byte, cryptoDomain.IVSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, nil, fmt.Errorf("failed to generate iv: %w", err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext = make([]byte, len(padded))
	cipher.NewCBCEncrypter(a.block, iv).CryptBlocks(ciphertext, padded)

	return ciphertext, iv, nil
}

// Open decrypts ciphertext with the given IV and strips the padding.
//
// Any malformed input (wrong IV length, ciphertext not block aligned, invalid
// padding) returns ErrDecryptionFailed without further detail.
func (a *AESCBCCipher) Open(ciphertext, iv []byte) ([]byte, error) {
	if len(iv) != cryptoDomain.IVSize {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(a.block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := pkcs7Unpad(plaintext, aes.BlockSize)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return unpadded, nil
}

// Encrypt seals plaintext and prepends the IV to the ciphertext.
func (a *AESCBCCipher) Encrypt(plaintext []byte) ([]byte, error) {
	ciphertext, iv, err := a.Seal(plaintext)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(iv)+len(ciphertext))
	out = append(out, iv...)
	return append(out, ciphertext...), nil
}

// Decrypt splits the IV prefix off data and opens the remainder.
func (a *AESCBCCipher) Decrypt(data []byte) ([]byte, error) {
	if len(data) < cryptoDomain.IVSize {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return a.Open(data[cryptoDomain.IVSize:], data[:cryptoDomain.IVSize])
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	out := make([]byte, len(data), len(data)+n)
	copy(out, data)
	return append(out, bytes.Repeat([]byte{byte(n)}, n)...)
}

// pkcs7Unpad checks every padding byte without early exit on the byte values.
func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	expected := bytes.Repeat([]byte{byte(n)}, n)
	if subtle.ConstantTimeCompare(data[len(data)-n:], expected) != 1 {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return data[:len(data)-n], nil
}
