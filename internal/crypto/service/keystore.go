package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	cryptoDomain "github.com/allisson/cedms/internal/crypto/domain"
)

// FileKeyStore persists the vault key material as files inside one directory:
//
//	master.key   master key, format depends on the protection mode
//	private.pem  RSA private key, PKCS#8 "PRIVATE KEY" block, mode 0600
//	public.pem   RSA public key, PKIX "PUBLIC KEY" block, mode 0644
//
// Missing files are generated on the first call to LoadOrGenerate. Existing
// files are never rotated. Losing master.key makes every stored document
// permanently unrecoverable.
type FileKeyStore struct {
	dir        string
	protection cryptoDomain.KeyProtection
	keeper     cryptoDomain.KMSKeeper
	logger     *slog.Logger
}

// NewFileKeyStore creates a key store rooted at dir. keeper is required only for
// the kms protection mode.
func NewFileKeyStore(
	dir string,
	protection cryptoDomain.KeyProtection,
	keeper cryptoDomain.KMSKeeper,
	logger *slog.Logger,
) *FileKeyStore {
	return &FileKeyStore{dir: dir, protection: protection, keeper: keeper, logger: logger}
}

// LoadOrGenerate returns the vault key material, creating any missing piece.
// The RSA key pair is resolved first because the rsa protection mode wraps the
// master key with it.
func (s *FileKeyStore) LoadOrGenerate(ctx context.Context) (*cryptoDomain.KeyMaterial, error) {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create keys directory: %w", err)
	}

	privateKey, err := s.loadOrGenerateKeyPair()
	if err != nil {
		return nil, err
	}

	wrapper, err := s.wrapper(privateKey)
	if err != nil {
		return nil, err
	}

	masterKey, err := s.loadOrGenerateMasterKey(ctx, wrapper)
	if err != nil {
		return nil, err
	}

	return &cryptoDomain.KeyMaterial{MasterKey: masterKey, PrivateKey: privateKey}, nil
}

func (s *FileKeyStore) wrapper(privateKey *rsa.PrivateKey) (KeyWrapper, error) {
	switch s.protection {
	case cryptoDomain.KeyProtectionPlain, "":
		return NewPlainWrapper(), nil
	case cryptoDomain.KeyProtectionRSA:
		return NewRSAWrapper(privateKey), nil
	case cryptoDomain.KeyProtectionKMS:
		if s.keeper == nil {
			return nil, fmt.Errorf("kms protection requires a keeper: %w", cryptoDomain.ErrUnsupportedKeyProtection)
		}
		return NewKeeperWrapper(s.keeper), nil
	default:
		return nil, cryptoDomain.ErrUnsupportedKeyProtection
	}
}

func (s *FileKeyStore) loadOrGenerateMasterKey(ctx context.Context, wrapper KeyWrapper) ([]byte, error) {
	path := filepath.Join(s.dir, cryptoDomain.MasterKeyFile)

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		key, err := wrapper.Unwrap(ctx, data)
		if err != nil {
			return nil, err
		}
		if len(key) != cryptoDomain.MasterKeySize {
			cryptoDomain.Zero(key)
			return nil, cryptoDomain.ErrInvalidKeySize
		}
		return key, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("failed to read master key: %w", err)
	}

	key := make([]byte, cryptoDomain.MasterKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}

	wrapped, err := wrapper.Wrap(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := writeFileAtomic(path, wrapped, 0o600); err != nil {
		return nil, err
	}

	s.logger.Info("generated master key", slog.String("path", path), slog.String("protection", string(s.protection)))
	return key, nil
}

func (s *FileKeyStore) loadOrGenerateKeyPair() (*rsa.PrivateKey, error) {
	privatePath := filepath.Join(s.dir, cryptoDomain.PrivateKeyFile)
	publicPath := filepath.Join(s.dir, cryptoDomain.PublicKeyFile)

	data, err := os.ReadFile(privatePath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}

	if err == nil {
		privateKey, err := parsePrivateKey(data)
		if err != nil {
			return nil, err
		}
		if err := s.ensurePublicKey(publicPath, privateKey); err != nil {
			return nil, err
		}
		return privateKey, nil
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, cryptoDomain.RSAKeyBits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate rsa key pair: %w", err)
	}

	der, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encode private key: %w", err)
	}
	if err := writeFileAtomic(privatePath, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), 0o600); err != nil {
		return nil, err
	}
	if err := writePublicKey(publicPath, &privateKey.PublicKey); err != nil {
		return nil, err
	}

	s.logger.Info("generated rsa key pair", slog.String("path", privatePath), slog.Int("bits", cryptoDomain.RSAKeyBits))
	return privateKey, nil
}

// ensurePublicKey rewrites public.pem when missing and rejects a public key that
// does not belong to the private key.
func (s *FileKeyStore) ensurePublicKey(path string, privateKey *rsa.PrivateKey) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return writePublicKey(path, &privateKey.PublicKey)
	}
	if err != nil {
		return fmt.Errorf("failed to read public key: %w", err)
	}

	publicKey, err := parsePublicKey(data)
	if err != nil {
		return err
	}
	if !publicKey.Equal(&privateKey.PublicKey) {
		return cryptoDomain.ErrInvalidKeyMaterial
	}
	return nil
}

func parsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "PRIVATE KEY" {
		return nil, cryptoDomain.ErrInvalidKeyMaterial
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, cryptoDomain.ErrInvalidKeyMaterial
	}

	privateKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, cryptoDomain.ErrInvalidKeyMaterial
	}
	if privateKey.N.BitLen() < cryptoDomain.RSAKeyBits {
		return nil, cryptoDomain.ErrInvalidKeySize
	}
	return privateKey, nil
}

func parsePublicKey(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "PUBLIC KEY" {
		return nil, cryptoDomain.ErrInvalidKeyMaterial
	}

	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, cryptoDomain.ErrInvalidKeyMaterial
	}

	publicKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, cryptoDomain.ErrInvalidKeyMaterial
	}
	return publicKey, nil
}

func writePublicKey(path string, publicKey *rsa.PublicKey) error {
	der, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return fmt.Errorf("failed to encode public key: %w", err)
	}
	return writeFileAtomic(path, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), 0o644)
}

// writeFileAtomic writes data next to path and renames it into place so a crash
// never leaves a truncated key file behind.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", filepath.Base(path), err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
