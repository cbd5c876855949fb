package commands

import (
	"context"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	cryptoDomain "github.com/allisson/cedms/internal/crypto/domain"
	cryptoService "github.com/allisson/cedms/internal/crypto/service"
)

// KeyReport describes the key material found or created by generate-keys.
type KeyReport struct {
	KeysDir              string `json:"keys_dir"`
	Protection           string `json:"protection"`
	MasterKeyFile        string `json:"master_key_file"`
	PrivateKeyFile       string `json:"private_key_file"`
	PublicKeyFile        string `json:"public_key_file"`
	PublicKeyFingerprint string `json:"public_key_fingerprint"`
}

// RunGenerateKeys loads the vault key material, generating whatever is missing.
// Existing keys are never replaced. The master key is never printed; the
// output carries the file locations and the SHA-256 fingerprint of the public
// signing key.
func RunGenerateKeys(
	ctx context.Context,
	keyStore cryptoService.KeyStore,
	logger *slog.Logger,
	writer io.Writer,
	keysDir, protection string,
	format string,
) error {
	material, err := keyStore.LoadOrGenerate(ctx)
	if err != nil {
		return fmt.Errorf("failed to load or generate keys: %w", err)
	}
	defer material.Zero()

	fingerprint, err := publicKeyFingerprint(material)
	if err != nil {
		return err
	}

	report := KeyReport{
		KeysDir:              keysDir,
		Protection:           protection,
		MasterKeyFile:        filepath.Join(keysDir, cryptoDomain.MasterKeyFile),
		PrivateKeyFile:       filepath.Join(keysDir, cryptoDomain.PrivateKeyFile),
		PublicKeyFile:        filepath.Join(keysDir, cryptoDomain.PublicKeyFile),
		PublicKeyFingerprint: fingerprint,
	}

	if format == "json" {
		if err := writeJSON(writer, report); err != nil {
			return err
		}
	} else {
		outputKeysText(writer, report)
	}

	logger.Info("key material ready",
		slog.String("keys_dir", keysDir),
		slog.String("protection", protection),
		slog.String("public_key_fingerprint", fingerprint),
	)
	return nil
}

func publicKeyFingerprint(material *cryptoDomain.KeyMaterial) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(material.PublicKey())
	if err != nil {
		return "", fmt.Errorf("failed to encode public key: %w", err)
	}
	sum := sha256.Sum256(der)
	return "SHA256:" + hex.EncodeToString(sum[:]), nil
}

func outputKeysText(writer io.Writer, report KeyReport) {
	_, _ = fmt.Fprintf(writer, "Key Material\n")
	_, _ = fmt.Fprintf(writer, "============\n\n")
	_, _ = fmt.Fprintf(writer, "Directory:    %s\n", report.KeysDir)
	_, _ = fmt.Fprintf(writer, "Protection:   %s\n", report.Protection)
	_, _ = fmt.Fprintf(writer, "Master key:   %s\n", report.MasterKeyFile)
	_, _ = fmt.Fprintf(writer, "Private key:  %s\n", report.PrivateKeyFile)
	_, _ = fmt.Fprintf(writer, "Public key:   %s\n", report.PublicKeyFile)
	_, _ = fmt.Fprintf(writer, "Fingerprint:  %s\n\n", report.PublicKeyFingerprint)
	_, _ = fmt.Fprintf(writer, "Back up %s: losing it makes every stored document unrecoverable.\n", report.MasterKeyFile)
}
