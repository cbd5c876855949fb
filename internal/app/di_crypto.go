package app

import (
	"fmt"

	cryptoDomain "github.com/allisson/cedms/internal/crypto/domain"
	cryptoService "github.com/allisson/cedms/internal/crypto/service"
)

// KMSService returns the KMS service.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// KMSKeeper returns the keeper wrapping the master key, or nil unless the
// protection mode is kms.
func (c *Container) KMSKeeper() (cryptoDomain.KMSKeeper, error) {
	return resolve(c, &c.kmsKeeperInit, "kmsKeeper", &c.kmsKeeper, c.initKMSKeeper)
}

// KeyStore returns the file key store rooted at KEYS_DIR.
func (c *Container) KeyStore() (*cryptoService.FileKeyStore, error) {
	keeper, err := c.KMSKeeper()
	if err != nil {
		return nil, err
	}
	return cryptoService.NewFileKeyStore(
		c.config.KeysDir,
		cryptoDomain.KeyProtection(c.config.MasterKeyProtection),
		keeper,
		c.Logger(),
	), nil
}

// KeyMaterial returns the master key and the signing key pair, generating any
// missing piece on first start.
func (c *Container) KeyMaterial() (*cryptoDomain.KeyMaterial, error) {
	return resolve(c, &c.keyMaterialInit, "keyMaterial", &c.keyMaterial, c.initKeyMaterial)
}

// BlobCipher returns the AES-256-CBC cipher keyed with the master key.
func (c *Container) BlobCipher() (cryptoService.BlobCipher, error) {
	return resolve(c, &c.blobCipherInit, "blobCipher", &c.blobCipher, c.initBlobCipher)
}

// Signer returns the RSA signature service.
func (c *Container) Signer() (cryptoService.Signer, error) {
	return resolve(c, &c.signerInit, "signer", &c.signer, c.initSigner)
}

func (c *Container) initKMSKeeper() (cryptoDomain.KMSKeeper, error) {
	if cryptoDomain.KeyProtection(c.config.MasterKeyProtection) != cryptoDomain.KeyProtectionKMS {
		return nil, nil
	}
	if c.config.MasterKeyKMSURI == "" {
		return nil, fmt.Errorf("MASTER_KEY_KMS_URI is required when MASTER_KEY_PROTECTION is kms")
	}
	keeper, err := c.KMSService().OpenKeeper(c.ctx, c.config.MasterKeyKMSURI)
	if err != nil {
		return nil, err
	}
	return keeper, nil
}

func (c *Container) initKeyMaterial() (*cryptoDomain.KeyMaterial, error) {
	keyStore, err := c.KeyStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get key store: %w", err)
	}
	material, err := keyStore.LoadOrGenerate(c.ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load key material: %w", err)
	}
	return material, nil
}

func (c *Container) initBlobCipher() (cryptoService.BlobCipher, error) {
	material, err := c.KeyMaterial()
	if err != nil {
		return nil, err
	}
	cipher, err := cryptoService.NewAESCBC(material.MasterKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob cipher: %w", err)
	}
	return cipher, nil
}

func (c *Container) initSigner() (cryptoService.Signer, error) {
	material, err := c.KeyMaterial()
	if err != nil {
		return nil, err
	}
	return cryptoService.NewRSASigner(material.PrivateKey), nil
}
