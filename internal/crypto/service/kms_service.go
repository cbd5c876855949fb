package service

import (
	"context"
	"fmt"
	"net/url"
	"slices"

	"gocloud.dev/secrets"
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"

	cryptoDomain "github.com/allisson/cedms/internal/crypto/domain"
)

// KeeperSchemes lists the MASTER_KEY_KMS_URI schemes accepted in kms protection mode.
var KeeperSchemes = []string{"awskms", "azurekeyvault", "gcpkms", "hashivault", "base64key"}

// KMSService opens the keeper that wraps the vault master key when
// MASTER_KEY_PROTECTION=kms.
type KMSService interface {
	OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error)
}

type kmsService struct{}

func NewKMSService() KMSService {
	return &kmsService{}
}

// OpenKeeper rejects schemes outside KeeperSchemes with ErrUnsupportedKeeperURI
// before opening the gocloud.dev keeper. Scheme errors never echo the URI, which
// holds the key itself for base64key://. The caller must Close the keeper.
func (k *kmsService) OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error) {
	parsed, err := url.Parse(keyURI)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed uri", cryptoDomain.ErrUnsupportedKeeperURI)
	}
	if !slices.Contains(KeeperSchemes, parsed.Scheme) {
		return nil, fmt.Errorf("%w: scheme %q (want one of %v)", cryptoDomain.ErrUnsupportedKeeperURI, parsed.Scheme, KeeperSchemes)
	}

	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open master key keeper %s://: %w", parsed.Scheme, err)
	}
	return keeper, nil
}
