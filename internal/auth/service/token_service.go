package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	authDomain "github.com/allisson/cedms/internal/auth/domain"
	apperrors "github.com/allisson/cedms/internal/errors"
	userDomain "github.com/allisson/cedms/internal/user/domain"
)

// MinSigningKeySize is the shortest accepted HS256 key.
const MinSigningKeySize = 32

// ErrSigningKeyTooShort indicates a session signing key below MinSigningKeySize.
var ErrSigningKeyTooShort = apperrors.Wrap(apperrors.ErrInvalidInput, "session signing key too short")

// Claims is the JWT payload. id, username and role mirror the principal; sub
// duplicates id for standard consumers.
type Claims struct {
	jwt.RegisteredClaims
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// jwtTokenService implements TokenService with HMAC-SHA256 signed JWTs.
type jwtTokenService struct {
	key      []byte
	issuer   string
	lifetime time.Duration
	now      func() time.Time
}

// NewTokenService creates a TokenService signing with key. The key must be at
// least MinSigningKeySize bytes.
func NewTokenService(key []byte, issuer string, lifetime time.Duration) (TokenService, error) {
	if len(key) < MinSigningKeySize {
		return nil, ErrSigningKeyTooShort
	}
	return &jwtTokenService{
		key:      append([]byte(nil), key...),
		issuer:   issuer,
		lifetime: lifetime,
		now:      time.Now,
	}, nil
}

// Issue signs a token valid for the configured lifetime.
func (s *jwtTokenService) Issue(user *userDomain.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.lifetime)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		ID:       user.ID,
		Username: user.Username,
		Role:     string(user.Role),
	})

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", time.Time{}, apperrors.Wrap(err, "failed to sign session token")
	}
	return signed, expiresAt, nil
}

// Parse accepts only HS256 tokens from the configured issuer.
func (s *jwtTokenService) Parse(tokenString string) (*authDomain.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, apperrors.Wrap(authDomain.ErrInvalidToken, tokenErrorReason(err))
	}
	if !token.Valid || claims.ID == "" || claims.Subject != claims.ID {
		return nil, authDomain.ErrInvalidToken
	}

	return &authDomain.Principal{
		UserID:   claims.ID,
		Username: claims.Username,
		Role:     userDomain.ParseRole(claims.Role),
	}, nil
}

func tokenErrorReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "token expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "signature invalid"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "token malformed"
	default:
		return "token rejected"
	}
}
