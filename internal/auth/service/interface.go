// Package service provides technical services for authentication operations.
//
// This package implements signed session tokens and password verifiers using
// industry-standard primitives (HS256 JWT, Argon2id).
package service

import (
	"time"

	authDomain "github.com/allisson/cedms/internal/auth/domain"
	userDomain "github.com/allisson/cedms/internal/user/domain"
)

// TokenService issues and verifies time-bounded session tokens carrying the
// user identity and role.
type TokenService interface {
	// Issue signs a token for user and returns it with its expiry.
	Issue(user *userDomain.User) (token string, expiresAt time.Time, err error)

	// Parse verifies signature, issuer and expiry and returns the principal.
	// Any failure yields authDomain.ErrInvalidToken.
	Parse(token string) (*authDomain.Principal, error)
}

// PasswordService hashes and verifies account passwords.
type PasswordService interface {
	// Hash returns a self-describing verifier string (PHC format).
	Hash(password string) (string, error)

	// Compare reports whether password matches the verifier. It is
	// constant-time with respect to the password.
	Compare(password, hash string) bool
}
