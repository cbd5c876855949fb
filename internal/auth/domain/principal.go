// Package domain defines authentication entities: the authenticated principal
// carried by session tokens and the inputs of the OTP-gated flows.
package domain

import (
	"time"

	auditDomain "github.com/allisson/cedms/internal/audit/domain"
	userDomain "github.com/allisson/cedms/internal/user/domain"
)

// Principal is the identity asserted by a verified session token.
type Principal struct {
	UserID   string
	Username string
	Role     userDomain.Role
}

// Actor returns the audit identity of the principal.
func (p *Principal) Actor() auditDomain.Actor {
	return auditDomain.Actor{UserID: p.UserID, Username: p.Username, Role: string(p.Role)}
}

// PrincipalFromUser builds the principal of user.
func PrincipalFromUser(user *userDomain.User) *Principal {
	return &Principal{UserID: user.ID, Username: user.Username, Role: user.Role}
}

// Session is an issued bearer token and the user it belongs to.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *userDomain.User
}

// RegistrationInput holds the fields of a registration request.
type RegistrationInput struct {
	Username string
	Email    string
	Password string
	FullName string
	Role     string
}

// PendingRegistration is the OTP payload of a registration awaiting
// verification. The password is already hashed.
type PendingRegistration struct {
	Username     string
	Email        string
	PasswordHash string
	FullName     string
	Role         userDomain.Role
}

// Challenge describes an issued OTP without revealing the code.
type Challenge struct {
	Email     string
	ExpiresIn time.Duration
}
