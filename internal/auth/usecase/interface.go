// Package usecase implements the OTP-gated authentication flows.
//
// Registration, login and password reset each run in two or three steps: a
// request step that checks the caller's claim and sends a one-time code, and
// verification steps that consume the code. Every step records exactly one
// audit entry whether it succeeds or fails. Input validation happens before the
// use case is called and is never audited.
package usecase

import (
	"context"
	"time"

	auditDomain "github.com/allisson/cedms/internal/audit/domain"
	authDomain "github.com/allisson/cedms/internal/auth/domain"
	userDomain "github.com/allisson/cedms/internal/user/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *userDomain.User) error
	GetByID(ctx context.Context, id string) (*userDomain.User, error)
	GetByUsername(ctx context.Context, username string) (*userDomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userDomain.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) (*userDomain.User, error)
}

// AuditRecorder appends entries to the audit ledger.
type AuditRecorder interface {
	Append(
		ctx context.Context,
		action auditDomain.Action,
		actor auditDomain.Actor,
		metadata map[string]any,
		outcome auditDomain.Outcome,
	) (*auditDomain.Entry, error)
}

// AuthUseCase defines the authentication flows.
type AuthUseCase interface {
	RequestRegistration(ctx context.Context, input authDomain.RegistrationInput) (*authDomain.Challenge, error)
	VerifyRegistration(ctx context.Context, email, code string) (*authDomain.Session, error)
	RequestLogin(ctx context.Context, username, password string) (*authDomain.Challenge, error)
	VerifyLogin(ctx context.Context, email, code string) (*authDomain.Session, error)
	RequestPasswordReset(ctx context.Context, identifier string) (*authDomain.Challenge, error)
	VerifyResetOTP(ctx context.Context, identifier, code string) error
	ResetPassword(ctx context.Context, identifier, code, newPassword string) error

	// CurrentUser returns the account behind an authenticated principal.
	CurrentUser(ctx context.Context, principal *authDomain.Principal) (*userDomain.User, error)

	// Authenticate verifies a bearer session token.
	Authenticate(ctx context.Context, token string) (*authDomain.Principal, error)
}
