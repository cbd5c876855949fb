package usecase

import (
	"context"
	"time"

	authDomain "github.com/allisson/cedms/internal/auth/domain"
	"github.com/allisson/cedms/internal/metrics"
	userDomain "github.com/allisson/cedms/internal/user/domain"
)

// authUseCaseWithMetrics decorates AuthUseCase with metrics instrumentation.
type authUseCaseWithMetrics struct {
	next    AuthUseCase
	metrics metrics.BusinessMetrics
}

// NewAuthUseCaseWithMetrics wraps an AuthUseCase with metrics recording.
func NewAuthUseCaseWithMetrics(useCase AuthUseCase, m metrics.BusinessMetrics) AuthUseCase {
	return &authUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (a *authUseCaseWithMetrics) observe(ctx context.Context, operation string, start time.Time, err error) {
	status := metrics.StatusOf(err)
	a.metrics.RecordOperation(ctx, "auth", operation, status)
	a.metrics.RecordDuration(ctx, "auth", operation, time.Since(start), status)
}

// RequestRegistration records metrics for registration requests.
func (a *authUseCaseWithMetrics) RequestRegistration(
	ctx context.Context,
	input authDomain.RegistrationInput,
) (*authDomain.Challenge, error) {
	start := time.Now()
	challenge, err := a.next.RequestRegistration(ctx, input)
	a.observe(ctx, "registration_request", start, err)
	return challenge, err
}

// VerifyRegistration records metrics for registration verification.
func (a *authUseCaseWithMetrics) VerifyRegistration(
	ctx context.Context,
	email, code string,
) (*authDomain.Session, error) {
	start := time.Now()
	session, err := a.next.VerifyRegistration(ctx, email, code)
	a.observe(ctx, "registration_verify", start, err)
	return session, err
}

// RequestLogin records metrics for login requests.
func (a *authUseCaseWithMetrics) RequestLogin(
	ctx context.Context,
	username, password string,
) (*authDomain.Challenge, error) {
	start := time.Now()
	challenge, err := a.next.RequestLogin(ctx, username, password)
	a.observe(ctx, "login_request", start, err)
	return challenge, err
}

// VerifyLogin records metrics for login verification.
func (a *authUseCaseWithMetrics) VerifyLogin(ctx context.Context, email, code string) (*authDomain.Session, error) {
	start := time.Now()
	session, err := a.next.VerifyLogin(ctx, email, code)
	a.observe(ctx, "login_verify", start, err)
	return session, err
}

// RequestPasswordReset records metrics for password reset requests.
func (a *authUseCaseWithMetrics) RequestPasswordReset(
	ctx context.Context,
	identifier string,
) (*authDomain.Challenge, error) {
	start := time.Now()
	challenge, err := a.next.RequestPasswordReset(ctx, identifier)
	a.observe(ctx, "password_reset_request", start, err)
	return challenge, err
}

// VerifyResetOTP records metrics for reset code checks.
func (a *authUseCaseWithMetrics) VerifyResetOTP(ctx context.Context, identifier, code string) error {
	start := time.Now()
	err := a.next.VerifyResetOTP(ctx, identifier, code)
	a.observe(ctx, "password_reset_verify", start, err)
	return err
}

// ResetPassword records metrics for password resets.
func (a *authUseCaseWithMetrics) ResetPassword(ctx context.Context, identifier, code, newPassword string) error {
	start := time.Now()
	err := a.next.ResetPassword(ctx, identifier, code, newPassword)
	a.observe(ctx, "password_reset", start, err)
	return err
}

// CurrentUser is not instrumented.
func (a *authUseCaseWithMetrics) CurrentUser(
	ctx context.Context,
	principal *authDomain.Principal,
) (*userDomain.User, error) {
	return a.next.CurrentUser(ctx, principal)
}

// Authenticate records metrics for token verification.
func (a *authUseCaseWithMetrics) Authenticate(ctx context.Context, token string) (*authDomain.Principal, error) {
	start := time.Now()
	principal, err := a.next.Authenticate(ctx, token)
	a.observe(ctx, "authenticate", start, err)
	return principal, err
}
