package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/cedms/internal/audit/domain"
	authDomain "github.com/allisson/cedms/internal/auth/domain"
	authService "github.com/allisson/cedms/internal/auth/service"
	apperrors "github.com/allisson/cedms/internal/errors"
	"github.com/allisson/cedms/internal/notify"
	otpDomain "github.com/allisson/cedms/internal/otp/domain"
	otpUseCase "github.com/allisson/cedms/internal/otp/usecase"
	userDomain "github.com/allisson/cedms/internal/user/domain"
)

// authUseCase implements AuthUseCase.
type authUseCase struct {
	users     UserRepository
	otp       otpUseCase.Manager
	tokens    authService.TokenService
	passwords authService.PasswordService
	notifier  notify.Notifier
	audit     AuditRecorder
	logger    *slog.Logger
	now       func() time.Time

	// dummyHash is compared against when the username is unknown so both
	// credential failures cost one Argon2id verification.
	dummyHash string
}

// NewAuthUseCase creates the authentication flows.
func NewAuthUseCase(
	users UserRepository,
	otp otpUseCase.Manager,
	tokens authService.TokenService,
	passwords authService.PasswordService,
	notifier notify.Notifier,
	audit AuditRecorder,
	logger *slog.Logger,
) (AuthUseCase, error) {
	dummyHash, err := passwords.Hash(rand.Text())
	if err != nil {
		return nil, err
	}
	return &authUseCase{
		users:     users,
		otp:       otp,
		tokens:    tokens,
		passwords: passwords,
		notifier:  notifier,
		audit:     audit,
		logger:    logger,
		now:       time.Now,
		dummyHash: dummyHash,
	}, nil
}

// record appends an audit entry. A ledger failure fails the operation.
func (a *authUseCase) record(
	ctx context.Context,
	action auditDomain.Action,
	actor auditDomain.Actor,
	metadata map[string]any,
	outcome auditDomain.Outcome,
) error {
	if _, err := a.audit.Append(ctx, action, actor, metadata, outcome); err != nil {
		a.logger.ErrorContext(ctx, "failed to record audit entry",
			slog.String("action", string(action)),
			slog.Any("error", err))
		return err
	}
	return nil
}

// fail records a FAILURE entry for cause and returns cause, or the ledger
// error if the entry could not be written.
func (a *authUseCase) fail(
	ctx context.Context,
	action auditDomain.Action,
	metadata map[string]any,
	cause error,
) error {
	metadata["error"] = failureReason(cause)
	if err := a.record(ctx, action, auditDomain.SystemActor, metadata, auditDomain.OutcomeFailure); err != nil {
		return err
	}
	return cause
}

// failureReason keeps storage internals out of the ledger.
func failureReason(err error) string {
	if apperrors.Is(err, apperrors.ErrStorage) {
		return "internal error"
	}
	return err.Error()
}

// sendCode delivers code. Notification failures are logged and never abort
// the flow.
func (a *authUseCase) sendCode(ctx context.Context, email, purpose, code string) {
	msg := notify.Message{
		To:      email,
		Subject: fmt.Sprintf("CEDMS %s verification code", purpose),
		Body: fmt.Sprintf("Your %s verification code is %s. It expires in %d minutes.",
			purpose, code, int(a.otp.Expiration().Minutes())),
	}
	if err := a.notifier.Notify(ctx, msg); err != nil {
		a.logger.WarnContext(ctx, "failed to deliver OTP",
			slog.String("purpose", purpose),
			slog.Any("error", err))
	}
}

func (a *authUseCase) issue(purpose, subject string, payload any) (string, error) {
	code, err := a.otp.Generate()
	if err != nil {
		return "", err
	}
	a.otp.Issue(otpDomain.Key(purpose, subject), code, payload)
	return code, nil
}

func (a *authUseCase) newSession(user *userDomain.User) (*authDomain.Session, error) {
	token, expiresAt, err := a.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &authDomain.Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// RequestRegistration checks availability of the username and email, hashes
// the password and sends a registration code. The account is created only by
// VerifyRegistration.
func (a *authUseCase) RequestRegistration(
	ctx context.Context,
	input authDomain.RegistrationInput,
) (*authDomain.Challenge, error) {
	role := userDomain.ParseRole(input.Role)
	meta := map[string]any{"email": input.Email, "username": input.Username}

	if err := a.ensureAvailable(ctx, input.Username, input.Email); err != nil {
		return nil, a.fail(ctx, auditDomain.ActionRegistrationRequest, meta, err)
	}

	hash, err := a.passwords.Hash(input.Password)
	if err != nil {
		return nil, a.fail(ctx, auditDomain.ActionRegistrationRequest, meta, err)
	}

	email := userDomain.Normalize(input.Email)
	code, err := a.issue(otpDomain.PurposeRegistration, email, &authDomain.PendingRegistration{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		FullName:     input.FullName,
		Role:         role,
	})
	if err != nil {
		return nil, a.fail(ctx, auditDomain.ActionRegistrationRequest, meta, err)
	}
	a.sendCode(ctx, input.Email, "registration", code)

	meta["role"] = string(role)
	if err := a.record(ctx, auditDomain.ActionRegistrationRequest, auditDomain.SystemActor, meta,
		auditDomain.OutcomeSuccess); err != nil {
		return nil, err
	}
	return &authDomain.Challenge{Email: input.Email, ExpiresIn: a.otp.Expiration()}, nil
}

func (a *authUseCase) ensureAvailable(ctx context.Context, username, email string) error {
	if _, err := a.users.GetByUsername(ctx, username); err == nil {
		return userDomain.ErrUsernameTaken
	} else if !errors.Is(err, userDomain.ErrUserNotFound) {
		return err
	}
	if _, err := a.users.GetByEmail(ctx, email); err == nil {
		return userDomain.ErrEmailTaken
	} else if !errors.Is(err, userDomain.ErrUserNotFound) {
		return err
	}
	return nil
}

// VerifyRegistration consumes the registration code, creates the account and
// opens a session.
func (a *authUseCase) VerifyRegistration(ctx context.Context, email, code string) (*authDomain.Session, error) {
	meta := map[string]any{"email": email}

	payload, err := a.otp.Verify(otpDomain.Key(otpDomain.PurposeRegistration, userDomain.Normalize(email)), code, false)
	if err != nil {
		return nil, a.fail(ctx, auditDomain.ActionRegistrationVerify, meta, err)
	}
	pending, ok := payload.(*authDomain.PendingRegistration)
	if !ok || pending == nil {
		return nil, a.fail(ctx, auditDomain.ActionRegistrationVerify, meta, authDomain.ErrRegistrationDataMissing)
	}

	now := a.now().UTC()
	user := &userDomain.User{
		ID:           uuid.Must(uuid.NewV7()).String(),
		Username:     pending.Username,
		Email:        pending.Email,
		PasswordHash: pending.PasswordHash,
		Role:         pending.Role,
		FullName:     pending.FullName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.users.Create(ctx, user); err != nil {
		return nil, a.fail(ctx, auditDomain.ActionRegistrationVerify, meta, err)
	}

	session, err := a.newSession(user)
	if err != nil {
		return nil, a.fail(ctx, auditDomain.ActionRegistrationVerify, meta, err)
	}

	principal := authDomain.PrincipalFromUser(user)
	if err := a.record(ctx, auditDomain.ActionRegistrationComplete, principal.Actor(), map[string]any{
		"userId":   user.ID,
		"username": user.Username,
		"role":     string(user.Role),
	}, auditDomain.OutcomeSuccess); err != nil {
		return nil, err
	}
	return session, nil
}

// RequestLogin checks the password and sends a login code to the account email.
func (a *authUseCase) RequestLogin(ctx context.Context, username, password string) (*authDomain.Challenge, error) {
	meta := map[string]any{"username": username}

	user, err := a.users.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, userDomain.ErrUserNotFound):
		a.passwords.Compare(password, a.dummyHash)
		return nil, a.fail(ctx, auditDomain.ActionLoginRequest, meta, authDomain.ErrInvalidCredentials)
	case err != nil:
		return nil, a.fail(ctx, auditDomain.ActionLoginRequest, meta, err)
	}

	if !a.passwords.Compare(password, user.PasswordHash) {
		return nil, a.fail(ctx, auditDomain.ActionLoginRequest, meta, authDomain.ErrInvalidCredentials)
	}
	if user.Email == "" {
		return nil, a.fail(ctx, auditDomain.ActionLoginRequest, meta, authDomain.ErrMissingEmail)
	}

	code, err := a.issue(otpDomain.PurposeLogin, userDomain.Normalize(user.Email), user.ID)
	if err != nil {
		return nil, a.fail(ctx, auditDomain.ActionLoginRequest, meta, err)
	}
	a.sendCode(ctx, user.Email, "login", code)

	meta["userId"] = user.ID
	meta["email"] = user.Email
	if err := a.record(ctx, auditDomain.ActionLoginRequest, auditDomain.SystemActor, meta,
		auditDomain.OutcomeSuccess); err != nil {
		return nil, err
	}
	return &authDomain.Challenge{Email: user.Email, ExpiresIn: a.otp.Expiration()}, nil
}

// VerifyLogin consumes the login code and opens a session.
func (a *authUseCase) VerifyLogin(ctx context.Context, email, code string) (*authDomain.Session, error) {
	meta := map[string]any{"email": email}

	payload, err := a.otp.Verify(otpDomain.Key(otpDomain.PurposeLogin, userDomain.Normalize(email)), code, false)
	if err != nil {
		return nil, a.fail(ctx, auditDomain.ActionLoginVerify, meta, err)
	}
	userID, _ := payload.(string)

	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		return nil, a.fail(ctx, auditDomain.ActionLoginVerify, meta, err)
	}

	session, err := a.newSession(user)
	if err != nil {
		return nil, a.fail(ctx, auditDomain.ActionLoginVerify, meta, err)
	}

	principal := authDomain.PrincipalFromUser(user)
	if err := a.record(ctx, auditDomain.ActionLoginComplete, principal.Actor(), map[string]any{
		"userId":   user.ID,
		"username": user.Username,
		"role":     string(user.Role),
	}, auditDomain.OutcomeSuccess); err != nil {
		return nil, err
	}
	return session, nil
}

// resolve finds the account named by a username or an email address.
func (a *authUseCase) resolve(ctx context.Context, identifier string) (*userDomain.User, error) {
	user, err := a.users.GetByUsername(ctx, identifier)
	if errors.Is(err, userDomain.ErrUserNotFound) {
		return a.users.GetByEmail(ctx, identifier)
	}
	return user, err
}

// RequestPasswordReset sends a reset code to the account email.
func (a *authUseCase) RequestPasswordReset(ctx context.Context, identifier string) (*authDomain.Challenge, error) {
	meta := map[string]any{"identifier": identifier}

	user, err := a.resolve(ctx, identifier)
	if err != nil {
		return nil, a.fail(ctx, auditDomain.ActionPasswordResetRequest, meta, err)
	}
	if user.Email == "" {
		return nil, a.fail(ctx, auditDomain.ActionPasswordResetRequest, meta, authDomain.ErrMissingEmail)
	}

	code, err := a.issue(otpDomain.PurposePasswordReset, user.ID, nil)
	if err != nil {
		return nil, a.fail(ctx, auditDomain.ActionPasswordResetRequest, meta, err)
	}
	a.sendCode(ctx, user.Email, "password reset", code)

	if err := a.record(ctx, auditDomain.ActionPasswordResetRequest, auditDomain.SystemActor, map[string]any{
		"email":    user.Email,
		"username": user.Username,
	}, auditDomain.OutcomeSuccess); err != nil {
		return nil, err
	}
	return &authDomain.Challenge{Email: user.Email, ExpiresIn: a.otp.Expiration()}, nil
}

// VerifyResetOTP checks the reset code without consuming it so ResetPassword
// can present it again.
func (a *authUseCase) VerifyResetOTP(ctx context.Context, identifier, code string) error {
	meta := map[string]any{"identifier": identifier}

	user, err := a.resolve(ctx, identifier)
	if err != nil {
		return a.fail(ctx, auditDomain.ActionPasswordResetVerify, meta, err)
	}
	meta["username"] = user.Username

	if _, err := a.otp.Verify(otpDomain.Key(otpDomain.PurposePasswordReset, user.ID), code, true); err != nil {
		return a.fail(ctx, auditDomain.ActionPasswordResetVerify, meta, err)
	}

	return a.record(ctx, auditDomain.ActionPasswordResetVerify, auditDomain.SystemActor, meta,
		auditDomain.OutcomeSuccess)
}

// ResetPassword consumes the reset code and replaces the password verifier.
func (a *authUseCase) ResetPassword(ctx context.Context, identifier, code, newPassword string) error {
	meta := map[string]any{"identifier": identifier}

	user, err := a.resolve(ctx, identifier)
	if err != nil {
		return a.fail(ctx, auditDomain.ActionPasswordResetVerify, meta, err)
	}
	meta["username"] = user.Username

	if _, err := a.otp.Verify(otpDomain.Key(otpDomain.PurposePasswordReset, user.ID), code, false); err != nil {
		return a.fail(ctx, auditDomain.ActionPasswordResetVerify, meta, err)
	}

	hash, err := a.passwords.Hash(newPassword)
	if err != nil {
		return a.fail(ctx, auditDomain.ActionPasswordResetVerify, meta, err)
	}
	updated, err := a.users.UpdatePassword(ctx, user.ID, hash, a.now().UTC())
	if err != nil {
		return a.fail(ctx, auditDomain.ActionPasswordResetVerify, meta, err)
	}

	principal := authDomain.PrincipalFromUser(updated)
	return a.record(ctx, auditDomain.ActionPasswordResetSuccess, principal.Actor(), map[string]any{
		"username": updated.Username,
	}, auditDomain.OutcomeSuccess)
}

// CurrentUser loads the account of principal.
func (a *authUseCase) CurrentUser(ctx context.Context, principal *authDomain.Principal) (*userDomain.User, error) {
	return a.users.GetByID(ctx, principal.UserID)
}

// Authenticate verifies the session token.
func (a *authUseCase) Authenticate(_ context.Context, token string) (*authDomain.Principal, error) {
	return a.tokens.Parse(token)
}
