package domain

import (
	"github.com/allisson/cedms/internal/errors"
)

// Authentication errors.
var (
	// ErrInvalidCredentials indicates an unknown username or a wrong password.
	// Both cases share one error so callers cannot probe for accounts.
	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid credentials")

	// ErrInvalidToken indicates a session token that is malformed, forged or expired.
	ErrInvalidToken = errors.Wrap(errors.ErrUnauthorized, "invalid or expired token")

	// ErrMissingEmail indicates an account without an address to deliver OTP codes to.
	ErrMissingEmail = errors.Wrap(errors.ErrInvalidInput, "no email associated with this account")

	// ErrRegistrationDataMissing indicates a registration OTP without its pending user.
	ErrRegistrationDataMissing = errors.Wrap(errors.ErrOTP, "registration data not found, start registration again")
)
