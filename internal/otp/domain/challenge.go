// Package domain defines one-time passcode challenges.
package domain

import (
	"fmt"
	"time"

	apperrors "github.com/allisson/cedms/internal/errors"
)

// Key namespaces. A code issued under one purpose never satisfies another.
const (
	PurposeRegistration  = "registration"
	PurposeLogin         = "login"
	PurposePasswordReset = "password-reset"
)

// Key builds the namespaced challenge key for purpose and subject.
func Key(purpose, subject string) string {
	return purpose + ":" + subject
}

// Challenge is an outstanding OTP. Only the SHA-256 of the code is kept.
type Challenge struct {
	Key         string
	CodeHash    []byte
	CreatedAt   time.Time
	ExpiresAt   time.Time
	Attempts    int
	MaxAttempts int
	Payload     any
}

// Expired reports whether now is strictly after the expiry instant.
func (c *Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Remaining returns the number of verification attempts left.
func (c *Challenge) Remaining() int {
	return max(c.MaxAttempts-c.Attempts, 0)
}

var (
	// ErrNoChallenge indicates no challenge is outstanding for the key.
	ErrNoChallenge = apperrors.Wrap(apperrors.ErrOTP, "no OTP found, request a new one")

	// ErrExpired indicates the challenge is past its expiry.
	ErrExpired = apperrors.Wrap(apperrors.ErrOTP, "OTP expired")

	// ErrAttemptsExhausted indicates the attempt ceiling was reached.
	ErrAttemptsExhausted = apperrors.Wrap(apperrors.ErrOTP, "too many failed attempts, request a new OTP")

	// ErrInvalidCode indicates the code did not match. The concrete error is an
	// *InvalidCodeError carrying the remaining attempts.
	ErrInvalidCode = apperrors.Wrap(apperrors.ErrOTP, "invalid OTP")
)

// InvalidCodeError is returned on a mismatched code.
type InvalidCodeError struct {
	RemainingAttempts int
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("%s: %d attempts remaining", ErrInvalidCode.Error(), e.RemainingAttempts)
}

// Unwrap lets errors.Is match ErrInvalidCode and the OTP class.
func (e *InvalidCodeError) Unwrap() error {
	return ErrInvalidCode
}
