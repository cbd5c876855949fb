// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/cedms/internal/validation"
)

// RegisterRequest starts an OTP-gated registration.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"` //nolint:gosec // request field, never logged
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

// Validate checks if the registration request is valid.
func (r *RegisterRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Username,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Username,
			validation.Length(3, 64),
		),
		validation.Field(&r.Email,
			validation.Required,
			customValidation.Email,
		),
		validation.Field(&r.Password,
			validation.Required,
			customValidation.DefaultPasswordStrength,
		),
		validation.Field(&r.FullName,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
		validation.Field(&r.Role, validation.Length(0, 32)),
	)
}

// VerifyOTPRequest completes a registration or login challenge.
type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// Validate checks if the verification request is valid.
func (r *VerifyOTPRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email,
			validation.Required,
			customValidation.Email,
		),
		validation.Field(&r.OTP,
			validation.Required,
			customValidation.OTPCode,
		),
	)
}

// LoginRequest starts an OTP-gated login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"` //nolint:gosec // request field, never logged
}

// Validate checks if the login request is valid.
func (r *LoginRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Username,
			validation.Required,
			customValidation.NotBlank,
		),
		validation.Field(&r.Password, validation.Required),
	)
}

// ForgotPasswordRequest starts a password reset for a username or email.
type ForgotPasswordRequest struct {
	Identifier string `json:"identifier"`
}

// Validate checks if the password reset request is valid.
func (r *ForgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Identifier,
			validation.Required,
			customValidation.NotBlank,
		),
	)
}

// VerifyResetRequest checks a password reset code without consuming it.
type VerifyResetRequest struct {
	Identifier string `json:"identifier"`
	OTP        string `json:"otp"`
}

// Validate checks if the reset verification request is valid.
func (r *VerifyResetRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Identifier,
			validation.Required,
			customValidation.NotBlank,
		),
		validation.Field(&r.OTP,
			validation.Required,
			customValidation.OTPCode,
		),
	)
}

// ResetPasswordRequest consumes a reset code and sets a new password.
type ResetPasswordRequest struct {
	Identifier  string `json:"identifier"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"` //nolint:gosec // request field, never logged
}

// Validate checks if the reset request is valid.
func (r *ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Identifier,
			validation.Required,
			customValidation.NotBlank,
		),
		validation.Field(&r.OTP,
			validation.Required,
			customValidation.OTPCode,
		),
		validation.Field(&r.NewPassword,
			validation.Required,
			customValidation.DefaultPasswordStrength,
		),
	)
}
