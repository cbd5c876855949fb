// Package domain defines the user account entity.
package domain

import (
	"strings"
	"time"

	"github.com/allisson/cedms/internal/errors"
)

// Role is the authorization role of a user.
type Role string

// Roles form a closed enumeration.
const (
	RoleEmployee Role = "EMPLOYEE"
	RoleManager  Role = "MANAGER"
	RoleAdmin    Role = "ADMIN"
)

// ParseRole maps s to a Role. Empty or unknown values yield RoleEmployee.
func ParseRole(s string) Role {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleManager:
		return RoleManager
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleEmployee
	}
}

// User is a registered account. Users are created only after registration
// OTP verification and are never hard-deleted.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	Role         Role      `json:"role"`
	FullName     string    `json:"fullName"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Normalize returns the case-insensitive lookup form of a username or email.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Domain-specific errors for user operations.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrUsernameTaken indicates another account uses the username.
	ErrUsernameTaken = errors.Wrap(errors.ErrConflict, "username already exists")

	// ErrEmailTaken indicates another account uses the email.
	ErrEmailTaken = errors.Wrap(errors.ErrConflict, "email already registered")
)
