package dto

import (
	"time"

	authDomain "github.com/allisson/cedms/internal/auth/domain"
	userDomain "github.com/allisson/cedms/internal/user/domain"
)

// UserResponse represents a user in API responses. The password verifier is never exposed.
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
	FullName string `json:"fullName,omitempty"`
}

// MapUserToResponse converts a domain user to an API response.
func MapUserToResponse(user *userDomain.User) UserResponse {
	return UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     string(user.Role),
		FullName: user.FullName,
	}
}

// ChallengeResponse acknowledges that a passcode was sent.
type ChallengeResponse struct {
	Message   string `json:"message"`
	Email     string `json:"email"`
	ExpiresIn int    `json:"expiresIn"`
}

// MapChallengeToResponse converts an issued challenge to an API response.
func MapChallengeToResponse(message string, challenge *authDomain.Challenge) ChallengeResponse {
	return ChallengeResponse{
		Message:   message,
		Email:     challenge.Email,
		ExpiresIn: int(challenge.ExpiresIn.Seconds()),
	}
}

// SessionResponse contains the result of a completed registration or login.
// SECURITY: The token is a bearer credential.
type SessionResponse struct {
	Message   string       `json:"message"`
	Token     string       `json:"token"` //nolint:gosec // returned to the token owner
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// MapSessionToResponse converts a session to an API response.
func MapSessionToResponse(message string, session *authDomain.Session) SessionResponse {
	return SessionResponse{
		Message:   message,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      MapUserToResponse(session.User),
	}
}

// MessageResponse carries a human readable acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// CurrentUserResponse wraps the authenticated user.
type CurrentUserResponse struct {
	User UserResponse `json:"user"`
}
