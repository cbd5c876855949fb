package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	authDomain "github.com/allisson/cedms/internal/auth/domain"
	"github.com/allisson/cedms/internal/auth/http/dto"
	authUseCase "github.com/allisson/cedms/internal/auth/usecase"
	"github.com/allisson/cedms/internal/httputil"
	customValidation "github.com/allisson/cedms/internal/validation"
)

// AuthHandler handles the /api/auth endpoints.
type AuthHandler struct {
	authUseCase authUseCase.AuthUseCase
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler with required dependencies.
func NewAuthHandler(authUseCase authUseCase.AuthUseCase, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUseCase,
		logger:      logger,
	}
}

// validatable is implemented by every request DTO.
type validatable interface {
	Validate() error
}

// bind decodes and validates a JSON body, writing the error response on failure.
func (h *AuthHandler) bind(c *gin.Context, req validatable) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return false
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return false
	}
	return true
}

// RequestRegistrationHandler sends a registration passcode.
// POST /api/auth/register/request-otp
func (h *AuthHandler) RequestRegistrationHandler(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.bind(c, &req) {
		return
	}

	challenge, err := h.authUseCase.RequestRegistration(c.Request.Context(), authDomain.RegistrationInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     req.Role,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapChallengeToResponse(
		"OTP sent to your email. Please verify to complete registration.", challenge))
}

// VerifyRegistrationHandler creates the account and returns a session.
// POST /api/auth/register/verify-otp
func (h *AuthHandler) VerifyRegistrationHandler(c *gin.Context) {
	var req dto.VerifyOTPRequest
	if !h.bind(c, &req) {
		return
	}

	session, err := h.authUseCase.VerifyRegistration(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapSessionToResponse("Registration successful", session))
}

// RequestLoginHandler checks the password and sends a login passcode.
// POST /api/auth/login/request-otp
func (h *AuthHandler) RequestLoginHandler(c *gin.Context) {
	var req dto.LoginRequest
	if !h.bind(c, &req) {
		return
	}

	challenge, err := h.authUseCase.RequestLogin(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapChallengeToResponse("OTP sent to your registered email", challenge))
}

// VerifyLoginHandler returns a session for a valid login passcode.
// POST /api/auth/login/verify-otp
func (h *AuthHandler) VerifyLoginHandler(c *gin.Context) {
	var req dto.VerifyOTPRequest
	if !h.bind(c, &req) {
		return
	}

	session, err := h.authUseCase.VerifyLogin(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSessionToResponse("Login successful", session))
}

// RequestPasswordResetHandler sends a password reset passcode.
// POST /api/auth/forgot-password/request
func (h *AuthHandler) RequestPasswordResetHandler(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if !h.bind(c, &req) {
		return
	}

	challenge, err := h.authUseCase.RequestPasswordReset(c.Request.Context(), req.Identifier)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapChallengeToResponse("Password reset OTP sent to your email.", challenge))
}

// VerifyPasswordResetHandler checks a reset passcode and keeps it valid for the reset step.
// POST /api/auth/forgot-password/verify
func (h *AuthHandler) VerifyPasswordResetHandler(c *gin.Context) {
	var req dto.VerifyResetRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.authUseCase.VerifyResetOTP(c.Request.Context(), req.Identifier, req.OTP); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "OTP verified successfully."})
}

// ResetPasswordHandler consumes the reset passcode and replaces the password.
// POST /api/auth/forgot-password/reset
func (h *AuthHandler) ResetPasswordHandler(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if !h.bind(c, &req) {
		return
	}

	err := h.authUseCase.ResetPassword(c.Request.Context(), req.Identifier, req.OTP, req.NewPassword)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{
		Message: "Password has been reset successfully. You can now login.",
	})
}

// MeHandler returns the authenticated user.
// GET /api/auth/me - Requires authentication.
func (h *AuthHandler) MeHandler(c *gin.Context) {
	principal, ok := RequirePrincipal(c, h.logger)
	if !ok {
		return
	}

	user, err := h.authUseCase.CurrentUser(c.Request.Context(), principal)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.CurrentUserResponse{User: dto.MapUserToResponse(user)})
}

// RegisterRoutes mounts the auth endpoints on group. otpLimiter guards the
// unauthenticated passcode endpoints; authMiddleware guards /me.
func (h *AuthHandler) RegisterRoutes(group *gin.RouterGroup, otpLimiter, authMiddleware gin.HandlerFunc) {
	otp := group.Group("", otpLimiter)
	{
		otp.POST("/register/request-otp", h.RequestRegistrationHandler)
		otp.POST("/register/verify-otp", h.VerifyRegistrationHandler)
		otp.POST("/login/request-otp", h.RequestLoginHandler)
		otp.POST("/login/verify-otp", h.VerifyLoginHandler)
		otp.POST("/forgot-password/request", h.RequestPasswordResetHandler)
		otp.POST("/forgot-password/verify", h.VerifyPasswordResetHandler)
		otp.POST("/forgot-password/reset", h.ResetPasswordHandler)
	}
	group.GET("/me", authMiddleware, h.MeHandler)
}
