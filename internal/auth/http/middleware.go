package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	auditDomain "github.com/allisson/cedms/internal/audit/domain"
	authDomain "github.com/allisson/cedms/internal/auth/domain"
	authUseCase "github.com/allisson/cedms/internal/auth/usecase"
	apperrors "github.com/allisson/cedms/internal/errors"
	"github.com/allisson/cedms/internal/httputil"
)

// AuthenticationMiddleware provides authentication via Bearer token in the Authorization header.
//
// The middleware:
// 1. Extracts the Bearer token from the Authorization header (case-insensitive)
// 2. Verifies the session token using authUseCase.Authenticate()
// 3. Stores the authenticated principal in the request context
//
// Missing, malformed, expired or forged tokens all yield 401 Unauthorized.
//
// Usage:
//
//	router.GET("/api/auth/me", AuthenticationMiddleware(authUseCase, logger), handler.Me)
func AuthenticationMiddleware(authUseCase authUseCase.AuthUseCase, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Debug("authentication failed: missing authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		// Parse Bearer token (case-insensitive)
		const bearerPrefix = "bearer "
		if len(authHeader) < len(bearerPrefix) ||
			!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			logger.Debug("authentication failed: malformed authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		token := strings.TrimSpace(authHeader[len(bearerPrefix):])
		if token == "" {
			logger.Debug("authentication failed: empty bearer token")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		principal, err := authUseCase.Authenticate(c.Request.Context(), token)
		if err != nil {
			logger.Debug("authentication failed", slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		ctx := WithPrincipal(c.Request.Context(), principal)
		c.Request = c.Request.WithContext(ctx)

		logger.Debug("authentication successful",
			slog.String("user_id", principal.UserID),
			slog.String("role", string(principal.Role)))

		c.Next()
	}
}

// OriginMiddleware records the client IP and user agent of the request in its
// context so audit entries written further down carry them.
func OriginMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := auditDomain.WithOrigin(c.Request.Context(), auditDomain.Origin{
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequirePrincipal returns the principal stored by AuthenticationMiddleware or
// writes a 401 response and returns false.
func RequirePrincipal(c *gin.Context, logger *slog.Logger) (*authDomain.Principal, bool) {
	principal, ok := GetPrincipal(c.Request.Context())
	if !ok {
		logger.Error("no authenticated principal in context")
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
		c.Abort()
		return nil, false
	}
	return principal, true
}
