package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/cedms/internal/audit/domain"
	authDomain "github.com/allisson/cedms/internal/auth/domain"
	authMocks "github.com/allisson/cedms/internal/auth/usecase/mocks"
	"github.com/allisson/cedms/internal/httputil"
	userDomain "github.com/allisson/cedms/internal/user/domain"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAuthRouter(authUseCase *authMocks.MockAuthUseCase) *gin.Engine {
	router := gin.New()
	router.GET("/protected", AuthenticationMiddleware(authUseCase, discardLogger()), func(c *gin.Context) {
		principal, ok := GetPrincipal(c.Request.Context())
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": principal.UserID, "role": principal.Role})
	})
	return router
}

func TestAuthenticationMiddleware(t *testing.T) {
	principal := &authDomain.Principal{UserID: "u-1", Username: "alice", Role: userDomain.RoleManager}

	t.Run("Success_ValidToken", func(t *testing.T) {
		authUseCase := &authMocks.MockAuthUseCase{}
		authUseCase.On("Authenticate", mock.Anything, "good-token").Return(principal, nil).Once()

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		newAuthRouter(authUseCase).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user_id":"u-1","role":"MANAGER"}`, w.Body.String())
		authUseCase.AssertExpectations(t)
	})

	t.Run("Success_CaseInsensitiveScheme", func(t *testing.T) {
		authUseCase := &authMocks.MockAuthUseCase{}
		authUseCase.On("Authenticate", mock.Anything, "good-token").Return(principal, nil).Once()

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "bEaReR good-token")
		newAuthRouter(authUseCase).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	rejected := []struct {
		name   string
		header string
	}{
		{"Error_MissingHeader", ""},
		{"Error_WrongScheme", "Basic dXNlcjpwYXNz"},
		{"Error_EmptyToken", "Bearer   "},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			authUseCase := &authMocks.MockAuthUseCase{}

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			newAuthRouter(authUseCase).ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			authUseCase.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything)
		})
	}

	t.Run("Error_InvalidToken", func(t *testing.T) {
		authUseCase := &authMocks.MockAuthUseCase{}
		authUseCase.On("Authenticate", mock.Anything, "forged").Return(nil, authDomain.ErrInvalidToken).Once()

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer forged")
		newAuthRouter(authUseCase).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		var body httputil.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "unauthorized", body.Error)
	})
}

func TestOriginMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(OriginMiddleware())
	router.GET("/origin", func(c *gin.Context) {
		origin := auditDomain.OriginFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"ip": origin.IP, "ua": origin.UserAgent})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/origin", nil)
	req.RemoteAddr = "203.0.113.7:4242"
	req.Header.Set("User-Agent", "cedms-test/1.0")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ip":"203.0.113.7","ua":"cedms-test/1.0"}`, w.Body.String())
}

func TestRequirePrincipal(t *testing.T) {
	t.Run("Error_NoPrincipal", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		_, ok := RequirePrincipal(c, discardLogger())
		assert.False(t, ok)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.True(t, c.IsAborted())
	})

	t.Run("Success_PrincipalPresent", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		principal := &authDomain.Principal{UserID: "u-1"}
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), principal))

		got, ok := RequirePrincipal(c, discardLogger())
		assert.True(t, ok)
		assert.Same(t, principal, got)
	})
}
