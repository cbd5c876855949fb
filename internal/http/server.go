// Package http provides the gin HTTP server, its middleware stack and the
// health and readiness endpoints.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	auditHTTP "github.com/allisson/cedms/internal/audit/http"
	authHTTP "github.com/allisson/cedms/internal/auth/http"
	authUseCase "github.com/allisson/cedms/internal/auth/usecase"
	"github.com/allisson/cedms/internal/config"
	documentHTTP "github.com/allisson/cedms/internal/document/http"
)

// ReadinessCheck probes one dependency for /ready.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Server is the API server.
type Server struct {
	router   *gin.Engine
	server   *http.Server
	checks   []ReadinessCheck
	draining atomic.Bool
	logger   *slog.Logger
}

// NewServer creates a server listening on host:port. SetupRouter must be
// called before Start.
func NewServer(checks []ReadinessCheck, host string, port int, logger *slog.Logger) *Server {
	return &Server{
		checks: checks,
		logger: logger,
		server: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       60 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}
}

// Handlers groups the API handlers mounted by SetupRouter.
type Handlers struct {
	Auth     *authHTTP.AuthHandler
	Document *documentHTTP.DocumentHandler
	AuditLog *auditHTTP.AuditLogHandler
}

// SetupRouter builds the gin engine. metricsMiddleware may be nil. ctx bounds
// the background cleanup of the rate limiters.
func (s *Server) SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	handlers Handlers,
	authUC authUseCase.AuthUseCase,
	metricsMiddleware gin.HandlerFunc,
) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))
	router.Use(SecurityHeadersMiddleware())
	if metricsMiddleware != nil {
		router.Use(metricsMiddleware)
	}
	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "route not found"})
	})

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	api := router.Group("/api")
	api.Use(authHTTP.OriginMiddleware())
	if cfg.RateLimitEnabled {
		api.Use(authHTTP.RateLimitMiddleware(ctx, rate.Limit(cfg.RateLimitRequestsPerSec), cfg.RateLimitBurst, s.logger))
	}

	authMiddleware := authHTTP.AuthenticationMiddleware(authUC, s.logger)
	otpLimiter := authHTTP.RateLimitMiddleware(
		ctx,
		authHTTP.PerMinute(cfg.OTPRateLimitRequestsPerMin),
		cfg.OTPRateLimitBurst,
		s.logger,
	)

	handlers.Auth.RegisterRoutes(api.Group("/auth"), otpLimiter, authMiddleware)

	documents := api.Group("/documents")
	documents.Use(authMiddleware)
	handlers.Document.RegisterRoutes(documents)

	auditLogs := api.Group("/audit-logs")
	auditLogs.Use(authMiddleware)
	handlers.AuditLog.RegisterRoutes(auditLogs)

	s.router = router
}

// Handler returns the configured router, or nil before SetupRouter.
func (s *Server) Handler() http.Handler {
	if s.router == nil {
		return nil
	}
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return errors.New("router not configured")
	}
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown marks the server not ready and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	s.draining.Store(true)
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler runs every check with a short deadline. Any failure, or a
// server that is draining, reports 503.
func (s *Server) readinessHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	ready := !s.draining.Load()
	components := make(map[string]string, len(s.checks))
	for _, check := range s.checks {
		if err := check.Check(ctx); err != nil {
			s.logger.Warn("readiness check failed", slog.String("component", check.Name), slog.Any("error", err))
			components[check.Name] = "error"
			ready = false
			continue
		}
		components[check.Name] = "ok"
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "components": components})
}
