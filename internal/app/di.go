// Package app provides the dependency injection container that assembles the
// vault, the ledger, the auth flows and the document lifecycle.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/allisson/cedms/internal/config"
	"github.com/allisson/cedms/internal/database"
	documentRepository "github.com/allisson/cedms/internal/document/repository"
	"github.com/allisson/cedms/internal/http"
	"github.com/allisson/cedms/internal/metrics"
	"github.com/allisson/cedms/internal/storage"

	auditHTTP "github.com/allisson/cedms/internal/audit/http"
	auditUseCase "github.com/allisson/cedms/internal/audit/usecase"
	authHTTP "github.com/allisson/cedms/internal/auth/http"
	authService "github.com/allisson/cedms/internal/auth/service"
	authUseCase "github.com/allisson/cedms/internal/auth/usecase"
	"github.com/allisson/cedms/internal/authz"
	cryptoDomain "github.com/allisson/cedms/internal/crypto/domain"
	cryptoService "github.com/allisson/cedms/internal/crypto/service"
	documentHTTP "github.com/allisson/cedms/internal/document/http"
	documentUseCase "github.com/allisson/cedms/internal/document/usecase"
	"github.com/allisson/cedms/internal/notify"
	otpUseCase "github.com/allisson/cedms/internal/otp/usecase"
	userRepository "github.com/allisson/cedms/internal/user/repository"
)

// Container holds all application dependencies. Components are created on
// first access and cached, including the error of a failed initialization.
type Container struct {
	config *config.Config

	// ctx bounds background goroutines started by components (rate limiter
	// cleanup). It is cancelled by Shutdown.
	ctx    context.Context
	cancel context.CancelFunc

	// Infrastructure
	logger    *slog.Logger
	db        *sql.DB
	store     storage.Store
	blobStore *documentRepository.BlobStore

	// Metrics
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics
	securityMetrics metrics.SecurityMetrics
	metricsServer   *http.MetricsServer

	// Crypto
	kmsService  cryptoService.KMSService
	kmsKeeper   cryptoDomain.KMSKeeper
	keyMaterial *cryptoDomain.KeyMaterial
	blobCipher  cryptoService.BlobCipher
	signer      cryptoService.Signer

	// Authorization
	authzEngine *authz.Engine

	// Audit
	ledger          auditUseCase.Ledger
	auditLogUseCase auditUseCase.AuditLogUseCase
	auditLogHandler *auditHTTP.AuditLogHandler

	// Auth
	userRepo        *userRepository.UserRepository
	passwordService authService.PasswordService
	tokenService    authService.TokenService
	otpManager      otpUseCase.Manager
	notifier        notify.Notifier
	authUseCase     authUseCase.AuthUseCase
	authHandler     *authHTTP.AuthHandler

	// Documents
	documentRepo    *documentRepository.DocumentRepository
	documentUseCase documentUseCase.DocumentUseCase
	documentHandler *documentHTTP.DocumentHandler

	httpServer *http.Server

	// Initialization flags
	loggerInit          sync.Once
	dbInit              sync.Once
	storeInit           sync.Once
	blobStoreInit       sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	securityMetricsInit sync.Once
	kmsServiceInit      sync.Once
	kmsKeeperInit       sync.Once
	keyMaterialInit     sync.Once
	blobCipherInit      sync.Once
	signerInit          sync.Once
	authzEngineInit     sync.Once
	ledgerInit          sync.Once
	auditLogUseCaseInit sync.Once
	auditLogHandlerInit sync.Once
	userRepoInit        sync.Once
	passwordInit        sync.Once
	tokenServiceInit    sync.Once
	otpManagerInit      sync.Once
	notifierInit        sync.Once
	authUseCaseInit     sync.Once
	authHandlerInit     sync.Once
	documentRepoInit    sync.Once
	documentUseCaseInit sync.Once
	documentHandlerInit sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once

	mu         sync.Mutex
	initErrors map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	ctx, cancel := context.WithCancel(context.Background())
	return &Container{
		config:     cfg,
		ctx:        ctx,
		cancel:     cancel,
		initErrors: make(map[string]error),
	}
}

// resolve runs init once for the component called name and caches its value
// or its error for every later call.
func resolve[T any](c *Container, once *sync.Once, name string, dst *T, init func() (T, error)) (T, error) {
	once.Do(func() {
		value, err := init()
		if err != nil {
			c.mu.Lock()
			c.initErrors[name] = err
			c.mu.Unlock()
			return
		}
		*dst = value
	})

	c.mu.Lock()
	err, failed := c.initErrors[name]
	c.mu.Unlock()
	if failed {
		var zero T
		return zero, err
	}
	return *dst, nil
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the JSON logger at the configured level.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the SQL connection pool. Only valid for the postgres and mysql
// storage drivers.
func (c *Container) DB() (*sql.DB, error) {
	return resolve(c, &c.dbInit, "db", &c.db, c.initDB)
}

// Store returns the record store selected by STORAGE_DRIVER.
func (c *Container) Store() (storage.Store, error) {
	return resolve(c, &c.storeInit, "store", &c.store, c.initStore)
}

// BlobStore returns the bucket holding encrypted document bytes.
func (c *Container) BlobStore() (*documentRepository.BlobStore, error) {
	return resolve(c, &c.blobStoreInit, "blobStore", &c.blobStore, c.initBlobStore)
}

// MetricsProvider returns the OpenTelemetry provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	return resolve(c, &c.metricsProviderInit, "metricsProvider", &c.metricsProvider, c.initMetricsProvider)
}

// BusinessMetrics returns the use case metrics recorder.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	return resolve(c, &c.businessMetricsInit, "businessMetrics", &c.businessMetrics, c.initBusinessMetrics)
}

// SecurityMetrics returns the audit event recorder.
func (c *Container) SecurityMetrics() (metrics.SecurityMetrics, error) {
	return resolve(c, &c.securityMetricsInit, "securityMetrics", &c.securityMetrics, c.initSecurityMetrics)
}

// HTTPServer returns the API server with its router configured.
func (c *Container) HTTPServer() (*http.Server, error) {
	return resolve(c, &c.httpServerInit, "httpServer", &c.httpServer, c.initHTTPServer)
}

// MetricsServer returns the Prometheus scrape server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	return resolve(c, &c.metricsServerInit, "metricsServer", &c.metricsServer, c.initMetricsServer)
}

// Shutdown releases every initialized resource in reverse dependency order.
func (c *Container) Shutdown(ctx context.Context) error {
	c.cancel()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.kmsKeeper != nil {
		if err := c.kmsKeeper.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("kms keeper close: %w", err))
		}
	}

	if c.keyMaterial != nil {
		c.keyMaterial.Zero()
	}

	if c.blobStore != nil {
		if err := c.blobStore.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("blob store close: %w", err))
		}
	}

	// The SQL store closes the pool it was built on.
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("store close: %w", err))
		}
	} else if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	return errors.Join(shutdownErrors...)
}

func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func (c *Container) initDB() (*sql.DB, error) {
	if !c.config.IsSQLStorage() {
		return nil, fmt.Errorf("storage driver %q has no database", c.config.StorageDriver)
	}

	db, err := database.Connect(c.ctx, database.Config{
		Driver:             c.config.StorageDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func (c *Container) initStore() (storage.Store, error) {
	switch c.config.StorageDriver {
	case config.StorageDriverMemory:
		return storage.NewMemoryStore(), nil
	case config.StorageDriverFile:
		store, err := storage.NewFileStore(c.config.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open file store: %w", err)
		}
		return store, nil
	case config.StorageDriverPostgres, config.StorageDriverMySQL:
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for store: %w", err)
		}
		if c.config.StorageDriver == config.StorageDriverMySQL {
			return storage.NewMySQLStore(db), nil
		}
		return storage.NewPostgreSQLStore(db), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", c.config.StorageDriver)
	}
}

func (c *Container) initBlobStore() (*documentRepository.BlobStore, error) {
	blobs, err := documentRepository.OpenBlobStore(c.ctx, c.config.BlobURL)
	if err != nil {
		return nil, err
	}
	return blobs, nil
}

func (c *Container) initMetricsProvider() (*metrics.Provider, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}
	provider, err := metrics.NewProvider(c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics provider: %w", err)
	}
	return provider, nil
}

func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return metrics.NewNoOpBusinessMetrics(), nil
	}
	return metrics.NewBusinessMetrics(provider.MeterProvider(), provider.Namespace())
}

func (c *Container) initSecurityMetrics() (metrics.SecurityMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return metrics.NewNoOpSecurityMetrics(), nil
	}
	return metrics.NewSecurityMetrics(provider.MeterProvider(), provider.Namespace())
}

func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, nil
	}
	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
}

func (c *Container) initHTTPServer() (*http.Server, error) {
	authHandler, err := c.AuthHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth handler for http server: %w", err)
	}
	documentHandler, err := c.DocumentHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get document handler for http server: %w", err)
	}
	auditLogHandler, err := c.AuditLogHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log handler for http server: %w", err)
	}
	authUC, err := c.AuthUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth use case for http server: %w", err)
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}
	var metricsMiddleware gin.HandlerFunc
	if provider != nil {
		metricsMiddleware, err = metrics.NewHTTPMiddleware(provider.MeterProvider(), provider.Namespace())
		if err != nil {
			return nil, fmt.Errorf("failed to create http metrics middleware: %w", err)
		}
	}

	checks, err := c.readinessChecks()
	if err != nil {
		return nil, err
	}

	server := http.NewServer(checks, c.config.ServerHost, c.config.ServerPort, c.Logger())
	server.SetupRouter(c.ctx, c.config, http.Handlers{
		Auth:     authHandler,
		Document: documentHandler,
		AuditLog: auditLogHandler,
	}, authUC, metricsMiddleware)

	return server, nil
}

// readinessChecks probes the record store and the blob bucket.
func (c *Container) readinessChecks() ([]http.ReadinessCheck, error) {
	store, err := c.Store()
	if err != nil {
		return nil, err
	}
	blobs, err := c.BlobStore()
	if err != nil {
		return nil, err
	}

	return []http.ReadinessCheck{
		{
			Name: "storage",
			Check: func(ctx context.Context) error {
				_, err := store.Last(ctx, readinessCollection)
				if errors.Is(err, storage.ErrRecordNotFound) {
					return nil
				}
				return err
			},
		},
		{
			Name: "blobs",
			Check: func(ctx context.Context) error {
				_, err := blobs.Exists(ctx, readinessBlobKey)
				return err
			},
		},
	}, nil
}

const (
	readinessCollection = "readiness"
	readinessBlobKey    = ".readiness"
)
