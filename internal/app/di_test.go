package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/cedms/internal/audit/domain"
	authDomain "github.com/allisson/cedms/internal/auth/domain"
	"github.com/allisson/cedms/internal/config"
	cryptoDomain "github.com/allisson/cedms/internal/crypto/domain"
	documentDomain "github.com/allisson/cedms/internal/document/domain"
	"github.com/allisson/cedms/internal/storage"
	userDomain "github.com/allisson/cedms/internal/user/domain"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		ServerHost:          "127.0.0.1",
		ServerPort:          0,
		LogLevel:            "error",
		StorageDriver:       config.StorageDriverMemory,
		DataDir:             t.TempDir(),
		BlobURL:             "mem://",
		MaxUploadSizeBytes:  1 << 20,
		KeysDir:             filepath.Join(t.TempDir(), "keys"),
		MasterKeyProtection: config.KeyProtectionPlain,
		JWTIssuer:           "cedms-test",
		JWTExpiration:       time.Hour,
		OTPExpiration:       time.Minute,
		OTPMaxAttempts:      3,
		SMTPFrom:            "no-reply@cedms.test",
		MetricsEnabled:      false,
		MetricsNamespace:    "cedms_test",
	}
}

func TestNewContainer(t *testing.T) {
	cfg := newTestConfig(t)
	container := NewContainer(cfg)

	require.NotNil(t, container)
	assert.Same(t, cfg, container.Config())
	require.NoError(t, container.Shutdown(context.Background()))
}

func TestContainer_Logger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
		t.Run(level, func(t *testing.T) {
			cfg := newTestConfig(t)
			cfg.LogLevel = level
			container := NewContainer(cfg)

			logger := container.Logger()
			require.NotNil(t, logger)
			assert.Same(t, logger, container.Logger())
		})
	}

	t.Run("Success_LevelApplied", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.LogLevel = "warn"
		logger := NewContainer(cfg).Logger()

		assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
		assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
	})
}

func TestContainer_Store(t *testing.T) {
	t.Run("Success_Memory", func(t *testing.T) {
		container := NewContainer(newTestConfig(t))
		defer func() { _ = container.Shutdown(context.Background()) }()

		store, err := container.Store()
		require.NoError(t, err)
		assert.IsType(t, &storage.MemoryStore{}, store)

		again, err := container.Store()
		require.NoError(t, err)
		assert.Same(t, store, again)
	})

	t.Run("Success_File", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.StorageDriver = config.StorageDriverFile
		container := NewContainer(cfg)
		defer func() { _ = container.Shutdown(context.Background()) }()

		store, err := container.Store()
		require.NoError(t, err)
		assert.IsType(t, &storage.FileStore{}, store)
	})

	t.Run("Error_UnsupportedDriverIsCached", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.StorageDriver = "sqlite"
		container := NewContainer(cfg)

		_, err := container.Store()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported storage driver")

		_, again := container.Store()
		assert.Equal(t, err, again)
	})

	t.Run("Error_DBWithoutSQLDriver", func(t *testing.T) {
		container := NewContainer(newTestConfig(t))

		_, err := container.DB()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "has no database")
	})
}

func TestContainer_KeyMaterial(t *testing.T) {
	t.Run("Success_GeneratedOnce", func(t *testing.T) {
		cfg := newTestConfig(t)
		container := NewContainer(cfg)

		material, err := container.KeyMaterial()
		require.NoError(t, err)
		assert.Len(t, material.MasterKey, cryptoDomain.MasterKeySize)
		require.NotNil(t, material.PrivateKey)

		for _, name := range []string{cryptoDomain.MasterKeyFile, cryptoDomain.PrivateKeyFile, cryptoDomain.PublicKeyFile} {
			_, err := os.Stat(filepath.Join(cfg.KeysDir, name))
			assert.NoError(t, err, name)
		}

		reloaded, err := NewContainer(cfg).KeyMaterial()
		require.NoError(t, err)
		assert.Equal(t, material.MasterKey, reloaded.MasterKey)
		assert.True(t, material.PrivateKey.Equal(reloaded.PrivateKey))
	})

	t.Run("Error_KMSWithoutURI", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.MasterKeyProtection = config.KeyProtectionKMS
		container := NewContainer(cfg)

		_, err := container.KeyMaterial()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MASTER_KEY_KMS_URI")
	})

	t.Run("Success_KMSLocalKeeper", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.MasterKeyProtection = config.KeyProtectionKMS
		cfg.MasterKeyKMSURI = "base64key://smGbjm71Nxd1Ig5FS0wj9SlbzAIrnolCz9bQQ6uAhl4="
		container := NewContainer(cfg)
		defer func() { _ = container.Shutdown(context.Background()) }()

		material, err := container.KeyMaterial()
		require.NoError(t, err)
		assert.Len(t, material.MasterKey, cryptoDomain.MasterKeySize)

		stored, err := os.ReadFile(filepath.Join(cfg.KeysDir, cryptoDomain.MasterKeyFile))
		require.NoError(t, err)
		assert.NotContains(t, string(stored), string(material.MasterKey))
	})
}

func TestContainer_TokenService(t *testing.T) {
	user := &userDomain.User{ID: "u-1", Username: "alice", Role: userDomain.RoleManager}

	t.Run("Success_DerivedKeyStableAcrossContainers", func(t *testing.T) {
		cfg := newTestConfig(t)

		first, err := NewContainer(cfg).TokenService()
		require.NoError(t, err)
		token, _, err := first.Issue(user)
		require.NoError(t, err)

		second, err := NewContainer(cfg).TokenService()
		require.NoError(t, err)
		principal, err := second.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, "alice", principal.Username)
	})

	t.Run("Error_ShortSecret", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.JWTSecret = "short"

		_, err := NewContainer(cfg).TokenService()
		require.Error(t, err)
	})
}

func TestContainer_DocumentLifecycleWiring(t *testing.T) {
	ctx := context.Background()
	container := NewContainer(newTestConfig(t))
	defer func() { _ = container.Shutdown(ctx) }()

	useCase, err := container.DocumentUseCase()
	require.NoError(t, err)

	employee := &authDomain.Principal{UserID: "emp-1", Username: "alice", Role: userDomain.RoleEmployee}
	manager := &authDomain.Principal{UserID: "mgr-1", Username: "carol", Role: userDomain.RoleManager}

	doc, err := useCase.Upload(ctx, employee, documentDomain.UploadInput{
		Filename:    "report.txt",
		ContentType: "text/plain",
		Content:     []byte("quarterly numbers"),
	})
	require.NoError(t, err)

	_, err = useCase.SetStatus(ctx, manager, doc.ID, documentDomain.StatusApproved)
	require.NoError(t, err)

	download, err := useCase.Download(ctx, employee, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("quarterly numbers"), download.Content)

	ledger, err := container.Ledger()
	require.NoError(t, err)
	report, err := ledger.VerifyIntegrity(ctx)
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Equal(t, 3, report.Total)

	entries, _, err := ledger.Query(ctx, auditDomain.Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, auditDomain.ActionDocumentDownload, entries[0].Action)
}

func TestContainer_HTTPServer(t *testing.T) {
	t.Run("Success_MetricsDisabled", func(t *testing.T) {
		container := NewContainer(newTestConfig(t))
		defer func() { _ = container.Shutdown(context.Background()) }()

		server, err := container.HTTPServer()
		require.NoError(t, err)
		require.NotNil(t, server)

		metricsServer, err := container.MetricsServer()
		require.NoError(t, err)
		assert.Nil(t, metricsServer)
	})

	t.Run("Success_MetricsEnabled", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.MetricsEnabled = true
		container := NewContainer(cfg)
		defer func() { _ = container.Shutdown(context.Background()) }()

		_, err := container.HTTPServer()
		require.NoError(t, err)

		metricsServer, err := container.MetricsServer()
		require.NoError(t, err)
		assert.NotNil(t, metricsServer)
	})

	t.Run("Error_MissingMatrixFile", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.PermissionMatrixFile = filepath.Join(t.TempDir(), "missing.yaml")
		container := NewContainer(cfg)
		defer func() { _ = container.Shutdown(context.Background()) }()

		_, err := container.HTTPServer()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "permission matrix")
	})
}

func TestContainer_ReadinessChecks(t *testing.T) {
	container := NewContainer(newTestConfig(t))
	defer func() { _ = container.Shutdown(context.Background()) }()

	checks, err := container.readinessChecks()
	require.NoError(t, err)
	require.Len(t, checks, 2)

	for _, check := range checks {
		assert.NoError(t, check.Check(context.Background()), check.Name)
	}
}
