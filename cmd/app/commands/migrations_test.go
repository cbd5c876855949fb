package commands

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunMigrations(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	t.Run("Error_NonSQLDriver", func(t *testing.T) {
		for _, driver := range []string{"memory", "file", "sqlite"} {
			err := RunMigrations(logger, driver, "postgres://localhost")
			require.Error(t, err)
			require.Contains(t, err.Error(), "does not use migrations")
		}
	})

	t.Run("Error_InvalidConnectionString", func(t *testing.T) {
		err := RunMigrations(logger, "postgres", "invalid-connection-string")
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to create migrate instance")
	})
}
