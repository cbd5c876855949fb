package authz

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatrix(t *testing.T) {
	m, err := DefaultMatrix()
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"upload", "list_own", "download_own"}, m[RoleEmployee][ResourceDocuments])
	assert.Empty(t, m[RoleEmployee][ResourceAuditLogs])
	assert.Empty(t, m[RoleManager][ResourceAuditLogs])
	assert.ElementsMatch(t, []string{"read", "verify", "clear"}, m[RoleAdmin][ResourceAuditLogs])
	assert.Equal(t, m[RoleManager][ResourceDocuments], m[RoleAdmin][ResourceDocuments])
}

func TestParseMatrix(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "Error_MissingRole",
			yaml:    "EMPLOYEE: {documents: [], audit_logs: []}\nMANAGER: {documents: [], audit_logs: []}\n",
			wantErr: `missing role "ADMIN"`,
		},
		{
			name: "Error_MissingResource",
			yaml: "EMPLOYEE: {documents: []}\nMANAGER: {documents: [], audit_logs: []}\n" +
				"ADMIN: {documents: [], audit_logs: []}\n",
			wantErr: `EMPLOYEE: missing resource "audit_logs"`,
		},
		{
			name: "Error_Wildcard",
			yaml: "EMPLOYEE: {documents: [], audit_logs: []}\nMANAGER: {documents: [], audit_logs: []}\n" +
				"ADMIN: {documents: ['*'], audit_logs: []}\n",
			wantErr: "wildcard",
		},
		{
			name: "Error_UnknownAction",
			yaml: "EMPLOYEE: {documents: [approve_own], audit_logs: []}\nMANAGER: {documents: [], audit_logs: []}\n" +
				"ADMIN: {documents: [], audit_logs: []}\n",
			wantErr: `unknown action "approve_own"`,
		},
		{
			name: "Error_UnknownRole",
			yaml: "EMPLOYEE: {documents: [], audit_logs: []}\nMANAGER: {documents: [], audit_logs: []}\n" +
				"ADMIN: {documents: [], audit_logs: []}\nROOT: {documents: [], audit_logs: []}\n",
			wantErr: `unknown role "ROOT"`,
		},
		{
			name:    "Error_MalformedYAML",
			yaml:    "EMPLOYEE: [",
			wantErr: "invalid permission matrix",
		},
		{
			name: "Success_AllDenied",
			yaml: "EMPLOYEE: {documents: [], audit_logs: []}\nMANAGER: {documents: [], audit_logs: []}\n" +
				"ADMIN: {documents: [], audit_logs: []}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMatrix([]byte(tt.yaml))
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidMatrix)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadMatrix(t *testing.T) {
	t.Run("Success_EmptyPathUsesEmbedded", func(t *testing.T) {
		m, err := LoadMatrix("")
		require.NoError(t, err)
		assert.Len(t, m, 3)
	})

	t.Run("Success_FromFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "matrix.yaml")
		content := "EMPLOYEE: {documents: [upload], audit_logs: []}\nMANAGER: {documents: [], audit_logs: []}\n" +
			"ADMIN: {documents: [], audit_logs: [read]}\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		m, err := LoadMatrix(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"upload"}, m[RoleEmployee][ResourceDocuments])
	})

	t.Run("Error_MissingFile", func(t *testing.T) {
		_, err := LoadMatrix(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}
