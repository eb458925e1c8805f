package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("TABLE_PREFIX", "")
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("REMOTE_TIMEOUT", "")

	cfg := Load()
	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, "dev_", cfg.TablePrefix)
	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.SupabaseJWKSURL)
	assert.Equal(t, 30*time.Second, cfg.RemoteTimeout)
	assert.True(t, cfg.Debug)
}

func TestLoad_ProdDisablesAuthBypass(t *testing.T) {
	t.Setenv("ENVIRONMENT", "prod")
	t.Setenv("TABLE_PREFIX", "")
	t.Setenv("AUTH_DISABLED", "true")
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")

	cfg := Load()
	assert.Equal(t, "prod_", cfg.TablePrefix)
	assert.False(t, cfg.AuthDisabled)
	assert.False(t, cfg.Debug)
	assert.Equal(t, "https://example.supabase.co/auth/v1/.well-known/jwks.json", cfg.SupabaseJWKSURL)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("LOG_MAX_FILES", "abc")
	t.Setenv("REMOTE_TIMEOUT", "-5s")

	cfg := Load()
	assert.Equal(t, 10, cfg.LogMaxFiles)
	assert.Equal(t, 30*time.Second, cfg.RemoteTimeout)
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"server-2025-01-01T00-00-00.log",
		"server-2025-01-02T00-00-00.log",
		"server-2025-01-03T00-00-00.log",
		"other-2025-01-01T00-00-00.log",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	require.NoError(t, cleanupOldLogs(dir, "server", 2))

	files, err := filepath.Glob(filepath.Join(dir, "*.log"))
	require.NoError(t, err)
	assert.Len(t, files, 3)
	assert.NoFileExists(t, filepath.Join(dir, "server-2025-01-01T00-00-00.log"))
	assert.FileExists(t, filepath.Join(dir, "other-2025-01-01T00-00-00.log"))
}
