package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("JWT_SECRET_KEY", "")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "pocketledger", cfg.Database.Name)
	assert.True(t, cfg.Database.MigrateOnStart)
	assert.False(t, cfg.Database.ResetOnStart)
	assert.Equal(t, 60*time.Minute, cfg.JWT.Expiry)
	assert.NotEmpty(t, cfg.JWT.SecretKey)
	assert.Equal(t, int64(10*1024*1024), cfg.Upload.MaxBytes())
	assert.Equal(t, []string{"application/pdf"}, cfg.Upload.AllowedContentTypes)
	assert.Contains(t, cfg.Upload.BlockedExtensions, ".svg")
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
}

func TestLoadFrom_EnvFileAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DATABASE_NAME=ledger_test\nUPLOAD_MAX_SIZE_MB=2\n"), 0o600))

	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET_KEY", "s3cret")
	t.Setenv("UPLOAD_BLOCKED_EXTENSIONS", " .EXE , .svg ")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "ledger_test", cfg.Database.Name)
	assert.Equal(t, int64(2), cfg.Upload.MaxSizeMB)
	assert.Equal(t, []string{".exe", ".svg"}, cfg.Upload.BlockedExtensions)
	assert.Equal(t, "s3cret", cfg.JWT.SecretKey)
}

func TestLoadFrom_SecretRequiredInProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET_KEY", "")

	_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoadFrom_ResetOnStart(t *testing.T) {
	t.Run("enabled in development", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "development")
		t.Setenv("RESET_DB_ON_START", "true")

		cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.env"))
		require.NoError(t, err)
		assert.True(t, cfg.Database.ResetOnStart)
	})

	t.Run("refused in production", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "production")
		t.Setenv("JWT_SECRET_KEY", "s3cret")
		t.Setenv("RESET_DB_ON_START", "true")

		_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.env"))
		assert.Error(t, err)
	})
}
