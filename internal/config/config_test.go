package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "us-central1-a", cfg.Cloud.GCPDefaultZone)
	assert.Equal(t, "https://localhost:8443", cfg.Cloud.LXDDefaultEndpoint)
	assert.Equal(t, "postgresql", cfg.Guacamole.DataSource)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "127.0.0.1:8000", cfg.Addr())
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 9001
  allowed_origins: ["https://admin.example.com"]
guacamole:
  base_url: https://rac.example.com/guacamole
logging:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, "https://rac.example.com/guacamole", cfg.Guacamole.BaseURL)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.AllowedOrigins)
	// untouched keys keep their defaults
	assert.Equal(t, "guacadmin", cfg.Guacamole.Username)
}

func TestLoadConfigBadFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestGetEnvAsIntIgnoresGarbage(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	assert.Equal(t, 8000, getEnvAsInt("SERVER_PORT", 8000))
}
