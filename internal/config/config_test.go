package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlBody := `
server:
  port: 9000
  site_url: "https://example.com"
jwt:
  secret: "from-file"
storage:
  media_url: "uploads"
upload:
  max_size: 1048576
`
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o644))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("SERVER_PORT", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "https://example.com", cfg.Server.SiteURL)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, int64(1048576), cfg.Upload.MaxSize)
	assert.Equal(t, "/uploads/", cfg.MediaURL())
	// значения по умолчанию сохраняются
	assert.Equal(t, []string{"jpg", "jpeg", "png", "webp"}, cfg.Upload.AllowedExtensions)
	assert.Equal(t, 5*time.Second, cfg.DecodeTimeout())
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, "/media/", cfg.MediaURL())
	assert.Equal(t, int64(5*1024*1024), cfg.Upload.MaxSize)
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	assert.Error(t, cfg.Validate(), "jwt secret is required")

	cfg.JWT.Secret = "x"
	assert.NoError(t, cfg.Validate())

	cfg.Lock.Backend = "redis"
	assert.Error(t, cfg.Validate())

	cfg.Lock.RedisAddr = "localhost:6379"
	assert.NoError(t, cfg.Validate())

	cfg.Lock.Backend = "etcd"
	assert.Error(t, cfg.Validate())
}
