package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, "memory", c.Storage.Driver)
	assert.Equal(t, 100, c.Registry.MaxSize)
	assert.Equal(t, time.Hour, c.Registry.TTL)
	assert.Equal(t, "dev", c.App.Env)
}

func TestLoadYAMLWithEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  env: prod
server:
  addr: ":9090"
storage:
  driver: postgres
  dsn: postgres://localhost/idbroker
  attributes:
    driver: redis
    redis:
      addr: cache:6379
registry:
  max_size: 10
  ttl: 5m
`), 0o600))

	t.Setenv("SERVER_ADDR", ":7070")
	t.Setenv("REGISTRY_TTL", "30s")
	t.Setenv("REDIS_DB", "3")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", c.Server.Addr)
	assert.Equal(t, "postgres", c.Storage.Driver)
	assert.Equal(t, "cache:6379", c.Storage.Attributes.Redis.Addr)
	assert.Equal(t, 3, c.Storage.Attributes.Redis.DB)
	assert.Equal(t, 10, c.Registry.MaxSize)
	assert.Equal(t, 30*time.Second, c.Registry.TTL)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("REGISTRY_MAX_SIZE=7\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("REGISTRY_MAX_SIZE") })

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, c.Registry.MaxSize)
}

func TestValidateRejectsPostgresWithoutDSN(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STORAGE_DRIVER", "postgres")

	_, err := Load("")
	assert.ErrorContains(t, err, "storage.dsn")
}

func TestValidateRejectsAttributeOnlyMainStore(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STORAGE_DRIVER", "redis")

	_, err := Load("")
	assert.Error(t, err)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
