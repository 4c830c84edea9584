package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, DriverSQLite, cfg.Store.Driver)
		assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("REGISTRAR_ADDR", ":9090")
		t.Setenv("REGISTRAR_DESKTOP", "true")
		t.Setenv("REGISTRAR_STORE_DRIVER", DriverRedis)
		t.Setenv("REDIS_URL", "redis://localhost:6379/0")
		t.Setenv("REDIS_POOL_SIZE", "20")
		t.Setenv("REGISTRAR_BACKEND_TIMEOUT", "2s")
		t.Setenv("REGISTRAR_DESKTOP_MARKERS", "Electron/, AcmeDesk/,Electron/")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.Addr)
		assert.True(t, cfg.Desktop)
		assert.Equal(t, DriverRedis, cfg.Store.Driver)
		assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
		assert.Equal(t, 20, cfg.Redis.PoolSize)
		assert.Equal(t, 2*time.Second, cfg.Backend.Timeout)
		assert.Equal(t, []string{"Electron/", "AcmeDesk/"}, cfg.DesktopMarkers)
	})

	t.Run("malformed values", func(t *testing.T) {
		t.Setenv("REGISTRAR_DESKTOP", "maybe")
		_, err := FromEnv()
		assert.Error(t, err)
	})

	t.Run("malformed duration", func(t *testing.T) {
		t.Setenv("REDIS_READ_TIMEOUT", "soon")
		_, err := FromEnv()
		assert.Error(t, err)
	})
}

func TestLoadWithYAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registrar.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":7070"
backend:
  url: https://backend.example.com
  timeout: 4s
store:
  driver: memory
`), 0o600))
	t.Chdir(dir)
	t.Setenv("REGISTRAR_CONFIG", path)
	t.Setenv("REGISTRAR_ADDR", ":6060")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":6060", cfg.Addr, "environment wins over file")
	assert.Equal(t, "https://backend.example.com", cfg.Backend.URL)
	assert.Equal(t, 4*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.Backend.URL = "https://backend.example.com"
	require.NoError(t, valid.Validate())

	cases := map[string]func(*Config){
		"missing backend":      func(c *Config) { c.Backend.URL = "" },
		"unknown driver":       func(c *Config) { c.Store.Driver = "etcd" },
		"redis without url":    func(c *Config) { c.Store.Driver = DriverRedis },
		"postgres without url": func(c *Config) { c.Store.Driver = DriverPostgres },
		"sqlite without path":  func(c *Config) { c.Store.SQLitePath = "" },
		"malformed self user":  func(c *Config) { c.SelfUserID = "me" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
