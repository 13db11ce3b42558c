package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "json", cfg.Steam.CacheBackend)
	assert.Equal(t, 30, cfg.Backup.RetentionDays)
	assert.True(t, cfg.Backup.BeforeSync)
	assert.Equal(t, 5*time.Second, cfg.Steam.ResolveTimeout)
	assert.Equal(t, "/SaveGuardian", cfg.Cloud.SyncFolder)
	assert.False(t, cfg.Cloud.Enabled)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty userdata path", func(c *Config) { c.Steam.UserdataPath = "" }},
		{"empty backup root", func(c *Config) { c.Backup.Root = "" }},
		{"negative retention", func(c *Config) { c.Backup.RetentionDays = -1 }},
		{"zero resolve timeout", func(c *Config) { c.Steam.ResolveTimeout = 0 }},
		{"unknown cache backend", func(c *Config) { c.Steam.CacheBackend = "redis" }},
		{"unknown log level", func(c *Config) { c.Log.Level = "loud" }},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }},
		{"cloud enabled without url", func(c *Config) {
			c.Cloud.Enabled = true
			c.Cloud.ServerURL = ""
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoaderReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
  "steam": {"userdata_path": "/custom/userdata", "cache_backend": "sqlite"},
  "backup": {"retention_days": 7},
  "log": {"level": "debug"}
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "/custom/userdata", cfg.Steam.UserdataPath)
	assert.Equal(t, "sqlite", cfg.Steam.CacheBackend)
	assert.Equal(t, 7, cfg.Backup.RetentionDays)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Untouched sections keep their defaults.
	assert.Equal(t, "text", cfg.Log.Format)
	assert.True(t, cfg.Backup.BeforeSync)
}

func TestLoaderMissingExplicitFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "nope.json")).Load()
	assert.Error(t, err)
}

func TestLoaderEnvironmentOverride(t *testing.T) {
	t.Setenv("SAVEGUARDIAN_STEAM_CACHE_BACKEND", "sqlite")
	t.Setenv("SAVEGUARDIAN_LOG_LEVEL", "warn")

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Steam.CacheBackend)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Steam.UserdataPath = "/saved/userdata"
	cfg.Backup.RetentionDays = 14

	path := filepath.Join(t.TempDir(), "out", "config.json")
	require.NoError(t, Save(cfg, path))

	loaded, err := NewLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "/saved/userdata", loaded.Steam.UserdataPath)
	assert.Equal(t, 14, loaded.Backup.RetentionDays)
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := DefaultConfig()
	cfg.Backup.Root = filepath.Join(base, "backups")
	cfg.Steam.CachePath = filepath.Join(base, "cache", "names.json")
	cfg.Log.File = filepath.Join(base, "logdir", "app.log")

	require.NoError(t, cfg.EnsureDirectories())
	assert.DirExists(t, cfg.Backup.Root)
	assert.DirExists(t, filepath.Join(base, "cache"))
	assert.DirExists(t, filepath.Join(base, "logdir"))
}
