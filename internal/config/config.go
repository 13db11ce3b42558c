package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Steam scanning
	Steam SteamConfig `json:"steam" mapstructure:"steam"`

	// Backup engine
	Backup BackupConfig `json:"backup" mapstructure:"backup"`

	// Non-Steam scanning
	Scan ScanConfig `json:"scan" mapstructure:"scan"`

	// Cloud transfer (WebDAV)
	Cloud CloudConfig `json:"cloud,omitempty" mapstructure:"cloud"`

	// Logging
	Log LogConfig `json:"log" mapstructure:"log"`
}

// SteamConfig for the Steam userdata scanner.
type SteamConfig struct {
	UserdataPath   string        `json:"userdata_path" mapstructure:"userdata_path"`
	CacheBackend   string        `json:"cache_backend" mapstructure:"cache_backend"` // json, sqlite
	CachePath      string        `json:"cache_path" mapstructure:"cache_path"`
	ResolveTimeout time.Duration `json:"resolve_timeout" mapstructure:"resolve_timeout"`
}

// BackupConfig for the backup root and retention policy.
type BackupConfig struct {
	Root          string `json:"root" mapstructure:"root"`
	RetentionDays int    `json:"retention_days" mapstructure:"retention_days"`
	BeforeSync    bool   `json:"before_sync" mapstructure:"before_sync"` // safety snapshot before sync
}

// ScanConfig for non-Steam scan roots.
type ScanConfig struct {
	CustomLocations []string `json:"custom_locations,omitempty" mapstructure:"custom_locations"`
}

// CloudConfig for the WebDAV transfer collaborator.
type CloudConfig struct {
	Enabled    bool   `json:"enabled" mapstructure:"enabled"`
	ServerURL  string `json:"server_url" mapstructure:"server_url"`
	Username   string `json:"username,omitempty" mapstructure:"username"`
	Password   string `json:"password,omitempty" mapstructure:"password"`
	SyncFolder string `json:"sync_folder" mapstructure:"sync_folder"`
}

// LogConfig for logging behavior.
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `json:"format" mapstructure:"format"` // text, json
	File   string `json:"file,omitempty" mapstructure:"file"`
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Steam: SteamConfig{
			UserdataPath:   defaultSteamUserdata(),
			CacheBackend:   "json",
			CachePath:      filepath.Join(dataDir(), "steam_game_cache.json"),
			ResolveTimeout: 5 * time.Second,
		},
		Backup: BackupConfig{
			Root:          filepath.Join(documentsDir(), "SaveGuardianBackups"),
			RetentionDays: 30,
			BeforeSync:    true,
		},
		Cloud: CloudConfig{
			ServerURL:  "https://app.koofr.net/dav/Koofr",
			SyncFolder: "/SaveGuardian",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Steam.UserdataPath == "" {
		return errors.New("steam.userdata_path is required")
	}

	if c.Backup.Root == "" {
		return errors.New("backup.root is required")
	}

	if c.Backup.RetentionDays < 0 {
		return errors.New("backup.retention_days must not be negative")
	}

	if c.Steam.ResolveTimeout <= 0 {
		return errors.New("steam.resolve_timeout must be positive")
	}

	validBackends := map[string]bool{"json": true, "sqlite": true}
	if !validBackends[c.Steam.CacheBackend] {
		return fmt.Errorf("invalid cache backend: %s", c.Steam.CacheBackend)
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}

	if c.Cloud.Enabled && c.Cloud.ServerURL == "" {
		return errors.New("cloud.server_url is required when cloud is enabled")
	}

	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Backup.Root,
		filepath.Dir(c.Steam.CachePath),
	}

	if c.Log.File != "" {
		dirs = append(dirs, filepath.Dir(c.Log.File))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}

func defaultSteamUserdata() string {
	if runtime.GOOS == "windows" {
		return `C:\Program Files (x86)\Steam\userdata`
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "userdata"
	}

	linux := filepath.Join(home, ".local", "share", "Steam", "userdata")
	if _, err := os.Stat(linux); err == nil {
		return linux
	}

	mac := filepath.Join(home, "Library", "Application Support", "Steam", "userdata")
	if _, err := os.Stat(mac); err == nil {
		return mac
	}

	return linux
}

func documentsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Documents")
}

func dataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "SaveGuardian")
	}
	return "."
}
