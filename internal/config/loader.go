package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading from file and environment.
type Loader struct {
	configPath string
	envPrefix  string
}

// NewLoader creates a config loader. An empty configPath falls back to the
// default search locations.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
		envPrefix:  "SAVEGUARDIAN",
	}
}

// Load reads configuration, layering defaults, file, and environment.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetEnvPrefix(l.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if l.configPath != "" {
		v.SetConfigFile(l.configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", l.configPath, err)
		}
	} else {
		for _, path := range l.defaultPaths() {
			if _, err := os.Stat(path); err == nil {
				v.SetConfigFile(path)
				if err := v.ReadInConfig(); err != nil {
					return nil, fmt.Errorf("load config file %s: %w", path, err)
				}
				break
			}
		}
	}

	// Bind env keys that have no file entry so AutomaticEnv sees them.
	for _, key := range []string{
		"steam.userdata_path", "steam.cache_backend", "steam.cache_path",
		"backup.root", "backup.retention_days", "backup.before_sync",
		"cloud.enabled", "cloud.server_url", "cloud.username",
		"cloud.password", "cloud.sync_folder",
		"log.level", "log.format", "log.file",
	} {
		_ = v.BindEnv(key)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// defaultPaths returns default config file locations.
func (l *Loader) defaultPaths() []string {
	paths := []string{
		"saveguardian.json",
		".saveguardian.json",
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(homeDir, ".config", "saveguardian", "config.json"),
			filepath.Join(homeDir, ".saveguardian", "config.json"),
		)
	}

	return paths
}

// Save writes the config to a JSON file, creating parent directories.
func Save(cfg *Config, path string) error {
	if cfg == nil {
		return errors.New("nil config")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.Set("steam", cfg.Steam)
	v.Set("backup", cfg.Backup)
	v.Set("scan", cfg.Scan)
	v.Set("cloud", cfg.Cloud)
	v.Set("log", cfg.Log)

	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}
