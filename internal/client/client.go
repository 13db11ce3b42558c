// Package client wires configuration into the scanner, backup, sync, and
// cloud collaborators and exposes the high-level operations the CLI
// surfaces.
package client

import (
	"context"
	"fmt"

	"github.com/Arionyxx/save-guardian/internal/backup"
	"github.com/Arionyxx/save-guardian/internal/cloud"
	"github.com/Arionyxx/save-guardian/internal/config"
	"github.com/Arionyxx/save-guardian/internal/events"
	"github.com/Arionyxx/save-guardian/internal/models"
	"github.com/Arionyxx/save-guardian/internal/scanner"
	"github.com/Arionyxx/save-guardian/internal/steamnames"
	"github.com/Arionyxx/save-guardian/internal/syncer"
	"github.com/Arionyxx/save-guardian/internal/watch"
)

// Client is the top-level handle over all collaborators.
type Client struct {
	config *config.Config
	logger *events.Logger

	names    steamnames.Store
	steam    *scanner.SteamScanner
	nonSteam *scanner.NonSteamScanner
	backups  *backup.Manager
	syncs    *syncer.Manager
}

// New builds a fully wired client from config.
func New(cfg *config.Config, logger *events.Logger) (*Client, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("prepare directories: %w", err)
	}

	resolver := steamnames.NewHTTPResolver(cfg.Steam.ResolveTimeout, logger)

	var names steamnames.Store
	switch cfg.Steam.CacheBackend {
	case "sqlite":
		store, err := steamnames.NewSQLiteCache(cfg.Steam.CachePath, resolver, logger)
		if err != nil {
			return nil, fmt.Errorf("open name cache: %w", err)
		}
		names = store
	default:
		names = steamnames.NewJSONCache(cfg.Steam.CachePath, resolver, logger)
	}
	steamnames.SeedKnownTitles(names)

	backups, err := backup.NewManager(cfg.Backup.Root, cfg.Backup.RetentionDays, logger)
	if err != nil {
		return nil, err
	}

	nonSteam := scanner.NewNonSteamScanner(logger)
	for _, path := range cfg.Scan.CustomLocations {
		nonSteam.AddCustomLocation(models.SaveLocation{
			Path:        path,
			Kind:        models.LocationCustom,
			Description: "custom location",
		})
	}

	var presync *backup.Manager
	if cfg.Backup.BeforeSync {
		presync = backups
	}

	return &Client{
		config:   cfg,
		logger:   logger,
		names:    names,
		steam:    scanner.NewSteamScanner(cfg.Steam.UserdataPath, names, logger),
		nonSteam: nonSteam,
		backups:  backups,
		syncs:    syncer.NewManager(presync, logger),
	}, nil
}

// Close releases the name cache backend.
func (c *Client) Close() error { return c.names.Close() }

// Config returns the active configuration.
func (c *Client) Config() *config.Config { return c.config }

// ScanSteam discovers Steam cloud saves.
func (c *Client) ScanSteam() ([]models.GameSave, error) {
	saves, err := c.steam.Scan()
	c.annotateBackupCounts(saves)
	return saves, err
}

// ScanNonSteam discovers saves in well-known and custom locations.
func (c *Client) ScanNonSteam() ([]models.GameSave, error) {
	saves, err := c.nonSteam.Scan()
	c.annotateBackupCounts(saves)
	return saves, err
}

// annotateBackupCounts fills in how many backups exist for each save.
// Backup listing failures leave the counts at zero.
func (c *Client) annotateBackupCounts(saves []models.GameSave) {
	if len(saves) == 0 {
		return
	}

	backups, err := c.backups.ListBackups("", nil)
	if err != nil {
		c.logger.WithError(err).Debug("Skipping backup count annotation")
		return
	}

	counts := make(map[string]int, len(backups))
	for i := range backups {
		counts[backups[i].ID]++
	}

	for i := range saves {
		saves[i].BackupCount = counts[backup.BackupID(&saves[i])]
	}
}

// ScanAll runs both scanners. A Steam scan failure is reported but does
// not suppress non-Steam results.
func (c *Client) ScanAll() (steam, nonSteam []models.GameSave, err error) {
	steam, err = c.ScanSteam()
	if err != nil {
		c.logger.WithError(err).Warn("Steam scan failed")
	}
	nonSteam, nsErr := c.ScanNonSteam()
	if nsErr != nil {
		return steam, nonSteam, nsErr
	}
	return steam, nonSteam, err
}

// Locations returns the non-Steam scan roots.
func (c *Client) Locations() []models.SaveLocation { return c.nonSteam.Locations() }

// AddScanLocation registers an extra non-Steam scan root for this run.
func (c *Client) AddScanLocation(path string) {
	c.nonSteam.AddCustomLocation(models.SaveLocation{
		Path:        path,
		Kind:        models.LocationCustom,
		Description: "custom location",
	})
}

// CreateBackup archives a save.
func (c *Client) CreateBackup(save *models.GameSave, description string) (*models.BackupInfo, error) {
	return c.backups.CreateBackup(save, description)
}

// RestoreBackup extracts a backup to its original location or target.
func (c *Client) RestoreBackup(info *models.BackupInfo, target string, overwrite bool) error {
	if target == "" {
		target = info.OriginalPath
	}
	return c.backups.RestoreBackup(info, target, overwrite)
}

// ListBackups lists backups with optional name/title-id filters.
func (c *Client) ListBackups(nameFilter string, titleID *uint32) ([]models.BackupInfo, error) {
	return c.backups.ListBackups(nameFilter, titleID)
}

// DeleteBackup removes a backup and its metadata.
func (c *Client) DeleteBackup(info *models.BackupInfo) error {
	return c.backups.DeleteBackup(info)
}

// CleanupOldBackups applies the retention policy.
func (c *Client) CleanupOldBackups() (int, error) { return c.backups.CleanupOldBackups() }

// BackupStats aggregates the backup root.
func (c *Client) BackupStats() (*models.BackupStats, error) { return c.backups.Stats() }

// FindSyncPairs scans both populations and pairs them.
func (c *Client) FindSyncPairs() ([]models.SyncPair, error) {
	steam, nonSteam, err := c.ScanAll()
	if err != nil && len(steam) == 0 && len(nonSteam) == 0 {
		return nil, err
	}
	return c.syncs.FindSyncPairs(steam, nonSteam), nil
}

// SyncSaves copies save data across a pair.
func (c *Client) SyncSaves(pair *models.SyncPair, direction models.SyncDirection) (*models.SyncResult, error) {
	return c.syncs.SyncSaves(pair, direction)
}

// RefreshNames re-resolves distrusted cached game names.
func (c *Client) RefreshNames(ctx context.Context) int {
	return c.names.RefreshIncorrectNames(ctx)
}

// NewWatcher builds a watcher whose callback backs up the changed save.
func (c *Client) NewWatcher() (*watch.Watcher, error) {
	return watch.NewWatcher(func(save *models.GameSave) {
		if _, err := c.backups.CreateBackup(save, "automatic backup"); err != nil {
			c.logger.WithError(err).WithField("game", save.Name).Warn("Automatic backup failed")
		}
	}, c.logger)
}

// CloudUpload pushes local backups to the configured WebDAV share.
func (c *Client) CloudUpload() (int, error) {
	transfer, err := c.cloudTransfer()
	if err != nil {
		return 0, err
	}
	return transfer.Upload(c.config.Backup.Root)
}

// CloudDownload pulls remote backups into the local backup root.
func (c *Client) CloudDownload() (int, error) {
	transfer, err := c.cloudTransfer()
	if err != nil {
		return 0, err
	}
	return transfer.Download(c.config.Backup.Root)
}

func (c *Client) cloudTransfer() (*cloud.Transfer, error) {
	if !c.config.Cloud.Enabled {
		return nil, fmt.Errorf("cloud transfer is not enabled: %w", models.ErrInvalidConfig)
	}
	return cloud.NewTransfer(&c.config.Cloud, c.logger)
}
