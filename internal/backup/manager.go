// Package backup snapshots save directories into deflate-compressed zip
// archives with JSON sidecar metadata, and manages listing, restore,
// deletion, and age-based retention.
package backup

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Arionyxx/save-guardian/internal/events"
	"github.com/Arionyxx/save-guardian/internal/models"
)

// archiveTimestampLayout is the second-precision UTC stamp embedded in
// archive filenames.
const archiveTimestampLayout = "20060102_150405"

// sidecarSuffix names the metadata file next to each archive.
const sidecarSuffix = ".backup.json"

// entryMode is applied to every archive entry regardless of source
// platform.
const entryMode fs.FileMode = 0o755

// Manager owns a backup root directory.
type Manager struct {
	root          string
	retentionDays int
	logger        *events.Logger

	// now is swappable for retention tests.
	now func() time.Time
}

// NewManager creates the backup root if needed.
func NewManager(root string, retentionDays int, logger *events.Logger) (*Manager, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, &models.BackupError{
			Code: models.ErrCodeBackup,
			Path: root,
			Err:  fmt.Errorf("create backup directory: %w", err),
		}
	}

	return &Manager{
		root:          root,
		retentionDays: retentionDays,
		logger:        logger.WithField("component", "backup_manager"),
		now:           time.Now,
	}, nil
}

// Root returns the backup root directory.
func (m *Manager) Root() string { return m.root }

// SetClock overrides the time source. Test hook.
func (m *Manager) SetClock(now func() time.Time) { m.now = now }

// CreateBackup archives a save and writes its sidecar. The id is derived
// deterministically from name, title id, and origin; repeated backups of
// the same save share an id and are told apart only by the timestamp in
// the archive filename.
func (m *Manager) CreateBackup(save *models.GameSave, description string) (*models.BackupInfo, error) {
	id := BackupID(save)
	timestamp := m.now().UTC().Format(archiveTimestampLayout)
	archivePath := filepath.Join(m.root, fmt.Sprintf("%s_%s.zip", id, timestamp))

	m.logger.WithFields(map[string]interface{}{
		"game": save.Name,
		"path": archivePath,
	}).Info("Creating backup")

	size, err := m.writeArchive(save.Path, archivePath)
	if err != nil {
		_ = os.Remove(archivePath)
		return nil, err
	}

	info := &models.BackupInfo{
		ID:           id,
		GameName:     save.Name,
		TitleID:      save.TitleID,
		SaveType:     save.SaveType,
		OriginalPath: save.Path,
		ArchivePath:  archivePath,
		CreatedAt:    m.now().UTC(),
		Size:         size,
		Description:  description,
	}

	if err := m.writeSidecar(info); err != nil {
		_ = os.Remove(archivePath)
		return nil, err
	}

	m.logger.WithField("id", info.ID).Info("Backup created")
	return info, nil
}

// BackupID derives the deterministic backup id: cleaned name, optional
// title id, origin.
func BackupID(save *models.GameSave) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, save.Name)

	idPart := ""
	if save.TitleID != nil {
		idPart = fmt.Sprintf("_%d", *save.TitleID)
	}

	return fmt.Sprintf("%s%s_%s", clean, idPart, save.SaveType)
}

func (m *Manager) writeArchive(sourcePath, archivePath string) (int64, error) {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return 0, &models.BackupError{Code: models.ErrCodeBackup, Path: sourcePath, Err: models.ErrPathNotFound}
	}

	out, err := os.Create(archivePath)
	if err != nil {
		return 0, &models.BackupError{Code: models.ErrCodeBackup, Path: archivePath, Err: err}
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	switch {
	case info.Mode().IsRegular():
		if err := m.addFile(zw, sourcePath, filepath.Base(sourcePath)); err != nil {
			zw.Close()
			return 0, err
		}
	case info.IsDir():
		if err := m.addTree(zw, sourcePath); err != nil {
			zw.Close()
			return 0, err
		}
	default:
		zw.Close()
		return 0, &models.BackupError{
			Code: models.ErrCodeBackup,
			Path: sourcePath,
			Err:  fmt.Errorf("source is neither file nor directory"),
		}
	}

	if err := zw.Close(); err != nil {
		return 0, &models.BackupError{Code: models.ErrCodeArchive, Path: archivePath, Err: err}
	}

	stat, err := out.Stat()
	if err != nil {
		return 0, &models.BackupError{Code: models.ErrCodeBackup, Path: archivePath, Err: err}
	}

	return stat.Size(), nil
}

// addTree walks a directory and writes every file and an explicit entry
// for every directory, preserving the relative structure with
// forward-slash names.
func (m *Manager) addTree(zw *zip.Writer, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return &models.BackupError{Code: models.ErrCodeBackup, Path: path, Err: err}
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return &models.BackupError{Code: models.ErrCodeBackup, Path: path, Err: err}
		}
		if rel == "." {
			return nil
		}

		name := filepath.ToSlash(rel)

		if d.IsDir() {
			header := &zip.FileHeader{Name: name + "/"}
			header.SetMode(entryMode | fs.ModeDir)
			if _, err := zw.CreateHeader(header); err != nil {
				return &models.BackupError{Code: models.ErrCodeArchive, Path: path, Err: err}
			}
			m.logger.WithField("entry", name+"/").Debug("Added directory to archive")
			return nil
		}

		if err := m.addFile(zw, path, name); err != nil {
			return err
		}
		m.logger.WithField("entry", name).Debug("Added file to archive")
		return nil
	})
}

func (m *Manager) addFile(zw *zip.Writer, path, name string) error {
	header := &zip.FileHeader{
		Name:   name,
		Method: zip.Deflate,
	}
	header.SetMode(entryMode)

	w, err := zw.CreateHeader(header)
	if err != nil {
		return &models.BackupError{Code: models.ErrCodeArchive, Path: path, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return &models.BackupError{Code: models.ErrCodeBackup, Path: path, Err: err}
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return &models.BackupError{Code: models.ErrCodeBackup, Path: path, Err: err}
	}

	return nil
}

// RestoreBackup extracts an archive to target. Fails without touching the
// target when it exists and overwrite is false.
func (m *Manager) RestoreBackup(info *models.BackupInfo, target string, overwrite bool) error {
	m.logger.WithFields(map[string]interface{}{
		"id":     info.ID,
		"target": target,
	}).Info("Restoring backup")

	if _, err := os.Stat(target); err == nil && !overwrite {
		return &models.BackupError{
			Code:     models.ErrCodeBackup,
			BackupID: info.ID,
			Path:     target,
			Err:      models.ErrBackupExists,
		}
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return &models.BackupError{Code: models.ErrCodeBackup, BackupID: info.ID, Path: target, Err: err}
	}

	zr, err := zip.OpenReader(info.ArchivePath)
	if err != nil {
		return &models.BackupError{Code: models.ErrCodeArchive, BackupID: info.ID, Path: info.ArchivePath, Err: err}
	}
	defer zr.Close()

	for _, entry := range zr.File {
		dest := filepath.Join(target, filepath.FromSlash(entry.Name))

		if strings.HasSuffix(entry.Name, "/") {
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return &models.BackupError{Code: models.ErrCodeBackup, BackupID: info.ID, Path: dest, Err: err}
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return &models.BackupError{Code: models.ErrCodeBackup, BackupID: info.ID, Path: dest, Err: err}
		}

		if err := extractEntry(entry, dest); err != nil {
			return &models.BackupError{Code: models.ErrCodeArchive, BackupID: info.ID, Path: dest, Err: err}
		}
	}

	m.logger.WithField("id", info.ID).Info("Backup restored")
	return nil
}

func extractEntry(entry *zip.File, dest string) error {
	in, err := entry.Open()
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// ListBackups returns sidecar-described backups, newest first. Optional
// filters: substring match on game name, exact match on title id; both
// must hold when both are given. Unparseable sidecars are skipped.
func (m *Manager) ListBackups(nameFilter string, titleID *uint32) ([]models.BackupInfo, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		return nil, &models.BackupError{Code: models.ErrCodeIO, Path: m.root, Err: err}
	}

	var backups []models.BackupInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), sidecarSuffix) {
			continue
		}

		info, err := m.readSidecar(filepath.Join(m.root, entry.Name()))
		if err != nil {
			m.logger.WithError(err).WithField("file", entry.Name()).Warn("Skipping unparseable sidecar")
			continue
		}

		if nameFilter != "" && !strings.Contains(info.GameName, nameFilter) {
			continue
		}
		if titleID != nil && (info.TitleID == nil || *info.TitleID != *titleID) {
			continue
		}

		backups = append(backups, *info)
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})

	return backups, nil
}

// DeleteBackup removes the archive and its sidecar. Absence of either is
// not an error.
func (m *Manager) DeleteBackup(info *models.BackupInfo) error {
	m.logger.WithField("id", info.ID).Info("Deleting backup")

	if err := os.Remove(info.ArchivePath); err != nil && !os.IsNotExist(err) {
		return &models.BackupError{Code: models.ErrCodeBackup, BackupID: info.ID, Path: info.ArchivePath, Err: err}
	}

	sidecar := m.sidecarPath(info.ID)
	if err := os.Remove(sidecar); err != nil && !os.IsNotExist(err) {
		return &models.BackupError{Code: models.ErrCodeBackup, BackupID: info.ID, Path: sidecar, Err: err}
	}

	return nil
}

// CleanupOldBackups deletes backups created strictly before the retention
// cutoff. Individual deletion failures are logged and skipped; the count
// of successful deletions is returned.
func (m *Manager) CleanupOldBackups() (int, error) {
	cutoff := m.now().UTC().AddDate(0, 0, -m.retentionDays)

	backups, err := m.ListBackups("", nil)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for i := range backups {
		if !backups[i].CreatedAt.Before(cutoff) {
			continue
		}
		if err := m.DeleteBackup(&backups[i]); err != nil {
			m.logger.WithError(err).WithField("id", backups[i].ID).Warn("Failed to delete old backup")
			continue
		}
		deleted++
	}

	if deleted > 0 {
		m.logger.WithField("count", deleted).Info("Cleaned up old backups")
	}

	return deleted, nil
}

// Stats aggregates the backup root.
func (m *Manager) Stats() (*models.BackupStats, error) {
	backups, err := m.ListBackups("", nil)
	if err != nil {
		return nil, err
	}

	stats := &models.BackupStats{TotalCount: len(backups)}
	for i := range backups {
		b := &backups[i]
		stats.TotalSize += b.Size

		switch b.SaveType {
		case models.SaveTypeSteam:
			stats.SteamCount++
		case models.SaveTypeNonSteam:
			stats.NonSteamCount++
		}

		created := b.CreatedAt
		if stats.OldestBackup == nil || created.Before(*stats.OldestBackup) {
			t := created
			stats.OldestBackup = &t
		}
		if stats.NewestBackup == nil || created.After(*stats.NewestBackup) {
			t := created
			stats.NewestBackup = &t
		}
	}

	return stats, nil
}

func (m *Manager) sidecarPath(id string) string {
	return filepath.Join(m.root, id+sidecarSuffix)
}

// writeSidecar persists BackupInfo atomically next to the archive.
func (m *Manager) writeSidecar(info *models.BackupInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return &models.BackupError{Code: models.ErrCodeSerde, BackupID: info.ID, Err: err}
	}

	path := m.sidecarPath(info.ID)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return &models.BackupError{Code: models.ErrCodeBackup, BackupID: info.ID, Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return &models.BackupError{Code: models.ErrCodeBackup, BackupID: info.ID, Path: path, Err: err}
	}

	return nil
}

func (m *Manager) readSidecar(path string) (*models.BackupInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var info models.BackupInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse sidecar: %w", err)
	}

	return &info, nil
}
