// Package syncer pairs Steam and non-Steam copies of the same game and
// copies save data between them. Pairing is heuristic name matching;
// copying always stages into a temporary sibling directory and swaps it
// in with a rename so a failed sync never leaves the destination
// half-written.
package syncer

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/Arionyxx/save-guardian/internal/backup"
	"github.com/Arionyxx/save-guardian/internal/events"
	"github.com/Arionyxx/save-guardian/internal/models"
)

// Manager performs pairing and sync operations.
type Manager struct {
	backups *backup.Manager
	logger  *events.Logger
}

// NewManager creates a sync manager. backups may be nil, in which case
// pre-sync backups are skipped.
func NewManager(backups *backup.Manager, logger *events.Logger) *Manager {
	return &Manager{
		backups: backups,
		logger:  logger.WithField("component", "sync_manager"),
	}
}

// FindSyncPairs matches the two save populations in four passes:
// id-assisted Steam matches first (a Steam title may pair with several
// non-Steam copies), then name-only matches (one pair each, shorter name
// wins as the display name), then one-sided leftovers from each
// population so every save appears in the result exactly once per side.
func (m *Manager) FindSyncPairs(steamSaves, nonSteamSaves []models.GameSave) []models.SyncPair {
	var pairs []models.SyncPair
	pairedSteam := make(map[string]bool)
	pairedNonSteam := make(map[string]bool)

	// Pass 1: Steam saves carrying a title id match every plausible
	// non-Steam copy. Pairing marks feed the later passes only; within
	// this pass a non-Steam save may join several id-bearing titles
	// (base game and DLC entries share one local save folder).
	for i := range steamSaves {
		steam := &steamSaves[i]
		if steam.TitleID == nil {
			continue
		}

		for j := range nonSteamSaves {
			nonSteam := &nonSteamSaves[j]
			if !IsLikelySameGame(steam.Name, nonSteam.Name, steam.TitleID) {
				continue
			}

			pairs = append(pairs, models.SyncPair{
				SteamSave:    steam,
				NonSteamSave: nonSteam,
				GameName:     steam.Name,
				TitleID:      steam.TitleID,
				Direction:    models.Bidirectional,
			})
			pairedSteam[steam.Path] = true
			pairedNonSteam[nonSteam.Path] = true

			m.logger.WithFields(map[string]interface{}{
				"game":     steam.Name,
				"title_id": *steam.TitleID,
			}).Debug("Paired by title id")
		}
	}

	// Pass 2: name-only matching for whatever remains. First match wins
	// and the shorter display name labels the pair.
	for i := range steamSaves {
		steam := &steamSaves[i]
		if pairedSteam[steam.Path] {
			continue
		}

		for j := range nonSteamSaves {
			nonSteam := &nonSteamSaves[j]
			if pairedNonSteam[nonSteam.Path] {
				continue
			}
			if !IsLikelySameGame(steam.Name, nonSteam.Name, steam.TitleID) {
				continue
			}

			name := steam.Name
			if len(nonSteam.Name) < len(name) {
				name = nonSteam.Name
			}

			pairs = append(pairs, models.SyncPair{
				SteamSave:    steam,
				NonSteamSave: nonSteam,
				GameName:     name,
				TitleID:      steam.TitleID,
				Direction:    models.Bidirectional,
			})
			pairedSteam[steam.Path] = true
			pairedNonSteam[nonSteam.Path] = true
			break
		}
	}

	// Passes 3 and 4: one-sided entries for anything unmatched.
	for i := range steamSaves {
		steam := &steamSaves[i]
		if pairedSteam[steam.Path] {
			continue
		}
		pairs = append(pairs, models.SyncPair{
			SteamSave: steam,
			GameName:  steam.Name,
			TitleID:   steam.TitleID,
			Direction: models.SteamToNonSteam,
		})
	}

	for j := range nonSteamSaves {
		nonSteam := &nonSteamSaves[j]
		if pairedNonSteam[nonSteam.Path] {
			continue
		}
		pairs = append(pairs, models.SyncPair{
			NonSteamSave: nonSteam,
			GameName:     nonSteam.Name,
			Direction:    models.NonSteamToSteam,
		})
	}

	m.logger.WithField("count", len(pairs)).Info("Sync pairing complete")
	return pairs
}

// NewManualPair builds a pair from two explicitly chosen saves, skipping
// the matching heuristics entirely.
func NewManualPair(steam, nonSteam *models.GameSave) models.SyncPair {
	pair := models.SyncPair{
		SteamSave:    steam,
		NonSteamSave: nonSteam,
		Direction:    models.Bidirectional,
	}

	switch {
	case steam != nil:
		pair.GameName = steam.Name
		pair.TitleID = steam.TitleID
	case nonSteam != nil:
		pair.GameName = nonSteam.Name
	}

	return pair
}

// SyncSaves copies save data across a pair in the given direction.
// Bidirectional resolves to whichever side was modified later. When the
// manager has a backup manager, the destination is backed up before it
// is replaced; a failed backup is logged but does not abort the sync.
func (m *Manager) SyncSaves(pair *models.SyncPair, direction models.SyncDirection) (*models.SyncResult, error) {
	source, dest, resolved, err := resolveSides(pair, direction)
	if err != nil {
		return nil, err
	}

	m.logger.WithFields(map[string]interface{}{
		"game":      pair.GameName,
		"direction": string(resolved),
		"source":    source.Path,
		"dest":      dest.Path,
	}).Info("Syncing saves")

	if m.backups != nil {
		if _, err := os.Stat(dest.Path); err == nil {
			if _, err := m.backups.CreateBackup(dest, "pre-sync backup"); err != nil {
				m.logger.WithError(err).WithField("game", pair.GameName).Warn("Pre-sync backup failed")
			}
		}
	}

	filesCopied, err := m.replaceTree(source.Path, dest.Path, pair.GameName)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	pair.LastSynced = &now
	pair.Direction = resolved

	result := &models.SyncResult{
		FilesCopied:     filesCopied,
		BytesCopied:     treeSize(dest.Path),
		SourcePath:      source.Path,
		DestinationPath: dest.Path,
		SyncTime:        now,
	}

	m.logger.WithFields(map[string]interface{}{
		"game":  pair.GameName,
		"files": result.FilesCopied,
		"bytes": result.BytesCopied,
	}).Info("Sync complete")

	return result, nil
}

// resolveSides maps a direction onto concrete source and destination
// saves. Bidirectional compares modification times, treating an unknown
// time as the epoch so a side with any timestamp wins.
func resolveSides(pair *models.SyncPair, direction models.SyncDirection) (source, dest *models.GameSave, resolved models.SyncDirection, err error) {
	if direction == models.Bidirectional {
		if pair.SteamSave == nil || pair.NonSteamSave == nil {
			return nil, nil, direction, &models.SyncError{
				Code:     models.ErrCodeSync,
				GameName: pair.GameName,
				Err:      fmt.Errorf("bidirectional sync needs both sides: %w", models.ErrMissingSaveSide),
			}
		}
		if modTime(pair.SteamSave).After(modTime(pair.NonSteamSave)) {
			direction = models.SteamToNonSteam
		} else {
			direction = models.NonSteamToSteam
		}
	}

	switch direction {
	case models.SteamToNonSteam:
		source, dest = pair.SteamSave, pair.NonSteamSave
	case models.NonSteamToSteam:
		source, dest = pair.NonSteamSave, pair.SteamSave
	default:
		return nil, nil, direction, &models.SyncError{
			Code:     models.ErrCodeSync,
			GameName: pair.GameName,
			Err:      fmt.Errorf("unknown sync direction %q", direction),
		}
	}

	if source == nil || dest == nil {
		return nil, nil, direction, &models.SyncError{
			Code:     models.ErrCodeSync,
			GameName: pair.GameName,
			Err:      models.ErrMissingSaveSide,
		}
	}

	return source, dest, direction, nil
}

func modTime(save *models.GameSave) time.Time {
	if save.LastModified == nil {
		return time.Time{}
	}
	return *save.LastModified
}

// replaceTree copies save data into the destination. A single-file
// source lands inside the destination directory, leaving its siblings
// alone; a directory source replaces the destination tree wholesale.
// Either way the copy is staged next to its target and swapped in with
// a rename, so an interrupted copy leaves the destination untouched.
func (m *Manager) replaceTree(sourcePath, destPath, game string) (int, error) {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return 0, &models.SyncError{
			Code:     models.ErrCodeSync,
			GameName: game,
			Path:     sourcePath,
			Err:      models.ErrPathNotFound,
		}
	}

	if info.Mode().IsRegular() {
		if err := m.copyFileInto(sourcePath, destPath, game); err != nil {
			return 0, err
		}
		return 1, nil
	}

	staged := fmt.Sprintf("%s.staged-%d", destPath, time.Now().UnixNano())
	filesCopied, err := copyTree(sourcePath, staged)
	if err != nil {
		_ = os.RemoveAll(staged)
		return 0, &models.SyncError{Code: models.ErrCodeSync, GameName: game, Path: sourcePath, Err: err}
	}

	if _, err := os.Stat(destPath); err == nil {
		if err := os.RemoveAll(destPath); err != nil {
			_ = os.RemoveAll(staged)
			return 0, &models.SyncError{Code: models.ErrCodeSync, GameName: game, Path: destPath, Err: err}
		}
	}

	if err := os.Rename(staged, destPath); err != nil {
		_ = os.RemoveAll(staged)
		return 0, &models.SyncError{Code: models.ErrCodeSync, GameName: game, Path: destPath, Err: err}
	}

	return filesCopied, nil
}

// copyFileInto places one file inside the destination directory under
// its own name, staged through a temporary sibling.
func (m *Manager) copyFileInto(sourcePath, destDir, game string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return &models.SyncError{Code: models.ErrCodeSync, GameName: game, Path: destDir, Err: err}
	}

	target := filepath.Join(destDir, filepath.Base(sourcePath))
	staged := fmt.Sprintf("%s.staged-%d", target, time.Now().UnixNano())

	if err := copyFile(sourcePath, staged); err != nil {
		_ = os.Remove(staged)
		return &models.SyncError{Code: models.ErrCodeSync, GameName: game, Path: sourcePath, Err: err}
	}
	if err := os.Rename(staged, target); err != nil {
		_ = os.Remove(staged)
		return &models.SyncError{Code: models.ErrCodeSync, GameName: game, Path: target, Err: err}
	}

	return nil
}

// copyTree duplicates a directory tree and reports how many files were
// written.
func copyTree(source, dest string) (int, error) {
	copied := 0
	err := filepath.WalkDir(source, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		if err := copyFile(path, target); err != nil {
			return err
		}
		copied++
		return nil
	})
	if err != nil {
		return 0, err
	}

	return copied, nil
}

func copyFile(source, dest string) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}

	return out.Sync()
}

// treeSize totals the regular-file bytes under path.
func treeSize(path string) int64 {
	var total int64
	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}
