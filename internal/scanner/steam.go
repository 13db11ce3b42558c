package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Arionyxx/save-guardian/internal/events"
	"github.com/Arionyxx/save-guardian/internal/models"
	"github.com/Arionyxx/save-guardian/internal/steamnames"
)

// SteamScanner walks a Steam userdata tree laid out as
// <root>/<user>/<titleID>/remote and emits one GameSave per qualifying
// title, deduplicated across users by recency.
type SteamScanner struct {
	userdataPath string
	names        steamnames.Store
	logger       *events.Logger
}

// NewSteamScanner creates a scanner over the given userdata root.
func NewSteamScanner(userdataPath string, names steamnames.Store, logger *events.Logger) *SteamScanner {
	return &SteamScanner{
		userdataPath: userdataPath,
		names:        names,
		logger:       logger.WithField("component", "steam_scanner"),
	}
}

// Scan implements Scanner.
func (s *SteamScanner) Scan() ([]models.GameSave, error) {
	s.logger.WithField("path", s.userdataPath).Info("Starting Steam save scan")

	if _, err := os.Stat(s.userdataPath); err != nil {
		return nil, &models.ScanError{
			Code: models.ErrCodeScan,
			Root: s.userdataPath,
			Err:  models.ErrPathNotFound,
		}
	}

	entries, err := os.ReadDir(s.userdataPath)
	if err != nil {
		return nil, &models.ScanError{Code: models.ErrCodeIO, Root: s.userdataPath, Err: err}
	}

	// titleID -> winning save; dedupe keeps the most recently modified copy.
	byTitle := make(map[uint32]models.GameSave)
	var order []uint32

	for _, entry := range entries {
		if !entry.IsDir() || !isNumeric(entry.Name()) {
			// Non-numeric entries such as "anonymous" are not users.
			continue
		}

		userPath := filepath.Join(s.userdataPath, entry.Name())
		saves := s.scanUser(entry.Name(), userPath)
		s.logger.WithFields(map[string]interface{}{
			"user":  entry.Name(),
			"games": len(saves),
		}).Info("Scanned Steam user")

		for _, save := range saves {
			id := *save.TitleID
			existing, seen := byTitle[id]
			if !seen {
				byTitle[id] = save
				order = append(order, id)
				continue
			}
			if newerThan(save, existing) {
				byTitle[id] = save
			}
		}
	}

	saves := make([]models.GameSave, 0, len(order))
	for _, id := range order {
		saves = append(saves, byTitle[id])
	}

	s.logger.WithField("count", len(saves)).Info("Steam scan complete")
	return saves, nil
}

// scanUser collects the saves under one user directory. Failures on
// individual title folders are logged and skipped.
func (s *SteamScanner) scanUser(userID, userPath string) []models.GameSave {
	entries, err := os.ReadDir(userPath)
	if err != nil {
		s.logger.WithError(err).WithField("user", userID).Warn("Failed to read user directory")
		return nil
	}

	var saves []models.GameSave
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		titleID64, err := strconv.ParseUint(entry.Name(), 10, 32)
		if err != nil {
			continue
		}
		titleID := uint32(titleID64)

		// Only the remote folder counts; siblings would produce
		// duplicate records for the same title.
		remotePath := filepath.Join(userPath, entry.Name(), "remote")
		info, err := os.Stat(remotePath)
		if err != nil || !info.IsDir() {
			continue
		}

		if !s.qualifiesLenient(remotePath) {
			continue
		}

		name := s.names.GetOrResolve(context.Background(), titleID)
		save := models.NewGameSave(name, remotePath, models.SaveTypeSteam, &titleID)

		s.logger.WithFields(map[string]interface{}{
			"title_id": titleID,
			"name":     save.Name,
			"path":     remotePath,
		}).Debug("Found Steam save")

		saves = append(saves, save)
	}

	return saves
}

// qualifiesLenient classifies a remote folder. The canonical cloud-sync
// location is trusted more than content inspection: a save-like extension
// or "save" filename qualifies immediately, but any file at all is enough.
// Only an empty folder is rejected.
func (s *SteamScanner) qualifiesLenient(root string) bool {
	inspected := 0
	hasFiles := false
	qualified := false

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.WithError(err).WithField("path", path).Warn("Skipping unreadable entry")
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			// Pruning at the depth limit keeps files above it visible
			// while never descending past it.
			if walkDepth(root, path) >= SteamWalkDepth {
				return fs.SkipDir
			}
			return nil
		}

		inspected++
		hasFiles = true

		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
		name := strings.ToLower(d.Name())
		if lenientExtensions[ext] || strings.Contains(name, "save") {
			qualified = true
			return fs.SkipAll
		}

		if inspected >= MaxInspectedFiles {
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return false
	}

	return qualified || hasFiles
}

// newerThan implements the dedupe ordering: a timestamped record beats one
// without, later beats earlier, and otherwise the incumbent stays.
func newerThan(candidate, incumbent models.GameSave) bool {
	switch {
	case candidate.LastModified == nil:
		return false
	case incumbent.LastModified == nil:
		return true
	default:
		return candidate.LastModified.After(*incumbent.LastModified)
	}
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// walkDepth counts path separators between root and path.
func walkDepth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}
