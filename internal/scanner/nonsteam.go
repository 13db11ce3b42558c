package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Arionyxx/save-guardian/internal/events"
	"github.com/Arionyxx/save-guardian/internal/models"
)

// systemPathDenylist rejects directories regardless of content: OS and
// vendor folders, the Minecraft modding tree, and developer tooling.
var systemPathDenylist = []string{
	"windows", "system32", "program files", "programdata",
	"microsoft", "adobe", "google", "mozilla",
	"temp", "cache", "logs", "crash",
	"minecraft", ".minecraft", "mods", "versions", "libraries",
	"node_modules", ".git", "target", "build", "bin", "obj", ".vs", "__pycache__",
}

// genericSegments never name a game on their own.
var genericSegments = map[string]bool{
	"saves": true, "save": true, "profiles": true, "profile": true,
	"data": true, "config": true, "settings": true, "user": true,
	"users": true, "documents": true, "my games": true, "appdata": true,
	"roaming": true, "local": true, "locallow": true, "public": true,
	"remote": true, "steam": true, "steamemu": true, "goldberg": true,
	"minecraft": true, "versions": true, "mods": true, "libraries": true,
	"bin": true, "temp": true, "cache": true,
}

// nameSuffixes are stripped from derived game names.
var nameSuffixes = []string{
	" - Save", " - Saves", " Save", " Saves",
	" - Config", " Config", " - Settings", " Settings",
	" - Profile", " Profile", " Profiles",
	" (Steam)", " (Non-Steam)", " (Cracked)",
}

var titleCaser = cases.Title(language.English)

// NonSteamScanner walks well-known and custom save roots, applies a strict
// content heuristic, and derives game names from path segments.
type NonSteamScanner struct {
	commonLocations []models.SaveLocation
	customLocations []models.SaveLocation
	logger          *events.Logger
}

// NewNonSteamScanner creates a scanner over the default well-known roots.
func NewNonSteamScanner(logger *events.Logger) *NonSteamScanner {
	return &NonSteamScanner{
		commonLocations: defaultLocations(),
		logger:          logger.WithField("component", "nonsteam_scanner"),
	}
}

// NewNonSteamScannerWithLocations creates a scanner over an explicit root
// list, bypassing the defaults. Used for custom-only scans and in tests.
func NewNonSteamScannerWithLocations(locations []models.SaveLocation, logger *events.Logger) *NonSteamScanner {
	return &NonSteamScanner{
		commonLocations: locations,
		logger:          logger.WithField("component", "nonsteam_scanner"),
	}
}

// AddCustomLocation appends a caller-supplied scan root.
func (s *NonSteamScanner) AddCustomLocation(loc models.SaveLocation) {
	loc.IsCustom = true
	s.customLocations = append(s.customLocations, loc)
}

// Locations returns every configured scan root.
func (s *NonSteamScanner) Locations() []models.SaveLocation {
	all := make([]models.SaveLocation, 0, len(s.commonLocations)+len(s.customLocations))
	all = append(all, s.commonLocations...)
	all = append(all, s.customLocations...)
	return all
}

// defaultLocations builds the fixed well-known root list. Roots that do
// not exist are kept; the walk skips them cheaply, and a root may appear
// later (e.g. a game creating Documents/My Games).
func defaultLocations() []models.SaveLocation {
	var locations []models.SaveLocation

	home, err := os.UserHomeDir()
	if err != nil {
		return locations
	}
	documents := filepath.Join(home, "Documents")

	locations = append(locations,
		models.SaveLocation{
			Path:        filepath.Join(documents, "My Games"),
			Kind:        models.LocationDocuments,
			Description: "Documents/My Games - common for many PC games",
		},
		models.SaveLocation{
			Path:        documents,
			Kind:        models.LocationDocuments,
			Description: "Documents - direct saves in Documents",
		},
		models.SaveLocation{
			Path:        filepath.Join(documents, "Rockstar Games"),
			Kind:        models.LocationDocuments,
			Description: "Documents/Rockstar Games - Rockstar titles",
		},
	)

	if roaming, err := os.UserConfigDir(); err == nil {
		locations = append(locations,
			models.SaveLocation{
				Path:        roaming,
				Kind:        models.LocationAppDataRoaming,
				Description: "AppData/Roaming - config and saves for many games",
			},
			models.SaveLocation{
				Path:        filepath.Join(roaming, "Goldberg SteamEmu Saves"),
				Kind:        models.LocationAppDataRoaming,
				Description: "Goldberg SteamEmu Saves - emulated Steam saves",
			},
		)
	}

	if local, err := os.UserCacheDir(); err == nil {
		locations = append(locations, models.SaveLocation{
			Path:        local,
			Kind:        models.LocationAppDataLocal,
			Description: "AppData/Local - modern game saves and settings",
		})
	}

	locallow := filepath.Join(home, "AppData", "LocalLow")
	if _, err := os.Stat(locallow); err == nil {
		locations = append(locations, models.SaveLocation{
			Path:        locallow,
			Kind:        models.LocationAppDataLocalLow,
			Description: "AppData/LocalLow - Unity games persistent data",
		})
	}

	publicDocs := `C:\Users\Public\Documents`
	if _, err := os.Stat(publicDocs); err == nil {
		locations = append(locations, models.SaveLocation{
			Path:        publicDocs,
			Kind:        models.LocationPublicDocuments,
			Description: "Public Documents - older titles",
		})
	}

	return locations
}

// Scan implements Scanner. Each location is walked independently; a bad
// location yields a partial result, never a failed scan.
func (s *NonSteamScanner) Scan() ([]models.GameSave, error) {
	s.logger.Info("Starting non-Steam save scan")

	var all []models.GameSave
	for _, loc := range s.Locations() {
		saves := s.scanLocation(loc)
		if len(saves) > 0 {
			s.logger.WithFields(map[string]interface{}{
				"location": loc.Description,
				"count":    len(saves),
			}).Info("Found saves in location")
		}
		all = append(all, saves...)
	}

	s.logger.WithField("count", len(all)).Info("Non-Steam scan complete")
	return all, nil
}

func (s *NonSteamScanner) scanLocation(loc models.SaveLocation) []models.GameSave {
	if _, err := os.Stat(loc.Path); err != nil {
		s.logger.WithField("path", loc.Path).Debug("Location does not exist")
		return nil
	}

	var saves []models.GameSave

	err := filepath.WalkDir(loc.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.WithError(err).WithField("path", path).Warn("Skipping unreadable entry")
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if !d.IsDir() {
			return nil
		}

		if walkDepth(loc.Path, path) > NonSteamWalkDepth {
			return fs.SkipDir
		}

		if !s.qualifiesStrict(path) {
			return nil
		}

		name := s.deriveGameName(path)
		if name == "" {
			return nil
		}

		save := models.NewGameSave(name, path, models.SaveTypeNonSteam, nil)
		s.logger.WithFields(map[string]interface{}{
			"name": save.Name,
			"path": path,
		}).Debug("Found non-Steam save")
		saves = append(saves, save)

		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithField("path", loc.Path).Warn("Walk failed")
	}

	return saves
}

// qualifiesStrict requires positive evidence of save content: a save-like
// extension, or a "save" filename free of denylist tokens. System paths
// are rejected outright.
func (s *NonSteamScanner) qualifiesStrict(path string) bool {
	if isSystemPath(path) {
		return false
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return false
	}

	inspected := 0
	for _, entry := range entries {
		inspected++
		if inspected > MaxInspectedFiles {
			break
		}
		if entry.IsDir() {
			continue
		}

		name := strings.ToLower(entry.Name())
		ext := strings.TrimPrefix(filepath.Ext(name), ".")

		if saveExtensions[ext] {
			return true
		}

		if strings.Contains(name, "save") || strings.Contains(name, "savegame") {
			if strings.HasSuffix(name, ".jar") || strings.HasSuffix(name, ".java") {
				continue
			}
			denied := false
			for _, token := range strictNameDenylist {
				if strings.Contains(name, token) {
					denied = true
					break
				}
			}
			if !denied {
				return true
			}
		}
	}

	return false
}

func isSystemPath(path string) bool {
	lower := strings.ToLower(filepath.ToSlash(path))
	for _, token := range systemPathDenylist {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

// deriveGameName walks path components from the leaf upward and returns
// the first segment that is neither generic nor version-like, cleaned up
// for display. Falls back to the cleaned leaf name.
func (s *NonSteamScanner) deriveGameName(path string) string {
	components := strings.Split(filepath.ToSlash(path), "/")

	for i := len(components) - 1; i >= 0; i-- {
		segment := components[i]
		if segment == "" {
			continue
		}

		lower := strings.ToLower(segment)
		if genericSegments[lower] || isVersionSegment(lower) {
			continue
		}

		return cleanGameName(segment)
	}

	return cleanGameName(filepath.Base(path))
}

// isVersionSegment matches multi-dot version strings and mod-loader
// decorated names like "1.20.1-forge".
func isVersionSegment(lower string) bool {
	if strings.Count(lower, ".") >= 2 {
		return true
	}
	if strings.HasPrefix(lower, "1.") {
		return true
	}
	if strings.Contains(lower, "-forge") || strings.Contains(lower, "-fabric") ||
		strings.Contains(lower, "optifine") {
		return true
	}
	if strings.Contains(lower, "pre") && len(lower) < 10 {
		return true
	}
	return false
}

// cleanGameName strips save/config suffixes, expands underscores, and
// title-cases word-wise.
func cleanGameName(name string) string {
	clean := name
	for _, suffix := range nameSuffixes {
		if strings.HasSuffix(clean, suffix) {
			clean = clean[:len(clean)-len(suffix)]
		}
	}

	clean = strings.ReplaceAll(clean, "_", " ")

	words := strings.Fields(clean)
	for i, word := range words {
		words[i] = titleCaser.String(strings.ToLower(word))
	}

	return strings.Join(words, " ")
}
