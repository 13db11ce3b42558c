// Package scanner discovers game-save locations on disk. Two independent
// scanners share one contract: walk a set of roots, classify directories
// with bounded heuristics, and emit typed save records. Per-entry walk
// failures are logged and skipped so a single unreadable folder never
// sinks a scan.
package scanner

import (
	"github.com/Arionyxx/save-guardian/internal/models"
)

// Scanner is the common capability of both save scanners.
type Scanner interface {
	Scan() ([]models.GameSave, error)
}

// Heuristic policy constants. These are deliberately named rather than
// inlined so boundary behavior can be probed in tests.
const (
	// SteamWalkDepth bounds the lenient classification walk below a
	// remote folder.
	SteamWalkDepth = 3

	// NonSteamWalkDepth bounds the walk below each non-Steam root.
	NonSteamWalkDepth = 4

	// MaxInspectedFiles caps how many entries a heuristic examines per
	// directory before giving up.
	MaxInspectedFiles = 30
)

// saveExtensions definitively mark a file as a save.
var saveExtensions = map[string]bool{
	"sav":      true,
	"save":     true,
	"savegame": true,
}

// lenientExtensions extend saveExtensions with generic data formats for
// the trusted Steam remote location.
var lenientExtensions = map[string]bool{
	"sav":      true,
	"save":     true,
	"savegame": true,
	"dat":      true,
	"bin":      true,
	"json":     true,
}

// strictNameDenylist tokens disqualify a "save"-named file in the strict
// heuristic.
var strictNameDenylist = []string{
	"config", "settings", "cache", "temp", "log", "backup", "version",
}
