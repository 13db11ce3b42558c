package steamnames

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Arionyxx/save-guardian/internal/events"
)

// Store is the title-name cache: an injected key-value store with explicit
// load/save semantics so scanners never touch global state.
type Store interface {
	// GetOrResolve returns the cached name for a title, resolving and
	// caching it when absent or distrusted. Never fails: an unresolvable
	// title yields the "Unknown Game <id>" placeholder.
	GetOrResolve(ctx context.Context, titleID uint32) string

	// RefreshIncorrectNames re-resolves every distrusted entry, evicting
	// entries that still cannot be resolved. Returns the number updated.
	RefreshIncorrectNames(ctx context.Context) int

	// Seed inserts entries without overwriting trusted ones.
	Seed(names map[uint32]string)

	// Clear drops all entries and the persistent backing.
	Clear() error

	// Len reports the number of cached entries.
	Len() int

	Close() error
}

// refreshDelay spaces bulk re-resolution calls so external APIs are not
// hammered.
const refreshDelay = 100 * time.Millisecond

// IsDistrustedName reports whether a cached name should be re-resolved:
// placeholders, numeric-only strings, and known junk patterns.
func IsDistrustedName(name string) bool {
	if name == "" || name == "null" || len(name) < 3 {
		return true
	}
	if strings.HasPrefix(name, "Unknown Game") {
		return true
	}
	for _, tag := range []string{"(ac)", "(workshop)", "(screenshots)"} {
		if strings.Contains(name, tag) {
			return true
		}
	}
	if _, err := strconv.ParseUint(name, 10, 32); err == nil {
		return true
	}
	return false
}

// PlaceholderName is the degraded name for an unresolvable title.
func PlaceholderName(titleID uint32) string {
	return fmt.Sprintf("Unknown Game %d", titleID)
}

// JSONCache is a Store backed by a whole-file JSON object mapping title id
// to display name. Loaded at construction, rewritten on every update.
// Safe only under the single-instance model; writes go through a temp file
// and rename.
type JSONCache struct {
	path     string
	names    map[uint32]string
	resolver Resolver
	logger   *events.Logger
}

// NewJSONCache loads (or initializes) a JSON-backed name cache.
func NewJSONCache(path string, resolver Resolver, logger *events.Logger) *JSONCache {
	c := &JSONCache{
		path:     path,
		names:    make(map[uint32]string),
		resolver: resolver,
		logger:   logger.WithField("component", "name_cache"),
	}
	c.load()
	return c
}

func (c *JSONCache) load() {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		c.logger.WithError(err).Warn("Failed to parse name cache file")
		return
	}

	for key, name := range raw {
		id, err := strconv.ParseUint(key, 10, 32)
		if err != nil {
			continue
		}
		c.names[uint32(id)] = name
	}

	c.logger.WithField("count", len(c.names)).Debug("Loaded name cache")
}

func (c *JSONCache) save() {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		c.logger.WithError(err).Warn("Failed to create cache directory")
		return
	}

	raw := make(map[string]string, len(c.names))
	for id, name := range c.names {
		raw[strconv.FormatUint(uint64(id), 10)] = name
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		c.logger.WithError(err).Warn("Failed to marshal name cache")
		return
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		c.logger.WithError(err).Warn("Failed to write name cache")
		return
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		_ = os.Remove(tmpPath)
		c.logger.WithError(err).Warn("Failed to replace name cache")
	}
}

// GetOrResolve implements Store.
func (c *JSONCache) GetOrResolve(ctx context.Context, titleID uint32) string {
	if name, ok := c.names[titleID]; ok && !IsDistrustedName(name) {
		return name
	}

	name, err := c.resolver.Resolve(ctx, titleID)
	if err != nil {
		name = PlaceholderName(titleID)
	}

	c.names[titleID] = name
	c.save()
	return name
}

// RefreshIncorrectNames implements Store.
func (c *JSONCache) RefreshIncorrectNames(ctx context.Context) int {
	var distrusted []uint32
	for id, name := range c.names {
		if IsDistrustedName(name) {
			distrusted = append(distrusted, id)
		}
	}

	if len(distrusted) == 0 {
		return 0
	}

	c.logger.WithField("count", len(distrusted)).Info("Refreshing distrusted cached names")

	updated := 0
	for _, id := range distrusted {
		if name, err := c.resolver.Resolve(ctx, id); err == nil {
			c.names[id] = name
			updated++
		} else {
			delete(c.names, id)
		}
		time.Sleep(refreshDelay)
	}

	c.save()
	return updated
}

// Seed implements Store.
func (c *JSONCache) Seed(names map[uint32]string) {
	changed := false
	for id, name := range names {
		if existing, ok := c.names[id]; ok && !IsDistrustedName(existing) {
			continue
		}
		c.names[id] = name
		changed = true
	}
	if changed {
		c.save()
	}
}

// Clear implements Store.
func (c *JSONCache) Clear() error {
	c.names = make(map[uint32]string)
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove cache file: %w", err)
	}
	return nil
}

// Len implements Store.
func (c *JSONCache) Len() int { return len(c.names) }

// Close implements Store.
func (c *JSONCache) Close() error { return nil }

// SeedKnownTitles loads a table of well-known title names, avoiding a
// network round trip for common games.
func SeedKnownTitles(store Store) {
	store.Seed(map[uint32]string{
		570:     "Dota 2",
		730:     "Counter-Strike: Global Offensive",
		440:     "Team Fortress 2",
		550:     "Left 4 Dead 2",
		4000:    "Garry's Mod",
		105600:  "Terraria",
		72850:   "The Elder Scrolls V: Skyrim",
		239140:  "Dying Light",
		881020:  "Dying Light: The Following",
		1966720: "Dying Light 2 Stay Human",
		271590:  "Grand Theft Auto V",
		292030:  "The Witcher 3: Wild Hunt",
		367520:  "Hollow Knight",
		413150:  "Stardew Valley",
		646570:  "Slay the Spire",
		1091500: "Cyberpunk 2077",
		322330:  "Don't Starve Together",
		896660:  "Valheim",
		548430:  "Deep Rock Galactic",
		489830:  "The Elder Scrolls V: Skyrim Special Edition",
		435150:  "Divinity: Original Sin 2",
		1174180: "Red Dead Redemption 2",
		255710:  "Cities: Skylines",
		823500:  "Satisfactory",
		281990:  "Stellaris",
		394360:  "Hearts of Iron IV",
		236850:  "Europa Universalis IV",
		1158310: "Crusader Kings III",
		582010:  "Monster Hunter: World",
		381210:  "Dead by Daylight",
	})
}
