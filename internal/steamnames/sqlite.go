package steamnames

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Arionyxx/save-guardian/internal/events"
)

// SQLiteCache is a Store backed by a sqlite database. Unlike JSONCache it
// writes per entry instead of rewriting the whole file, which suits large
// libraries.
type SQLiteCache struct {
	db       *sql.DB
	resolver Resolver
	logger   *events.Logger
}

// NewSQLiteCache opens (or creates) a sqlite-backed name cache.
func NewSQLiteCache(dbPath string, resolver Resolver, logger *events.Logger) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	c := &SQLiteCache{
		db:       db,
		resolver: resolver,
		logger:   logger.WithField("component", "sqlite_name_cache"),
	}

	if err := c.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	return c, nil
}

func (c *SQLiteCache) initialize() error {
	schema := `
    CREATE TABLE IF NOT EXISTS title_names (
        title_id INTEGER PRIMARY KEY,
        name TEXT NOT NULL,
        updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    );
    `

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

func (c *SQLiteCache) get(titleID uint32) (string, bool) {
	var name string
	err := c.db.QueryRow(
		`SELECT name FROM title_names WHERE title_id = ?`, titleID,
	).Scan(&name)
	if err != nil {
		return "", false
	}
	return name, true
}

func (c *SQLiteCache) put(titleID uint32, name string) {
	_, err := c.db.Exec(`
        INSERT INTO title_names (title_id, name, updated_at)
        VALUES (?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(title_id) DO UPDATE SET
            name = excluded.name,
            updated_at = CURRENT_TIMESTAMP
    `, titleID, name)
	if err != nil {
		c.logger.WithError(err).WithField("title_id", titleID).Warn("Failed to cache name")
	}
}

// GetOrResolve implements Store.
func (c *SQLiteCache) GetOrResolve(ctx context.Context, titleID uint32) string {
	if name, ok := c.get(titleID); ok && !IsDistrustedName(name) {
		return name
	}

	name, err := c.resolver.Resolve(ctx, titleID)
	if err != nil {
		name = PlaceholderName(titleID)
	}

	c.put(titleID, name)
	return name
}

// RefreshIncorrectNames implements Store.
func (c *SQLiteCache) RefreshIncorrectNames(ctx context.Context) int {
	rows, err := c.db.Query(`SELECT title_id, name FROM title_names`)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to list cached names")
		return 0
	}

	var distrusted []uint32
	for rows.Next() {
		var id uint32
		var name string
		if rows.Scan(&id, &name) == nil && IsDistrustedName(name) {
			distrusted = append(distrusted, id)
		}
	}
	rows.Close()

	if len(distrusted) == 0 {
		return 0
	}

	c.logger.WithField("count", len(distrusted)).Info("Refreshing distrusted cached names")

	updated := 0
	for _, id := range distrusted {
		if name, err := c.resolver.Resolve(ctx, id); err == nil {
			c.put(id, name)
			updated++
		} else {
			_, _ = c.db.Exec(`DELETE FROM title_names WHERE title_id = ?`, id)
		}
		time.Sleep(refreshDelay)
	}

	return updated
}

// Seed implements Store.
func (c *SQLiteCache) Seed(names map[uint32]string) {
	for id, name := range names {
		if existing, ok := c.get(id); ok && !IsDistrustedName(existing) {
			continue
		}
		c.put(id, name)
	}
}

// Clear implements Store.
func (c *SQLiteCache) Clear() error {
	if _, err := c.db.Exec(`DELETE FROM title_names`); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// Len implements Store.
func (c *SQLiteCache) Len() int {
	var count int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM title_names`).Scan(&count); err != nil {
		return 0
	}
	return count
}

// Close implements Store.
func (c *SQLiteCache) Close() error { return c.db.Close() }
