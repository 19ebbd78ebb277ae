// Package cache provides a content-addressed result cache for synthesized
// artifacts. The index maps a fingerprint of (text, synthesis parameters) to
// the artifact path on disk, persisted in an embedded SQLite database so
// cache entries survive across runs.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/batchvox/batchvox/internal/synthesis"

	_ "modernc.org/sqlite"
)

const createCacheTable = `
CREATE TABLE IF NOT EXISTS audio_cache (
    fingerprint TEXT PRIMARY KEY,
    voice_id    TEXT NOT NULL,
    format      TEXT NOT NULL,
    sample_rate INTEGER NOT NULL,
    file_path   TEXT NOT NULL,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// Cache is the content-addressed artifact cache. It is safe for concurrent
// use; concurrent writes for the same key are serialized by the database and
// resolve last-write-wins, which is acceptable because equivalent keys
// reference identical content by construction.
type Cache struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if necessary) the cache index at dir/cache.db and
// ensures the schema exists.
func Open(dir string, logger *slog.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "cache.db"))
	if err != nil {
		return nil, fmt.Errorf("open cache index: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := db.Exec(createCacheTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache table: %w", err)
	}

	return &Cache{db: db, logger: logger}, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Key computes the deterministic fingerprint for a (text, params) pair. Two
// items with identical text and parameters share one cache entry, across runs.
func Key(text string, params synthesis.Params) string {
	content := fmt.Sprintf("%s|%s|%s|%d", text, params.VoiceID, params.Format, params.SampleRate)
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Lookup returns the artifact path cached for the pair, if any. An index
// entry whose artifact no longer exists on disk is deleted and reported as a
// miss, so externally removed files heal themselves instead of poisoning the
// cache.
func (c *Cache) Lookup(ctx context.Context, text string, params synthesis.Params) (string, bool, error) {
	key := Key(text, params)

	var path string
	err := c.db.QueryRowContext(ctx,
		"SELECT file_path FROM audio_cache WHERE fingerprint = ?", key,
	).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query cache index: %w", err)
	}

	if _, err := os.Stat(path); err != nil {
		c.logger.Debug("removing stale cache entry", "fingerprint", key, "path", path)
		if _, delErr := c.db.ExecContext(ctx,
			"DELETE FROM audio_cache WHERE fingerprint = ?", key); delErr != nil {
			return "", false, fmt.Errorf("delete stale cache entry: %w", delErr)
		}
		return "", false, nil
	}

	return path, true, nil
}

// Store records the artifact path for the pair. The upsert is idempotent:
// storing an existing key simply overwrites the entry.
func (c *Cache) Store(ctx context.Context, text string, params synthesis.Params, artifactPath string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO audio_cache (fingerprint, voice_id, format, sample_rate, file_path)
		 VALUES (?, ?, ?, ?, ?)`,
		Key(text, params), params.VoiceID, string(params.Format), params.SampleRate, artifactPath,
	)
	if err != nil {
		return fmt.Errorf("store cache entry: %w", err)
	}
	return nil
}

// Len returns the number of entries in the index.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audio_cache").Scan(&n); err != nil {
		return 0, fmt.Errorf("count cache entries: %w", err)
	}
	return n, nil
}
