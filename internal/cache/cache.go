package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"go-news-portal/internal/config"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Cache is a small key/value store with expiry, kept in its own SQLite file so it
// survives restarts without touching the main database.
type Cache struct {
	db  *sqlx.DB
	ttl time.Duration
}

// New opens (or creates) the cache database described by cfg.
// An empty FilePath keeps the cache in memory.
func New(cfg config.CacheConfig) (*Cache, error) {
	path := cfg.FilePath
	if path == "" {
		path = "file::memory:"
	}
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite cache: %w", err)
	}
	// One writer at a time; this also keeps an in-memory database on a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode on sqlite cache: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS cache (
		key TEXT PRIMARY KEY,
		value BLOB,
		expires_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_expires_at ON cache (expires_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{db: db, ttl: ttl}, nil
}

// TTL is the default lifetime of entries written with SetJSON.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get retrieves an item. A missing or expired key yields nil, nil.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	var item struct {
		Value     []byte `db:"value"`
		ExpiresAt int64  `db:"expires_at"`
	}
	err := c.db.GetContext(ctx, &item, `SELECT value, expires_at FROM cache WHERE key = ?`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get item from cache: %w", err)
	}

	if time.Now().UnixNano() > item.ExpiresAt {
		_ = c.Delete(ctx, key)
		return nil, nil
	}
	return item.Value, nil
}

// Set stores an item for ttl.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	expiresAt := time.Now().Add(ttl).UnixNano()
	query := `INSERT OR REPLACE INTO cache (key, value, expires_at) VALUES (?, ?, ?)`
	if _, err := c.db.ExecContext(ctx, query, key, value, expiresAt); err != nil {
		return fmt.Errorf("failed to set item in cache: %w", err)
	}
	return nil
}

// GetJSON decodes a cached JSON value into dst and reports whether it was present.
func (c *Cache) GetJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	b, err := c.Get(ctx, key)
	if err != nil || b == nil {
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		// A value written by an older version; drop it.
		_ = c.Delete(ctx, key)
		return false, nil
	}
	return true, nil
}

// SetJSON stores v as JSON with the default TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	return c.Set(ctx, key, b, c.ttl)
}

// Delete removes an item from the cache.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM cache WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete item from cache: %w", err)
	}
	return nil
}

// PurgeExpired removes every expired entry and returns how many were dropped.
func (c *Cache) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM cache WHERE expires_at < ?`, time.Now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}
