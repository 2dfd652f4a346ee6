// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gateway

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLCache is a SQLite-backed Cache implementation. It follows the same
// lazy-expiry contract as MemCache and additionally purges expired rows
// opportunistically on writes, so the database does not grow unbounded.
type SQLCache struct {
	mu  sync.Mutex
	db  *sql.DB
	now func() time.Time
}

// NewSQLCache opens or creates the cache database at path and bootstraps
// the schema.
func NewSQLCache(path string) (*SQLCache, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS cache (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		expires TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &SQLCache{db: db, now: time.Now}, nil
}

// Close releases the database connection.
func (c *SQLCache) Close() error {
	return c.db.Close()
}

// Get returns the value for key if present and unexpired. An expired row
// is deleted on lookup.
func (c *SQLCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var value []byte
	var expires string
	err := c.db.QueryRow(`SELECT value, expires FROM cache WHERE key = ?`, key).Scan(&value, &expires)
	if err != nil {
		return nil, false
	}

	exp, err := time.Parse(time.RFC3339Nano, expires)
	if err != nil || c.now().After(exp) {
		c.db.Exec(`DELETE FROM cache WHERE key = ?`, key)
		return nil, false
	}
	return value, true
}

// Set stores value under key for ttl and purges any rows already expired.
func (c *SQLCache) Set(key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	expires := now.Add(ttl).UTC().Format(time.RFC3339Nano)
	c.db.Exec(
		`INSERT INTO cache (key, value, expires) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, expires=excluded.expires`,
		key, value, expires,
	)
	c.db.Exec(`DELETE FROM cache WHERE expires < ?`, now.UTC().Format(time.RFC3339Nano))
}
