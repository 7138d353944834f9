package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/soundscape-data/rosemap/internal/glyph"
)

// Store is the persisted cache tier: a single-table SQLite database
// mapping cache keys to serialized selections.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the cache database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	// A single connection sidesteps SQLITE_BUSY between concurrent
	// per-key writers; cache traffic is far too light to need a pool.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS declutter_cache (
			cache_key    TEXT PRIMARY KEY,
			entry_id     TEXT NOT NULL,
			result_json  TEXT NOT NULL,
			created_at   INTEGER NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}

	return &Store{db: db}, nil
}

// NewStore wraps an existing database handle; the schema must already
// exist. Used by tests and by callers sharing one handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get loads and decodes the selection stored under key. Returns ErrMiss
// when the key has no row.
func (s *Store) Get(key string) (*glyph.Selection, error) {
	var blob string
	err := s.db.QueryRow(
		`SELECT result_json FROM declutter_cache WHERE cache_key = ?`, key,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("query cache row: %w", err)
	}

	var sel glyph.Selection
	if err := json.Unmarshal([]byte(blob), &sel); err != nil {
		return nil, fmt.Errorf("decode cached selection %s: %w", key, err)
	}
	return &sel, nil
}

// Put inserts or replaces the selection stored under key.
func (s *Store) Put(key string, sel *glyph.Selection) error {
	blob, err := json.Marshal(sel)
	if err != nil {
		return fmt.Errorf("encode selection: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO declutter_cache (cache_key, entry_id, result_json, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			entry_id = excluded.entry_id,
			result_json = excluded.result_json,
			created_at = excluded.created_at`,
		key, uuid.New().String(), string(blob), time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert cache row: %w", err)
	}
	return nil
}

// Delete removes the row for key. Deleting an absent key is not an
// error.
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM declutter_cache WHERE cache_key = ?`, key); err != nil {
		return fmt.Errorf("delete cache row: %w", err)
	}
	return nil
}

// ExportJSON returns the raw persisted blob for key, or ErrNoCachedData
// when the key was never computed.
func (s *Store) ExportJSON(key string) ([]byte, error) {
	var blob string
	err := s.db.QueryRow(
		`SELECT result_json FROM declutter_cache WHERE cache_key = ?`, key,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoCachedData
	}
	if err != nil {
		return nil, fmt.Errorf("export cache row: %w", err)
	}
	return []byte(blob), nil
}
