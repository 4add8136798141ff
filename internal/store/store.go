// Package store provides SQLite persistence for cached story listings.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex // Protects all database operations
}

// Open creates a new Store with the given database path.
// Creates tables if they don't exist.
// Uses WAL mode for better concurrent read performance (file-based DBs only).
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so all connections in the pool see the same database
		connStr = "file::memory:?cache=shared"
	} else if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

// OpenOrReset opens dbPath, and if the file is unreadable as a database it
// is moved aside to dbPath+".corrupt" and a fresh store is created in its
// place. The second return value reports whether a reset happened.
func OpenOrReset(dbPath string) (*Store, bool, error) {
	s, err := Open(dbPath)
	if err == nil {
		return s, false, nil
	}
	if dbPath == ":memory:" {
		return nil, false, err
	}
	if _, statErr := os.Stat(dbPath); statErr != nil {
		return nil, false, err
	}

	if renameErr := os.Rename(dbPath, dbPath+".corrupt"); renameErr != nil {
		return nil, false, fmt.Errorf("%w (moving corrupt cache aside: %v)", err, renameErr)
	}
	// WAL side files belong to the corrupt database.
	os.Remove(dbPath + "-wal")
	os.Remove(dbPath + "-shm")

	s, err = Open(dbPath)
	if err != nil {
		return nil, true, err
	}
	return s, true, nil
}

// createTables creates the required tables if they don't exist.
// One row per category: the primary key is what keeps a write to one
// category from touching any other.
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS categories (
		category TEXT PRIMARY KEY,
		stories TEXT NOT NULL,
		fetched_at DATETIME NOT NULL
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
// Thread-safe: acquires write lock to prevent closing during in-flight operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Load returns the entry for one category. The bool is false when no entry
// has been stored yet. A row whose story payload cannot be decoded is
// reported as an error.
// Thread-safe: acquires read lock.
func (s *Store) Load(cat Category) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		payload   string
		fetchedAt time.Time
	)
	err := s.db.QueryRow(
		"SELECT stories, fetched_at FROM categories WHERE category = ?",
		string(cat),
	).Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("load %s: %w", cat, err)
	}

	stories, err := decodeStories(payload)
	if err != nil {
		return Entry{}, false, fmt.Errorf("decode %s: %w", cat, err)
	}
	return Entry{Category: cat, Stories: stories, FetchedAt: fetchedAt}, true, nil
}

// LoadAll reads every stored entry. Rows that fail to decode are left out
// of the map and reported together in the returned error, so callers can
// still use the entries that did load.
// Thread-safe: acquires read lock.
func (s *Store) LoadAll() (map[Category]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT category, stories, fetched_at FROM categories")
	if err != nil {
		return map[Category]Entry{}, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	entries := make(map[Category]Entry)
	var errs []error
	for rows.Next() {
		var (
			name      string
			payload   string
			fetchedAt time.Time
		)
		if err := rows.Scan(&name, &payload, &fetchedAt); err != nil {
			errs = append(errs, err)
			continue
		}
		stories, err := decodeStories(payload)
		if err != nil {
			errs = append(errs, fmt.Errorf("decode %s: %w", name, err))
			continue
		}
		cat := Category(name)
		entries[cat] = Entry{Category: cat, Stories: stories, FetchedAt: fetchedAt}
	}
	if err := rows.Err(); err != nil {
		errs = append(errs, err)
	}

	return entries, errors.Join(errs...)
}

// Put replaces the entry for e.Category wholesale. Other categories' rows
// are left untouched.
// Thread-safe: acquires write lock.
func (s *Store) Put(e Entry) error {
	payload, err := encodeStories(e.Stories)
	if err != nil {
		return fmt.Errorf("encode %s: %w", e.Category, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO categories (category, stories, fetched_at)
		VALUES (?, ?, ?)
		ON CONFLICT(category) DO UPDATE SET
			stories = excluded.stories,
			fetched_at = excluded.fetched_at
	`, string(e.Category), payload, e.FetchedAt)
	if err != nil {
		return fmt.Errorf("put %s: %w", e.Category, err)
	}

	return tx.Commit()
}

// Delete removes a category's entry. Deleting an absent entry is not an error.
// Thread-safe: acquires write lock.
func (s *Store) Delete(cat Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM categories WHERE category = ?", string(cat))
	return err
}

func encodeStories(stories []Story) (string, error) {
	if stories == nil {
		stories = []Story{}
	}
	data, err := json.Marshal(stories)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeStories(payload string) ([]Story, error) {
	var stories []Story
	if err := json.Unmarshal([]byte(payload), &stories); err != nil {
		return nil, err
	}
	return stories, nil
}
