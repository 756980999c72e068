// Package prefs is the persistent key-value preferences store.
//
// It replaces the device's NVS preferences partition with a small SQLite
// database: string and boolean values by key, surviving process restarts
// and power cycles.
package prefs

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS prefs (
    key     TEXT PRIMARY KEY,
    value   TEXT NOT NULL
);
`

// Well-known preference keys.
const (
	KeyLogBase = "logBase"
	KeyPaired  = "paired"
	KeyCounter = "sessionCounter"
)

// DefaultLogBase is the built-in fallback for the log-file-name base. The
// stored value never ends up empty; reads fall back here.
const DefaultLogBase = "/premiere_log"

// Store is the SQLite-backed preferences store.
type Store struct {
	db *sql.DB
}

// Open opens or creates the preferences database at path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("prefs: create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("prefs: open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("prefs: apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetString returns the stored value for key, or def when the key is absent
// or the stored value is empty.
func (s *Store) GetString(key, def string) string {
	var value string
	err := s.db.QueryRow(`SELECT value FROM prefs WHERE key = ?`, key).Scan(&value)
	if err != nil || value == "" {
		return def
	}
	return value
}

// PutString stores value under key, replacing any previous value.
func (s *Store) PutString(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO prefs (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("prefs: put %s: %w", key, err)
	}
	return nil
}

// GetBool returns the stored boolean for key, or def when absent or
// unparsable.
func (s *Store) GetBool(key string, def bool) bool {
	var value string
	if err := s.db.QueryRow(`SELECT value FROM prefs WHERE key = ?`, key).Scan(&value); err != nil {
		return def
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return b
}

// PutBool stores a boolean under key.
func (s *Store) PutBool(key string, value bool) error {
	return s.PutString(key, strconv.FormatBool(value))
}

// NextCounter atomically increments and returns the named counter,
// starting at 1. Used by the counter-based session naming mode.
func (s *Store) NextCounter(key string) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("prefs: begin: %w", err)
	}
	defer tx.Rollback()

	var value string
	n := 0
	err = tx.QueryRow(`SELECT value FROM prefs WHERE key = ?`, key).Scan(&value)
	if err == nil {
		if n, err = strconv.Atoi(value); err != nil {
			n = 0
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("prefs: read counter %s: %w", key, err)
	}
	n++

	if _, err := tx.Exec(
		`INSERT INTO prefs (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, strconv.Itoa(n),
	); err != nil {
		return 0, fmt.Errorf("prefs: write counter %s: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("prefs: commit counter %s: %w", key, err)
	}
	return n, nil
}
