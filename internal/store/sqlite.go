// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package store

import (
	"database/sql"
	"sync"
)

// SchemaVersion is the current store schema version.
const SchemaVersion = "1"

// SQLite is a SQLite-backed Store, persisting every version of a
// definition append-only so GetHistory can show how a name's value
// evolved across a session.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLite creates a new SQLite store at the given path, backed by
// modernc.org/sqlite's pure-Go, cgo-free driver.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS definitions (
			name    TEXT    NOT NULL,
			version INTEGER NOT NULL,
			value   TEXT    NOT NULL,
			ts      TEXT    NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%f', 'now')),
			PRIMARY KEY (name, version)
		);
		CREATE INDEX IF NOT EXISTS idx_def_latest ON definitions(name, version DESC);
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLite{db: db}
	if err := s.setMetadataUnlocked("schema_version", SchemaVersion); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Get retrieves the latest version of a definition by name.
func (s *SQLite) Get(name string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value string
	err := s.db.QueryRow(
		"SELECT value FROM definitions WHERE name = ? ORDER BY version DESC LIMIT 1", name,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Put appends a new version of a definition (if the printed value changed).
func (s *SQLite) Put(name, printed string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latestValue string
	var latestVersion int
	err := s.db.QueryRow(
		"SELECT version, value FROM definitions WHERE name = ? ORDER BY version DESC LIMIT 1", name,
	).Scan(&latestVersion, &latestValue)
	if err == sql.ErrNoRows {
		_, err = s.db.Exec(
			"INSERT INTO definitions (name, version, value) VALUES (?, 1, ?)", name, printed,
		)
		return err
	}
	if err != nil {
		return err
	}
	if latestValue == printed {
		return nil
	}
	_, err = s.db.Exec(
		"INSERT INTO definitions (name, version, value) VALUES (?, ?, ?)",
		name, latestVersion+1, printed,
	)
	return err
}

// Delete removes all versions of a definition by name.
func (s *SQLite) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("DELETE FROM definitions WHERE name = ?", name)
	return err
}

// Names returns every persisted definition name.
func (s *SQLite) Names() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query("SELECT DISTINCT name FROM definitions")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// GetHistory returns version entries for a name, newest first. If limit <=
// 0, all versions are returned.
func (s *SQLite) GetHistory(name string, limit int) ([]VersionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.Query(
			"SELECT version, value, ts FROM definitions WHERE name = ? ORDER BY version DESC LIMIT ?",
			name, limit,
		)
	} else {
		rows, err = s.db.Query(
			"SELECT version, value, ts FROM definitions WHERE name = ? ORDER BY version DESC",
			name,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []VersionEntry
	for rows.Next() {
		var ve VersionEntry
		if err := rows.Scan(&ve.Version, &ve.Value, &ve.Ts); err != nil {
			return nil, err
		}
		entries = append(entries, ve)
	}
	return entries, rows.Err()
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// GetMetadata retrieves a metadata value by key.
func (s *SQLite) GetMetadata(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getMetadataUnlocked(key)
}

func (s *SQLite) getMetadataUnlocked(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetMetadata stores a metadata value by key.
func (s *SQLite) SetMetadata(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setMetadataUnlocked(key, value)
}

func (s *SQLite) setMetadataUnlocked(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}
