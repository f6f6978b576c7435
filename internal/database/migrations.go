package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    fingerprint TEXT,
    source_id TEXT NOT NULL,
    url TEXT NOT NULL,
    title TEXT NOT NULL,
    summary TEXT,
    published_at TEXT,
    tags TEXT NOT NULL DEFAULT '[]',
    stored_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS fingerprints (
    fingerprint TEXT PRIMARY KEY,
    source_id TEXT,
    title_norm TEXT,
    first_seen TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    fetched INTEGER DEFAULT 0,
    duplicates INTEGER DEFAULT 0,
    unique_items INTEGER DEFAULT 0,
    accepted INTEGER DEFAULT 0,
    rejected INTEGER DEFAULT 0,
    failed INTEGER DEFAULT 0,
    stored INTEGER DEFAULT 0,
    source_errors INTEGER DEFAULT 0
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_items_fingerprint ON items(fingerprint) WHERE fingerprint != '';
CREATE INDEX IF NOT EXISTS idx_items_stored_at ON items(stored_at);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
