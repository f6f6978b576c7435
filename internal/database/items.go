package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// StoreItem durably appends an item record and registers its fingerprint in
// one transaction. titleNorm is the normalized title recorded alongside the
// fingerprint for fuzzy matching in later runs. Returns true if a new record
// was written, false if the fingerprint was already present (replay; no-op
// success).
func (db *DB) StoreItem(item StoredItem, titleNorm string) (bool, error) {
	tags, err := json.Marshal(item.Tags)
	if err != nil {
		return false, fmt.Errorf("encoding tags: %w", err)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return false, fmt.Errorf("begin store: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT OR IGNORE INTO items (fingerprint, source_id, url, title, summary, published_at, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.Fingerprint, item.SourceID, item.URL, item.Title, item.Summary, item.PublishedAt, string(tags),
	)
	if err != nil {
		return false, fmt.Errorf("inserting item: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking insert: %w", err)
	}

	if item.Fingerprint != "" {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO fingerprints (fingerprint, source_id, title_norm)
			VALUES (?, ?, ?)`,
			item.Fingerprint, item.SourceID, titleNorm,
		); err != nil {
			return false, fmt.Errorf("registering fingerprint: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit store: %w", err)
	}
	return inserted > 0, nil
}

// GetRecentItems returns the most recently stored items, newest first.
func (db *DB) GetRecentItems(limit int) ([]StoredItem, error) {
	rows, err := db.conn.Query(
		`SELECT id, fingerprint, source_id, url, title, summary, published_at, tags, stored_at
		FROM items ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// GetAllItems returns every stored item in insertion order.
func (db *DB) GetAllItems() ([]StoredItem, error) {
	rows, err := db.conn.Query(
		`SELECT id, fingerprint, source_id, url, title, summary, published_at, tags, stored_at
		FROM items ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// GetItemByFingerprint returns the stored item for a fingerprint, or nil.
func (db *DB) GetItemByFingerprint(fingerprint string) (*StoredItem, error) {
	row := db.conn.QueryRow(
		`SELECT id, fingerprint, source_id, url, title, summary, published_at, tags, stored_at
		FROM items WHERE fingerprint = ?`, fingerprint,
	)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// GetStats returns aggregate counts for the status command.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM items").Scan(&s.StoredItems); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM fingerprints").Scan(&s.Fingerprints); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM runs").Scan(&s.Runs); err != nil {
		return nil, err
	}
	var last sql.NullString
	if err := db.conn.QueryRow("SELECT MAX(started_at) FROM runs").Scan(&last); err != nil {
		return nil, err
	}
	s.LastRun = last.String
	return s, nil
}

func scanItems(rows *sql.Rows) ([]StoredItem, error) {
	var items []StoredItem
	for rows.Next() {
		var item StoredItem
		var tags string
		if err := rows.Scan(&item.ID, &item.Fingerprint, &item.SourceID, &item.URL,
			&item.Title, &item.Summary, &item.PublishedAt, &tags, &item.StoredAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tags), &item.Tags); err != nil {
			item.Tags = nil
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanItem(row *sql.Row) (*StoredItem, error) {
	var item StoredItem
	var tags string
	if err := row.Scan(&item.ID, &item.Fingerprint, &item.SourceID, &item.URL,
		&item.Title, &item.Summary, &item.PublishedAt, &tags, &item.StoredAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &item.Tags); err != nil {
		item.Tags = nil
	}
	return &item, nil
}
