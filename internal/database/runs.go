package database

import (
	"time"

	"newscurator/internal/news"
)

// InsertRun records the counters for a completed pipeline run.
func (db *DB) InsertRun(r *news.RunRecord) error {
	_, err := db.conn.Exec(
		`INSERT INTO runs (id, started_at, finished_at, fetched, duplicates, unique_items,
			accepted, rejected, failed, stored, source_errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.StartedAt.UTC().Format(time.RFC3339),
		r.FinishedAt.UTC().Format(time.RFC3339),
		r.Fetched, r.Duplicates, r.Unique,
		r.Accepted, r.Rejected, r.Failed, r.Stored, r.SourceErrors,
	)
	return err
}

// GetRecentRuns returns the most recent run records, newest first.
func (db *DB) GetRecentRuns(limit int) ([]news.RunRecord, error) {
	rows, err := db.conn.Query(
		`SELECT id, started_at, finished_at, fetched, duplicates, unique_items,
			accepted, rejected, failed, stored, source_errors
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []news.RunRecord
	for rows.Next() {
		var r news.RunRecord
		var started, finished string
		if err := rows.Scan(&r.ID, &started, &finished, &r.Fetched, &r.Duplicates,
			&r.Unique, &r.Accepted, &r.Rejected, &r.Failed, &r.Stored, &r.SourceErrors); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
