package database

import "database/sql"

// LoadFingerprints returns the full dedup history, oldest first.
func (db *DB) LoadFingerprints() ([]Fingerprint, error) {
	rows, err := db.conn.Query(
		"SELECT fingerprint, source_id, title_norm, first_seen FROM fingerprints ORDER BY first_seen, fingerprint",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fps []Fingerprint
	for rows.Next() {
		var fp Fingerprint
		if err := rows.Scan(&fp.Fingerprint, &fp.SourceID, &fp.TitleNorm, &fp.FirstSeen); err != nil {
			return nil, err
		}
		fps = append(fps, fp)
	}
	return fps, rows.Err()
}

// HasFingerprint reports whether a fingerprint is already registered.
func (db *DB) HasFingerprint(fingerprint string) (bool, error) {
	var one int
	err := db.conn.QueryRow(
		"SELECT 1 FROM fingerprints WHERE fingerprint = ?", fingerprint,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
