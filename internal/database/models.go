package database

// StoredItem is one persisted record in the append-only item sequence.
type StoredItem struct {
	ID          int64
	Fingerprint string
	SourceID    string
	URL         string
	Title       string
	Summary     *string
	PublishedAt *string
	Tags        []string
	StoredAt    *string
}

// Fingerprint is one entry in the dedup history.
type Fingerprint struct {
	Fingerprint string
	SourceID    *string
	TitleNorm   *string
	FirstSeen   *string
}

// Stats contains aggregate database statistics.
type Stats struct {
	StoredItems  int
	Fingerprints int
	Runs         int
	LastRun      string
}
