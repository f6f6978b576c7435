package store

import (
	"encoding/json"
	"fmt"
	"io"

	"newscurator/internal/database"
)

type exportRecord struct {
	SourceID    string   `json:"source_id"`
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Summary     *string  `json:"summary"`
	PublishedAt *string  `json:"published_at"`
	Tags        []string `json:"tags"`
	Fingerprint string   `json:"fingerprint"`
	StoredAt    *string  `json:"stored_at"`
}

// ExportJSONL writes stored items to w as one JSON object per line, in
// insertion order.
func ExportJSONL(w io.Writer, items []database.StoredItem) error {
	enc := json.NewEncoder(w)
	for _, item := range items {
		rec := exportRecord{
			SourceID:    item.SourceID,
			URL:         item.URL,
			Title:       item.Title,
			Summary:     item.Summary,
			PublishedAt: item.PublishedAt,
			Tags:        item.Tags,
			Fingerprint: item.Fingerprint,
			StoredAt:    item.StoredAt,
		}
		if rec.Tags == nil {
			rec.Tags = []string{}
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encoding %q: %w", item.Title, err)
		}
	}
	return nil
}
