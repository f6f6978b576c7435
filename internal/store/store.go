package store

import (
	"fmt"
	"log"
	"time"

	"newscurator/internal/database"
	"newscurator/internal/dedup"
	"newscurator/internal/fingerprint"
	"newscurator/internal/news"
)

// Sink writes accepted items to the database and keeps the in-memory
// fingerprint store in step with what has been durably committed.
type Sink struct {
	db    *database.DB
	store *fingerprint.Store
}

// Result summarizes one persistence pass.
type Result struct {
	Stored   int
	Replayed int
}

// NewSink creates a persistence sink.
func NewSink(db *database.DB, store *fingerprint.Store) *Sink {
	return &Sink{db: db, store: store}
}

// Persist writes each accepted item exactly once. An item whose fingerprint
// is already committed is a replay and succeeds without writing. A write
// failure aborts the pass: remaining items are left untouched so the next
// run can pick them up.
func (s *Sink) Persist(items []*news.Item) (*Result, error) {
	r := &Result{}

	for _, item := range items {
		if item.Fingerprint != "" && s.store.Contains(item.Fingerprint) {
			item.Status = news.StatusStored
			r.Replayed++
			continue
		}

		inserted, err := s.db.StoreItem(toStoredItem(item), dedup.NormalizeTitle(item.Title))
		if err != nil {
			return r, fmt.Errorf("storing %q: %w", item.Title, err)
		}
		if !inserted {
			// Committed by an earlier process; the in-memory store just
			// hadn't caught up.
			r.Replayed++
		} else {
			r.Stored++
		}

		item.Status = news.StatusStored
		s.store.Add(item.Fingerprint, dedup.NormalizeTitle(item.Title))
	}

	if r.Replayed > 0 {
		log.Printf("persisted %d items (%d replayed)", r.Stored, r.Replayed)
	} else {
		log.Printf("persisted %d items", r.Stored)
	}
	return r, nil
}

func toStoredItem(item *news.Item) database.StoredItem {
	stored := database.StoredItem{
		Fingerprint: item.Fingerprint,
		SourceID:    item.SourceID,
		URL:         item.URL,
		Title:       item.Title,
		Tags:        item.Tags,
	}
	if item.Summary != "" {
		summary := item.Summary
		stored.Summary = &summary
	}
	if item.PublishedAt != nil {
		published := item.PublishedAt.UTC().Format(time.RFC3339)
		stored.PublishedAt = &published
	}
	return stored
}
