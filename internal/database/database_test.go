package database

import (
	"path/filepath"
	"testing"
	"time"

	"newscurator/internal/news"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(s string) *string { return &s }

func TestStoreItem(t *testing.T) {
	db := openTestDB(t)
	inserted, err := db.StoreItem(StoredItem{
		Fingerprint: "fp-1",
		SourceID:    "techcrunch",
		URL:         "https://example.com/article",
		Title:       "AI Breakthrough",
		Summary:     ptr("New developments..."),
		PublishedAt: ptr("2026-08-30T07:00:00Z"),
		Tags:        []string{"LLM", "AI Research"},
	}, "ai breakthrough")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !inserted {
		t.Error("expected item to be inserted")
	}

	item, err := db.GetItemByFingerprint("fp-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item == nil {
		t.Fatal("expected stored item")
	}
	if len(item.Tags) != 2 || item.Tags[0] != "LLM" {
		t.Errorf("expected tags [LLM, AI Research], got %v", item.Tags)
	}

	seen, err := db.HasFingerprint("fp-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !seen {
		t.Error("expected fingerprint to be registered")
	}
}

func TestStoreItemReplayIsNoOp(t *testing.T) {
	db := openTestDB(t)
	item := StoredItem{Fingerprint: "fp-dup", SourceID: "a", URL: "https://a.com", Title: "A"}

	inserted, _ := db.StoreItem(item, "a")
	if !inserted {
		t.Fatal("expected first store to insert")
	}

	inserted, err := db.StoreItem(item, "a")
	if err != nil {
		t.Fatalf("replay should succeed, got: %v", err)
	}
	if inserted {
		t.Error("expected replay to be a no-op")
	}

	items, _ := db.GetAllItems()
	if len(items) != 1 {
		t.Errorf("expected 1 record after replay, got %d", len(items))
	}
}

func TestStoreItemWithoutFingerprint(t *testing.T) {
	db := openTestDB(t)
	inserted, err := db.StoreItem(StoredItem{SourceID: "a", URL: "", Title: ""}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !inserted {
		t.Error("expected insert for fingerprint-less item")
	}

	fps, _ := db.LoadFingerprints()
	if len(fps) != 0 {
		t.Errorf("expected no fingerprint registered, got %d", len(fps))
	}
}

func TestLoadFingerprints(t *testing.T) {
	db := openTestDB(t)
	db.StoreItem(StoredItem{Fingerprint: "fp-a", SourceID: "s", URL: "https://a.com", Title: "A"}, "a")
	db.StoreItem(StoredItem{Fingerprint: "fp-b", SourceID: "s", URL: "https://b.com", Title: "B"}, "b")

	fps, err := db.LoadFingerprints()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fps) != 2 {
		t.Fatalf("expected 2 fingerprints, got %d", len(fps))
	}
	if fps[0].TitleNorm == nil || *fps[0].TitleNorm == "" {
		t.Error("expected normalized title to be recorded")
	}
}

func TestInsertRun(t *testing.T) {
	db := openTestDB(t)
	now := time.Now()
	err := db.InsertRun(&news.RunRecord{
		ID:         "run-1",
		StartedAt:  now.Add(-time.Minute),
		FinishedAt: now,
		Fetched:    10,
		Unique:     8,
		Duplicates: 2,
		Accepted:   5,
		Rejected:   3,
		Stored:     5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	runs, err := db.GetRecentRuns(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].Fetched != 10 || runs[0].Stored != 5 {
		t.Errorf("expected fetched=10 stored=5, got fetched=%d stored=%d", runs[0].Fetched, runs[0].Stored)
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.StoredItems != 0 {
		t.Errorf("expected 0 items, got %d", stats.StoredItems)
	}

	db.StoreItem(StoredItem{Fingerprint: "fp-1", SourceID: "s", URL: "https://a.com", Title: "A"}, "a")

	stats, _ = db.GetStats()
	if stats.StoredItems != 1 {
		t.Errorf("expected 1 item, got %d", stats.StoredItems)
	}
	if stats.Fingerprints != 1 {
		t.Errorf("expected 1 fingerprint, got %d", stats.Fingerprints)
	}
}
