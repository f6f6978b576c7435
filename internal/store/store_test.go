package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"newscurator/internal/database"
	"newscurator/internal/fingerprint"
	"newscurator/internal/news"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testItem(title, fp string) *news.Item {
	return &news.Item{
		SourceID:    "feed-a",
		URL:         "https://example.com/" + fp,
		Title:       title,
		Summary:     "a summary",
		Fingerprint: fp,
		Tags:        []string{"research"},
		Status:      news.StatusAccepted,
	}
}

func TestPersistExactlyOnce(t *testing.T) {
	db := openTestDB(t)
	fps := fingerprint.NewEmpty()
	sink := NewSink(db, fps)

	item := testItem("First Article", "fp-1")
	r, err := sink.Persist([]*news.Item{item})
	if err != nil {
		t.Fatalf("persist: %v", err)
	}
	if r.Stored != 1 || r.Replayed != 0 {
		t.Errorf("expected 1 stored, got %+v", r)
	}
	if item.Status != news.StatusStored {
		t.Errorf("expected Stored status, got %s", item.Status)
	}
	if !fps.Contains("fp-1") {
		t.Error("fingerprint store not updated after commit")
	}

	// Same item again through the same sink: replay, no second row.
	r, err = sink.Persist([]*news.Item{testItem("First Article", "fp-1")})
	if err != nil {
		t.Fatalf("replay persist: %v", err)
	}
	if r.Stored != 0 || r.Replayed != 1 {
		t.Errorf("expected replay, got %+v", r)
	}

	items, err := db.GetAllItems()
	if err != nil {
		t.Fatalf("reading items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 row, got %d", len(items))
	}
}

func TestPersistReplayAcrossProcesses(t *testing.T) {
	db := openTestDB(t)

	first := NewSink(db, fingerprint.NewEmpty())
	if _, err := first.Persist([]*news.Item{testItem("Article", "fp-1")}); err != nil {
		t.Fatalf("persist: %v", err)
	}

	// A fresh in-memory store that has not loaded history yet. The database
	// unique index still prevents a second row.
	second := NewSink(db, fingerprint.NewEmpty())
	r, err := second.Persist([]*news.Item{testItem("Article", "fp-1")})
	if err != nil {
		t.Fatalf("replay persist: %v", err)
	}
	if r.Stored != 0 || r.Replayed != 1 {
		t.Errorf("expected replay, got %+v", r)
	}

	items, err := db.GetAllItems()
	if err != nil {
		t.Fatalf("reading items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 row, got %d", len(items))
	}
}

func TestPersistWithoutFingerprint(t *testing.T) {
	db := openTestDB(t)
	sink := NewSink(db, fingerprint.NewEmpty())

	item := testItem("Unkeyed", "")
	item.URL = ""
	r, err := sink.Persist([]*news.Item{item})
	if err != nil {
		t.Fatalf("persist: %v", err)
	}
	if r.Stored != 1 {
		t.Errorf("expected 1 stored, got %+v", r)
	}
}

func TestExportJSONL(t *testing.T) {
	db := openTestDB(t)
	sink := NewSink(db, fingerprint.NewEmpty())

	if _, err := sink.Persist([]*news.Item{
		testItem("First", "fp-1"),
		testItem("Second", "fp-2"),
	}); err != nil {
		t.Fatalf("persist: %v", err)
	}

	items, err := db.GetAllItems()
	if err != nil {
		t.Fatalf("reading items: %v", err)
	}

	var buf bytes.Buffer
	if err := ExportJSONL(&buf, items); err != nil {
		t.Fatalf("export: %v", err)
	}

	scanner := bufio.NewScanner(&buf)
	var lines int
	for scanner.Scan() {
		lines++
		var rec map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines, err)
		}
		for _, key := range []string{"source_id", "url", "title", "summary", "published_at", "tags", "fingerprint"} {
			if _, ok := rec[key]; !ok {
				t.Errorf("line %d missing key %q", lines, key)
			}
		}
	}
	if lines != 2 {
		t.Errorf("expected 2 lines, got %d", lines)
	}
}
