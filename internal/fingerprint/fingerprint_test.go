package fingerprint

import (
	"path/filepath"
	"testing"

	"newscurator/internal/database"
)

func TestAddAndContains(t *testing.T) {
	s := NewEmpty()

	if s.Contains("fp-1") {
		t.Error("empty store should not contain fp-1")
	}
	s.Add("fp-1", "some title")
	if !s.Contains("fp-1") {
		t.Error("store should contain fp-1 after Add")
	}
	if s.Len() != 1 {
		t.Errorf("len = %d, want 1", s.Len())
	}
}

func TestAddIsIdempotent(t *testing.T) {
	s := NewEmpty()
	s.Add("fp-1", "some title")
	s.Add("fp-1", "some title")

	if s.Len() != 1 {
		t.Errorf("len = %d, want 1", s.Len())
	}
	if titles := s.SessionTitles(); len(titles) != 1 {
		t.Errorf("session titles = %v, want one entry", titles)
	}
}

func TestEmptyFingerprintIgnored(t *testing.T) {
	s := NewEmpty()
	s.Add("", "title")

	if s.Len() != 0 {
		t.Errorf("len = %d, want 0", s.Len())
	}
	if s.Contains("") {
		t.Error("empty fingerprint should never match")
	}
}

func TestSessionTitlesSkipsEmpty(t *testing.T) {
	s := NewEmpty()
	s.Add("fp-1", "")
	s.Add("fp-2", "a title")

	titles := s.SessionTitles()
	if len(titles) != 1 || titles[0] != "a title" {
		t.Errorf("session titles = %v, want [a title]", titles)
	}
}

func TestLoadFromDatabase(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.StoreItem(database.StoredItem{
		Fingerprint: "fp-1",
		SourceID:    "feed-a",
		URL:         "https://example.com/a",
		Title:       "Stored Earlier",
	}, "stored earlier"); err != nil {
		t.Fatalf("storing item: %v", err)
	}

	s, err := Load(db)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !s.Contains("fp-1") {
		t.Error("loaded store should contain fp-1")
	}

	// History is matched by exact key only; titles from prior processes are
	// not session titles.
	if titles := s.SessionTitles(); len(titles) != 0 {
		t.Errorf("session titles = %v, want none after load", titles)
	}
}
