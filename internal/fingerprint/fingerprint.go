package fingerprint

import (
	"fmt"
	"sync"

	"newscurator/internal/database"
)

// Store is the in-memory view of the dedup history. It is loaded once at
// startup and shared across runs: the deduplicator reads it, and only the
// persistence sink's commit path writes to it, after the durable write has
// succeeded.
type Store struct {
	mu   sync.RWMutex
	seen map[string]struct{}

	// sessionTitles holds the normalized titles committed by this process,
	// in commit order. The deduplicator fuzzy-matches new items against
	// these; history from earlier processes is matched by exact key only.
	sessionTitles []string
}

// Load reads the full fingerprint history from the database. A load failure
// means dedup state is unreliable and the caller must not start a run.
func Load(db *database.DB) (*Store, error) {
	fps, err := db.LoadFingerprints()
	if err != nil {
		return nil, fmt.Errorf("loading fingerprint store: %w", err)
	}

	seen := make(map[string]struct{}, len(fps))
	for _, fp := range fps {
		seen[fp.Fingerprint] = struct{}{}
	}
	return &Store{seen: seen}, nil
}

// NewEmpty returns a store with no history. Tests use this.
func NewEmpty() *Store {
	return &Store{seen: make(map[string]struct{})}
}

// Contains reports whether a fingerprint has been seen before.
func (s *Store) Contains(fp string) bool {
	if fp == "" {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.seen[fp]
	return ok
}

// Add registers a fingerprint and its normalized title after the durable
// write committed. Adding an already-present fingerprint is a no-op.
func (s *Store) Add(fp, titleNorm string) {
	if fp == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[fp]; ok {
		return
	}
	s.seen[fp] = struct{}{}
	if titleNorm != "" {
		s.sessionTitles = append(s.sessionTitles, titleNorm)
	}
}

// SessionTitles returns a copy of the normalized titles committed by this
// process so far.
func (s *Store) SessionTitles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.sessionTitles))
	copy(out, s.sessionTitles)
	return out
}

// Len returns the number of fingerprints held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
