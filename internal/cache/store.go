// Package cache persists the latest snapshot to a single JSON file with a
// time-to-live window.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"marketdash/internal/models"
)

// Store reads and writes one snapshot file. Staleness is computed lazily at
// read time; there is no eviction beyond overwrite.
type Store struct {
	path string
	ttl  time.Duration
	now  func() time.Time
}

// NewStore creates a store for the given file path and TTL.
func NewStore(path string, ttl time.Duration) *Store {
	return NewStoreWithClock(path, ttl, time.Now)
}

// NewStoreWithClock creates a store with an injected clock, for tests.
func NewStoreWithClock(path string, ttl time.Duration, now func() time.Time) *Store {
	return &Store{path: path, ttl: ttl, now: now}
}

// Path returns the cache file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the cached snapshot, or nil when there is nothing usable: no
// file, an unparseable file, an error snapshot, a missing timestamp, or a
// snapshot older than the TTL. Every failure mode is identical to absent;
// none is surfaced.
func (s *Store) Load() *models.Snapshot {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}

	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil
	}

	if snap.Failed() || snap.LastUpdated.IsZero() {
		return nil
	}

	if s.now().Sub(snap.LastUpdated) >= s.ttl {
		return nil
	}

	return &snap
}

// Save serializes the snapshot to the cache file, fully overwriting prior
// content. The write is not atomic; a torn file reads back as absent.
func (s *Store) Save(snap *models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}
