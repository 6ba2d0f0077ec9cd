// Package data holds the in-memory snapshot cache. The cached copy is
// swapped atomically so readers never block on a refresh and never see
// a half-written snapshot.
package data

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/medfocus/cmed-api/cmedparser/entities"
	"github.com/medfocus/cmed-api/interfaces"
	"github.com/medfocus/cmed-api/logging"
)

// Compile-time check to ensure SnapshotStore implements the contract
var _ interfaces.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore is a time-to-live read-through cache over the
// persisted snapshot file. A cache miss reads the file from disk; it
// never triggers a network fetch.
type SnapshotStore struct {
	path     string
	ttl      time.Duration
	now      func() time.Time             // substitutable clock for tests
	readFile func(string) ([]byte, error) // substitutable disk read for tests
	snapshot atomic.Value                 // *entities.Snapshot
	loadedAt atomic.Value                 // time.Time
	gen      atomic.Int64                 // bumped by Invalidate
	loadMu   sync.Mutex
	updating atomic.Bool
}

// NewSnapshotStore creates a store over the snapshot file at path.
func NewSnapshotStore(path string, ttl time.Duration) *SnapshotStore {
	s := &SnapshotStore{
		path:     path,
		ttl:      ttl,
		now:      time.Now,
		readFile: os.ReadFile,
	}
	s.loadedAt.Store(time.Time{})
	return s
}

// Path returns the snapshot file location the store reloads from.
func (s *SnapshotStore) Path() string {
	return s.path
}

// Get returns the current snapshot, reloading from disk when the
// cached copy is missing or older than the freshness window. When the
// reload fails the previous copy keeps being served; with no previous
// copy an empty snapshot is returned so readers never fail.
func (s *SnapshotStore) Get() *entities.Snapshot {
	if snap := s.freshSnapshot(); snap != nil {
		return snap
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	// Another caller may have reloaded while this one waited.
	if snap := s.freshSnapshot(); snap != nil {
		return snap
	}

	gen := s.gen.Load()
	snap, err := s.loadFromDisk()
	if err != nil {
		logging.Error("Failed to load snapshot", "path", s.path, "error", err)
		if prev := s.currentSnapshot(); prev != nil {
			return prev
		}
		return emptySnapshot()
	}

	s.snapshot.Store(snap)
	// An invalidation that arrived while the file was being read may
	// refer to a newer file than the one just loaded. Publishing a
	// load time then would pin the stale copy for a full TTL, so the
	// copy is served but left marked stale.
	if s.gen.Load() == gen {
		s.loadedAt.Store(s.now())
	}
	return snap
}

// Invalidate forces the next Get to reload from disk regardless of
// elapsed time. Called by the refresher right after the new snapshot
// file is durably written.
func (s *SnapshotStore) Invalidate() {
	s.gen.Add(1)
	s.loadedAt.Store(time.Time{})
}

// LastLoaded returns when the in-memory copy was loaded from disk.
func (s *SnapshotStore) LastLoaded() time.Time {
	if v := s.loadedAt.Load(); v != nil {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}
	return time.Time{}
}

// IsUpdating returns true while a refresh run is in progress.
func (s *SnapshotStore) IsUpdating() bool {
	return s.updating.Load()
}

// BeginUpdate marks the start of a refresh run. It returns false when
// another run already holds the guard.
func (s *SnapshotStore) BeginUpdate() bool {
	return s.updating.CompareAndSwap(false, true)
}

// EndUpdate releases the refresh guard.
func (s *SnapshotStore) EndUpdate() {
	s.updating.Store(false)
}

func (s *SnapshotStore) freshSnapshot() *entities.Snapshot {
	loadedAt, _ := s.loadedAt.Load().(time.Time)
	if loadedAt.IsZero() || s.now().Sub(loadedAt) >= s.ttl {
		return nil
	}
	return s.currentSnapshot()
}

func (s *SnapshotStore) currentSnapshot() *entities.Snapshot {
	if v := s.snapshot.Load(); v != nil {
		if snap, ok := v.(*entities.Snapshot); ok {
			return snap
		}
	}
	return nil
}

func (s *SnapshotStore) loadFromDisk() (*entities.Snapshot, error) {
	raw, err := s.readFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var snap entities.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot file: %w", err)
	}

	logging.Info("Snapshot loaded", "path", s.path, "substancias", len(snap.Medicamentos))
	return &snap, nil
}

func emptySnapshot() *entities.Snapshot {
	return &entities.Snapshot{
		Categories:   []string{},
		Medicamentos: []entities.Medicamento{},
	}
}
