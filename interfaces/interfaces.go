// Package interfaces defines the contracts between the snapshot
// store, the refresh pipeline and the HTTP layer, so each side can be
// tested with substitutes.
package interfaces

import (
	"time"

	"github.com/medfocus/cmed-api/cmedparser/entities"
)

// SnapshotStore is the read-through cache over the persisted snapshot
// file. Get never touches the network; a stale or missing in-memory
// copy only triggers a disk reload.
type SnapshotStore interface {
	Get() *entities.Snapshot
	Invalidate()
	LastLoaded() time.Time
	IsUpdating() bool

	// Single-flight guard around refresh runs.
	BeginUpdate() bool
	EndUpdate()
}

// Refresher runs one full fetch-parse-persist cycle.
type Refresher interface {
	Run() entities.RefreshResult
}

// Scheduler manages the recurring refresh job.
type Scheduler interface {
	Start() error
	Stop()
}
