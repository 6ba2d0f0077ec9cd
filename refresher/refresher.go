// Package refresher owns the write path of the dataset: download the
// price table, parse and classify it, persist the snapshot atomically
// and invalidate the in-memory cache. It is the only component that
// writes; a failed run leaves the previous snapshot untouched.
package refresher

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/medfocus/cmed-api/cmedparser"
	"github.com/medfocus/cmed-api/cmedparser/entities"
	"github.com/medfocus/cmed-api/config"
	"github.com/medfocus/cmed-api/interfaces"
	"github.com/medfocus/cmed-api/logging"
	"github.com/medfocus/cmed-api/metrics"
	"github.com/medfocus/cmed-api/validation"
)

// SnapshotFileName is the persisted dataset the store reloads from.
const SnapshotFileName = "cmed_medicines.json"

// Compile-time check to ensure Refresher implements the contract
var _ interfaces.Refresher = (*Refresher)(nil)

// Refresher runs the fetch → parse → persist → invalidate cycle.
type Refresher struct {
	sourceURL string
	dataDir   string
	timeout   time.Duration
	store     interfaces.SnapshotStore
}

// New creates a refresher bound to the configured source and data
// directory.
func New(cfg *config.Config, store interfaces.SnapshotStore) *Refresher {
	return &Refresher{
		sourceURL: cfg.SourceURL,
		dataDir:   cfg.DataDir,
		timeout:   cfg.FetchTimeout,
		store:     store,
	}
}

// SnapshotPath returns where the active snapshot file lives.
func (r *Refresher) SnapshotPath() string {
	return filepath.Join(r.dataDir, SnapshotFileName)
}

// Run executes one full refresh. Overlapping runs are collapsed: the
// second trigger reports failure instead of racing on the staging
// file.
func (r *Refresher) Run() entities.RefreshResult {
	if !r.store.BeginUpdate() {
		logging.Info("Refresh already in progress, skipping...")
		return entities.RefreshResult{Success: false, Message: "refresh already in progress"}
	}
	defer r.store.EndUpdate()

	logging.Info("Starting CMED refresh", "url", r.sourceURL)
	start := time.Now()

	result := r.refresh()

	elapsed := time.Since(start)
	if result.Success {
		metrics.RefreshTotal.WithLabelValues("success").Inc()
		metrics.RefreshDuration.Observe(elapsed.Seconds())
		metrics.SubstanciasTotal.Set(float64(result.Substancias))
		logging.Info("CMED refresh completed",
			"duration", elapsed.String(),
			"substancias", result.Substancias)
	} else {
		metrics.RefreshTotal.WithLabelValues("error").Inc()
		logging.Error("CMED refresh failed", "message", result.Message, "duration", elapsed.String())
	}

	return result
}

func (r *Refresher) refresh() entities.RefreshResult {
	if err := os.MkdirAll(r.dataDir, 0750); err != nil {
		return failure(fmt.Errorf("failed to create data directory: %w", err))
	}

	stagingPath := filepath.Join(r.dataDir, cmedparser.SourceFileName)
	if err := cmedparser.DownloadFile(r.sourceURL, stagingPath, r.timeout); err != nil {
		return failure(err)
	}

	snap, err := cmedparser.ParseSnapshot(stagingPath, r.sourceURL)
	if err != nil {
		return failure(err)
	}

	report := validation.ReportDataQuality(snap.Medicamentos)
	if report.SemPrecoReferencia > 0 {
		logging.Warn("Substances whose reference has no price", "count", report.SemPrecoReferencia)
	}
	if report.SemAlternativas > 0 {
		logging.Warn("Substances without generics or similars", "count", report.SemAlternativas)
	}
	if len(report.SubstanciasDuplicadas) > 0 {
		logging.Warn("Duplicate substances detected",
			"count", len(report.SubstanciasDuplicadas),
			"substancias", report.SubstanciasDuplicadas)
	}

	if err := r.writeSnapshot(snap); err != nil {
		return failure(err)
	}

	// Only after the file is durably in place does the cache drop its
	// copy; readers keep the old snapshot until this point.
	r.store.Invalidate()

	return entities.RefreshResult{
		Success:     true,
		Message:     fmt.Sprintf("updated %d substances from ANVISA/CMED", len(snap.Medicamentos)),
		Substancias: len(snap.Medicamentos),
	}
}

// writeSnapshot serializes the snapshot next to its final location and
// promotes it with a rename, so readers never observe a partial file.
func (r *Refresher) writeSnapshot(snap *entities.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	finalPath := r.SnapshotPath()
	tmpPath := finalPath + ".tmp"

	if err := os.WriteFile(tmpPath, raw, 0600); err != nil {
		return fmt.Errorf("failed to write snapshot temp file: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("failed to promote snapshot file: %w", err)
	}

	logging.Debug("Snapshot written", "path", finalPath, "bytes", len(raw))
	return nil
}

func failure(err error) entities.RefreshResult {
	return entities.RefreshResult{Success: false, Message: err.Error()}
}
