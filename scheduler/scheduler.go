// Package scheduler drives the recurring dataset refresh and monitors
// snapshot staleness.
package scheduler

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/medfocus/cmed-api/interfaces"
	"github.com/medfocus/cmed-api/logging"
)

// Compile-time check to ensure Scheduler implements the contract
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler runs the daily refresh job with injected dependencies.
type Scheduler struct {
	store        interfaces.SnapshotStore
	refresher    interfaces.Refresher
	snapshotPath string
	scheduler    *gocron.Scheduler
	stopMonitor  chan struct{}
}

// NewScheduler creates a scheduler instance with injected dependencies.
func NewScheduler(store interfaces.SnapshotStore, refresher interfaces.Refresher, snapshotPath string) *Scheduler {
	return &Scheduler{
		store:        store,
		refresher:    refresher,
		snapshotPath: snapshotPath,
		scheduler:    gocron.NewScheduler(time.Local),
		stopMonitor:  make(chan struct{}),
	}
}

// Start bootstraps the dataset when no snapshot file exists yet and
// schedules the daily refresh. The store reloads the persisted file
// lazily, so a present snapshot needs no work at boot.
func (s *Scheduler) Start() error {
	if _, err := os.Stat(s.snapshotPath); errors.Is(err, os.ErrNotExist) {
		logging.Info("No snapshot file found, running initial refresh", "path", s.snapshotPath)
		if result := s.refresher.Run(); !result.Success {
			return fmt.Errorf("initial data load failed: %s", result.Message)
		}
	}

	// ANVISA publishes updates daily; refresh in the quiet hours.
	_, err := s.scheduler.Every(1).Days().At("03:00").Do(func() {
		if result := s.refresher.Run(); !result.Success {
			logging.Error("Scheduled refresh failed", "message", result.Message)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}

	s.scheduler.StartAsync()
	s.startStalenessMonitoring()

	return nil
}

// Stop stops the scheduler and the staleness monitor.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	close(s.stopMonitor)
}

// startStalenessMonitoring warns hourly when the persisted snapshot
// has not been replaced for over 48 hours, which means scheduled
// refreshes keep failing.
func (s *Scheduler) startStalenessMonitoring() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopMonitor:
				return
			case <-ticker.C:
				info, err := os.Stat(s.snapshotPath)
				if err != nil {
					logging.Warn("Snapshot file is missing", "path", s.snapshotPath, "error", err)
					continue
				}
				if age := time.Since(info.ModTime()); age > 48*time.Hour {
					logging.Warn("Snapshot hasn't been refreshed in over 48 hours", "age", age.String())
				}
			}
		}
	}()
}
