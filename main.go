package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/medfocus/cmed-api/config"
	"github.com/medfocus/cmed-api/data"
	"github.com/medfocus/cmed-api/logging"
	"github.com/medfocus/cmed-api/refresher"
	"github.com/medfocus/cmed-api/scheduler"
	"github.com/medfocus/cmed-api/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logging.Debug("No .env file found, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := logging.InitLogger(cfg.LogDir, cfg.LogLevel); err != nil {
		logging.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}

	snapshotPath := filepath.Join(cfg.DataDir, refresher.SnapshotFileName)
	store := data.NewSnapshotStore(snapshotPath, cfg.CacheTTL)
	refr := refresher.New(cfg, store)

	sched := scheduler.NewScheduler(store, refr, snapshotPath)
	if err := sched.Start(); err != nil {
		logging.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}

	srv := server.NewServer(cfg, store, refr)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Shutdown error", "error", err)
		os.Exit(1)
	}
}
