package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lyfesaver74/embywatch/internal/api"
	"github.com/lyfesaver74/embywatch/internal/config"
	"github.com/lyfesaver74/embywatch/internal/controllers"
	"github.com/lyfesaver74/embywatch/internal/emby"
	"github.com/lyfesaver74/embywatch/internal/identity"
	"github.com/lyfesaver74/embywatch/internal/models"
	"github.com/lyfesaver74/embywatch/internal/publish"
	"github.com/lyfesaver74/embywatch/internal/resolver"
	"github.com/lyfesaver74/embywatch/internal/scheduler"
	"github.com/lyfesaver74/embywatch/internal/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger
	logger := utils.NewLogger(cfg.LogLevel)
	logger.Info("Starting embywatch")
	logger.WithField("config_dir", filepath.Dir(cfg.StateFile)).Info("Configuration loaded")

	// 3. Open state store
	store, err := models.NewStore(cfg.StateFile)
	if err != nil {
		return fmt.Errorf("failed to open state store: %w", err)
	}
	defer store.Close()
	logger.Info("State store opened")

	// 4. Initialize Emby client and publisher
	client := emby.NewClient(cfg, logger)
	registry := publish.NewRegistry(logger)
	logger.WithField("host", cfg.EmbyHost).Info("Emby client initialized")

	// 5. Initialize controllers
	ids := identity.NewManager()
	programResolver := resolver.NewResolver(client, logger)
	sessionCtrl := controllers.NewSessionController(client, programResolver, ids, registry, store, cfg, logger)
	recordingsCtrl := controllers.NewRecordingsController(client, registry, store, logger)
	serverStatsCtrl := controllers.NewServerStatsController(client, registry, store, logger)
	libraryCtrl := controllers.NewLibraryController(client, registry, store, cfg, logger)
	logger.Info("Controllers initialized")

	// 6. Initialize scheduler, one schedule per enabled category
	sched := scheduler.NewScheduler(time.Duration(cfg.PollTimeoutSeconds)*time.Second, logger)
	if cfg.SessionsEnabled() {
		sched.Add(models.CategorySessions, time.Duration(cfg.SessionsPollSeconds)*time.Second, sessionCtrl)
	}
	if cfg.EnableRecordings {
		sched.Add(models.CategoryRecordings, time.Duration(cfg.RecordingsPollSeconds)*time.Second, recordingsCtrl)
	}
	if cfg.EnableServerStats {
		sched.Add(models.CategoryServerStats, time.Duration(cfg.ServerStatsPollSeconds)*time.Second, serverStatsCtrl)
	}
	if cfg.LibraryEnabled() {
		sched.Add(models.CategoryLibrary, time.Duration(cfg.LibraryPollSeconds)*time.Second, libraryCtrl)
	}
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// 7. Initialize HTTP server
	server := api.NewServer(cfg, registry, sessionCtrl, sched, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	// 8. Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("embywatch is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
	}

	logger.Info("embywatch stopped")
	return nil
}
