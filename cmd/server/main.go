// Package main is the entry point for the bank mirror API server.
// It mirrors account balances and transactions from the comdirect REST API
// into a local cache, refreshes them on a schedule and serves them over a
// JSON REST API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/bankmirror/internal/config"
	"github.com/aristath/bankmirror/internal/di"
	"github.com/aristath/bankmirror/internal/server"
	"github.com/aristath/bankmirror/pkg/logger"
)

// main orchestrates startup:
//  1. Loads configuration from the environment (.env file optional)
//  2. Initializes logging
//  3. Wires all dependencies (database, client, services, jobs); persisted
//     settings override the environment here
//  4. Starts the scheduler and the HTTP server
//  5. Waits for SIGINT/SIGTERM and shuts down gracefully
func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Str("db_driver", cfg.Database.Driver).
		Str("upstream", cfg.Upstream.BaseURL).
		Msg("Starting bank mirror")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, err := di.Wire(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}

	if cfg.APIKey == "" {
		log.Warn().Msg("No API key configured; every /api request will be rejected")
	}

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Container: container,
	})

	container.Scheduler.Start()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("Shutting down")

	cancel()

	// In-flight requests get up to 10 seconds; the scheduler then waits for
	// running jobs before the database is closed.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if err := container.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close container")
	}

	log.Info().Msg("Server stopped")
}
