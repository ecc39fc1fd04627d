/*
Package main is the entry point for the eventlive realtime gateway.

It is responsible for loading configuration, initializing the global logging system,
connecting the persistence collaborators (PostgreSQL and the optional S3 snapshot
archive), starting the realtime hub, setting up the HTTP server, and gracefully
handling operating system interrupt signals (SIGINT, SIGTERM) to ensure a smooth
server shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventlive/internal/app/realtime"
	"eventlive/internal/app/storage"
	"eventlive/internal/app/store"
	"eventlive/internal/configs"
	"eventlive/internal/handler"
	"eventlive/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Bool("archive_enabled", cfg.ArchiveEnabled()).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect the persistence collaborator and run migrations
	pool, err := store.NewPool(cfg.DatabaseDSN)
	if err != nil {
		logx.Fatal(err, "Failed to connect to database")
	}
	defer pool.Close()

	pgStore := store.NewPGStore(pool)

	// The snapshot archive is optional; without it snapshots only go to Postgres.
	var archive storage.ArchiveService
	if cfg.ArchiveEnabled() {
		archive, err = storage.NewArchiveService(storage.ServiceConfig{
			S3BucketName:      cfg.S3BucketName,
			S3Endpoint:        cfg.S3Endpoint,
			S3AccessKeyID:     cfg.S3AccessKeyID,
			S3SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			logx.Fatal(err, "Failed to initialize snapshot archive")
		}
	}

	outbox := store.NewOutbox(pgStore, archive)

	// Initialize the realtime hub
	hub := realtime.NewHub(pgStore, outbox)

	// Setup HTTP server and routes
	deps := &handler.AppDeps{
		Hub:     hub,
		Config:  cfg,
		Store:   pgStore,
		Archive: archive,
	}
	router := handler.Router(deps)

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("eventlive realtime gateway starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Server forced to shutdown")
	}

	hub.Shutdown()
	outbox.Shutdown()

	logx.Info("Server gracefully stopped.")
}
