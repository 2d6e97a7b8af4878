// cmd/archived/main.go
// Package main implements the entry point for the archive service.
// It wires the store, media uploader, event publisher and generative-text
// client into the HTTP server and handles graceful shutdown.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shahed-archive/shahed-archive-go/internal/ai"
	"github.com/shahed-archive/shahed-archive-go/internal/config"
	"github.com/shahed-archive/shahed-archive-go/internal/event"
	"github.com/shahed-archive/shahed-archive-go/internal/media"
	"github.com/shahed-archive/shahed-archive-go/internal/repo"
	"github.com/shahed-archive/shahed-archive-go/internal/schema"
	"github.com/shahed-archive/shahed-archive-go/internal/server"
	"github.com/shahed-archive/shahed-archive-go/internal/storage"
	"github.com/shahed-archive/shahed-archive-go/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if cfg.Env == "dev" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	_, err = telemetry.InitTracer("archive-service")
	if err != nil {
		logger.Error("failed to initialize OpenTelemetry tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		telemetry.ShutdownTracer(ctx)
	}()

	// Storage backend: PostgreSQL when a DSN is configured, otherwise the
	// JSON file store. A corrupt store file fails startup loudly.
	var store storage.Store
	if cfg.DatabaseDSN != "" {
		store, err = storage.NewPostgres(cfg.DatabaseDSN)
		if err != nil {
			logger.Error("failed to initialize postgres storage", "error", err)
			os.Exit(1)
		}
		logger.Info("using postgres storage")
	} else {
		store, err = storage.NewFile(cfg.StorePath)
		if err != nil {
			logger.Error("failed to open store file", "path", cfg.StorePath, "error", err)
			os.Exit(1)
		}
		logger.Info("using file storage", "path", cfg.StorePath)
	}

	pub := event.NewPublisherFromEnv()
	defer pub.Close()

	var uploader media.Uploader
	if cfg.S3Endpoint != "" {
		s3Uploader, err := media.NewS3Uploader(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey)
		if err != nil {
			logger.Error("failed to initialize S3 uploader", "error", err)
			os.Exit(1)
		}
		uploader = s3Uploader
	} else {
		logger.Warn("object storage not configured, media uploads disabled")
	}

	var aiClient *ai.Client
	if cfg.AIBaseURL != "" {
		aiClient = ai.New(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel)
		logger.Info("generative-text API configured", "model", cfg.AIModel)
	}

	validator, err := schema.NewValidator()
	if err != nil {
		logger.Error("failed to initialize schema validator", "error", err)
		os.Exit(1)
	}
	if cfg.SchemasURL != "" {
		validator.SetResolver(schema.NewResolver(cfg.SchemasURL, "/tmp/shahed-archive-schema-cache"))
	}
	logger.Info("record schema loaded", "version", validator.Version())

	repository := repo.New(store, uploader, pub, validator, aiClient, cfg.BucketPrefix)
	mux := server.NewMux(repository, cfg.MaxMediaSize, cfg.AllowedMimeTypes, cfg.CORSAllowedOrigins)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second, // media uploads pass through the body
	}

	go func() {
		logger.Info("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}

	if postgresStore, ok := store.(interface{ Close() }); ok {
		postgresStore.Close()
	}

	logger.Info("server exited")
}
