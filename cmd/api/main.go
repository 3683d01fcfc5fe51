// Package main is the entry point for the trip-sharing API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tripshare/backend/internal/ai"
	"github.com/tripshare/backend/internal/auth"
	"github.com/tripshare/backend/internal/config"
	"github.com/tripshare/backend/internal/handler"
	"github.com/tripshare/backend/internal/middleware"
	"github.com/tripshare/backend/internal/repo"
	"github.com/tripshare/backend/internal/service"
	"github.com/tripshare/backend/internal/storage"
	"github.com/tripshare/backend/migrations"
)

// maxFilesPerUpload bounds the size of a whole multipart upload request
// together with the per-file limit.
const maxFilesPerUpload = 10

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	if cfg.AutoMigrate {
		if err := migrate(context.Background(), pool); err != nil {
			slog.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
	}

	// --- Services ---------------------------------------------------------
	tripRepo := repo.NewTripRepo(pool)
	userRepo := repo.NewUserRepo(pool)

	accounts := service.NewAccountService(userRepo)
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		admin, err := accounts.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			slog.Error("failed to seed admin account", "error", err)
			os.Exit(1)
		}
		slog.Info("admin account ready", "user_id", admin.ID)
	}

	blobs, files, err := newBlobStore(cfg)
	if err != nil {
		slog.Error("failed to configure upload storage", "error", err)
		os.Exit(1)
	}

	drafter, err := newDrafter(cfg)
	if err != nil {
		slog.Error("failed to configure itinerary drafter", "error", err)
		os.Exit(1)
	}

	sessions := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL)

	srv := handler.NewServer(handler.Deps{
		Trips:          service.NewTripService(tripRepo, service.WithAnonymousTrips(cfg.AllowAnonymousTrips)),
		Accounts:       accounts,
		Sessions:       sessions,
		Exports:        service.NewExportService(tripRepo),
		Uploads:        service.NewUploadService(blobs, cfg.UploadMaxFileBytes),
		Itinerary:      service.NewItineraryService(drafter),
		DB:             pool,
		Logger:         logger,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		MaxUploadBytes: maxFilesPerUpload*cfg.UploadMaxFileBytes + 1<<20,
	})

	// --- Metrics ----------------------------------------------------------
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := middleware.NewMetrics(reg)
	if err != nil {
		slog.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}

	// --- Router -----------------------------------------------------------
	// Authenticator runs before the logger so request lines carry user_id.
	// Recoverer is innermost so a panic is still logged and counted as a 500.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewAuthenticator(sessions))
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(metrics.Handler)
	r.Use(chimiddleware.Recoverer)

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	if files != nil {
		r.Handle(files.PublicPath()+"/*", files.Handler())
	}
	srv.Register(r)

	// --- HTTP Server ------------------------------------------------------
	// Uploads and itinerary drafts need longer read/write windows than plain JSON.
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// migrate applies pending goose migrations through a database/sql handle
// borrowed from the pool.
func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("create goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	slog.Info("migrations applied", "count", len(results))
	return nil
}

// newBlobStore picks S3 when a bucket is configured and the local directory
// store otherwise. The local store is also returned so its files can be served.
func newBlobStore(cfg config.Config) (service.BlobStore, *storage.LocalStore, error) {
	if cfg.S3.Bucket != "" {
		s3, err := storage.NewS3Store(storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PublicBaseURL:   cfg.S3.PublicBaseURL,
		})
		if err != nil {
			return nil, nil, err
		}
		slog.Info("uploads stored in s3", "bucket", cfg.S3.Bucket)
		return s3, nil, nil
	}

	local, err := storage.NewLocalStore(cfg.UploadDir, cfg.UploadPublicPath)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("uploads stored on local disk", "dir", cfg.UploadDir, "path", local.PublicPath())
	return local, local, nil
}

// newDrafter returns nil, not a typed nil, when no API key is configured so
// the itinerary service reports the feature as unavailable.
func newDrafter(cfg config.Config) (service.Drafter, error) {
	client, err := ai.New(ai.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
	})
	if errors.Is(err, ai.ErrNotConfigured) {
		slog.Info("itinerary drafting disabled: OPENAI_API_KEY not set")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}
