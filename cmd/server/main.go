// backend-go/cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/battery-scm/backend-go/internal/api"
	"github.com/andresuchdata/battery-scm/backend-go/internal/archive"
	"github.com/andresuchdata/battery-scm/backend-go/internal/cache"
	"github.com/andresuchdata/battery-scm/backend-go/internal/config"
	"github.com/andresuchdata/battery-scm/backend-go/internal/metrics"
	"github.com/andresuchdata/battery-scm/backend-go/internal/mrp"
	"github.com/andresuchdata/battery-scm/backend-go/internal/repository"
	"github.com/andresuchdata/battery-scm/backend-go/internal/repository/memory"
	"github.com/andresuchdata/battery-scm/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/battery-scm/backend-go/internal/seed"
	"github.com/andresuchdata/battery-scm/backend-go/internal/service"
	"github.com/andresuchdata/battery-scm/backend-go/internal/storage"
	"github.com/andresuchdata/battery-scm/backend-go/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.LogLevel)
	if cfg.Server.LogFormat == "json" {
		logger.UseJSON(os.Stdout)
	}
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	loc := cfg.App.Location()

	store, closeStore, err := openStore(ctx, cfg, loc)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("backend", cfg.App.StoreBackend).Msg("Failed to open store")
	}
	defer closeStore()

	requirementsCache, err := cache.NewRequirementsCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Redis unavailable, requirements cache disabled")
		requirementsCache = cache.NewNoopRequirementsCache()
	}

	objects, err := openArchive(ctx, cfg.Archive)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("bucket", cfg.Archive.Bucket).Msg("Failed to open run archive")
	}

	m := metrics.New()
	services := service.New(service.Deps{
		Store:   store,
		Engine:  mrp.NewEngine(store, mrp.WithLocation(loc)),
		Cache:   requirementsCache,
		Runs:    archive.NewRunArchive(objects, cfg.Archive.Prefix),
		Metrics: m,
	})

	// Initialize HTTP server
	router := api.NewRouter(services, cfg.Server.AllowedOrigins, m)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().
			Str("port", cfg.Server.Port).
			Str("store", cfg.App.StoreBackend).
			Bool("cache", cfg.Cache.Enabled).
			Bool("archive", cfg.Archive.Enabled).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

// openStore returns the configured store and a close func. The memory store
// is seeded with demo data when APP_SEED_DEMO is set.
func openStore(ctx context.Context, cfg *config.Config, loc *time.Location) (repository.Store, func(), error) {
	switch cfg.App.StoreBackend {
	case config.StorePostgres:
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return postgres.NewStore(db), func() { db.Close() }, nil

	case config.StoreMemory, "":
		store := memory.NewStore()
		if cfg.App.SeedDemo {
			now := time.Now().In(loc)
			today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
			if err := seed.Apply(ctx, store, seed.Demo(today)); err != nil {
				return nil, nil, err
			}
			logger.Log.Info().Msg("Seeded in-memory store with demo data")
		}
		return store, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.App.StoreBackend)
	}
}

// openArchive uses the S3-compatible bucket when enabled and an in-process
// store otherwise.
func openArchive(ctx context.Context, cfg config.ArchiveConfig) (storage.ObjectStorage, error) {
	if !cfg.Enabled {
		return storage.NewMemoryStorage(), nil
	}
	client, err := storage.NewMinioClient(cfg)
	if err != nil {
		return nil, err
	}
	if err := client.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return client, nil
}
