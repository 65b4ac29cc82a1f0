package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campus-map/internal/assets"
	"campus-map/internal/catalog"
	"campus-map/internal/common/config"
	"campus-map/internal/common/logging"
	"campus-map/internal/common/metrics"
	"campus-map/internal/common/middleware"
	"campus-map/internal/mapdoc"
	"campus-map/internal/viewer"
	"campus-map/internal/viewer/handlers"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// Map Viewer Service
// ============================================================

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel, "mapviewer")

	presets, err := config.LoadPresets(cfg.PresetsPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.PresetsPath).Msg("load presets")
	}

	maps := assets.NewMapStore(cfg.MapsDir)
	if err := maps.EnsureDir(); err != nil {
		log.Fatal().Err(err).Msg("maps dir")
	}

	db, err := catalog.OpenSQLite(cfg.CatalogDBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open db")
	}
	defer db.Close()

	repo := catalog.New(db)
	if err := repo.Init(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("init db")
	}

	fetcher, err := mapdoc.NewHTTPFetcher(cfg.PublicBaseURL, &http.Client{Timeout: 15 * time.Second})
	if err != nil {
		log.Fatal().Err(err).Str("base", cfg.PublicBaseURL).Msg("document fetcher")
	}

	m := metrics.New()
	registry := viewer.NewRegistry(viewer.Options{
		Fetcher:         fetcher,
		Store:           repo,
		Presets:         presets,
		DefaultSelector: cfg.DefaultSelector,
		Metrics:         m,
		Logger:          log,
	})
	defer registry.Close()

	viewerHandler := handlers.NewViewerHandler(registry, maps, repo, log)
	health := handlers.NewHealth(repo)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		AppName:      "Map Viewer",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.Metrics(m))
	app.Use(middleware.CORS(cfg.CORSOrigins))

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", health.LivenessProbe)
	app.Get("/health/ready", health.ReadinessProbe)
	app.Get("/health/startup", health.StartupProbe)
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	// ============================================================
	// Viewer Routes
	// ============================================================

	viewerHandler.Register(app)

	// ============================================================
	// Server Start
	// ============================================================

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%s", cfg.Port)
	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", addr).
			Str("env", cfg.Environment).
			Str("maps", cfg.MapsDir).
			Int("presets", len(presets)).
			Msg("starting map viewer")
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server stopped")
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}
}
