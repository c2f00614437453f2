package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ocrapi/internal/config"
	"ocrapi/internal/database"
	"ocrapi/internal/database/migration"
	"ocrapi/internal/engine"
	handlers "ocrapi/internal/http/handler"
	"ocrapi/internal/http/middleware"
	"ocrapi/internal/otel"
	"ocrapi/internal/repository/postgres"
	"ocrapi/internal/service"
	"ocrapi/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := time.UTC

	ctx := context.Background()

	// Tracing is optional; a failed exporter degrades to noop
	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Local disk is the primary artifact store; the engine reads images off
	// the filesystem. MinIO, when configured, mirrors artifacts as an archive.
	var store storage.ArtifactStore
	diskStore, err := storage.NewDiskStore(cfg.Upload.Dir)
	if err != nil {
		log.Fatalf("failed to initialize artifact store: %v", err)
	}
	store = diskStore
	if cfg.MinIO.Endpoint != "" {
		objStore, err := storage.NewMinIO(cfg.MinIO)
		if err != nil {
			log.Fatalf("failed to initialize object storage: %v", err)
		}
		store = storage.NewArchivingStore(diskStore, objStore)
	}

	gateway := engine.NewOllamaGateway(cfg.Engine.Binary, time.Duration(cfg.Engine.TimeoutSec)*time.Second)

	repo := postgres.NewInteractionPostgres(db)
	svc := service.NewOCRService(store, gateway, repo, cfg.Engine.DefaultModel)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    cfg.Upload.MaxSizeBytes,
	})

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, db, svc, store)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
