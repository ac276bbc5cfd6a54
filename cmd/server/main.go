package main

import (
	"context"
	"fmt"
	"log"
	"time"

	_ "github.com/ridwanfathin/tour-quote-service/docs"
	"github.com/ridwanfathin/tour-quote-service/internal/config"
	"github.com/ridwanfathin/tour-quote-service/internal/currency"
	"github.com/ridwanfathin/tour-quote-service/internal/database"
	"github.com/ridwanfathin/tour-quote-service/internal/handler"
	"github.com/ridwanfathin/tour-quote-service/internal/metrics"
	"github.com/ridwanfathin/tour-quote-service/internal/repository"
	"github.com/ridwanfathin/tour-quote-service/internal/server"
	"github.com/ridwanfathin/tour-quote-service/internal/service"
	"github.com/ridwanfathin/tour-quote-service/internal/storage"
)

// @title Tour Quote Service API
// @version 1.0
// @description Tour quote pricing, version history and itinerary sync.
// @host localhost:8080
// @BasePath /
func main() {
	// Load configuration
	log.Println("Loading configuration...")
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	m := metrics.New()
	deps := service.Dependencies{
		Metrics:      m,
		BaseCurrency: cfg.FXBaseCurrency,
		MaxWorkers:   cfg.MaxWorkers,
	}

	// Initialize repositories
	var closeDB func()
	var storageCheck func(context.Context) error
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		log.Println("Connecting to PostgreSQL...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		db, err := database.NewPostgresDB(ctx, cfg.PostgresDBURL, database.PoolOptions{
			MaxConns: int32(cfg.MaxWorkers * 2),
		})
		if err != nil {
			cancel()
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if cfg.AutoMigrate {
			if _, err := db.Migrate(ctx); err != nil {
				cancel()
				log.Fatalf("Failed to migrate database: %v", err)
			}
		}
		cancel()
		closeDB = db.Close
		storageCheck = db.Ping
		deps.Quotes = repository.NewPostgresQuoteRepository(db.GetPool())
		deps.Itineraries = repository.NewPostgresItineraryRepository(db.GetPool())
	default:
		log.Println("Using in-memory storage")
		repo := repository.NewMemoryRepository()
		deps.Quotes = repo
		deps.Itineraries = repo.Itineraries()
	}

	// Optional version archive on Supabase storage
	if cfg.ArchiveEnabled {
		archiver, err := storage.NewVersionArchiver(&storage.Config{
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			AccessKeySecret: cfg.S3Secret,
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
		})
		if err != nil {
			log.Printf("Warning: version archiving disabled: %v", err)
		} else {
			deps.Archiver = archiver
			log.Printf("Archiving versions to bucket %s", cfg.S3Bucket)
		}
	}

	// Optional currency conversion of calculations
	if cfg.FXEnabled {
		deps.Rates = currency.NewClient(
			currency.WithBaseURL(cfg.FXAPIURL),
			currency.WithCacheTTL(cfg.FXCacheTTL),
		)
		log.Printf("Currency conversion enabled, base currency %s", cfg.FXBaseCurrency)
	}

	quoteService := service.NewQuoteService(deps)

	// Create and configure server
	log.Println("Configuring server...")
	appServer := server.NewServer(cfg, handler.NewQuoteHandler(quoteService), handler.NewSyncHandler(quoteService), m)
	if closeDB != nil {
		appServer.OnShutdown(closeDB)
	}
	if storageCheck != nil {
		appServer.SetStorageCheck(storageCheck)
	}

	// Start server (blocking call)
	log.Printf("Starting server on port %d...", cfg.Port)
	if err := appServer.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server shutdown complete")
}
