package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"product_transactions/internal/config"
	"product_transactions/internal/domain"
	"product_transactions/internal/logger"
	"product_transactions/internal/migrations"
	"product_transactions/internal/repository"
	"product_transactions/internal/service"
)

func main() {
	force := flag.Bool("force", false, "seed even when the store already holds documents")
	url := flag.String("url", "", "dataset URL (defaults to SEED_URL)")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if cfg.AutoMigrate && cfg.StoreBackend == repository.BackendPostgres {
		if err := migrations.Up(cfg.DatabaseURL); err != nil {
			logger.Fatal("migrations failed", "error", err)
		}
	}

	store, err := repository.OpenStore(ctx, repository.StoreConfig{
		Backend:       cfg.StoreBackend,
		DatabaseURL:   cfg.DatabaseURL,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
	})
	if err != nil {
		logger.Fatal("failed to open store", "error", err)
	}
	defer store.Close()

	seedURL := cfg.SeedURL
	if *url != "" {
		seedURL = *url
	}

	res, err := service.NewSeeder(store, seedURL, nil).Seed(ctx, *force)
	if err != nil {
		logger.Fatal("seed failed", "error", err)
	}
	if res.Skipped {
		fmt.Println("store already seeded; use -force to load again")
		return
	}

	total, err := store.Count(ctx, domain.Filter{})
	if err != nil {
		logger.Fatal("count failed", "error", err)
	}
	fmt.Printf("fetched=%d inserted=%d total=%d\n", res.Fetched, res.Inserted, total)
}
