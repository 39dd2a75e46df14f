package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"product_transactions/internal/cache"
	"product_transactions/internal/config"
	httpServer "product_transactions/internal/http"
	"product_transactions/internal/http/handlers"
	"product_transactions/internal/http/middleware"
	"product_transactions/internal/logger"
	"product_transactions/internal/migrations"
	"product_transactions/internal/repository"
	"product_transactions/internal/service"
	"product_transactions/internal/ws"

	"github.com/gin-gonic/gin"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if cfg.AutoMigrate && cfg.StoreBackend == repository.BackendPostgres {
		if err := migrations.Up(cfg.DatabaseURL); err != nil {
			logger.Fatal("migrations failed", "error", err)
		}
		logger.Info("migrations applied")
	}

	store, err := repository.OpenStore(ctx, repository.StoreConfig{
		Backend:       cfg.StoreBackend,
		DatabaseURL:   cfg.DatabaseURL,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
	})
	if err != nil {
		logger.Fatal("failed to open store", "backend", cfg.StoreBackend, "error", err)
	}
	defer store.Close()

	rdb, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		// keep serving without Redis
		logger.Warn("redis unavailable, using in-process rate limiting and no report cache", "error", err)
		rdb = nil
	}
	var reportCache cache.ReportCache = cache.NoopCache{}
	if rdb != nil {
		defer rdb.Close()
		reportCache = cache.NewRedisReportCache(rdb, cfg.ReportCacheTTL)
	}

	opts := service.QueryOptions{
		Mode:       cfg.FilterMode,
		Location:   cfg.Location,
		MaxPerPage: cfg.MaxPerPage,
	}
	transactions := service.NewTransactionService(store, opts)
	reports := service.NewReportService(store, reportCache, opts)
	seeder := service.NewSeeder(store, cfg.SeedURL, reports)

	hub := ws.NewHub()
	go hub.Run(ctx)
	seeder.OnSeeded = func(r service.SeedResult) {
		hub.NotifySeeded(r.Fetched, r.Inserted)
	}

	if cfg.SeedOnStart {
		go func() {
			seedCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
			defer cancel()
			if _, err := seeder.Seed(seedCtx, false); err != nil {
				logger.Error("initial seed failed", "error", err)
			}
		}()
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	httpServer.RegisterRoutes(r, httpServer.Deps{
		Handler: handlers.NewHandler(transactions, reports, seeder),
		Health:  handlers.NewHealthHandler(store, cfg.StoreBackend, version),
		Hub:     hub,
		Redis:   rdb,
	}, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "backend", cfg.StoreBackend, "filter_mode", cfg.FilterMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	stop()

	logger.Info("server exited")
}
