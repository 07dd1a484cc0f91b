package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cryptoinsight/backend/internal/api"
	"github.com/cryptoinsight/backend/internal/cache"
	"github.com/cryptoinsight/backend/internal/coingecko"
	"github.com/cryptoinsight/backend/internal/config"
	"github.com/cryptoinsight/backend/internal/database"
	"github.com/cryptoinsight/backend/internal/logging"
	"github.com/cryptoinsight/backend/internal/repository"
	"github.com/cryptoinsight/backend/internal/resolver"
	"github.com/cryptoinsight/backend/internal/scheduler"
	"github.com/cryptoinsight/backend/internal/service"
)

func main() {
	logger := logging.NewLogger()
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	// Open database connection and apply migrations
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("connected to database", zap.String("path", cfg.Database.Path))

	// Tiered cache: Redis when reachable, in-process memory otherwise
	tieredCache := cache.New(context.Background(), cfg.Redis.URL, logger)
	defer tieredCache.Close()

	// Market data provider
	geckoClient := coingecko.NewClient(cfg.CoinGecko, logger)
	symbolResolver := resolver.NewResolver(geckoClient, tieredCache, logger)

	// Create repositories
	portfolioRepo := repository.NewPortfolioRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)

	// Create services
	marketService := service.NewMarketService(geckoClient, tieredCache, logger)
	analyticsService := service.NewAnalyticsService(marketService, logger)
	portfolioService := service.NewPortfolioService(
		portfolioRepo,
		transactionRepo,
		marketService,
		analyticsService,
		symbolResolver,
		tieredCache,
		logger,
	)

	// Background cache warming
	if cfg.Scheduler.Enabled {
		jobs := scheduler.New(symbolResolver, marketService, cfg.Scheduler.TopAssetsLim, logger)
		if err := jobs.Start(); err != nil {
			logger.Fatal("failed to start scheduler", zap.Error(err))
		}
		defer jobs.Stop()
	}

	// Create router
	router := api.NewRouter(db, marketService, portfolioService, symbolResolver, cfg, logger)

	// Create HTTP server. WriteTimeout must cover the provider's full retry
	// budget, which can run to several minutes on a cold cache.
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 7 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("starting server", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
