package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpAdapter "github.com/betops/settlecore/internal/adapter/http"
	"github.com/betops/settlecore/internal/adapter/http/handler"
	"github.com/betops/settlecore/internal/adapter/http/middleware"
	"github.com/betops/settlecore/internal/adapter/ratefeed"
	postgresRepo "github.com/betops/settlecore/internal/adapter/repository/postgres"
	redisRepo "github.com/betops/settlecore/internal/adapter/repository/redis"
	"github.com/betops/settlecore/internal/infrastructure/config"
	"github.com/betops/settlecore/internal/infrastructure/logger"
	"github.com/betops/settlecore/internal/infrastructure/metrics"
	"github.com/betops/settlecore/internal/infrastructure/postgres"
	"github.com/betops/settlecore/internal/infrastructure/ratesync"
	"github.com/betops/settlecore/internal/infrastructure/redis"
	"github.com/betops/settlecore/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Run migrations
	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	snapshotRepo := postgresRepo.NewSnapshotRepository(pool)
	projectRepo := postgresRepo.NewProjectConfigRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	rateCache := redisRepo.NewRateCache(redisClient)

	// Initialize rate feeds and resolver
	marketFeed := ratefeed.NewMarketFeed(cfg.MarketFeedURL, cfg.FeedTimeout, log)
	cryptoFeed := ratefeed.NewCryptoFeed(cfg.CryptoFeedURL, cfg.FeedTimeout, log)
	rates := usecase.NewRateResolver(marketFeed, cryptoFeed, rateCache, cfg.RateFreshFor, log)

	// Initialize metrics
	m := metrics.New()
	rates.UseMetrics(m)

	// Initialize use cases
	accountUC := usecase.NewAccountUseCase(accountRepo, idGen)
	balanceUC := usecase.NewBalanceUseCase(accountRepo, entryRepo)
	conversionUC := usecase.NewConversionUseCase(rates, snapshotRepo, idGen, log)
	conversionUC.UseMetrics(m)
	policyUC := usecase.NewPolicyUseCase(projectRepo, rates, log)
	consolidationUC := usecase.NewConsolidationUseCase(policyUC, rates, accountRepo, log)
	consolidationUC.UseMetrics(m)
	entryUC := usecase.NewEntryUseCase(txManager, accountRepo, entryRepo, auditRepo, conversionUC, idGen, log)
	entryUC.UseMetrics(m)
	reconciliationUC := usecase.NewReconciliationUseCase(txManager, accountRepo, entryRepo, auditRepo, idGen, log)
	reconciliationUC.UseRetrier(postgresRepo.NewRetrier(log))
	reconciliationUC.UseMetrics(m)

	// Initialize handlers
	accountHandler := handler.NewAccountHandler(accountUC, balanceUC)
	entryHandler := handler.NewEntryHandler(entryUC)
	conversionHandler := handler.NewConversionHandler(conversionUC)
	rateHandler := handler.NewRateHandler(rates)
	projectHandler := handler.NewProjectHandler(policyUC, consolidationUC)
	reconciliationHandler := handler.NewReconciliationHandler(reconciliationUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:        accountHandler,
		EntryHandler:          entryHandler,
		ConversionHandler:     conversionHandler,
		RateHandler:           rateHandler,
		ProjectHandler:        projectHandler,
		ReconciliationHandler: reconciliationHandler,
		HealthHandler:         healthHandler,
		IdempotencyStore:      idempotencyStore,
		RateLimiter:           middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst),
		Logger:                log,
	})

	// Start background rate refresher
	refreshCtx, stopRefresher := context.WithCancel(ctx)
	defer stopRefresher()

	refresher := ratesync.NewRefresher(ratesync.Config{
		Rates:    rates,
		Interval: cfg.RateRefreshInterval,
		Logger:   log,
	})
	go func() {
		if err := refresher.Start(refreshCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("rate refresher stopped")
		}
	}()

	// Create server
	server := &http.Server{
		Addr:         listenAddr(cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopRefresher()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func listenAddr(port string) string {
	if port == "" {
		port = "8080"
	}

	return fmt.Sprintf(":%s", port)
}
