package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bimakw/portfolio-aggregator/internal/application/services"
	"github.com/bimakw/portfolio-aggregator/internal/config"
	"github.com/bimakw/portfolio-aggregator/internal/infrastructure/cache"
	"github.com/bimakw/portfolio-aggregator/internal/infrastructure/chain"
	"github.com/bimakw/portfolio-aggregator/internal/infrastructure/fetch"
	"github.com/bimakw/portfolio-aggregator/internal/infrastructure/upstream"
	"github.com/bimakw/portfolio-aggregator/internal/presentation/handlers"
	"github.com/bimakw/portfolio-aggregator/internal/presentation/middleware"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log.Level)
	defer logger.Sync()

	logger.Info("Starting portfolio-aggregator API",
		zap.Int("port", cfg.API.Port),
	)

	// Result cache: Redis when available, in-process otherwise.
	var store cache.Store
	var cacheChecker handlers.HealthChecker
	redisCache, err := cache.NewRedisCache(cfg.Redis, logger)
	if err != nil {
		logger.Warn("Failed to connect to Redis, using in-process cache", zap.Error(err))
		memCache := cache.NewMemoryCache()
		store = memCache
		cacheChecker = memCache
	} else {
		defer redisCache.Close()
		store = redisCache
		cacheChecker = redisCache
	}

	// Chain RPC reader for the requester token gate (optional).
	var chainReader *chain.ERC20Reader
	var gateChain services.ChainReader
	var chainChecker handlers.HealthChecker
	chainReader, err = chain.NewERC20Reader(cfg.Chain, logger)
	if err != nil {
		logger.Warn("Failed to connect to chain RPC, requester balance gate disabled", zap.Error(err))
	} else {
		defer chainReader.Close()
		gateChain = chainReader
		chainChecker = chainReader
	}

	// Upstream provider adapters.
	balanceClient := fetch.NewClient("balances", cfg.Providers.BalanceAPIURL, cfg.Providers.FetchTimeout, cfg.Providers.BackoffBase, logger)
	protocolClient := fetch.NewClient("protocol", cfg.Providers.ProtocolAPIURL, cfg.Providers.FetchTimeout, cfg.Providers.BackoffBase, logger)

	balanceAdapter := upstream.NewBalanceAdapter(
		balanceClient, store, cfg.Cache.TTL,
		cfg.Providers.MinBalanceUSD, cfg.Providers.MaxHoldings, cfg.Providers.MaxAttempts,
		logger,
	)
	coinAdapter := upstream.NewCreatorCoinAdapter(protocolClient, store, cfg.Cache.TTL, cfg.Providers.MaxAttempts, logger)
	userAdapter := upstream.NewUserAdapter(protocolClient, cfg.Providers.MaxAttempts, logger)

	// Services.
	gate := services.NewEligibilityService(userAdapter, gateChain, cfg.Gate, logger)
	aggregator := services.NewAggregatorService(balanceAdapter, coinAdapter, gate, cfg.Providers, logger)

	// Handlers.
	portfolioHandler := handlers.NewPortfolioHandler(aggregator, logger)
	healthHandler := handlers.NewHealthHandler(cacheChecker, chainChecker)

	// Setup router.
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RateLimiter(cfg.API.RateLimitRPS))

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Get("/live", healthHandler.Live)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		portfolioHandler.RegisterRoutes(r)
	})

	addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
	}

	go func() {
		logger.Info("API server starting", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Received shutdown signal, shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func setupLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, _ := config.Build()
	return logger
}
