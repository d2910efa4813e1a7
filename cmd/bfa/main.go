package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/irrbb-bfa-go/internal/config"
	"github.com/boddenberg/irrbb-bfa-go/internal/handler"
	"github.com/boddenberg/irrbb-bfa-go/internal/infra/cache"
	"github.com/boddenberg/irrbb-bfa-go/internal/infra/client"
	"github.com/boddenberg/irrbb-bfa-go/internal/infra/observability"
	"github.com/boddenberg/irrbb-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/irrbb-bfa-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("backend_url", cfg.BackendURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Int("backend_rate_limit", cfg.BackendRateLimit),
		zap.Bool("write_protection", cfg.JWTSecret != ""),
		zap.Strings("cors_origins", cfg.CORSAllowedOrigins),
	)

	catalog, err := config.LoadCatalog(cfg.ScenariosFile)
	if err != nil {
		logger.Fatal("failed to load scenario catalog", zap.String("path", cfg.ScenariosFile), zap.Error(err))
	}
	logger.Info("scenario catalog loaded",
		zap.Strings("eve_scenarios", catalog.EVEScenarios),
		zap.Strings("nii_breakdowns", catalog.NIIBreakdowns),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "irrbb-bfa")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	viewCache := cache.New[any](cfg.CacheTTL)
	defer viewCache.Close()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("irrbb-backend", client.CountsAsSuccess)
	limiter := resilience.NewLimiter(cfg.BackendRateLimit)

	// --- Client ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	backend := client.NewClient(httpClient, cfg.BackendURL, cb, resilienceCfg, limiter, metrics, logger)

	// --- Services ---
	dashboardSvc := service.NewDashboard(backend, viewCache, metrics, logger)
	instrumentsSvc := service.NewInstruments(backend, dashboardSvc, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(dashboardSvc, instrumentsSvc, backend, metrics, handler.Options{
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Catalog:        catalog,
	}, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
