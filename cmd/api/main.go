// Package main is the entry point for the API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/vetrina-app/vetrina/internal/api"
	"github.com/vetrina-app/vetrina/internal/business"
	"github.com/vetrina-app/vetrina/internal/config"
	"github.com/vetrina-app/vetrina/internal/db"
	"github.com/vetrina-app/vetrina/internal/health"
	"github.com/vetrina-app/vetrina/internal/jobs"
	"github.com/vetrina-app/vetrina/internal/middleware"
	"github.com/vetrina-app/vetrina/internal/ranking"
	"github.com/vetrina-app/vetrina/internal/review"
	"github.com/vetrina-app/vetrina/internal/stats"
	"github.com/vetrina-app/vetrina/internal/tracing"
)

func main() {
	configPath := flag.String("config", "", "path to optional YAML config file")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("Vetrina Discovery API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config error:", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	logger.Info("configuration loaded", "config", cfg.LogSummary())

	ctx := context.Background()

	// Tracing
	tracerProvider, err := tracing.NewProvider(tracing.Config{
		ServiceName:  "vetrina-api",
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		OTLPEndpoint: cfg.TracingOTLPEndpoint,
		SamplingRate: cfg.TracingSamplingRate,
		InsecureMode: !cfg.IsProduction(),
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// Repositories: Postgres when a database URL is configured, otherwise
	// in-memory (development and tests only).
	var (
		businessRepo business.BusinessRepository
		reviewRepo   review.ReviewRepository
		statsStore   stats.StatsStore
		dbChecker    api.HealthChecker
	)
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer conn.Close()

		businessRepo = business.NewPostgresBusinessRepository(conn)
		reviewRepo = review.NewPostgresReviewRepository(conn)
		statsStore = stats.NewPostgresStatsStore(conn)
		dbChecker = health.NewDBChecker(conn)
		logger.Info("using postgres repositories")
	} else {
		businessRepo = business.NewInMemoryBusinessRepository()
		reviewRepo = review.NewInMemoryReviewRepository()
		statsStore = stats.NewInMemoryStatsStore()
		logger.Warn("DATABASE_URL not set, using in-memory repositories")
	}

	// Metrics registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	middlewareMetrics := middleware.NewMetrics()
	statsMetrics := stats.NewMetrics()
	rankingMetrics := ranking.NewMetrics()
	jobMetrics := jobs.NewMetrics()
	for _, m := range []interface {
		Register(prometheus.Registerer) error
	}{middlewareMetrics, statsMetrics, rankingMetrics, jobMetrics} {
		if err := m.Register(registry); err != nil {
			logger.Error("failed to register metrics", "error", err)
			os.Exit(1)
		}
	}

	// Stats aggregation
	aggregator := stats.NewAggregator(businessRepo, reviewRepo, statsStore, logger, statsMetrics, jobMetrics)

	// Ranking pipeline
	weights, err := ranking.LoadCalibration(cfg.CalibrationPath)
	if err != nil {
		logger.Warn("calibration load failed, using default weights", "error", err)
	}
	builder := ranking.NewBuilder(businessRepo, reviewRepo, statsStore, weights, cfg.RankedSetSize)
	snapshots := ranking.NewSnapshotStore()
	refreshJob := ranking.NewRefreshJob(ranking.RefreshJobConfig{
		Interval:   cfg.RefreshInterval,
		Logger:     logger,
		Metrics:    rankingMetrics,
		JobMetrics: jobMetrics,
	}, builder, snapshots)

	if err := refreshJob.Start(ctx); err != nil {
		logger.Error("failed to start refresh job", "error", err)
		os.Exit(1)
	}

	// Rate limiting: Redis-backed when configured, in-memory otherwise
	var (
		rateLimitStore middleware.RateLimitStore
		redisChecker   api.HealthChecker
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()

		rateLimitStore = middleware.NewRedisRateLimitStore(redisClient).WithMetrics(middlewareMetrics)
		redisChecker = health.NewRedisChecker(redisClient)
		logger.Info("using redis rate limit store")
	} else {
		rateLimitStore = middleware.NewInMemoryRateLimitStore()
	}
	rateLimit := middleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimitPerMinute,
		WindowDuration:    time.Minute,
	}

	// Handlers
	routes := &api.Routes{
		Discovery:    api.NewDiscoveryHandlers(snapshots),
		Businesses:   api.NewBusinessHandlers(businessRepo, statsStore),
		ReviewEvents: api.NewReviewEventHandlers(aggregator),
		Admin:        api.NewAdminHandlers(refreshJob),
		Health: api.NewHealthHandlers(api.HealthHandlersConfig{
			DBChecker:    dbChecker,
			RedisChecker: redisChecker,
		}),
	}

	mux := http.NewServeMux()
	routes.Register(mux)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			errCtx := middleware.SetErrorCode(r.Context(), api.ErrCodeNotFound)
			api.WriteError(w, errCtx, http.StatusNotFound, api.ErrCodeNotFound, "The requested resource was not found")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"service":"vetrina-api","version":"0.0.1"}`)); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	// Middleware chain: RequestID -> Tracing -> Logging -> HTTPMetrics -> CORS -> RateLimiter
	var handler http.Handler = mux
	handler = middleware.RateLimiter(rateLimitStore, rateLimit, middleware.IPKeyFunc())(handler)
	handler = middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
		MaxAge:         300,
	})(handler)
	handler = middleware.HTTPMetrics(middlewareMetrics)(handler)
	handler = middleware.Logging(logger)(handler)
	if cfg.TracingEnabled {
		handler = middleware.Tracing("vetrina-api")(handler)
	}
	handler = middleware.RequestID(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	refreshJob.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shut down tracer provider", "error", err)
	}

	logger.Info("server stopped")
}
