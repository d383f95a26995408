// Package main provides the search service entry point
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"

	contenthandlers "github.com/pressline/pressline/internal/content/adapters/http/handlers"
	contentpg "github.com/pressline/pressline/internal/content/adapters/repository/postgres"
	contentservice "github.com/pressline/pressline/internal/content/app/service"
	"github.com/pressline/pressline/internal/platform/cache"
	"github.com/pressline/pressline/internal/platform/config"
	"github.com/pressline/pressline/internal/platform/database"
	"github.com/pressline/pressline/internal/platform/health"
	"github.com/pressline/pressline/internal/platform/logger"
	"github.com/pressline/pressline/internal/platform/messaging/kafka"
	"github.com/pressline/pressline/internal/platform/metrics"
	"github.com/pressline/pressline/internal/platform/telemetry"
	searchhandlers "github.com/pressline/pressline/internal/search/adapters/http/handlers"
	searchpg "github.com/pressline/pressline/internal/search/adapters/repository/postgres"
	searchservice "github.com/pressline/pressline/internal/search/app/service"
	"github.com/pressline/pressline/pkg/middleware"
)

func main() {
	cfg, err := config.Load("search")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	appLogger := logger.New(cfg.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.New(cfg.Telemetry)
	if err != nil {
		appLogger.Fatal("Telemetry init failed", "error", err)
	}
	defer tel.Close()

	db, err := database.New(cfg.Database)
	if err != nil {
		appLogger.Fatal("Database connection failed", "error", err)
	}
	defer db.Close()

	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		appLogger.Fatal("Redis connection failed", "error", err)
	}
	defer redisCache.Close()

	m := metrics.NewMetrics("pressline")
	m.Register()
	m.StartSystemCollector(ctx, 15*time.Second)

	coordinator := cache.NewCoordinator(redisCache, appLogger, m)

	// Repositories
	searchStore := searchpg.NewSearchStore(db, appLogger, m)
	contentReader := searchpg.NewContentReader(db, appLogger)
	analyticsRepo := searchpg.NewAnalyticsRepository(db, appLogger)
	categoryRepo := contentpg.NewCategoryRepository(db, appLogger)
	hashtagRepo := contentpg.NewHashTagRepository(db, appLogger)
	statsRepo := contentpg.NewPostStatsRepository(db, appLogger)

	// Services
	postSearch := searchservice.NewPostSearchService(searchStore, contentReader, analyticsRepo, coordinator, cfg.Search, appLogger, m)
	unified := searchservice.NewUnifiedSearchService(postSearch, categoryRepo, hashtagRepo, coordinator, cfg.Search, appLogger, m)
	catalog := contentservice.NewCatalogService(categoryRepo, hashtagRepo, statsRepo, coordinator, appLogger)
	invalidator := contentservice.NewInvalidator(coordinator, appLogger, m)

	// Invalidation event stream
	var publisher *kafka.InvalidationPublisher
	if cfg.Kafka.Enabled {
		publisher, err = kafka.NewInvalidationPublisher(kafka.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.InvalidationTopic,
		}, appLogger)
		if err != nil {
			appLogger.Fatal("Kafka producer init failed", "error", err)
		}
		defer publisher.Close()

		consumer, err := kafka.NewInvalidationConsumer(kafka.ConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			Group:   cfg.Kafka.ConsumerGroup,
			Topic:   cfg.Kafka.InvalidationTopic,
		}, invalidator.Handle, appLogger)
		if err != nil {
			appLogger.Fatal("Kafka consumer init failed", "error", err)
		}
		defer consumer.Close()

		go func() {
			if err := consumer.Run(ctx); err != nil {
				appLogger.Error("Invalidation consumer stopped", "error", err)
			}
		}()
	}

	// Cache warmer
	warmCaches := func() {
		warmCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		catalog.Warm(warmCtx)
		if _, err := postSearch.PopularSearches(warmCtx, 0); err != nil {
			appLogger.Warn("Popular searches warmup failed", "error", err)
		}
	}

	warmer := cron.New()
	if _, err := warmer.AddFunc(cfg.Search.WarmupSchedule, warmCaches); err != nil {
		appLogger.Fatal("Warmup schedule invalid", "schedule", cfg.Search.WarmupSchedule, "error", err)
	}
	warmer.Start()
	defer warmer.Stop()

	// Router
	router := mux.NewRouter()

	healthHandler := health.NewHandler(cfg.Service.Name, cfg.Version)
	healthHandler.AddCheck("database", health.DatabaseChecker(db.HealthCheck))
	healthHandler.AddCheck("redis", health.RedisChecker(redisCache.Health))
	router.HandleFunc("/health", healthHandler.ReadinessHandler()).Methods("GET")
	router.HandleFunc("/ready", healthHandler.ReadinessHandler()).Methods("GET")
	router.HandleFunc("/live", healthHandler.LivenessHandler()).Methods("GET")
	router.Handle("/metrics", m.Handler()).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	searchhandlers.NewSearchHandler(unified, postSearch, appLogger).RegisterRoutes(api)
	contenthandlers.NewCatalogHandler(catalog, appLogger).RegisterRoutes(api)

	internal := router.PathPrefix("/api/v1/internal").Subrouter()
	internal.Use(middleware.InternalAuth([]byte(cfg.HTTP.InternalSecret)))
	contenthandlers.NewInvalidateHandler(eventPublisher(publisher), invalidator, appLogger).RegisterRoutes(internal)

	handler := buildMiddlewareChain(router, cfg, appLogger, m)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		appLogger.Info("Starting search service",
			"port", cfg.HTTP.Port, "environment", cfg.Service.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Server error", "error", err)
		}
	}()

	// Warm the caches once on boot.
	go warmCaches()

	<-ctx.Done()
	appLogger.Info("Shutting down search service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Forced shutdown", "error", err)
	}
	appLogger.Info("Search service stopped")
}

// eventPublisher avoids handing the handler a typed nil when Kafka is
// disabled.
func eventPublisher(p *kafka.InvalidationPublisher) contenthandlers.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}

func buildMiddlewareChain(router http.Handler, cfg *config.Config, appLogger logger.Logger, m *metrics.Metrics) http.Handler {
	handler := requestTimeout(cfg.HTTP.RequestTimeout)(router)
	handler = logger.HTTPMiddleware(appLogger)(handler)
	handler = m.HTTPMetricsMiddleware()(handler)
	rateCfg := middleware.DefaultRateLimitConfig()
	rateCfg.RequestsPerMinute = 300
	rateCfg.BurstSize = 600
	rateCfg.SkipPaths = []string{"/health", "/ready", "/live", "/metrics"}
	handler = middleware.RateLimit(rateCfg)(handler)
	handler = middleware.CORS(nil)(handler)
	handler = middleware.Recovery(appLogger)(handler)
	handler = middleware.RequestID(handler)
	return handler
}

// requestTimeout bounds request handling so a slow store query turns
// into a deadline error instead of an open-ended stall.
func requestTimeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
