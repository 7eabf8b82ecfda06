// Command searcher serves dictionary search and autocomplete over HTTP.
//
// At startup it loads every dictionary category from the configured source
// (a pack file, PostgreSQL or SQLite), builds the in-memory index and only
// then starts listening. A missing or malformed category aborts startup.
//
// Usage:
//
//	go run ./cmd/searcher [-config configs/development.yaml]
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

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/language"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/language/kagome"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/resource/source"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/searcher/suggest"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service",
		"port", cfg.Server.Port,
		"source", cfg.Resources.Source,
		"analyzer", cfg.Analyzer.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	buildStart := time.Now()
	store, err := buildIndex(ctx, cfg, m)
	if err != nil {
		slog.Error("index build failed", "error", err, "fatal", apperrors.IsFatal(err))
		os.Exit(1)
	}
	buildTook := time.Since(buildStart)

	var analyzer language.Analyzer
	if cfg.Analyzer.Enabled {
		a, err := kagome.New(cfg.Analyzer.CacheSize)
		if err != nil {
			slog.Warn("morphological analyzer unavailable, conjugated queries fall back to fuzzy matching", "error", err)
		} else {
			analyzer = a
		}
	}
	exec := executor.New(store, language.NewNormalizer(analyzer), cfg.Search, m)
	suggester := suggest.New(store, cfg.Suggest, m)

	checker := health.NewChecker()
	checker.Register("index", health.IndexCheck(store))

	var queryCache *cache.QueryCache
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			queryCache = cache.New(redisClient, cfg.Redis, m)
			checker.Register("redis", health.PingCheck(redisClient.Ping, false))
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	var collector *analytics.Collector
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents)
		defer producer.Close()
		collector = analytics.NewCollector(producer, cfg.Analytics)
		collector.Start(ctx)
		defer collector.Close()
		checker.Register("kafka", health.PingCheck(producer.Ping, false))

		stats := store.Stats()
		perCategory := make(map[string]int, len(stats.ByCategory))
		for c, n := range stats.ByCategory {
			perCategory[c.String()] = n
		}
		collector.TrackIndex(analytics.IndexEvent{
			Entries:    stats.Entries,
			ByCategory: perCategory,
			Grams:      stats.Grams,
			LatencyMs:  buildTook.Milliseconds(),
		})
		slog.Info("analytics collector enabled", "topic", cfg.Kafka.Topics.SearchEvents)
	}

	h := handler.New(exec, suggester, store, queryCache, collector)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/suggest", h.Suggest)
	mux.HandleFunc("GET /api/v1/index/stats", h.IndexStats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	var invalidate http.Handler = http.HandlerFunc(h.CacheInvalidate)
	if len(cfg.Server.AdminKeyHashes) > 0 {
		invalidate = middleware.AdminKey(cfg.Server.AdminKeyHashes)(invalidate)
	} else {
		slog.Warn("no admin keys configured, cache invalidation is unauthenticated")
	}
	mux.Handle("POST /api/v1/cache/invalidate", invalidate)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.RequestTimeout)(chain)
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	if cfg.Server.RateLimit > 0 {
		limiter := middleware.NewLimiter(cfg.Server.RateLimit, cfg.Server.RateLimitWindow)
		go limiter.Run(ctx)
		chain = middleware.RateLimit(limiter)(chain)
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		cors := middleware.DefaultCORSConfig()
		cors.AllowOrigins = cfg.Server.CORSOrigins
		chain = middleware.CORS(cors)(chain)
	}
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search service listening", "addr", server.Addr, "entries", store.Len())
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("search service stopped")
}

func buildIndex(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*index.Store, error) {
	loadCtx, cancel := context.WithTimeout(ctx, cfg.Resources.LoadTimeout)
	defer cancel()

	src, err := source.Open(loadCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening dictionary source: %w", err)
	}
	defer src.Close()
	return indexer.NewEngine(src, m).Build(loadCtx)
}
