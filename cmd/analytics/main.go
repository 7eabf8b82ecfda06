// Command analytics consumes search events published by the searcher and
// serves aggregated statistics.
//
// It keeps totals, zero-result queries, top queries, strategy win counts
// and latency percentiles in memory. With analytics.snapshots set to
// postgres or sqlite the aggregate is saved periodically and restored on
// the next start.
//
// Usage:
//
//	go run ./cmd/analytics [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/resource"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/resource/source"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/pkg/postgres"
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
	slog.Info("starting analytics service",
		"port", cfg.Analytics.Port,
		"topic", cfg.Kafka.Topics.SearchEvents,
		"snapshots", cfg.Analytics.Snapshots,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	aggregator := analytics.NewAggregator(nil)
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents, analytics.HandleEvent(aggregator))
	aggregator.SetConsumer(consumer)

	checker := health.NewChecker()

	store, closer, err := openSnapshots(ctx, cfg)
	if err != nil {
		slog.Error("failed to open snapshot store", "error", err)
		os.Exit(1)
	}
	if store != nil {
		defer closer.Close()
		if err := store.Migrate(ctx); err != nil {
			slog.Error("failed to migrate snapshot store", "error", err)
			os.Exit(1)
		}
		latest, err := store.Latest(ctx)
		if err != nil {
			slog.Warn("could not load last snapshot, starting empty", "error", err)
		} else if latest != nil {
			aggregator.Restore(*latest)
			slog.Info("restored analytics snapshot", "searches", latest.TotalSearches)
		}
		go store.Run(ctx, aggregator, cfg.Analytics.SnapshotInterval)
		if pinger, ok := closer.(interface{ Ping(context.Context) error }); ok {
			checker.Register("snapshots", health.PingCheck(pinger.Ping, false))
		}
	}

	go func() {
		if err := aggregator.Start(ctx); err != nil {
			slog.Error("aggregator error", "error", err)
		}
	}()

	h := analytics.NewHandler(aggregator, store)

	checker.Register("kafka", health.PingCheck(func(context.Context) error { return consumer.Err() }, false))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/analytics/stats", h.Stats)
	mux.HandleFunc("GET /api/v1/analytics/snapshots", h.Snapshots)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.RequestTimeout)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Analytics.Port),
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

	slog.Info("analytics service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("analytics service stopped")
}

// openSnapshots returns a nil store when snapshots are disabled.
func openSnapshots(ctx context.Context, cfg *config.Config) (*analytics.SnapshotStore, io.Closer, error) {
	switch cfg.Analytics.Snapshots {
	case "postgres":
		client, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		return analytics.NewSnapshotStore(client.DB, resource.Postgres), client, nil
	case "sqlite":
		db, err := source.OpenSQLite(cfg.Analytics.SnapshotPath)
		if err != nil {
			return nil, nil, err
		}
		return analytics.NewSnapshotStore(db, resource.SQLite), db, nil
	default:
		return nil, nil, nil
	}
}
