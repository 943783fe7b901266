package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/gateway/router"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	ingesthandler "github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/handler"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/loader"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/requestqueue"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/executor"
	searchhandler "github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/search-server/pkg/redis"
)

func serveCommand(c *cli.Context) error {
	cfg := configFrom(c)
	slog.Info("starting search server",
		"port", cfg.Server.Port,
		"parallel", cfg.Engine.Parallel,
		"workers", cfg.Engine.Workers,
	)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	engine, pool, err := buildEngine(cfg.Engine, m)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Release()
	}

	checker := health.NewChecker()
	checker.Register("index_engine", health.CountCheck("documents", engine.DocumentCount))

	if path := c.String("docs"); path != "" {
		n, err := indexFile(engine, path)
		if err != nil {
			return err
		}
		slog.Info("documents indexed from file", "path", path, "count", n)
	}

	if cfg.Postgres.Enabled {
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer db.Close()
		checker.Register("postgres", health.PingCheck(db, false))

		n, err := loader.LoadPostgres(ctx, db, cfg.Postgres.DocumentsTable, func(ev ingestion.DocumentEvent) error {
			return consumer.Apply(engine, ev)
		})
		if err != nil {
			return fmt.Errorf("loading documents from postgres: %w", err)
		}
		slog.Info("documents loaded from postgres", "table", cfg.Postgres.DocumentsTable, "count", n)
	}

	var queryCache *cache.QueryCache
	if cfg.Search.CacheEnabled && cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			checker.Register("redis", health.PingCheck(redisClient, true))
			queryCache, err = cache.New(redisClient, engine, cfg.Redis.CacheTTL, m)
			if err != nil {
				return err
			}
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	if cfg.Kafka.Enabled {
		docConsumer := kafka.NewConsumer(cfg.Kafka, consumer.HandleMessage(engine))
		checker.Register("kafka", health.PingCheck(kafka.BrokerPinger{Brokers: cfg.Kafka.Brokers}, true))
		go func() {
			if err := docConsumer.Start(ctx); err != nil {
				slog.Error("document consumer error", "error", err)
			}
		}()
		slog.Info("document consumer started", "topic", cfg.Kafka.DocumentTopic)
	}

	var searcher requestqueue.Searcher = engine
	if queryCache != nil {
		searcher = queryCache
	}
	queue := requestqueue.New(searcher,
		requestqueue.WithWindow(cfg.RequestQueue.Window),
		requestqueue.WithRateLimit(cfg.RequestQueue.RatePerSecond, cfg.RequestQueue.Burst),
		requestqueue.WithMetrics(m),
	)

	deps := searchhandler.Deps{
		Engine: engine,
		Queue:  queue,
		Cache:  queryCache,
		Search: cfg.Search,
	}
	if pool != nil {
		deps.Parallel = pool
	}

	handler := router.New(router.Deps{
		Search:         searchhandler.New(deps),
		Ingest:         ingesthandler.New(engine, policyOptions(pool)...),
		Health:         checker,
		Metrics:        m,
		Gatherer:       reg,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port, reg)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := shutdownMetrics(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
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

	slog.Info("search server listening", "addr", server.Addr, "documents", engine.DocumentCount())
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	slog.Info("search server stopped")
	return nil
}

// policyOptions routes mutations through the pool when one exists.
func policyOptions(pool *executor.Pool) []indexer.CallOption {
	if pool == nil {
		return nil
	}
	return []indexer.CallOption{indexer.WithPolicy(pool)}
}
