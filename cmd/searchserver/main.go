package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	docsFlag := &cli.StringFlag{
		Name:     "docs",
		Aliases:  []string{"d"},
		Usage:    "Path to a JSON-lines file of document events",
		Required: true,
	}
	return &cli.App{
		Name:  "searchserver",
		Usage: "TF-IDF document search server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
				EnvVars: []string{"SS_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Override logging level (debug, info, warn, error)",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP search service",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "docs",
						Usage: "JSON-lines file of document events to index before serving",
					},
				},
			},
			{
				Name:   "search",
				Usage:  "Index a JSON-lines file and run queries against it",
				Action: searchCommand,
				Flags: []cli.Flag{
					docsFlag,
					&cli.StringSliceFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Query to run; repeatable. Read from stdin, one per line, when absent",
					},
					&cli.StringFlag{
						Name:  "status",
						Usage: "Only rank documents with this status",
					},
					&cli.IntFlag{
						Name:  "page-size",
						Usage: "Results per printed page (0 uses search.pageSize)",
					},
					&cli.BoolFlag{
						Name:  "match",
						Usage: "Also print the matched words of every document",
					},
					&cli.BoolFlag{
						Name:  "batch",
						Usage: "Evaluate all queries concurrently and print the joined results",
					},
				},
			},
			{
				Name:   "dedup",
				Usage:  "Index a JSON-lines file and remove duplicate documents",
				Action: dedupCommand,
				Flags:  []cli.Flag{docsFlag},
			},
			{
				Name:   "publish",
				Usage:  "Publish document events from a JSON-lines file to Kafka",
				Action: publishCommand,
				Flags:  []cli.Flag{docsFlag},
			},
			{
				Name:   "loadtest",
				Usage:  "Drive a running server with concurrent search requests",
				Action: loadtestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "url",
						Usage: "Base URL of the search server",
						Value: "http://localhost:8080",
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Number of concurrent workers",
						Value: 10,
					},
					&cli.DurationFlag{
						Name:  "duration",
						Usage: "Test duration",
						Value: 30 * time.Second,
					},
					&cli.StringSliceFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Query to send; repeatable",
					},
					&cli.StringFlag{
						Name:  "policy",
						Usage: "Execution policy requested per query (sequential, parallel)",
					},
				},
			},
		},
	}
}

// setup loads the configuration once and installs the default logger.
func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata["config"] = cfg
	return nil
}

func configFrom(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata["config"].(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

// buildEngine creates the engine and, when parallel execution is enabled,
// the worker pool it uses by default. The caller releases the pool.
func buildEngine(cfg config.EngineConfig, m *metrics.Metrics) (*indexer.Engine, *executor.Pool, error) {
	opts := []indexer.Option{
		indexer.WithMetrics(m),
		indexer.WithAccumulatorShards(cfg.AccumulatorShards),
	}
	var pool *executor.Pool
	if cfg.Parallel {
		var err error
		pool, err = executor.NewPool(cfg.Workers)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, indexer.WithDefaultPolicy(pool))
	}
	engine, err := indexer.New(cfg.StopWords, opts...)
	if err != nil {
		if pool != nil {
			pool.Release()
		}
		return nil, nil, fmt.Errorf("creating engine: %w", err)
	}
	return engine, pool, nil
}
