// Package batch evaluates many queries against one searcher concurrently.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/document"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/resilience"
)

// DefaultMaxConcurrent bounds in-flight queries when Options leaves it unset.
const DefaultMaxConcurrent = 16

type Searcher interface {
	FindTopDocuments(raw string, opts ...indexer.CallOption) ([]document.Document, error)
}

// Options tunes a batch. Zero values mean the defaults: DefaultMaxConcurrent
// workers and no timeout.
type Options struct {
	MaxConcurrent int
	Timeout       time.Duration
	CallOptions   []indexer.CallOption
}

// ProcessQueries returns one result list per query, in the order of queries.
// The first failing query cancels the rest and its error is returned.
func ProcessQueries(ctx context.Context, s Searcher, queries []string, opts Options) ([][]document.Document, error) {
	results := make([][]document.Document, len(queries))
	if len(queries) == 0 {
		return results, nil
	}
	limit := opts.MaxConcurrent
	if limit <= 0 {
		limit = DefaultMaxConcurrent
	}
	start := time.Now()

	err := resilience.WithTimeout(ctx, opts.Timeout, "batch-search", func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(limit)
		callOpts := append(slices.Clip(opts.CallOptions), indexer.WithContext(gctx))
		for i, raw := range queries {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				docs, err := s.FindTopDocuments(raw, callOpts...)
				if err != nil {
					return fmt.Errorf("query %d %q: %w", i, raw, err)
				}
				results[i] = docs
				return nil
			})
		}
		return g.Wait()
	})
	if err != nil {
		return nil, err
	}
	slog.Default().Debug("batch evaluated",
		"component", "batch",
		"queries", len(queries),
		"workers", limit,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return results, nil
}

// ProcessQueriesJoined flattens the per-query results in query order.
func ProcessQueriesJoined(ctx context.Context, s Searcher, queries []string, opts Options) ([]document.Document, error) {
	perQuery, err := ProcessQueries(ctx, s, queries, opts)
	if err != nil {
		return nil, err
	}
	n := 0
	for _, docs := range perQuery {
		n += len(docs)
	}
	joined := make([]document.Document, 0, n)
	for _, docs := range perQuery {
		joined = append(joined, docs...)
	}
	return joined, nil
}
