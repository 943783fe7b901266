package indexer

import (
	"context"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/document"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
)

// Option configures an Engine at construction.
type Option func(*Engine)

// WithLogger replaces the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithDefaultPolicy sets the execution policy used when a call does not pass
// WithPolicy. The engine does not take ownership of the policy.
func WithDefaultPolicy(p executor.Policy) Option {
	return func(e *Engine) {
		if p != nil {
			e.policy = p
		}
	}
}

// WithAccumulatorShards sets the bucket count of the accumulator used for
// parallel ranking.
func WithAccumulatorShards(n int) Option {
	return func(e *Engine) {
		e.shards = n
	}
}

type callConfig struct {
	predicate document.Predicate
	status    document.Status
	custom    bool
	policy    executor.Policy
	ctx       context.Context
}

// CallOption adjusts a single FindTopDocuments, MatchDocument or
// RemoveDocument call.
type CallOption func(*callConfig)

// WithStatus keeps only documents with the given status.
func WithStatus(s document.Status) CallOption {
	return func(c *callConfig) {
		c.predicate = document.WithStatus(s)
		c.status = s
		c.custom = false
	}
}

// WithPredicate filters documents with p. The predicate runs under the engine
// read lock, possibly from several goroutines, and must not call back into
// the engine.
func WithPredicate(p document.Predicate) CallOption {
	return func(c *callConfig) {
		if p != nil {
			c.predicate = p
			c.custom = true
		}
	}
}

// WithPolicy runs the call under p instead of the engine default.
func WithPolicy(p executor.Policy) CallOption {
	return func(c *callConfig) {
		if p != nil {
			c.policy = p
		}
	}
}

// WithContext carries ctx to searchers that wrap the engine and do I/O, such
// as the query cache. The engine itself never blocks on it.
func WithContext(ctx context.Context) CallOption {
	return func(c *callConfig) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

// CallContext returns the context passed with WithContext, or
// context.Background when there is none.
func CallContext(opts ...CallOption) context.Context {
	var cfg callConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.ctx == nil {
		return context.Background()
	}
	return cfg.ctx
}

// StatusFilter reports the status a call with opts is restricted to. ok is
// false when the last filtering option is a custom predicate.
func StatusFilter(opts ...CallOption) (status document.Status, ok bool) {
	cfg := callConfig{status: document.StatusActual}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg.status, !cfg.custom
}

func (e *Engine) callConfig(opts []CallOption) callConfig {
	cfg := callConfig{
		predicate: document.WithStatus(document.StatusActual),
		policy:    e.policy,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
