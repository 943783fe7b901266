// Package cache stores FindTopDocuments results in Redis keyed by the
// normalized query, the status filter and the engine revision, so a mutation
// of the index makes every earlier entry unreachable.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/document"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/resilience"
)

const keyPrefix = "search:"

// Store is the key-value backend. *redis.Client from pkg/redis satisfies it.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// Engine is the part of *indexer.Engine the cache sits in front of.
type Engine interface {
	FindTopDocuments(raw string, opts ...indexer.CallOption) ([]document.Document, error)
	Revision() uint64
	StopWords() []string
}

type QueryCache struct {
	store   Store
	engine  Engine
	parser  *parser.Parser
	ttl     time.Duration
	group   singleflight.Group
	breaker *resilience.Breaker
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New builds a cache in front of engine. m may be nil. After repeated store
// failures the cache stops calling the store for a while and serves every
// query from the engine.
func New(store Store, engine Engine, ttl time.Duration, m *metrics.Metrics) (*QueryCache, error) {
	p, err := parser.New(engine.StopWords())
	if err != nil {
		return nil, fmt.Errorf("building cache query normalizer: %w", err)
	}
	return &QueryCache{
		store:   store,
		engine:  engine,
		parser:  p,
		ttl:     ttl,
		breaker: resilience.NewBreaker("query-cache", resilience.BreakerConfig{}),
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}, nil
}

// Find answers raw restricted to status from the cache, or from the engine
// on a miss, and reports whether it was a hit. Concurrent misses for the same
// key are evaluated once. Store failures degrade to a miss and are never
// returned.
func (c *QueryCache) Find(ctx context.Context, raw string, status document.Status) ([]document.Document, bool, error) {
	return c.find(ctx, raw, status, indexer.WithStatus(status))
}

// FindTopDocuments has the engine's signature so the cache can stand in for
// it, for example behind a request queue. Calls with a custom predicate go
// straight to the engine. The store is called with the context passed through
// indexer.WithContext.
func (c *QueryCache) FindTopDocuments(raw string, opts ...indexer.CallOption) ([]document.Document, error) {
	status, ok := indexer.StatusFilter(opts...)
	if !ok {
		return c.engine.FindTopDocuments(raw, opts...)
	}
	docs, _, err := c.find(indexer.CallContext(opts...), raw, status, opts...)
	return docs, err
}

func (c *QueryCache) find(ctx context.Context, raw string, status document.Status, opts ...indexer.CallOption) ([]document.Document, bool, error) {
	q, err := c.parser.Parse(raw)
	if err != nil {
		return nil, false, err
	}
	key := c.buildKey(c.engine.Revision(), q, status)

	if docs, ok := c.get(ctx, key); ok {
		c.hits.Add(1)
		c.metrics.CacheHit()
		return docs, true, nil
	}
	c.misses.Add(1)
	c.metrics.CacheMiss()

	val, err, _ := c.group.Do(key, func() (any, error) {
		if docs, ok := c.get(ctx, key); ok {
			return docs, nil
		}
		docs, err := c.engine.FindTopDocuments(raw, opts...)
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, docs)
		return docs, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]document.Document), false, nil
}

func (c *QueryCache) get(ctx context.Context, key string) ([]document.Document, bool) {
	var data []byte
	var found bool
	err := c.breaker.Do(func() error {
		var err error
		data, found, err = c.store.Get(ctx, key)
		return err
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return nil, false
	}
	if err != nil {
		c.logger.Error("cache get failed", "key", key, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	var docs []document.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return nil, false
	}
	if docs == nil {
		docs = []document.Document{}
	}
	c.logger.Debug("cache hit", "key", key)
	return docs, true
}

func (c *QueryCache) set(ctx context.Context, key string, docs []document.Document) {
	data, err := json.Marshal(docs)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Do(func() error {
		return c.store.Set(ctx, key, data, c.ttl)
	})
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// Invalidate deletes every cached result.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// StoreState reports whether the store is currently being called.
func (c *QueryCache) StoreState() resilience.State {
	return c.breaker.State()
}

func (c *QueryCache) buildKey(revision uint64, q *parser.Query, status document.Status) string {
	raw := fmt.Sprintf("rev=%d|status=%s|%s", revision, status, normalizeQuery(q))
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

// normalizeQuery renders the parsed query so that word order, duplicates
// and stop words do not affect the key.
func normalizeQuery(q *parser.Query) string {
	parts := []string{"+" + strings.Join(q.Plus, ",")}
	if len(q.Minus) > 0 {
		parts = append(parts, "-"+strings.Join(q.Minus, ","))
	}
	return strings.Join(parts, "|")
}
