// Package indexer hosts the search engine: it owns the term pool, the
// inverted index and the document store, and answers ranked and per-document
// queries over them.
package indexer

import (
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/document"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/docstore"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/intern"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/accumulator"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/matcher"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
)

// Engine is safe for concurrent use. Add and Remove are serialized against
// everything else; queries run concurrently with each other.
type Engine struct {
	mu       sync.RWMutex
	parser   *parser.Parser
	terms    *intern.Pool
	index    *index.InvertedIndex
	docs     *docstore.Store
	ranker   *ranker.Ranker
	policy   executor.Policy
	shards   int
	metrics  *metrics.Metrics
	logger   *slog.Logger
	revision atomic.Uint64
}

// New creates an empty engine with the given stop words.
func New(stopWords []string, opts ...Option) (*Engine, error) {
	p, err := parser.New(stopWords)
	if err != nil {
		return nil, fmt.Errorf("creating query parser: %w", err)
	}
	e := &Engine{
		parser: p,
		terms:  intern.New(),
		index:  index.New(),
		docs:   docstore.New(),
		policy: executor.Sequential,
		shards: accumulator.DefaultShards,
		logger: slog.Default().With("component", "indexer"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.ranker = ranker.New(e.index, e.docs, e.shards)
	e.logger.Info("engine created",
		"stop_words", len(p.StopWords()),
		"default_policy", e.policy.Name(),
		"accumulator_shards", e.shards,
	)
	return e, nil
}

// NewFromText creates an engine from space-separated stop words.
func NewFromText(stopWords string, opts ...Option) (*Engine, error) {
	p, err := parser.NewFromText(stopWords)
	if err != nil {
		return nil, fmt.Errorf("creating query parser: %w", err)
	}
	return New(p.StopWords(), opts...)
}

// AddDocument indexes text under id. Stop words are dropped and each
// remaining word contributes 1/n to its term frequency, n being the number of
// remaining words. Id errors take precedence over word errors. A failed call
// leaves the engine unchanged.
func (e *Engine) AddDocument(id int, text string, status document.Status, ratings []int) error {
	if id < 0 {
		e.metrics.MutationRejected("add")
		return fmt.Errorf("%w: negative id %d", apperrors.ErrInvalidID, id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.docs.Has(id) {
		e.metrics.MutationRejected("add")
		return fmt.Errorf("%w: document %d already exists", apperrors.ErrInvalidID, id)
	}
	words, err := e.parser.ContentWords(text)
	if err != nil {
		e.metrics.MutationRejected("add")
		return fmt.Errorf("adding document %d: %w", id, err)
	}

	freqs := make(map[string]float64, len(words))
	if len(words) > 0 {
		inv := 1 / float64(len(words))
		for _, w := range words {
			freqs[e.terms.Intern(w)] += inv
		}
	}
	for term, tf := range freqs {
		e.index.Add(term, id, tf)
	}
	e.docs.Put(id, document.Meta{
		Rating: document.AverageRating(ratings),
		Status: status,
	}, freqs)
	e.revision.Add(1)

	e.metrics.DocumentAdded(e.docs.Len(), e.terms.Len())
	e.logger.Debug("document indexed",
		"doc_id", id,
		"words", len(words),
		"terms", len(freqs),
		"status", status,
	)
	return nil
}

// FindTopDocuments returns at most ranker.MaxResults documents matching raw.
// Without options only ACTUAL documents are considered.
func (e *Engine) FindTopDocuments(raw string, opts ...CallOption) ([]document.Document, error) {
	cfg := e.callConfig(opts)
	start := time.Now()

	q, err := e.parser.Parse(raw)
	if err != nil {
		e.metrics.ObserveQuery(cfg.policy.Name(), time.Since(start), 0, err)
		return nil, err
	}

	e.mu.RLock()
	results := e.ranker.Rank(cfg.policy, q, cfg.predicate)
	e.mu.RUnlock()

	elapsed := time.Since(start)
	e.metrics.ObserveQuery(cfg.policy.Name(), elapsed, len(results), nil)
	e.logger.Debug("query executed",
		"query", raw,
		"plus", len(q.Plus),
		"minus", len(q.Minus),
		"results", len(results),
		"policy", cfg.policy.Name(),
		"elapsed", elapsed,
	)
	return results, nil
}

// MatchDocument returns the plus words of raw found in document id together
// with its status. A minus word present in the document yields an empty word
// list. The id is checked before the query is parsed.
func (e *Engine) MatchDocument(raw string, id int, opts ...CallOption) ([]string, document.Status, error) {
	cfg := e.callConfig(opts)

	e.mu.RLock()
	defer e.mu.RUnlock()

	meta, ok := e.docs.Meta(id)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %d", apperrors.ErrUnknownDocument, id)
	}
	q, err := e.parser.Parse(raw)
	if err != nil {
		return nil, 0, err
	}
	return matcher.Match(cfg.policy, q, e.docs.WordFrequencies(id)), meta.Status, nil
}

// RemoveDocument purges id from the store and from every posting list.
// Under a parallel policy the posting lists are updated concurrently, one
// task per term.
func (e *Engine) RemoveDocument(id int, opts ...CallOption) error {
	cfg := e.callConfig(opts)

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.docs.Has(id) {
		e.metrics.MutationRejected("remove")
		return fmt.Errorf("%w: %d", apperrors.ErrUnknownDocument, id)
	}
	terms := e.docs.Terms(id)
	cfg.policy.Run(len(terms), func(i int) {
		e.index.RemovePosting(terms[i], id)
	})
	e.index.Prune(terms)
	e.docs.Delete(id)
	e.revision.Add(1)

	e.metrics.DocumentRemoved(e.docs.Len())
	e.logger.Debug("document removed",
		"doc_id", id,
		"terms", len(terms),
		"policy", cfg.policy.Name(),
	)
	return nil
}

// GetWordFrequencies returns a copy of the term frequencies of id, or an
// empty map when id is not indexed.
func (e *Engine) GetWordFrequencies(id int) map[string]float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	freqs := e.docs.WordFrequencies(id)
	if freqs == nil {
		return map[string]float64{}
	}
	return maps.Clone(freqs)
}

// DocumentCount returns the number of live documents.
func (e *Engine) DocumentCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.docs.Len()
}

// IDs returns the live ids in ascending order as of the call. The sequence
// may be ranged over repeatedly and is unaffected by later mutations.
func (e *Engine) IDs() iter.Seq[int] {
	e.mu.RLock()
	ids := e.docs.IDs()
	e.mu.RUnlock()
	return slices.Values(ids)
}

// Revision increases with every successful mutation.
func (e *Engine) Revision() uint64 {
	return e.revision.Load()
}

// VocabularySize returns the number of distinct terms interned so far,
// including terms of removed documents.
func (e *Engine) VocabularySize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.terms.Len()
}

// StopWords returns the configured stop words in ascending order.
func (e *Engine) StopWords() []string {
	return e.parser.StopWords()
}
