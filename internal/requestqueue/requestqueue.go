// Package requestqueue forwards search requests to an engine while tracking,
// over a sliding window of the most recent requests, how many returned no
// documents.
package requestqueue

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/document"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
)

// DefaultWindow is one day of requests at one request per minute.
const DefaultWindow = 1440

// Searcher is the engine surface the queue needs.
type Searcher interface {
	FindTopDocuments(raw string, opts ...indexer.CallOption) ([]document.Document, error)
}

type Option func(*Queue)

// WithWindow sets how many recent requests are remembered.
func WithWindow(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.window = n
		}
	}
}

// WithRateLimit refuses requests beyond perSecond with bursts of up to burst.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(q *Queue) {
		if perSecond > 0 && burst > 0 {
			q.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(q *Queue) {
		q.metrics = m
	}
}

// Queue is safe for concurrent use.
type Queue struct {
	searcher Searcher
	window   int
	limiter  *rate.Limiter
	group    singleflight.Group
	metrics  *metrics.Metrics
	logger   *slog.Logger

	mu      sync.Mutex
	empty   []bool
	next    int
	filled  int
	noMatch int
}

func New(s Searcher, opts ...Option) *Queue {
	q := &Queue{
		searcher: s,
		window:   DefaultWindow,
		logger:   slog.Default().With("component", "request-queue"),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.empty = make([]bool, q.window)
	return q
}

// AddFindRequest runs a query restricted to ACTUAL documents, or to whatever
// opts select, and records whether it found anything. Concurrent identical
// requests without options share one evaluation but are each recorded.
// Failed and rate-limited requests are not recorded.
func (q *Queue) AddFindRequest(raw string, opts ...indexer.CallOption) ([]document.Document, error) {
	if len(opts) == 0 {
		return q.collapsed("default\x00"+raw, raw)
	}
	if err := q.allow(); err != nil {
		return nil, err
	}
	docs, err := q.searcher.FindTopDocuments(raw, opts...)
	if err != nil {
		return nil, err
	}
	q.record(len(docs) == 0)
	return docs, nil
}

// AddStatusRequest runs a query restricted to documents with status.
func (q *Queue) AddStatusRequest(raw string, status document.Status) ([]document.Document, error) {
	return q.collapsed(status.String()+"\x00"+raw, raw, indexer.WithStatus(status))
}

func (q *Queue) collapsed(key, raw string, opts ...indexer.CallOption) ([]document.Document, error) {
	if err := q.allow(); err != nil {
		return nil, err
	}
	v, err, shared := q.group.Do(key, func() (any, error) {
		return q.searcher.FindTopDocuments(raw, opts...)
	})
	if err != nil {
		return nil, err
	}
	docs := v.([]document.Document)
	if shared {
		docs = slices.Clone(docs)
	}
	q.record(len(docs) == 0)
	return docs, nil
}

func (q *Queue) allow() error {
	if q.limiter == nil || q.limiter.Allow() {
		return nil
	}
	q.metrics.RequestRejected()
	q.logger.Warn("request rejected by rate limiter")
	return fmt.Errorf("%w: request queue", apperrors.ErrRateLimited)
}

func (q *Queue) record(noResults bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.filled == q.window {
		if q.empty[q.next] {
			q.noMatch--
		}
	} else {
		q.filled++
	}
	q.empty[q.next] = noResults
	if noResults {
		q.noMatch++
	}
	q.next = (q.next + 1) % q.window
	q.metrics.SetNoResultRequests(q.noMatch)
}

// NoResultRequests returns how many requests in the window found nothing.
func (q *Queue) NoResultRequests() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.noMatch
}

// Stats describes the current window.
type Stats struct {
	Window           int `json:"window"`
	Requests         int `json:"requests"`
	NoResultRequests int `json:"no_result_requests"`
}

func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Window:           q.window,
		Requests:         q.filled,
		NoResultRequests: q.noMatch,
	}
}
