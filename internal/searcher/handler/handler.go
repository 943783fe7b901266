// Package handler serves the read side of the search engine over HTTP:
// ranked search, document matching, batch queries, document listing and
// request-window statistics.
package handler

import (
	"encoding/json"
	"errors"
	"iter"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/document"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/requestqueue"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/batch"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/paginator"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/middleware"
)

const maxBatchQueries = 1000

// Engine is the read surface of *indexer.Engine.
type Engine interface {
	FindTopDocuments(raw string, opts ...indexer.CallOption) ([]document.Document, error)
	MatchDocument(raw string, id int, opts ...indexer.CallOption) ([]string, document.Status, error)
	GetWordFrequencies(id int) map[string]float64
	DocumentCount() int
	IDs() iter.Seq[int]
}

// Deps are the collaborators of a Handler. Cache and Parallel are optional.
type Deps struct {
	Engine   Engine
	Queue    *requestqueue.Queue
	Cache    *cache.QueryCache
	Parallel executor.Policy
	Search   config.SearchConfig
}

type Handler struct {
	engine   Engine
	searcher batch.Searcher
	queue    *requestqueue.Queue
	cache    *cache.QueryCache
	parallel executor.Policy
	search   config.SearchConfig
	logger   *slog.Logger
}

func New(d Deps) *Handler {
	h := &Handler{
		engine:   d.Engine,
		searcher: d.Engine,
		queue:    d.Queue,
		cache:    d.Cache,
		parallel: d.Parallel,
		search:   d.Search,
		logger:   slog.Default().With("component", "search-handler"),
	}
	if d.Cache != nil {
		h.searcher = d.Cache
	}
	return h
}

// SearchResponse is the body of a search answer. Page and Pages are set
// only when the caller asked for a page size.
type SearchResponse struct {
	Query     string              `json:"query"`
	Status    document.Status     `json:"status"`
	Policy    string              `json:"policy"`
	Results   []document.Document `json:"results"`
	Total     int                 `json:"total"`
	Page      int                 `json:"page,omitempty"`
	Pages     int                 `json:"pages,omitempty"`
	LatencyMs int64               `json:"latency_ms"`
}

// Search answers GET /api/v1/search?q=&status=&policy=&page=&page_size=.
// Every search is recorded by the request queue.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)
	params := r.URL.Query()

	query := params.Get("q")
	status, err := parseStatus(params.Get("status"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	policy, err := h.policy(params.Get("policy"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var docs []document.Document
	switch {
	case policy != nil:
		docs, err = h.queue.AddFindRequest(query, indexer.WithStatus(status), indexer.WithPolicy(policy))
	case params.Has("status"):
		docs, err = h.queue.AddStatusRequest(query, status)
	default:
		docs, err = h.queue.AddFindRequest(query)
	}
	if err != nil {
		log.Warn("search failed", "query", query, "error", err)
		h.writeAppError(w, err)
		return
	}

	resp := SearchResponse{
		Query:   query,
		Status:  status,
		Policy:  "default",
		Results: docs,
		Total:   len(docs),
	}
	if policy != nil {
		resp.Policy = policy.Name()
	}
	if params.Has("page_size") {
		size, err := positiveInt(params.Get("page_size"))
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "page_size must be a positive integer")
			return
		}
		page := 0
		if params.Has("page") {
			if page, err = strconv.Atoi(params.Get("page")); err != nil || page < 0 {
				h.writeError(w, http.StatusBadRequest, "page must be a non-negative integer")
				return
			}
		}
		resp.Results, resp.Pages = paginator.Page(docs, size, page)
		resp.Page = page
	}
	resp.LatencyMs = time.Since(start).Milliseconds()

	log.Info("search completed",
		"query", query,
		"status", status,
		"returned", len(docs),
		"latency_ms", resp.LatencyMs,
		"request_id", middleware.GetRequestID(ctx),
	)
	h.writeJSON(w, http.StatusOK, resp)
}

// MatchResponse is the body of a match answer.
type MatchResponse struct {
	ID     int             `json:"id"`
	Words  []string        `json:"words"`
	Status document.Status `json:"status"`
}

// Match answers GET /api/v1/match?q=&id=&policy=.
func (h *Handler) Match(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	id, err := strconv.Atoi(params.Get("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "id must be an integer")
		return
	}
	var opts []indexer.CallOption
	policy, err := h.policy(params.Get("policy"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if policy != nil {
		opts = append(opts, indexer.WithPolicy(policy))
	}
	words, status, err := h.engine.MatchDocument(params.Get("q"), id, opts...)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, MatchResponse{ID: id, Words: words, Status: status})
}

// BatchRequest is the body of POST /api/v1/search/batch.
type BatchRequest struct {
	Queries  []string         `json:"queries"`
	Status   *document.Status `json:"status,omitempty"`
	Joined   bool             `json:"joined"`
	PageSize int              `json:"page_size,omitempty"`
}

// BatchResponse carries either per-query results or, when joined, one
// flattened list, optionally split into pages.
type BatchResponse struct {
	Results [][]document.Document `json:"results,omitempty"`
	Joined  []document.Document   `json:"joined,omitempty"`
	Pages   [][]document.Document `json:"pages,omitempty"`
	Total   int                   `json:"total"`
}

// Batch answers POST /api/v1/search/batch. Queries are evaluated
// concurrently and bypass the request queue.
func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Queries) > maxBatchQueries {
		h.writeError(w, http.StatusBadRequest, "too many queries")
		return
	}
	if req.PageSize < 0 {
		h.writeError(w, http.StatusBadRequest, "page_size must not be negative")
		return
	}
	opts := batch.Options{
		MaxConcurrent: h.search.MaxConcurrentQueries,
		Timeout:       h.search.BatchTimeout,
	}
	if req.Status != nil {
		opts.CallOptions = []indexer.CallOption{indexer.WithStatus(*req.Status)}
	}

	ctx := r.Context()
	var resp BatchResponse
	if req.Joined {
		joined, err := batch.ProcessQueriesJoined(ctx, h.searcher, req.Queries, opts)
		if err != nil {
			h.writeAppError(w, err)
			return
		}
		resp.Total = len(joined)
		if req.PageSize > 0 {
			resp.Pages = paginator.Paginate(joined, req.PageSize)
		} else {
			resp.Joined = joined
		}
	} else {
		results, err := batch.ProcessQueries(ctx, h.searcher, req.Queries, opts)
		if err != nil {
			h.writeAppError(w, err)
			return
		}
		for _, docs := range results {
			resp.Total += len(docs)
		}
		resp.Results = results
	}
	logger.FromContext(ctx).Info("batch search completed",
		"queries", len(req.Queries),
		"returned", resp.Total,
	)
	h.writeJSON(w, http.StatusOK, resp)
}

// ListDocuments answers GET /api/v1/documents with the live ids in ascending
// order.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ids := slices.Collect(h.engine.IDs())
	if ids == nil {
		ids = []int{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"ids":   ids,
		"count": len(ids),
	})
}

// WordFrequencies answers GET /api/v1/documents/{id}/frequencies. An
// unknown id yields an empty object, like the engine.
func (h *Handler) WordFrequencies(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "id must be an integer")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"id":          id,
		"frequencies": h.engine.GetWordFrequencies(id),
	})
}

// RequestStats answers GET /api/v1/requests/stats.
func (h *Handler) RequestStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.queue.Stats())
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": strconv.FormatFloat(hitRate, 'f', 1, 64) + "%",
		"store":    h.cache.StoreState().String(),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) policy(name string) (executor.Policy, error) {
	switch name {
	case "":
		return nil, nil
	case executor.Sequential.Name():
		return executor.Sequential, nil
	case "parallel":
		if h.parallel == nil {
			return nil, errors.New("parallel policy is not enabled")
		}
		return h.parallel, nil
	default:
		return nil, errors.New("policy must be sequential or parallel")
	}
}

func parseStatus(name string) (document.Status, error) {
	if name == "" {
		return document.StatusActual, nil
	}
	return document.ParseStatus(name)
}

func positiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, errors.New("not positive")
	}
	return n, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// writeAppError answers with the status code of err's kind. Server-side
// failures are not described to the caller.
func (h *Handler) writeAppError(w http.ResponseWriter, err error) {
	code := apperrors.HTTPStatusCode(err)
	msg := err.Error()
	if code >= http.StatusInternalServerError && !errors.Is(err, apperrors.ErrTimeout) {
		h.logger.Error("request failed", "error", err)
		msg = "internal error"
	}
	h.writeError(w, code, msg)
}
