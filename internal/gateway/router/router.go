// Package router wires every HTTP route of the search server and applies the
// middleware chain (RequestID → CORS → Metrics → Timeout).
package router

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	ingesthandler "github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/handler"
	searchhandler "github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
	pkgmw "github.com/Adithya-Monish-Kumar-K/search-server/pkg/middleware"
)

// Deps are the handlers and instrumentation the router mounts. Metrics and
// Gatherer may be nil, in which case /metrics is not served.
type Deps struct {
	Search         *searchhandler.Handler
	Ingest         *ingesthandler.Handler
	Health         *health.Checker
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	RequestTimeout time.Duration
}

// New builds the full HTTP handler.
//
// Route table:
//
//	POST   /api/v1/documents                    → add document
//	DELETE /api/v1/documents/{id}               → remove document
//	POST   /api/v1/documents/deduplicate        → remove duplicates
//	GET    /api/v1/documents                    → live ids
//	GET    /api/v1/documents/{id}/frequencies   → word frequencies
//	GET    /api/v1/search                       → ranked search
//	POST   /api/v1/search/batch                 → batch search
//	GET    /api/v1/match                        → match document
//	GET    /api/v1/requests/stats               → request window stats
//	GET    /api/v1/cache/stats                  → cache stats
//	POST   /api/v1/cache/invalidate             → cache invalidation
//	GET    /health/live, /health/ready          → health
//	GET    /metrics                             → Prometheus
func New(d Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health/live", d.Health.LiveHandler())
	mux.HandleFunc("GET /health/ready", d.Health.ReadyHandler())
	if d.Gatherer != nil {
		mux.Handle("GET /metrics", metrics.Handler(d.Gatherer))
	}

	// Document API
	mux.HandleFunc("POST /api/v1/documents", d.Ingest.Add)
	mux.HandleFunc("DELETE /api/v1/documents/{id}", d.Ingest.Remove)
	mux.HandleFunc("POST /api/v1/documents/deduplicate", d.Ingest.Deduplicate)
	mux.HandleFunc("GET /api/v1/documents", d.Search.ListDocuments)
	mux.HandleFunc("GET /api/v1/documents/{id}/frequencies", d.Search.WordFrequencies)

	// Search API
	mux.HandleFunc("GET /api/v1/search", d.Search.Search)
	mux.HandleFunc("POST /api/v1/search/batch", d.Search.Batch)
	mux.HandleFunc("GET /api/v1/match", d.Search.Match)
	mux.HandleFunc("GET /api/v1/requests/stats", d.Search.RequestStats)

	// Cache API
	mux.HandleFunc("GET /api/v1/cache/stats", d.Search.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", d.Search.CacheInvalidate)

	// request → RequestID → CORS → Metrics → Timeout → mux
	var chain http.Handler = mux
	chain = pkgmw.Timeout(d.RequestTimeout)(chain)
	chain = pkgmw.Metrics(d.Metrics)(chain)
	chain = pkgmw.CORS(pkgmw.DefaultCORSConfig())(chain)
	chain = pkgmw.RequestID(chain)

	return chain
}
