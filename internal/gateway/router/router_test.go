package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	ingesthandler "github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/handler"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/requestqueue"
	searchhandler "github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
	pkgmw "github.com/Adithya-Monish-Kumar-K/search-server/pkg/middleware"
)

func newServer(t *testing.T) http.Handler {
	t.Helper()
	e, err := indexer.NewFromText("and in on")
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	checker := health.NewChecker()
	checker.Register("engine", health.CountCheck("documents", e.DocumentCount))
	return New(Deps{
		Search:   searchhandler.New(searchhandler.Deps{Engine: e, Queue: requestqueue.New(e)}),
		Ingest:   ingesthandler.New(e),
		Health:   checker,
		Metrics:  m,
		Gatherer: reg,
	})
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func TestEndToEnd(t *testing.T) {
	srv := newServer(t)

	for _, body := range []string{
		`{"id":1,"text":"white cat and fashionable collar","ratings":[8,-3]}`,
		`{"id":2,"text":"fluffy cat fluffy tail","ratings":[7,2,7]}`,
		`{"id":3,"text":"groomed dog expressive eyes","ratings":[5,-12,2,1]}`,
	} {
		rec := serve(srv, http.MethodPost, "/api/v1/documents", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.NotEmpty(t, rec.Header().Get(pkgmw.RequestIDHeader))
	}

	rec := serve(srv, http.MethodGet, "/api/v1/search?q=fluffy+cat", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":2`)

	rec = serve(srv, http.MethodDelete, "/api/v1/documents/2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(srv, http.MethodGet, "/api/v1/documents", "")
	assert.JSONEq(t, `{"ids":[1,3],"count":2}`, rec.Body.String())

	rec = serve(srv, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "2 documents")

	rec = serve(srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "search_documents_added_total")
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestMethodNotAllowed(t *testing.T) {
	rec := serve(newServer(t), http.MethodPut, "/api/v1/search", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
