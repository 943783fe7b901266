package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestRunAggregatesWorstStatus(t *testing.T) {
	c := NewChecker()
	c.Register("engine", CountCheck("documents", func() int { return 3 }))
	c.Register("redis", PingCheck(fakePinger{err: errors.New("refused")}, true))

	report := c.Run(context.Background())
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Equal(t, "3 documents", report.Components["engine"].Message)
	assert.Equal(t, "refused", report.Components["redis"].Message)

	c.Register("postgres", PingCheck(fakePinger{err: errors.New("down")}, false))
	assert.Equal(t, StatusDown, c.Run(context.Background()).Status)
}

func TestPingCheckNotConfigured(t *testing.T) {
	got := PingCheck(nil, false)(context.Background())
	assert.Equal(t, StatusDegraded, got.Status)
}

func TestReadyHandler(t *testing.T) {
	c := NewChecker()
	c.Register("redis", PingCheck(fakePinger{err: errors.New("refused")}, true))

	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var report Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, StatusDegraded, report.Status)

	c.Register("postgres", PingCheck(fakePinger{err: errors.New("down")}, false))
	rec = httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLiveHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewChecker().LiveHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}
