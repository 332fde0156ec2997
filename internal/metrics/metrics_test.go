package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fdly/internal/metrics"

	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	c := metrics.New()
	c.ObserveRequest("GET /categories", http.StatusOK, 120*time.Millisecond)
	c.ObserveRequest("GET /categories", http.StatusOK, 80*time.Millisecond)
	c.ObserveRequest("POST /markers", 0, time.Second)

	families, err := c.Registry().Gather()
	require.NoError(t, err)

	series := 0
	for _, mf := range families {
		if mf.GetName() == "fdly_api_requests_total" {
			series = len(mf.GetMetric())
		}
	}
	require.Equal(t, 2, series)
}

func TestHandlerExposesCounters(t *testing.T) {
	c := metrics.New()
	c.EntriesSynced("Tech", 3)
	c.TaskHandled("sync_category", nil)
	c.TaskHandled("mark_entries", errors.New("boom"))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, `fdly_entries_synced_total{category="Tech"} 3`)
	require.Contains(t, body, `fdly_tasks_total{kind="mark_entries",result="error"} 1`)
	require.Contains(t, body, `fdly_tasks_total{kind="sync_category",result="ok"} 1`)
}

func TestObserveRequest_OperationLabel(t *testing.T) {
	c := metrics.New()
	c.ObserveRequest("GET /profile", http.StatusUnauthorized, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	require.Contains(t, body, `fdly_api_requests_total{operation="GET /profile",status="401"} 1`)
	require.Contains(t, body, `fdly_api_request_duration_seconds_count{operation="GET /profile"} 1`)
}
