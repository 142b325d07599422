package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobflow-engine/internal/domain"
	"jobflow-engine/internal/pipeline"
)

func TestRunObserverRecordsOnTerminalPhase(t *testing.T) {
	m := New()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	obs := m.RunObserver()
	obs.OnPhaseChange(pipeline.PhaseDiscovering)
	obs.OnProgress(domain.RunProgress{Found: 5})
	obs.OnPhaseChange(pipeline.PhaseDeduplicating)
	obs.OnProgress(domain.RunProgress{Found: 5, Scored: 3, Qualified: 2, Drafted: 2})

	// nothing counted until the run ends
	assert.Equal(t, 0.0, testutil.ToFloat64(m.postings.WithLabelValues("found")))

	clock = clock.Add(42 * time.Second)
	obs.OnPhaseChange(pipeline.PhaseDone)
	obs.OnPhaseChange(pipeline.PhaseDone) // counted once

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("done")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.postings.WithLabelValues("found")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.postings.WithLabelValues("scored")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.postings.WithLabelValues("qualified")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.postings.WithLabelValues("drafted")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestRunObserverAborted(t *testing.T) {
	m := New()
	obs := m.RunObserver()
	obs.OnProgress(domain.RunProgress{})
	obs.OnPhaseChange(pipeline.PhaseDiscovering)
	obs.OnPhaseChange(pipeline.PhaseAborted)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("aborted")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.runs.WithLabelValues("done")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /jobs", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := m.Middleware(mux)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs", nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "GET /jobs", "418")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "jobflow_http_requests_total"))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
