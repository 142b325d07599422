// Package metrics exports pipeline and HTTP counters for prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jobflow-engine/internal/domain"
	"jobflow-engine/internal/pipeline"
)

const namespace = "jobflow"

type Metrics struct {
	reg *prometheus.Registry

	runs     *prometheus.CounterVec
	postings *prometheus.CounterVec
	duration prometheus.Histogram

	httpDuration *prometheus.SummaryVec
	httpRequests *prometheus.CounterVec

	now func() time.Time
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Pipeline runs by terminal phase.",
		}, []string{"outcome"}),
		postings: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "postings_total",
			Help:      "Postings counted per pipeline stage.",
		}, []string{"stage"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Wall time from discovery to a terminal phase.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		httpDuration: f.NewSummaryVec(prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Objectives: map[float64]float64{
				0.5:  0.05,
				0.9:  0.01,
				0.99: 0.001,
			},
		}, []string{"method", "path", "status_code"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status_code"}),
		now: time.Now,
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// RunObserver returns an observer for a single run. Counters are added
// once, when the run reaches Done or Aborted.
func (m *Metrics) RunObserver() pipeline.Observer {
	return &runObserver{m: m}
}

type runObserver struct {
	m *Metrics

	mu       sync.Mutex
	started  time.Time
	progress domain.RunProgress
	recorded bool
}

func (o *runObserver) OnPhaseChange(p pipeline.Phase) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if p == pipeline.PhaseDiscovering {
		o.started = o.m.now()
		return
	}
	if !p.Terminal() || o.recorded {
		return
	}
	o.recorded = true

	o.m.runs.WithLabelValues(string(p)).Inc()
	o.m.postings.WithLabelValues("found").Add(float64(o.progress.Found))
	o.m.postings.WithLabelValues("scored").Add(float64(o.progress.Scored))
	o.m.postings.WithLabelValues("qualified").Add(float64(o.progress.Qualified))
	o.m.postings.WithLabelValues("drafted").Add(float64(o.progress.Drafted))
	if !o.started.IsZero() {
		o.m.duration.Observe(o.m.now().Sub(o.started).Seconds())
	}
}

func (o *runObserver) OnLog(pipeline.LogEntry) {}

func (o *runObserver) OnProgress(p domain.RunProgress) {
	o.mu.Lock()
	o.progress = p
	o.mu.Unlock()
}

// Middleware records request counts and latency, labelled by the ServeMux
// route pattern. It must wrap the mux directly so r.Pattern is visible.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		code := strconv.Itoa(sw.status)
		m.httpDuration.WithLabelValues(r.Method, path, code).Observe(time.Since(start).Seconds())
		m.httpRequests.WithLabelValues(r.Method, path, code).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
