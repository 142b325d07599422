package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"jobflow-engine/internal/autopilot"
	"jobflow-engine/internal/config"
	"jobflow-engine/internal/domain"
	"jobflow-engine/internal/events"
	"jobflow-engine/internal/metrics"
	"jobflow-engine/internal/pipeline"
	"jobflow-engine/internal/store"
)

type fakePipeline struct {
	busy    bool
	started []domain.Query
}

func (f *fakePipeline) Start(trigger string, q domain.Query) (string, error) {
	if f.busy {
		return "", pipeline.ErrRunInProgress
	}
	f.started = append(f.started, q)
	return "run-1", nil
}

func (f *fakePipeline) Status() autopilot.Status {
	return autopilot.Status{Running: f.busy, RunID: "run-1", Phase: pipeline.PhaseScoringAndFiltering, Step: 1, Logs: []string{"[10:00:00] Scoring 2 postings for relevance"}}
}

type countingReloader struct{ n int }

func (c *countingReloader) Reload(context.Context) error {
	c.n++
	return nil
}

type fixture struct {
	srv      *httptest.Server
	jobs     *store.SQLiteStore
	pipe     *fakePipeline
	reloader *countingReloader
	hub      *events.Hub
	cfgPath  string
	cfgVal   *atomic.Value
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	db, err := store.Open(filepath.Join(dir, "jobflow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	s := store.NewSQLiteStore(db.Pool)

	cfgPath, err := config.EnsureUserConfig(dir, filepath.Join("..", "..", "config", "config.yml"))
	require.NoError(t, err)
	loadCfg := func() (config.Config, error) { return config.Load(cfgPath) }
	cfg, err := loadCfg()
	require.NoError(t, err)
	var cfgVal atomic.Value
	cfgVal.Store(cfg)

	f := &fixture{
		jobs:     s,
		pipe:     &fakePipeline{},
		reloader: &countingReloader{},
		hub:      events.NewHub(),
		cfgPath:  cfgPath,
		cfgVal:   &cfgVal,
	}
	d := Deps{
		Jobs:        s,
		Alerts:      s,
		Runs:        s,
		Pipeline:    f.pipe,
		Scheduler:   f.reloader,
		Hub:         f.hub,
		Publisher:   f.hub,
		Metrics:     metrics.New(),
		CfgVal:      &cfgVal,
		UserCfgPath: cfgPath,
		LoadCfg:     loadCfg,
		SQLite:      db.Pool,
	}
	f.srv = httptest.NewServer(Wrap(NewMux(d), d))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	body := decode[map[string]any](t, resp)
	assert.Equal(t, true, body["ok"])
	assert.EqualValues(t, 0, body["sse_subscribers"])
}

func TestRequestIDPassthroughAndSanitize(t *testing.T) {
	f := newFixture(t)

	req, _ := http.NewRequest(http.MethodGet, f.srv.URL+"/health", nil)
	req.Header.Set("X-Request-ID", "ui-42")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "ui-42", resp.Header.Get("X-Request-ID"))

	req, _ = http.NewRequest(http.MethodGet, f.srv.URL+"/health", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("a", 100))
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	got := resp.Header.Get("X-Request-ID")
	assert.NotEmpty(t, got)
	assert.NotEqual(t, strings.Repeat("a", 100), got)
}

func TestRecoverWritesEnvelope(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), RequestID, AccessLog, Recover)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var e APIError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&e))
	assert.Equal(t, "internal_error", e.Error.Code)
	assert.Equal(t, rec.Header().Get("X-Request-ID"), e.Error.RequestID)
}

func TestMethodNotAllowedEnvelope(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodDelete, "/health", "")
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	e := decode[APIError](t, resp)
	assert.Equal(t, "method_not_allowed", e.Error.Code)
	assert.NotEmpty(t, e.Error.RequestID)
}

func TestPipelineRun(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/pipeline/run", `{"keywords":"golang","location":"Remote"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "run-1", body["run_id"])
	require.Len(t, f.pipe.started, 1)
	assert.Equal(t, "golang", f.pipe.started[0].Keywords)

	resp = f.do(t, http.MethodPost, "/pipeline/run", `{"keywords":"  "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/pipeline/run", `{"keywords":"go","salary":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	f.pipe.busy = true
	resp = f.do(t, http.MethodPost, "/pipeline/run", `{"keywords":"go"}`)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "run_in_progress", decode[APIError](t, resp).Error.Code)
}

func TestPipelineStatusAndRuns(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/pipeline/status", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st := decode[autopilot.Status](t, resp)
	assert.Equal(t, pipeline.PhaseScoringAndFiltering, st.Phase)
	assert.Equal(t, 1, st.Step)
	assert.Len(t, st.Logs, 1)

	require.NoError(t, f.jobs.InsertRun(context.Background(), store.RunRecord{ID: "r1", Trigger: "manual", Keywords: "go", Phase: "done"}))
	resp = f.do(t, http.MethodGet, "/pipeline/runs?limit=5", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	runs := decode[[]store.RunRecord](t, resp)
	require.Len(t, runs, 1)
	assert.Equal(t, "r1", runs[0].ID)
}

func TestJobsListPatchDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.jobs.AppendJob(ctx, domain.JobRecord{
		ID: "auto-1", Company: "Acme", Role: "Go Dev", Status: domain.StatusDraft,
		CreatedDate: "2026-01-01", Origin: domain.OriginApplication,
	}))

	sub := f.hub.Subscribe()
	defer f.hub.Unsubscribe(sub)

	resp := f.do(t, http.MethodGet, "/jobs", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	jobs := decode[[]domain.JobRecord](t, resp)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Acme", jobs[0].Company)

	resp = f.do(t, http.MethodGet, "/jobs?status=Nope", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodPatch, "/jobs/auto-1", `{"status":"Applied"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = f.do(t, http.MethodGet, "/jobs?status=Applied", "")
	assert.Len(t, decode[[]domain.JobRecord](t, resp), 1)

	resp = f.do(t, http.MethodPatch, "/jobs/auto-1", `{"status":"Pending"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodDelete, "/jobs/auto-1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	evt := <-sub
	assert.Contains(t, evt, `"type":"job_deleted"`)

	resp = f.do(t, http.MethodDelete, "/jobs/auto-1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = f.do(t, http.MethodPatch, "/jobs/auto-1", `{"status":"Saved"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAlertsLifecycle(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/alerts", `{"keywords":"go","location":"Remote","frequency":"weekly"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	a := decode[domain.Alert](t, resp)
	assert.NotEmpty(t, a.ID)
	assert.True(t, a.Active)
	assert.Equal(t, domain.FrequencyWeekly, a.Frequency)
	assert.Equal(t, domain.DefaultDomain, a.Domain)

	resp = f.do(t, http.MethodPost, "/alerts", `{"keywords":"go","frequency":"hourly"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/alerts/"+a.ID+"/toggle", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[domain.Alert](t, resp).Active)

	resp = f.do(t, http.MethodGet, "/alerts", "")
	alerts := decode[[]domain.Alert](t, resp)
	require.Len(t, alerts, 1)
	assert.False(t, alerts[0].Active)

	resp = f.do(t, http.MethodDelete, "/alerts/"+a.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = f.do(t, http.MethodPost, "/alerts/"+a.ID+"/toggle", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	assert.Equal(t, 3, f.reloader.n)
}

func TestConfigGetPutValidate(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/config", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cfg := decode[config.Config](t, resp)
	assert.Equal(t, 38471, cfg.App.Port)

	sub := f.hub.Subscribe()
	defer f.hub.Unsubscribe(sub)

	cfg.Discovery.MaxResults = 7
	b, err := json.Marshal(cfg)
	require.NoError(t, err)
	resp = f.do(t, http.MethodPut, "/config", string(b))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 7, f.cfgVal.Load().(config.Config).Discovery.MaxResults)
	require.Len(t, sub, 1)
	assert.Contains(t, <-sub, `"type":"config_updated"`)

	raw, err := os.ReadFile(f.cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "max_results: 7")

	cfg.Discovery.MaxResults = 0
	b, _ = json.Marshal(cfg)
	resp = f.do(t, http.MethodPut, "/config", string(b))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	vr := decode[config.Validation](t, resp)
	assert.NotEmpty(t, vr.Errors)

	resp = f.do(t, http.MethodPut, "/config", `{"nope":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodPut, "/config", string(b)+` {}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/config/validate", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[config.Validation](t, resp).OK())

	resp = f.do(t, http.MethodGet, "/config/path", "")
	path := decode[map[string]string](t, resp)["path"]
	assert.True(t, filepath.IsAbs(path))
}

func TestOracleSecretEndpoints(t *testing.T) {
	keyring.MockInit()
	t.Setenv("JOBFLOW_ORACLE_API_KEY", "")
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/api/secrets/oracle", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, decode[map[string]any](t, resp)["configured"])

	resp = f.do(t, http.MethodPost, "/api/secrets/oracle", `{"api_key":"sk-123"}`)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/secrets/oracle", "")
	body := decode[map[string]any](t, resp)
	assert.Equal(t, true, body["configured"])
	assert.NotContains(t, body, "api_key")

	resp = f.do(t, http.MethodPost, "/api/secrets/oracle", `{"api_key":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsAndCheckpoint(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodGet, "/health", "")

	resp := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	assert.True(t, strings.Contains(buf.String(), `path="/health"`))

	resp = f.do(t, http.MethodPost, "/db/checkpoint", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestCorsPreflight(t *testing.T) {
	f := newFixture(t)
	req, _ := http.NewRequest(http.MethodOptions, f.srv.URL+"/jobs", nil)
	req.Header.Set("Origin", "tauri://localhost")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "tauri://localhost", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestEventsStream(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, f.srv.URL+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	buf := make([]byte, 512)
	n, err := resp.Body.Read(buf)
	require.NoError(t, err)
	assert.Contains(t, string(buf[:n]), `"type":"ping"`)
}
