package httpapi

import "net/http"

// NewMux returns the bare mux; main attaches /shutdown to it before wrapping.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: HealthHandler{Hub: d.Hub}.Health,
	}))

	// Pipeline
	ph := PipelineHandler{Pipeline: d.Pipeline, Runs: d.Runs}
	mux.HandleFunc("/pipeline/run", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ph.Run,
	}))
	mux.HandleFunc("/pipeline/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ph.Status,
	}))
	mux.HandleFunc("/pipeline/runs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ph.History,
	}))

	// Jobs
	jh := JobsHandler{Jobs: d.Jobs, Publisher: d.Publisher}
	mux.HandleFunc("/jobs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: jh.List,
	}))
	mux.HandleFunc("/jobs/{id}", methodMux(map[string]http.HandlerFunc{
		http.MethodDelete: jh.Delete,
		http.MethodPatch:  jh.UpdateStatus,
	}))

	// Alerts
	ah := AlertsHandler{Alerts: d.Alerts, Scheduler: d.Scheduler}
	mux.HandleFunc("/alerts", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:  ah.List,
		http.MethodPost: ah.Create,
	}))
	mux.HandleFunc("/alerts/{id}", methodMux(map[string]http.HandlerFunc{
		http.MethodDelete: ah.Delete,
	}))
	mux.HandleFunc("/alerts/{id}/toggle", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ah.Toggle,
	}))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
		Publisher:   d.Publisher,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))

	// Secrets (use cfgVal, NOT a snapshot cfg)
	sh := SecretsHandler{CfgVal: d.CfgVal}
	mux.HandleFunc("/api/secrets/oracle", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:    sh.OracleKeyStatus,
		http.MethodPost:   sh.SetOracleKey,
		http.MethodDelete: sh.DeleteOracleKey,
	}))

	// SSE events
	if d.Hub != nil {
		eh := EventsHandler{Hub: d.Hub, KeepAlive: d.KeepAlive}
		mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
			http.MethodGet: eh.ServeSSE,
		}))
	}

	if d.Metrics != nil {
		mux.Handle("/metrics", d.Metrics.Handler())
	}

	if d.SQLite != nil {
		dh := DBHandler{DB: d.SQLite}
		mux.HandleFunc("/db/checkpoint", methodMux(map[string]http.HandlerFunc{
			http.MethodPost: dh.Checkpoint,
		}))
	}

	return mux
}

// Wrap puts the middleware chain around the mux. Metrics sit innermost so
// they can read the matched route pattern.
func Wrap(mux http.Handler, d Deps) http.Handler {
	h := mux
	if d.Metrics != nil {
		h = d.Metrics.Middleware(h)
	}
	return Chain(h, Cors, RequestID, AccessLog, Recover)
}
