package httpapi

import (
	"context"
	"database/sql"
	"sync/atomic"
	"time"

	"jobflow-engine/internal/autopilot"
	"jobflow-engine/internal/config"
	"jobflow-engine/internal/domain"
	"jobflow-engine/internal/events"
	"jobflow-engine/internal/metrics"
	"jobflow-engine/internal/store"
)

type PipelineService interface {
	Start(trigger string, q domain.Query) (string, error)
	Status() autopilot.Status
}

type AlertStore interface {
	ListAlerts(ctx context.Context) ([]domain.Alert, error)
	GetAlert(ctx context.Context, id string) (domain.Alert, error)
	CreateAlert(ctx context.Context, a domain.Alert) error
	DeleteAlert(ctx context.Context, id string) error
	SetAlertActive(ctx context.Context, id string, active bool) error
}

type RunHistory interface {
	ListRuns(ctx context.Context, limit int) ([]store.RunRecord, error)
}

type AlertReloader interface {
	Reload(ctx context.Context) error
}

type Deps struct {
	Jobs   store.JobStore
	Alerts AlertStore
	Runs   RunHistory

	Pipeline  PipelineService
	Scheduler AlertReloader // optional

	Hub       *events.Hub
	KeepAlive time.Duration // SSE comment interval; 0 uses the default
	// Publisher receives job and config events; usually the hub plus redis.
	Publisher events.Publisher

	Metrics *metrics.Metrics // optional

	CfgVal      *atomic.Value // config.Config
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// SQLite is the local engine database, for maintenance endpoints.
	SQLite *sql.DB
}
