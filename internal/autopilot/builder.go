package autopilot

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"jobflow-engine/internal/config"
	"jobflow-engine/internal/discovery"
	"jobflow-engine/internal/oracle"
	"jobflow-engine/internal/pipeline"
	"jobflow-engine/internal/rank"
	"jobflow-engine/internal/synth"
)

// Builder assembles an orchestrator from a config snapshot. The engine
// builds one per run so config and key edits apply to the next run.
type Builder struct {
	Store  pipeline.TrackingStore
	APIKey func(config.Config) (string, error)
	// HTTPClient is used for oracle calls; nil means the SDK default.
	HTTPClient *http.Client
}

func (b Builder) Build(cfg config.Config) (*pipeline.Orchestrator, error) {
	key, err := b.APIKey(cfg)
	if err != nil {
		return nil, fmt.Errorf("oracle api key: %w", err)
	}

	oc := oracle.New(oracle.Options{
		BaseURL:           cfg.Oracle.BaseURL,
		APIKey:            key,
		Model:             cfg.Oracle.Model,
		Timeout:           time.Duration(cfg.Oracle.TimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.Oracle.RequestsPerSecond,
		Burst:             cfg.Oracle.Burst,
		HTTPClient:        b.HTTPClient,
	})

	disc, err := discovery.FromConfig(cfg, oc)
	if err != nil {
		return nil, err
	}

	return pipeline.New(pipeline.Deps{
		Discovery: disc,
		Scorer:    rank.New(cfg, oc),
		Drafter:   synth.OracleDrafter{Oracle: oc},
		Store:     b.Store,
	}), nil
}

// ConfigRunner is a Runner that rebuilds the orchestrator from the live
// config before each run.
type ConfigRunner struct {
	Builder Builder
	Config  func() config.Config
}

func (r ConfigRunner) Run(ctx context.Context, p pipeline.Params) (pipeline.Report, error) {
	orch, err := r.Builder.Build(r.Config())
	if err != nil {
		return pipeline.Report{RunID: p.RunID, Query: p.Query, Phase: pipeline.PhaseIdle}, err
	}
	return orch.Run(ctx, p)
}
