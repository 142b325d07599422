// Package autopilot owns pipeline runs for the engine: at most one at a time
// per data directory, with live status, event fan-out and run history.
package autopilot

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/lithammer/shortuuid/v4"

	"jobflow-engine/internal/config"
	"jobflow-engine/internal/domain"
	"jobflow-engine/internal/events"
	"jobflow-engine/internal/pipeline"
	"jobflow-engine/internal/store"
)

const TriggerManual = "manual"

// TriggerAlert names runs started by the alert scheduler.
func TriggerAlert(alertID string) string { return "alert:" + alertID }

type Runner interface {
	Run(ctx context.Context, p pipeline.Params) (pipeline.Report, error)
}

type History interface {
	InsertRun(ctx context.Context, r store.RunRecord) error
}

type Options struct {
	Runner Runner
	// Config returns the live config; profile, log capacity and default
	// domain are read from it at the start of every run.
	Config func() config.Config

	// Optional.
	History   History
	Publisher events.Publisher
	// Observers are built fresh for every run.
	Observers func() []pipeline.Observer

	// LockPath guards against a second engine process on the same data dir.
	LockPath string
	// Context bounds background runs started with Start.
	Context context.Context
}

type Status struct {
	Running    bool               `json:"running"`
	RunID      string             `json:"run_id,omitempty"`
	Trigger    string             `json:"trigger,omitempty"`
	Query      domain.Query       `json:"query"`
	Phase      pipeline.Phase     `json:"phase"`
	Step       int                `json:"step"`
	Progress   domain.RunProgress `json:"progress"`
	Logs       []string           `json:"logs"`
	LastError  string             `json:"last_error,omitempty"`
	StartedAt  string             `json:"started_at,omitempty"`
	FinishedAt string             `json:"finished_at,omitempty"`
}

type Service struct {
	o       Options
	monitor *Monitor
	lock    *flock.Flock

	running atomic.Bool
	wg      sync.WaitGroup

	mu   sync.RWMutex
	last runMeta
}

type runMeta struct {
	runID      string
	trigger    string
	query      domain.Query
	err        string
	startedAt  time.Time
	finishedAt time.Time
}

func New(o Options) *Service {
	if o.Context == nil {
		o.Context = context.Background()
	}
	s := &Service{
		o:       o,
		monitor: NewMonitor(o.Publisher, pipeline.DefaultLogCapacity),
	}
	if o.LockPath != "" {
		s.lock = flock.New(o.LockPath)
	}
	return s
}

// Start begins a run in the background and returns its ID. It fails fast
// with pipeline.ErrRunInProgress when a run is already active.
func (s *Service) Start(trigger string, q domain.Query) (string, error) {
	if err := s.acquire(); err != nil {
		return "", err
	}
	runID := shortuuid.New()
	params := s.prepare(runID, trigger, q)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release()
		_, _ = s.execute(s.o.Context, trigger, params)
	}()
	return runID, nil
}

// Run executes a run on the caller's goroutine.
func (s *Service) Run(ctx context.Context, trigger string, q domain.Query) (pipeline.Report, error) {
	if err := s.acquire(); err != nil {
		return pipeline.Report{}, err
	}
	defer s.release()

	params := s.prepare(shortuuid.New(), trigger, q)
	return s.execute(ctx, trigger, params)
}

// Wait blocks until background runs have finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) Running() bool {
	return s.running.Load()
}

func (s *Service) Status() Status {
	runID, phase, progress, entries := s.monitor.snapshot()

	s.mu.RLock()
	meta := s.last
	s.mu.RUnlock()

	logs := make([]string, 0, len(entries))
	for _, e := range entries {
		logs = append(logs, e.String())
	}
	st := Status{
		Running:   s.running.Load(),
		RunID:     runID,
		Trigger:   meta.trigger,
		Query:     meta.query,
		Phase:     phase,
		Step:      phase.Step(),
		Progress:  progress,
		Logs:      logs,
		LastError: meta.err,
	}
	if !meta.startedAt.IsZero() {
		st.StartedAt = meta.startedAt.Format(time.RFC3339)
	}
	if !meta.finishedAt.IsZero() {
		st.FinishedAt = meta.finishedAt.Format(time.RFC3339)
	}
	return st
}

func (s *Service) acquire() error {
	if !s.running.CompareAndSwap(false, true) {
		return pipeline.ErrRunInProgress
	}
	if s.lock == nil {
		return nil
	}
	ok, err := s.lock.TryLock()
	if err != nil {
		s.running.Store(false)
		return fmt.Errorf("run lock: %w", err)
	}
	if !ok {
		s.running.Store(false)
		return fmt.Errorf("%w (held by another process)", pipeline.ErrRunInProgress)
	}
	return nil
}

func (s *Service) release() {
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil {
			log.Printf("[autopilot] unlock failed path=%s err=%v", s.o.LockPath, err)
		}
	}
	s.running.Store(false)
}

func (s *Service) prepare(runID, trigger string, q domain.Query) pipeline.Params {
	cfg := s.o.Config()
	if q.Domain == "" {
		q.Domain = cfg.Pipeline.DefaultDomain
	}
	q = q.Normalized()

	s.monitor.reset(runID, cfg.Pipeline.LogCapacity)
	s.mu.Lock()
	s.last = runMeta{runID: runID, trigger: trigger, query: q, startedAt: time.Now()}
	s.mu.Unlock()

	obs := []pipeline.Observer{s.monitor}
	if s.o.Observers != nil {
		obs = append(obs, s.o.Observers()...)
	}
	return pipeline.Params{
		Query:    q,
		Profile:  cfg.Profile,
		Observer: pipeline.Multi(obs...),
		RunID:    runID,
	}
}

func (s *Service) execute(ctx context.Context, trigger string, params pipeline.Params) (pipeline.Report, error) {
	log.Printf("[autopilot] run start id=%s trigger=%s keywords=%q location=%q domain=%q",
		params.RunID, trigger, params.Query.Keywords, params.Query.Location, params.Query.Domain)

	rep, err := s.o.Runner.Run(ctx, params)

	s.mu.Lock()
	s.last.finishedAt = time.Now()
	if err != nil {
		s.last.err = err.Error()
	}
	s.mu.Unlock()

	for _, rec := range rep.Records {
		if s.o.Publisher != nil {
			s.o.Publisher.Publish(events.MakeEvent("", events.TypeJobCreated, 1, rec))
		}
	}
	if rep.RunID == "" {
		rep.RunID, rep.Query = params.RunID, params.Query
	}
	s.saveHistory(trigger, rep, err)

	if err != nil {
		log.Printf("[autopilot] run aborted id=%s err=%v", params.RunID, err)
	} else {
		log.Printf("[autopilot] run done id=%s %s", params.RunID, rep.Progress)
	}
	return rep, err
}

func (s *Service) saveHistory(trigger string, rep pipeline.Report, runErr error) {
	if s.o.History == nil {
		return
	}
	r := store.RunRecord{
		ID:         rep.RunID,
		Trigger:    trigger,
		Keywords:   rep.Query.Keywords,
		Location:   rep.Query.Location,
		Domain:     rep.Query.Domain,
		Phase:      string(rep.Phase),
		Found:      rep.Progress.Found,
		Scored:     rep.Progress.Scored,
		Qualified:  rep.Progress.Qualified,
		Drafted:    rep.Progress.Drafted,
		StartedAt:  rep.StartedAt,
		FinishedAt: rep.FinishedAt,
	}
	if runErr != nil {
		r.Error = runErr.Error()
	}

	// Recorded even when the run's own context was canceled.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.o.History.InsertRun(ctx, r); err != nil {
		log.Printf("[autopilot] save run history failed id=%s err=%v", rep.RunID, err)
	}
}
