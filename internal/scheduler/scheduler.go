// Package scheduler turns saved job alerts into periodic pipeline runs.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"jobflow-engine/internal/autopilot"
	"jobflow-engine/internal/domain"
	"jobflow-engine/internal/pipeline"
)

type AlertStore interface {
	ListAlerts(ctx context.Context) ([]domain.Alert, error)
	TouchAlert(ctx context.Context, id string, at time.Time) error
}

type Runner interface {
	Run(ctx context.Context, trigger string, q domain.Query) (pipeline.Report, error)
}

// Scheduler wraps robfig/cron with one entry per active alert.
type Scheduler struct {
	cron   *cron.Cron
	alerts AlertStore
	runner Runner
	now    func() time.Time

	mu      sync.Mutex
	ctx     context.Context
	entries map[string]cron.EntryID
}

func New(alerts AlertStore, runner Runner) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLogger(cron.DefaultLogger)),
		alerts:  alerts,
		runner:  runner,
		now:     time.Now,
		ctx:     context.Background(),
		entries: make(map[string]cron.EntryID),
	}
}

// Start registers the active alerts and starts the cron loop. ctx bounds
// every run the scheduler triggers.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	if err := s.Reload(ctx); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("[scheduler] started alerts=%d", s.Len())
	return nil
}

// Stop halts the cron loop and waits for a running alert job to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[scheduler] stopped")
}

// Reload re-registers alerts after they were created, deleted or toggled.
func (s *Scheduler) Reload(ctx context.Context) error {
	alerts, err := s.alerts.ListAlerts(ctx)
	if err != nil {
		return fmt.Errorf("list alerts: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, entry := range s.entries {
		s.cron.Remove(entry)
		delete(s.entries, id)
	}
	for _, a := range alerts {
		if !a.Active {
			continue
		}
		spec, err := specFor(a.Frequency)
		if err != nil {
			log.Printf("[scheduler] skip alert id=%s err=%v", a.ID, err)
			continue
		}
		entry, err := s.cron.AddFunc(spec, func() {
			s.mu.Lock()
			ctx := s.ctx
			s.mu.Unlock()
			if err := s.RunAlert(ctx, a); err != nil {
				log.Printf("[scheduler] alert id=%s err=%v", a.ID, err)
			}
		})
		if err != nil {
			return fmt.Errorf("cron.AddFunc: %w", err)
		}
		s.entries[a.ID] = entry
	}
	return nil
}

func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// RunAlert runs the pipeline for one alert. A run already in progress skips
// the alert without touching last_checked, so the next tick retries it.
func (s *Scheduler) RunAlert(ctx context.Context, a domain.Alert) error {
	log.Printf("[scheduler] alert fired id=%s keywords=%q", a.ID, a.Keywords)

	_, err := s.runner.Run(ctx, autopilot.TriggerAlert(a.ID), a.Query())
	if errors.Is(err, pipeline.ErrRunInProgress) {
		log.Printf("[scheduler] alert skipped id=%s: run in progress", a.ID)
		return nil
	}

	if terr := s.alerts.TouchAlert(ctx, a.ID, s.now()); terr != nil {
		return errors.Join(err, fmt.Errorf("touch alert: %w", terr))
	}
	return err
}

func specFor(f domain.Frequency) (string, error) {
	switch f {
	case domain.FrequencyDaily:
		return "@daily", nil
	case domain.FrequencyWeekly:
		return "@weekly", nil
	}
	return "", fmt.Errorf("unknown alert frequency %q", f)
}
