package pipeline

import "jobflow-engine/internal/domain"

// Observer receives a run's events in order, on the goroutine executing Run.
// Implementations must not block for long.
type Observer interface {
	OnPhaseChange(p Phase)
	OnLog(e LogEntry)
	OnProgress(p domain.RunProgress)
}

// ObserverFuncs adapts plain functions; nil fields are skipped.
type ObserverFuncs struct {
	PhaseChange func(Phase)
	Log         func(LogEntry)
	Progress    func(domain.RunProgress)
}

func (o ObserverFuncs) OnPhaseChange(p Phase) {
	if o.PhaseChange != nil {
		o.PhaseChange(p)
	}
}

func (o ObserverFuncs) OnLog(e LogEntry) {
	if o.Log != nil {
		o.Log(e)
	}
}

func (o ObserverFuncs) OnProgress(p domain.RunProgress) {
	if o.Progress != nil {
		o.Progress(p)
	}
}

type multiObserver []Observer

// Multi fans events out to every non-nil observer in order.
func Multi(obs ...Observer) Observer {
	var m multiObserver
	for _, o := range obs {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

func (m multiObserver) OnPhaseChange(p Phase) {
	for _, o := range m {
		o.OnPhaseChange(p)
	}
}

func (m multiObserver) OnLog(e LogEntry) {
	for _, o := range m {
		o.OnLog(e)
	}
}

func (m multiObserver) OnProgress(p domain.RunProgress) {
	for _, o := range m {
		o.OnProgress(p)
	}
}
