package autopilot

import (
	"sync"

	"jobflow-engine/internal/domain"
	"jobflow-engine/internal/events"
	"jobflow-engine/internal/pipeline"
)

// Monitor is the observer behind the status endpoint. It keeps the current
// phase, counters and the capped log window of the active (or last) run,
// and forwards each change to the event publisher.
type Monitor struct {
	pub events.Publisher

	mu       sync.RWMutex
	runID    string
	phase    pipeline.Phase
	progress domain.RunProgress
	logs     *pipeline.LogStream
}

func NewMonitor(pub events.Publisher, logCapacity int) *Monitor {
	return &Monitor{
		pub:   pub,
		phase: pipeline.PhaseIdle,
		logs:  pipeline.NewLogStream(logCapacity),
	}
}

// reset prepares the monitor for a new run.
func (m *Monitor) reset(runID string, logCapacity int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runID = runID
	m.phase = pipeline.PhaseIdle
	m.progress = domain.RunProgress{}
	m.logs = pipeline.NewLogStream(logCapacity)
}

func (m *Monitor) OnPhaseChange(p pipeline.Phase) {
	m.mu.Lock()
	m.phase = p
	id := m.runID
	m.mu.Unlock()

	m.publish(events.TypePipelinePhase, map[string]any{"run_id": id, "phase": p, "step": p.Step()})
}

func (m *Monitor) OnLog(e pipeline.LogEntry) {
	m.mu.RLock()
	logs, id := m.logs, m.runID
	m.mu.RUnlock()
	logs.Append(e)

	m.publish(events.TypePipelineLog, map[string]any{"run_id": id, "level": e.Level, "line": e.String()})
}

func (m *Monitor) OnProgress(p domain.RunProgress) {
	m.mu.Lock()
	m.progress = p
	id := m.runID
	m.mu.Unlock()

	m.publish(events.TypePipelineProgress, map[string]any{"run_id": id, "progress": p})
}

func (m *Monitor) snapshot() (runID string, phase pipeline.Phase, progress domain.RunProgress, logs []pipeline.LogEntry) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.runID, m.phase, m.progress, m.logs.Entries()
}

func (m *Monitor) publish(typ string, data any) {
	if m.pub == nil {
		return
	}
	m.pub.Publish(events.MakeEvent("", typ, 1, data))
}
