package events

import (
	"encoding/json"
	"time"
)

const (
	TypePipelinePhase    = "pipeline_phase"
	TypePipelineLog      = "pipeline_log"
	TypePipelineProgress = "pipeline_progress"
	TypeJobCreated       = "job_created"
	TypeJobDeleted       = "job_deleted"
	TypeConfigUpdated    = "config_updated"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Publisher receives encoded events. Implementations must not block.
type Publisher interface {
	Publish(evt string)
}

// Fanout publishes to every non-nil publisher in order.
type Fanout []Publisher

func (f Fanout) Publish(evt string) {
	for _, p := range f {
		if p != nil {
			p.Publish(evt)
		}
	}
}

func MakeEvent(reqID, typ string, v int, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}
