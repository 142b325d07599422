package pipeline

import (
	"fmt"
	"sync"
	"time"
)

const DefaultLogCapacity = 10

type LogLevel string

const (
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

type LogEntry struct {
	At      time.Time `json:"at"`
	Phase   Phase     `json:"phase"`
	Level   LogLevel  `json:"level"`
	Message string    `json:"message"`
}

func (e LogEntry) String() string {
	return fmt.Sprintf("[%s] %s", e.At.Format("15:04:05"), e.Message)
}

// LogStream keeps the most recent entries, newest first. Safe for one writer
// and any number of readers.
type LogStream struct {
	mu      sync.RWMutex
	cap     int
	entries []LogEntry
}

func NewLogStream(capacity int) *LogStream {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &LogStream{cap: capacity}
}

func (s *LogStream) Append(e LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append([]LogEntry{e}, s.entries...)
	if len(s.entries) > s.cap {
		s.entries = s.entries[:s.cap]
	}
}

// Entries returns a copy, newest first.
func (s *LogStream) Entries() []LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]LogEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *LogStream) Reset() {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
}
