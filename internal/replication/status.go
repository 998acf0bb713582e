package replication

import (
	"sync"
	"time"
)

type StreamStatus struct {
	Stream      string
	Checkpoint  time.Time
	LastSuccess time.Time
	LastError   string
	LastErrorAt time.Time
	// Failures counts consecutive failed cycles.
	Failures int
}

// Stale reports whether the last cycle failed.
func (s StreamStatus) Stale() bool {
	return s.Failures > 0
}

type Status struct {
	Pull          StreamStatus
	Push          StreamStatus
	PendingOrders int
}

type streamState struct {
	mu sync.Mutex
	st StreamStatus
}

func newStreamState(stream string) *streamState {
	return &streamState{st: StreamStatus{Stream: stream}}
}

func (s *streamState) ok(at, checkpoint time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.LastSuccess = at
	s.st.Failures = 0
	s.st.LastError = ""
	if !checkpoint.IsZero() {
		s.st.Checkpoint = checkpoint
	}
}

func (s *streamState) fail(at time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.LastError = err.Error()
	s.st.LastErrorAt = at
	s.st.Failures++
}

func (s *streamState) snapshot() StreamStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st
}
