package server

import (
	"sync"
	"time"
)

// SystemState tracks process-level status served by the scheduler endpoints.
// It is owned by the server and injected where needed; there are no globals.
type SystemState struct {
	mu sync.Mutex

	startedAt          time.Time
	schedulerStartedAt *time.Time
}

// NewSystemState creates a SystemState anchored at the process start time.
func NewSystemState(startedAt time.Time) *SystemState {
	return &SystemState{startedAt: startedAt}
}

// MarkSchedulerStarted records when the scheduler was last started.
func (s *SystemState) MarkSchedulerStarted(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedulerStartedAt = &at
}

// MarkSchedulerStopped clears the scheduler start time.
func (s *SystemState) MarkSchedulerStopped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedulerStartedAt = nil
}

// Snapshot returns the process start time and the scheduler start time, nil
// when the scheduler is stopped.
func (s *SystemState) Snapshot() (startedAt time.Time, schedulerStartedAt *time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schedulerStartedAt == nil {
		return s.startedAt, nil
	}
	at := *s.schedulerStartedAt
	return s.startedAt, &at
}
