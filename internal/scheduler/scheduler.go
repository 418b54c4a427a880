// Package scheduler runs the monitor's recurring jobs on cron schedules
// with an explicit per-task state machine. A task never overlaps itself:
// a tick that arrives while the previous run is still going is counted as
// a skip and dropped.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"pumpwatch/internal/observability"
)

// State is the lifecycle state of a scheduled task.
type State string

// Task states.
const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateStopped State = "stopped"
)

// Scheduler errors.
var (
	ErrNotStarted  = errors.New("scheduler not started")
	ErrEmptyTasks  = errors.New("no tasks to schedule")
	ErrInvalidSpec = errors.New("invalid cron spec")
)

// Task is a named job with a cron schedule.
type Task struct {
	Name string
	Spec string // standard 5-field cron expression
	Run  func(ctx context.Context) error
}

// TaskStatus is a point-in-time view of one scheduled task.
type TaskStatus struct {
	Name      string     `json:"name"`
	Spec      string     `json:"spec"`
	State     State      `json:"state"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	NextRunAt *time.Time `json:"next_run_at,omitempty"`
	Runs      uint64     `json:"runs"`
	Skips     uint64     `json:"skips"`
	LastError string     `json:"last_error,omitempty"`
}

// taskState tracks one registered task.
type taskState struct {
	task    Task
	entryID cron.EntryID

	mu        sync.Mutex
	state     State
	lastRunAt *time.Time
	runs      uint64
	skips     uint64
	lastError string
}

// Scheduler drives tasks from a shared cron runner. Safe for concurrent
// use.
type Scheduler struct {
	log zerolog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	tasks   []*taskState
	started bool
}

// New creates a stopped scheduler.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{log: log}
}

// Start registers the tasks and begins dispatching. Calling Start on a
// running scheduler stops it first and replaces the task set.
func (s *Scheduler) Start(ctx context.Context, tasks []Task) error {
	if len(tasks) == 0 {
		return ErrEmptyTasks
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		s.stopLocked()
	}

	runner := cron.New()
	states := make([]*taskState, 0, len(tasks))
	for _, task := range tasks {
		ts := &taskState{task: task, state: StateIdle}
		entryID, err := runner.AddFunc(task.Spec, func() {
			s.dispatch(ctx, ts)
		})
		if err != nil {
			return fmt.Errorf("%w: task %s spec %q: %v", ErrInvalidSpec, task.Name, task.Spec, err)
		}
		ts.entryID = entryID
		states = append(states, ts)
	}

	s.cron = runner
	s.tasks = states
	s.started = true
	runner.Start()

	s.log.Info().Int("tasks", len(tasks)).Msg("scheduler started")
	return nil
}

// dispatch runs one tick of a task, skipping if the previous run is still
// in flight.
func (s *Scheduler) dispatch(ctx context.Context, ts *taskState) {
	ts.mu.Lock()
	if ts.state != StateIdle {
		ts.skips++
		skips := ts.skips
		ts.mu.Unlock()
		observability.RecordTaskSkip(ts.task.Name)
		s.log.Warn().Str("task", ts.task.Name).Uint64("skips", skips).Msg("previous run still in flight, skipping tick")
		return
	}
	ts.state = StateRunning
	startedAt := time.Now()
	ts.lastRunAt = &startedAt
	ts.mu.Unlock()

	err := ts.task.Run(ctx)

	ts.mu.Lock()
	if ts.state == StateRunning {
		ts.state = StateIdle
	}
	ts.runs++
	if err != nil {
		ts.lastError = err.Error()
	} else {
		ts.lastError = ""
	}
	ts.mu.Unlock()

	elapsed := time.Since(startedAt)
	if err != nil {
		observability.RecordTaskRun(ts.task.Name, "error", elapsed.Seconds())
		s.log.Error().Err(err).Str("task", ts.task.Name).Dur("elapsed", elapsed).Msg("task failed")
		return
	}
	observability.RecordTaskRun(ts.task.Name, "ok", elapsed.Seconds())
	s.log.Debug().Str("task", ts.task.Name).Dur("elapsed", elapsed).Msg("task completed")
}

// Stop halts dispatching and waits for in-flight runs to finish.
// Idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// stopLocked stops the cron runner and waits. Caller holds s.mu.
func (s *Scheduler) stopLocked() {
	if !s.started {
		return
	}
	// Stop returns a context that completes when in-flight jobs finish
	<-s.cron.Stop().Done()
	for _, ts := range s.tasks {
		ts.mu.Lock()
		ts.state = StateStopped
		ts.mu.Unlock()
	}
	s.started = false
	s.log.Info().Msg("scheduler stopped")
}

// Running reports whether the scheduler is dispatching.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Status reports the state of every registered task, in registration
// order.
func (s *Scheduler) Status() []TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]TaskStatus, 0, len(s.tasks))
	for _, ts := range s.tasks {
		ts.mu.Lock()
		status := TaskStatus{
			Name:      ts.task.Name,
			Spec:      ts.task.Spec,
			State:     ts.state,
			LastRunAt: ts.lastRunAt,
			Runs:      ts.runs,
			Skips:     ts.skips,
			LastError: ts.lastError,
		}
		ts.mu.Unlock()

		if s.started {
			entry := s.cron.Entry(ts.entryID)
			if !entry.Next.IsZero() {
				next := entry.Next
				status.NextRunAt = &next
			}
		}
		statuses = append(statuses, status)
	}
	return statuses
}
