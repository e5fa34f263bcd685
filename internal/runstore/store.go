// Package runstore is an ephemeral, thread-safe record of every run the
// process has executed or is executing. Watch mode's status endpoint reads
// snapshots from it while the engine writes step transitions, so the store
// uses a sync.Map of independently locked entries rather than one global
// mutex.
package runstore

import (
	"sort"
	"sync"
	"time"
)

// Status describes where a run or step is in its lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// StepRecord is a snapshot of one step's state.
type StepRecord struct {
	Name     string        `json:"name"`
	Action   string        `json:"action"`
	Status   Status        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns,omitempty"`
}

// RunRecord is a snapshot of one run's state.
type RunRecord struct {
	RunID    string       `json:"run_id"`
	Workflow string       `json:"workflow"`
	Event    string       `json:"event"`
	Status   Status       `json:"status"`
	Error    string       `json:"error,omitempty"`
	Started  time.Time    `json:"started"`
	Finished time.Time    `json:"finished,omitzero"`
	Steps    []StepRecord `json:"steps"`
}

// Summary aggregates run counts for the status endpoint.
type Summary struct {
	Total     int `json:"total"`
	Running   int `json:"running"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type entry struct {
	mu  sync.Mutex
	rec RunRecord
}

// Store holds run records keyed by run ID. The zero value is ready to use.
type Store struct {
	runs sync.Map // key: run ID string, value: *entry
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// StepSeed names one step when a run is registered.
type StepSeed struct {
	Name   string
	Action string
}

// Begin registers a run with its steps pre-seeded as pending.
func (s *Store) Begin(runID, workflow, event string, seeds []StepSeed) {
	steps := make([]StepRecord, len(seeds))
	for i, seed := range seeds {
		steps[i] = StepRecord{Name: seed.Name, Action: seed.Action, Status: StatusPending}
	}
	s.runs.Store(runID, &entry{rec: RunRecord{
		RunID:    runID,
		Workflow: workflow,
		Event:    event,
		Status:   StatusRunning,
		Started:  time.Now(),
		Steps:    steps,
	}})
}

// StepStarted marks a step running.
func (s *Store) StepStarted(runID, step string) {
	s.mutateStep(runID, step, func(sr *StepRecord) {
		sr.Status = StatusRunning
	})
}

// StepFinished records a step's terminal state.
func (s *Store) StepFinished(runID, step string, status Status, err error, took time.Duration) {
	s.mutateStep(runID, step, func(sr *StepRecord) {
		sr.Status = status
		sr.Duration = took
		if err != nil {
			sr.Error = err.Error()
		}
	})
}

// Finish records a run's terminal state.
func (s *Store) Finish(runID string, status Status, err error) {
	s.mutate(runID, func(rec *RunRecord) {
		rec.Status = status
		rec.Finished = time.Now()
		if err != nil {
			rec.Error = err.Error()
		}
	})
}

// Get returns a snapshot of one run.
func (s *Store) Get(runID string) (RunRecord, bool) {
	v, ok := s.runs.Load(runID)
	if !ok {
		return RunRecord{}, false
	}
	e := v.(*entry)
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneRecord(e.rec), true
}

// Snapshot returns all runs ordered by start time, oldest first.
func (s *Store) Snapshot() []RunRecord {
	var out []RunRecord
	s.runs.Range(func(_, v any) bool {
		e := v.(*entry)
		e.mu.Lock()
		out = append(out, cloneRecord(e.rec))
		e.mu.Unlock()
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Started.Equal(out[j].Started) {
			return out[i].RunID < out[j].RunID
		}
		return out[i].Started.Before(out[j].Started)
	})
	return out
}

// Summarize counts runs per terminal state.
func (s *Store) Summarize() Summary {
	var sum Summary
	s.runs.Range(func(_, v any) bool {
		e := v.(*entry)
		e.mu.Lock()
		status := e.rec.Status
		e.mu.Unlock()

		sum.Total++
		switch status {
		case StatusRunning:
			sum.Running++
		case StatusSucceeded:
			sum.Succeeded++
		case StatusFailed:
			sum.Failed++
		}
		return true
	})
	return sum
}

func (s *Store) mutate(runID string, f func(*RunRecord)) {
	v, ok := s.runs.Load(runID)
	if !ok {
		return
	}
	e := v.(*entry)
	e.mu.Lock()
	defer e.mu.Unlock()
	f(&e.rec)
}

func (s *Store) mutateStep(runID, step string, f func(*StepRecord)) {
	s.mutate(runID, func(rec *RunRecord) {
		for i := range rec.Steps {
			if rec.Steps[i].Name == step {
				f(&rec.Steps[i])
				return
			}
		}
	})
}

func cloneRecord(rec RunRecord) RunRecord {
	out := rec
	out.Steps = make([]StepRecord, len(rec.Steps))
	copy(out.Steps, rec.Steps)
	return out
}
