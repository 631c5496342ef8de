// Package storage defines the result store used to persist simulation runs.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/chrissnell/hydrosim/internal/hydro"
)

// ErrRunNotFound is returned when a run ID is not in the store
var ErrRunNotFound = errors.New("storage: run not found")

// ResultStore is implemented by every result backend
type ResultStore interface {
	SaveRun(ctx context.Context, run *RunRecord) error
	GetRun(ctx context.Context, id uuid.UUID) (*RunRecord, error)
	// ListRuns returns runs newest first; an empty scenario matches all.
	ListRuns(ctx context.Context, scenario string) ([]RunSummary, error)
	Close() error
}

// HealthChecker is implemented by backends that hold a connection
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// SchemaVersioner is implemented by backends with versioned migrations
type SchemaVersioner interface {
	SchemaVersion(ctx context.Context) (current, latest int, err error)
}

// RunRecord is the persisted form of one simulation run. A failed run has an
// Error and no Indices. It keeps its Outputs when the simulation itself
// completed and only scoring failed.
type RunRecord struct {
	ID         uuid.UUID            `json:"id"`
	Scenario   string               `json:"scenario"`
	StartedAt  time.Time            `json:"started_at"`
	Duration   time.Duration        `json:"duration"`
	Parameters hydro.Parameters     `json:"parameters"`
	Inputs     []hydro.PeriodInput  `json:"inputs"`
	Outputs    []hydro.PeriodOutput `json:"outputs,omitempty"`
	Indices    *hydro.Indices       `json:"indices,omitempty"`
	Error      string               `json:"error,omitempty"`
}

// RunSummary is a run without its period data
type RunSummary struct {
	ID        uuid.UUID      `json:"id"`
	Scenario  string         `json:"scenario"`
	StartedAt time.Time      `json:"started_at"`
	Periods   int            `json:"periods"`
	Indices   *hydro.Indices `json:"indices,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// NewRunRecord builds a record from a run's inputs and outcome. err is the
// error returned by hydro.Run, if any.
func NewRunRecord(scenario string, started time.Time, p hydro.Parameters, inputs []hydro.PeriodInput, res hydro.Result, err error) *RunRecord {
	run := &RunRecord{
		ID:         uuid.New(),
		Scenario:   scenario,
		StartedAt:  started,
		Duration:   time.Since(started),
		Parameters: p,
		Inputs:     inputs,
	}
	run.Outputs = res.Outputs
	if err != nil {
		run.Error = err.Error()
		return run
	}
	indices := res.Indices
	run.Indices = &indices
	return run
}

// Summary drops the period data
func (r *RunRecord) Summary() RunSummary {
	return RunSummary{
		ID:        r.ID,
		Scenario:  r.Scenario,
		StartedAt: r.StartedAt,
		Periods:   len(r.Inputs),
		Indices:   r.Indices,
		Error:     r.Error,
	}
}

// Failed reports whether the run ended in an error
func (r *RunRecord) Failed() bool {
	return r.Error != ""
}
