// Package history persists run and step outcomes so past runs can be listed.
package history

import (
	"context"
	"errors"
	"time"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// RunRecord is one pipeline execution.
type RunRecord struct {
	ID        string
	Trigger   string
	Workspace string
	Started   time.Time
	Finished  time.Time
	Result    string
}

// Duration returns how long the run took.
func (r RunRecord) Duration() time.Duration { return r.Finished.Sub(r.Started) }

// StepRecord is the outcome of one step within a run.
type StepRecord struct {
	RunID    string
	Step     string
	Started  time.Time
	Duration time.Duration
	Result   string
	Error    string
	Metadata map[string]string
}

// Store persists run history.
type Store interface {
	// RecordRun inserts or replaces the run record.
	RecordRun(ctx context.Context, rec RunRecord) error

	RecordStep(ctx context.Context, rec StepRecord) error

	// Recent returns up to limit runs, newest first.
	Recent(ctx context.Context, limit int) ([]RunRecord, error)

	// Run returns a run and its steps in execution order.
	Run(ctx context.Context, id string) (RunRecord, []StepRecord, error)

	Close() error
}
