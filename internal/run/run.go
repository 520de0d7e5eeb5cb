// Package run holds the per-execution job record shared by the build and publish steps:
// identity, workspace, environment, the log stream subprocess output is written to, and
// the monotonic result.
package run

import (
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/hugoci/internal/logfields"
)

// Result is the outcome of a run. Higher values are worse.
type Result int

const (
	ResultSuccess Result = iota
	ResultUnstable
	ResultFailure
	ResultAborted
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "SUCCESS"
	case ResultUnstable:
		return "UNSTABLE"
	case ResultFailure:
		return "FAILURE"
	case ResultAborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

// Run is one job execution.
type Run struct {
	ID        string
	Workspace string
	Env       []string
	Started   time.Time

	// Output receives subprocess stdout and stderr.
	Output io.Writer
	Logger *slog.Logger

	mu     sync.Mutex
	result Result
}

// Option configures a Run.
type Option func(*Run)

func WithEnv(env []string) Option      { return func(r *Run) { r.Env = env } }
func WithOutput(w io.Writer) Option    { return func(r *Run) { r.Output = w } }
func WithLogger(l *slog.Logger) Option { return func(r *Run) { r.Logger = l } }
func WithID(id string) Option          { return func(r *Run) { r.ID = id } }

// New creates a run rooted at workspace with a fresh ID.
func New(workspace string, opts ...Option) *Run {
	r := &Run{
		ID:        uuid.NewString(),
		Workspace: workspace,
		Env:       os.Environ(),
		Started:   time.Now(),
		Output:    os.Stdout,
		Logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.Logger = r.Logger.With(logfields.RunID(r.ID))
	return r
}

// Result returns the current result.
func (r *Run) Result() Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

// SetResult records res unless the run already has a worse result.
func (r *Run) SetResult(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res > r.result {
		r.result = res
	}
}

// Fail logs msg at error level and marks the run failed.
func (r *Run) Fail(msg string, attrs ...any) {
	r.Logger.Error(msg, attrs...)
	r.SetResult(ResultFailure)
}

// Failed reports whether the run is marked failed or aborted.
func (r *Run) Failed() bool { return r.Result() >= ResultFailure }

// Getenv looks key up in the run environment; later entries win.
func (r *Run) Getenv(key string) string {
	prefix := key + "="
	val := ""
	for _, kv := range r.Env {
		if len(kv) >= len(prefix) && kv[:len(prefix)] == prefix {
			val = kv[len(prefix):]
		}
	}
	return val
}
