package metrics

import "time"

// Recorder defines observability hooks for steps and runs. Results are the run result
// strings (SUCCESS, UNSTABLE, FAILURE, ABORTED).
type Recorder interface {
	ObserveStepDuration(step string, d time.Duration)
	IncStepResult(step, result string)
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(result string)
	SetLastRun(result string, at time.Time)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStepDuration(string, time.Duration) {}
func (NoopRecorder) IncStepResult(string, string)              {}
func (NoopRecorder) ObserveRunDuration(time.Duration)          {}
func (NoopRecorder) IncRunOutcome(string)                      {}
func (NoopRecorder) SetLastRun(string, time.Time)              {}
