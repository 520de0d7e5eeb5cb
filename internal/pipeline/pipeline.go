// Package pipeline runs build steps sequentially on one run and reports each outcome to
// metrics, run history and notifications.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/hugoci/internal/history"
	"git.home.luguber.info/inful/hugoci/internal/logfields"
	"git.home.luguber.info/inful/hugoci/internal/metrics"
	"git.home.luguber.info/inful/hugoci/internal/notify"
	"git.home.luguber.info/inful/hugoci/internal/run"
)

// Step results that are not run results.
const (
	ResultRunning  = "RUNNING"
	ResultNotBuilt = "NOT_BUILT"
)

// Triggers.
const (
	TriggerCLI      = "cli"
	TriggerSchedule = "schedule"
	TriggerWatch    = "watch"
)

// reportTimeout bounds history and notification writes after a step.
const reportTimeout = 10 * time.Second

// Step is one unit of work acting on a run. Tool failures are recorded on the run;
// the returned error means the step could not proceed at all.
type Step interface {
	Name() string
	Perform(ctx context.Context, r *run.Run) error
}

// Pipeline executes steps in order.
type Pipeline struct {
	steps    []Step
	recorder metrics.Recorder
	history  history.Store
	notifier notify.Notifier
	textfile string
	gatherer prom.Gatherer
	now      func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRecorder reports step and run metrics to rec.
func WithRecorder(rec metrics.Recorder) Option {
	return func(p *Pipeline) {
		if rec != nil {
			p.recorder = rec
		}
	}
}

// WithHistory records runs and steps in store.
func WithHistory(store history.Store) Option {
	return func(p *Pipeline) { p.history = store }
}

// WithNotifier publishes step and run events.
func WithNotifier(n notify.Notifier) Option {
	return func(p *Pipeline) {
		if n != nil {
			p.notifier = n
		}
	}
}

// WithTextfile writes the metrics gathered from g to path after each run.
func WithTextfile(path string, g prom.Gatherer) Option {
	return func(p *Pipeline) {
		p.textfile = path
		p.gatherer = g
	}
}

// New creates a pipeline running steps in the given order.
func New(steps []Step, opts ...Option) *Pipeline {
	p := &Pipeline{
		steps:    steps,
		recorder: metrics.NoopRecorder{},
		notifier: notify.Noop{},
		now:      time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Steps returns the step names in execution order.
func (p *Pipeline) Steps() []string {
	names := make([]string, 0, len(p.steps))
	for _, s := range p.steps {
		names = append(names, s.Name())
	}
	return names
}

// Execute runs every step on r. Once r has failed the remaining steps are skipped.
// The first error returned by a step is returned after reporting.
func (p *Pipeline) Execute(ctx context.Context, r *run.Run, trigger string) error {
	started := p.now()
	log := r.Logger.With(logfields.Trigger(trigger))
	log.Info("Run started", slog.Any("steps", p.Steps()), logfields.Dir(r.Workspace))

	rec := history.RunRecord{ID: r.ID, Trigger: trigger, Workspace: r.Workspace, Started: started, Finished: started, Result: ResultRunning}
	p.recordRun(ctx, log, rec)

	var firstErr error
	for _, step := range p.steps {
		if r.Failed() {
			log.Info("Skipping step, run already failed", logfields.Step(step.Name()), logfields.Result(r.Result().String()))
			p.recorder.IncStepResult(step.Name(), ResultNotBuilt)
			p.reportStep(ctx, log, r, step.Name(), p.now(), 0, ResultNotBuilt, nil)
			continue
		}
		if err := p.runStep(ctx, log, r, step); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	finished := p.now()
	result := r.Result().String()
	rec.Finished = finished
	rec.Result = result

	p.recorder.ObserveRunDuration(finished.Sub(started))
	p.recorder.IncRunOutcome(result)
	p.recorder.SetLastRun(result, finished)
	p.recordRun(ctx, log, rec)
	p.notify(ctx, log, notify.Event{
		Kind:       notify.KindRun,
		RunID:      r.ID,
		Result:     result,
		DurationMS: finished.Sub(started).Milliseconds(),
		Trigger:    trigger,
		Job:        r.CI().JobName,
		Build:      r.CI().BuildID,
		Error:      errString(firstErr),
	})
	if p.textfile != "" && p.gatherer != nil {
		if err := metrics.WriteTextfile(p.gatherer, p.textfile); err != nil {
			log.Warn("Metrics textfile not written", logfields.Path(p.textfile), logfields.Error(err))
		}
	}

	log.Info("Run finished", logfields.Result(result), logfields.DurationMS(float64(finished.Sub(started).Milliseconds())))
	return firstErr
}

func (p *Pipeline) runStep(ctx context.Context, log *slog.Logger, r *run.Run, step Step) error {
	name := step.Name()
	before := r.Result()
	started := p.now()
	log.Info("Step started", logfields.Step(name))

	err := step.Perform(ctx, r)
	duration := p.now().Sub(started)

	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			r.SetResult(run.ResultAborted)
		} else {
			r.SetResult(run.ResultFailure)
		}
		log.Error("Step error", logfields.Step(name), logfields.Error(err))
	}

	result := run.ResultSuccess
	if after := r.Result(); after > before {
		result = after
	}
	p.recorder.ObserveStepDuration(name, duration)
	p.recorder.IncStepResult(name, result.String())
	p.reportStep(ctx, log, r, name, started, duration, result.String(), err)
	log.Info("Step finished", logfields.Step(name), logfields.Result(result.String()), logfields.DurationMS(float64(duration.Milliseconds())))
	return err
}

func (p *Pipeline) reportStep(ctx context.Context, log *slog.Logger, r *run.Run, name string, started time.Time, d time.Duration, result string, err error) {
	if p.history != nil {
		hctx, cancel := reportContext(ctx)
		herr := p.history.RecordStep(hctx, history.StepRecord{
			RunID:    r.ID,
			Step:     name,
			Started:  started,
			Duration: d,
			Result:   result,
			Error:    errString(err),
		})
		cancel()
		if herr != nil {
			log.Warn("History step not recorded", logfields.Step(name), logfields.Error(herr))
		}
	}
	p.notify(ctx, log, notify.Event{
		Kind:       notify.KindStep,
		RunID:      r.ID,
		Step:       name,
		Result:     result,
		Error:      errString(err),
		DurationMS: d.Milliseconds(),
	})
}

func (p *Pipeline) recordRun(ctx context.Context, log *slog.Logger, rec history.RunRecord) {
	if p.history == nil {
		return
	}
	hctx, cancel := reportContext(ctx)
	defer cancel()
	if err := p.history.RecordRun(hctx, rec); err != nil {
		log.Warn("History run not recorded", logfields.Error(err))
	}
}

func (p *Pipeline) notify(ctx context.Context, log *slog.Logger, ev notify.Event) {
	nctx, cancel := reportContext(ctx)
	defer cancel()
	if err := p.notifier.Notify(nctx, ev); err != nil {
		log.Warn("Notification not delivered", slog.String("kind", string(ev.Kind)), logfields.Error(err))
	}
}

// reportContext keeps reporting alive after the run context is canceled.
func reportContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), reportTimeout)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
