// Package daemon keeps hugoci running: it executes the pipeline on a cron schedule or a
// fixed interval, and whenever watched sources change. Runs never overlap.
package daemon

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	foundation "git.home.luguber.info/inful/hugoci/internal/foundation/errors"
	"git.home.luguber.info/inful/hugoci/internal/logfields"
	"git.home.luguber.info/inful/hugoci/internal/pipeline"
)

// RunFunc executes one pipeline run for the given trigger.
type RunFunc func(ctx context.Context, trigger string) error

// Options configures a Daemon.
type Options struct {
	Schedule string        // cron expression
	Interval time.Duration // mutually exclusive with Schedule
	Watch    []string      // directories to watch
	Ignore   []string      // paths below Watch that never trigger
	Debounce time.Duration

	// MetricsListen serves MetricsHandler at /metrics when both are set.
	MetricsListen  string
	MetricsHandler http.Handler
}

// Daemon serializes scheduled and watch-triggered runs.
type Daemon struct {
	opts Options
	run  RunFunc

	runMu sync.Mutex
	mu    sync.Mutex

	scheduler *Scheduler
	watcher   *SourceWatcher
	server    *http.Server
	listener  net.Listener
}

// New validates opts and prepares the daemon. At least one trigger is required.
func New(opts Options, run RunFunc) (*Daemon, error) {
	if run == nil {
		return nil, foundation.ValidationError("daemon: run function is required").Build()
	}
	if opts.Schedule != "" && opts.Interval > 0 {
		return nil, foundation.ValidationError("daemon: schedule and interval are mutually exclusive").Build()
	}
	if opts.Schedule == "" && opts.Interval <= 0 && len(opts.Watch) == 0 {
		return nil, foundation.ValidationError("daemon: configure a schedule, an interval or watch directories").Build()
	}
	return &Daemon{opts: opts, run: run}, nil
}

// Run starts all triggers and blocks until ctx is canceled. It waits for an in-flight
// run to finish before returning.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.start(ctx); err != nil {
		d.stop()
		return err
	}
	slog.Info("Daemon started")
	<-ctx.Done()
	slog.Info("Daemon stopping")
	d.stop()
	return nil
}

// Trigger runs the pipeline now, waiting for any in-flight run first.
func (d *Daemon) Trigger(ctx context.Context, trigger string) {
	d.runMu.Lock()
	defer d.runMu.Unlock()
	if ctx.Err() != nil {
		return
	}
	slog.Info("Run triggered", logfields.Trigger(trigger))
	if err := d.run(ctx, trigger); err != nil {
		slog.Error("Run failed", logfields.Trigger(trigger), logfields.Error(err))
	}
}

func (d *Daemon) start(ctx context.Context) error {
	if d.opts.Schedule != "" || d.opts.Interval > 0 {
		s, err := NewScheduler()
		if err != nil {
			return foundation.WrapError(err, foundation.CategoryDaemon, "failed to create scheduler").Build()
		}
		d.scheduler = s
		task := func() { d.Trigger(ctx, pipeline.TriggerSchedule) }
		var id string
		if d.opts.Schedule != "" {
			id, err = s.ScheduleCron("hugoci-run", d.opts.Schedule, task)
		} else {
			id, err = s.ScheduleEvery("hugoci-run", d.opts.Interval, task)
		}
		if err != nil {
			return foundation.WrapError(err, foundation.CategoryDaemon, "invalid schedule").
				WithContext("schedule", d.opts.Schedule).
				UserAction().
				Build()
		}
		s.Start(ctx)
		if next, err := s.NextRun(id); err == nil {
			slog.Info("Next scheduled run", slog.Time("at", next))
		}
	}

	if len(d.opts.Watch) > 0 {
		w, err := NewSourceWatcher(d.opts.Watch, d.opts.Ignore, d.opts.Debounce, func() {
			d.Trigger(ctx, pipeline.TriggerWatch)
		})
		if err != nil {
			return foundation.WrapError(err, foundation.CategoryDaemon, "failed to create source watcher").Build()
		}
		d.watcher = w
		if err := w.Start(ctx); err != nil {
			return foundation.WrapError(err, foundation.CategoryDaemon, "failed to watch sources").Build()
		}
	}

	if d.opts.MetricsListen != "" && d.opts.MetricsHandler != nil {
		ln, err := net.Listen("tcp", d.opts.MetricsListen)
		if err != nil {
			return foundation.WrapError(err, foundation.CategoryDaemon, "failed to listen for metrics").
				WithContext("listen", d.opts.MetricsListen).
				Build()
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", d.opts.MetricsHandler)
		d.mu.Lock()
		d.listener = ln
		d.mu.Unlock()
		d.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := d.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server stopped", logfields.Error(err))
			}
		}()
		slog.Info("Serving metrics", slog.String("addr", ln.Addr().String()))
	}
	return nil
}

// MetricsAddr returns the bound metrics address, or "" when metrics are not served.
func (d *Daemon) MetricsAddr() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.listener == nil {
		return ""
	}
	return d.listener.Addr().String()
}

func (d *Daemon) stop() {
	if d.watcher != nil {
		if err := d.watcher.Stop(); err != nil {
			slog.Warn("Source watcher stop failed", logfields.Error(err))
		}
	}
	if d.scheduler != nil {
		if err := d.scheduler.Stop(context.Background()); err != nil {
			slog.Warn("Scheduler stop failed", logfields.Error(err))
		}
	}
	if d.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = d.server.Shutdown(ctx)
	}
	// wait for a watch-triggered run still in flight
	d.runMu.Lock()
	defer d.runMu.Unlock()
}
