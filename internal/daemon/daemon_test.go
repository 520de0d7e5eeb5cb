package daemon

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundation "git.home.luguber.info/inful/hugoci/internal/foundation/errors"
	"git.home.luguber.info/inful/hugoci/internal/pipeline"
)

type triggerLog struct {
	mu       sync.Mutex
	triggers []string
	active   atomic.Int32
	overlap  atomic.Bool
}

func (l *triggerLog) run(hold time.Duration) RunFunc {
	return func(_ context.Context, trigger string) error {
		if l.active.Add(1) > 1 {
			l.overlap.Store(true)
		}
		defer l.active.Add(-1)
		time.Sleep(hold)
		l.mu.Lock()
		l.triggers = append(l.triggers, trigger)
		l.mu.Unlock()
		return nil
	}
}

func (l *triggerLog) seen() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.triggers...)
}

// runDaemon starts d in the background and returns a function that stops it and
// reports Run's result.
func runDaemon(t *testing.T, d *Daemon) func() error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	stop := sync.OnceValue(func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			return errors.New("daemon did not stop")
		}
	})
	t.Cleanup(func() { _ = stop() })
	return stop
}

func TestNew_Validation(t *testing.T) {
	noop := func(context.Context, string) error { return nil }
	tests := []struct {
		name string
		opts Options
		run  RunFunc
	}{
		{"no triggers", Options{}, noop},
		{"no run func", Options{Interval: time.Minute}, nil},
		{"schedule and interval", Options{Schedule: "* * * * *", Interval: time.Minute}, noop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts, tt.run)
			require.Error(t, err)
			assert.True(t, foundation.HasCategory(err, foundation.CategoryValidation))
		})
	}
}

func TestDaemon_IntervalTriggersRuns(t *testing.T) {
	log := &triggerLog{}
	d, err := New(Options{Interval: 20 * time.Millisecond}, log.run(0))
	require.NoError(t, err)
	runDaemon(t, d)

	require.Eventually(t, func() bool { return len(log.seen()) >= 2 }, 2*time.Second, 10*time.Millisecond)
	for _, tr := range log.seen() {
		assert.Equal(t, pipeline.TriggerSchedule, tr)
	}
}

func TestDaemon_InvalidCronFails(t *testing.T) {
	d, err := New(Options{Schedule: "every tuesday"}, (&triggerLog{}).run(0))
	require.NoError(t, err)

	err = d.Run(context.Background())
	require.Error(t, err)
	assert.True(t, foundation.HasCategory(err, foundation.CategoryDaemon))
}

func TestDaemon_WatchTriggersRun(t *testing.T) {
	root := t.TempDir()
	log := &triggerLog{}
	d, err := New(Options{Watch: []string{root}, Debounce: 30 * time.Millisecond}, log.run(0))
	require.NoError(t, err)
	runDaemon(t, d)

	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(root, "config.toml"), []byte(time.Now().String()), 0o600)
		return len(log.seen()) > 0
	}, 3*time.Second, 50*time.Millisecond)
	assert.Equal(t, pipeline.TriggerWatch, log.seen()[0])
}

func TestDaemon_TriggersNeverOverlap(t *testing.T) {
	log := &triggerLog{}
	d, err := New(Options{Interval: time.Hour}, log.run(30*time.Millisecond))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Trigger(context.Background(), pipeline.TriggerWatch)
		}()
	}
	wg.Wait()

	assert.Len(t, log.seen(), 4)
	assert.False(t, log.overlap.Load())
}

func TestDaemon_TriggerAfterCancelIsSkipped(t *testing.T) {
	log := &triggerLog{}
	d, err := New(Options{Interval: time.Hour}, log.run(0))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Trigger(ctx, pipeline.TriggerSchedule)
	assert.Empty(t, log.seen())
}

func TestDaemon_RunErrorDoesNotStopDaemon(t *testing.T) {
	var calls atomic.Int32
	d, err := New(Options{Interval: 20 * time.Millisecond}, func(context.Context, string) error {
		calls.Add(1)
		return errors.New("boom")
	})
	require.NoError(t, err)
	runDaemon(t, d)

	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestDaemon_ServesMetrics(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "hugoci_up 1\n")
	})
	d, err := New(Options{
		Interval:       time.Hour,
		MetricsListen:  "127.0.0.1:0",
		MetricsHandler: handler,
	}, (&triggerLog{}).run(0))
	require.NoError(t, err)
	stop := runDaemon(t, d)

	require.Eventually(t, func() bool { return d.MetricsAddr() != "" }, 2*time.Second, 10*time.Millisecond)
	resp, err := http.Get("http://" + d.MetricsAddr() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "hugoci_up 1\n", string(body))

	assert.NoError(t, stop())
}
