package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundation "git.home.luguber.info/inful/hugoci/internal/foundation/errors"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	flushed  []time.Duration
	pubErr   error
	flushErr error
	closed   bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.pubErr != nil {
		return f.pubErr
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

func (f *fakeConn) FlushTimeout(d time.Duration) error {
	f.flushed = append(f.flushed, d)
	return f.flushErr
}

func (f *fakeConn) Close() { f.closed = true }

func TestNATSNotifier_Notify(t *testing.T) {
	fc := &fakeConn{}
	n := newNATSNotifier(fc, "hugoci.runs", 5*time.Second)
	n.now = func() time.Time { return time.Unix(1700000000, 0) }

	err := n.Notify(context.Background(), Event{Kind: KindStep, RunID: "r1", Step: "hugo", Result: "SUCCESS", DurationMS: 1200})
	require.NoError(t, err)
	require.Equal(t, []string{"hugoci.runs.step"}, fc.subjects)
	assert.Equal(t, []time.Duration{5 * time.Second}, fc.flushed)

	var got map[string]any
	require.NoError(t, json.Unmarshal(fc.payloads[0], &got))
	assert.Equal(t, "step", got["kind"])
	assert.Equal(t, "r1", got["run_id"])
	assert.Equal(t, "hugo", got["step"])
	assert.Equal(t, "2023-11-14T22:13:20Z", got["timestamp"])
	assert.NotContains(t, got, "error")

	n.Close()
	assert.True(t, fc.closed)
}

func TestNATSNotifier_ContextDeadlineShortensFlush(t *testing.T) {
	fc := &fakeConn{}
	n := newNATSNotifier(fc, "hugoci.runs", time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, n.Notify(ctx, Event{Kind: KindRun, RunID: "r1", Result: "FAILURE"}))
	assert.Equal(t, "hugoci.runs.run", fc.subjects[0])
	assert.LessOrEqual(t, fc.flushed[0], time.Second)
}

func TestNATSNotifier_Errors(t *testing.T) {
	n := newNATSNotifier(&fakeConn{pubErr: errors.New("closed")}, "s", time.Second)
	err := n.Notify(context.Background(), Event{Kind: KindRun})
	assert.True(t, foundation.HasCategory(err, foundation.CategoryNotify))

	n = newNATSNotifier(&fakeConn{flushErr: errors.New("timeout")}, "s", time.Second)
	err = n.Notify(context.Background(), Event{Kind: KindRun})
	ce, ok := foundation.AsClassified(err)
	require.True(t, ok)
	assert.True(t, ce.CanRetry())
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect("nats://127.0.0.1:1", "s", 200*time.Millisecond)
	require.Error(t, err)
	assert.True(t, foundation.HasCategory(err, foundation.CategoryNotify))
}

func TestNoop(t *testing.T) {
	var n Notifier = Noop{}
	assert.NoError(t, n.Notify(context.Background(), Event{}))
	n.Close()
}
