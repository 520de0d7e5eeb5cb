// Package notify publishes run and step outcomes to NATS.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	foundation "git.home.luguber.info/inful/hugoci/internal/foundation/errors"
	"git.home.luguber.info/inful/hugoci/internal/logfields"
)

// Kind distinguishes step events from run events.
type Kind string

const (
	KindStep Kind = "step"
	KindRun  Kind = "run"
)

// Event is the JSON payload published for each finished step or run.
type Event struct {
	Kind       Kind      `json:"kind"`
	RunID      string    `json:"run_id"`
	Step       string    `json:"step,omitempty"`
	Result     string    `json:"result"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Trigger    string    `json:"trigger,omitempty"`
	Job        string    `json:"job,omitempty"`
	Build      string    `json:"build,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Notifier delivers events.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
	Close()
}

// Noop discards events.
type Noop struct{}

func (Noop) Notify(context.Context, Event) error { return nil }
func (Noop) Close()                              {}

type conn interface {
	Publish(subject string, data []byte) error
	FlushTimeout(timeout time.Duration) error
	Close()
}

// NATSNotifier publishes events on <subject>.<kind>.
type NATSNotifier struct {
	conn    conn
	subject string
	timeout time.Duration
	now     func() time.Time
}

// Connect dials url and returns a notifier publishing below subject.
func Connect(url, subject string, timeout time.Duration) (*NATSNotifier, error) {
	nc, err := nats.Connect(url,
		nats.Name("hugoci"),
		nats.Timeout(timeout),
		nats.MaxReconnects(2),
	)
	if err != nil {
		return nil, foundation.WrapError(err, foundation.CategoryNotify, "failed to connect to NATS").
			WithContext("url", url).
			Retryable().
			Build()
	}
	slog.Debug("Connected to NATS", logfields.URL(url), slog.String("subject", subject))
	return newNATSNotifier(nc, subject, timeout), nil
}

func newNATSNotifier(c conn, subject string, timeout time.Duration) *NATSNotifier {
	return &NATSNotifier{conn: c, subject: subject, timeout: timeout, now: time.Now}
}

// Notify publishes ev and waits for the server to acknowledge the flush.
func (n *NATSNotifier) Notify(ctx context.Context, ev Event) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = n.now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := n.subject + "." + string(ev.Kind)
	if err := n.conn.Publish(subject, data); err != nil {
		return foundation.WrapError(err, foundation.CategoryNotify, "failed to publish event").
			WithContext("subject", subject).
			Build()
	}

	timeout := n.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if err := n.conn.FlushTimeout(timeout); err != nil {
		return foundation.WrapError(err, foundation.CategoryNotify, "failed to flush event").
			WithContext("subject", subject).
			Retryable().
			Build()
	}
	return nil
}

// Close closes the NATS connection.
func (n *NATSNotifier) Close() { n.conn.Close() }
