// Package events defines the state-transition events the orchestrator fans
// out to downstream consumers, and the publisher sinks that carry them.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tradeops/session-orchestrator/internal/observ"
	"github.com/tradeops/session-orchestrator/internal/sessions"
)

// Type names an event stream.
type Type string

const (
	TypeSessionStatus Type = "session_status"
	TypeHandoff       Type = "handoff"
)

// SessionStatus is emitted for every session on every tick, whether or not
// the phase changed. Consumers diff; the scheduler stays stateless.
type SessionStatus struct {
	SessionID string         `json:"session_id"`
	Phase     sessions.Phase `json:"phase"`
	Universe  string         `json:"universe"`
	Timestamp time.Time      `json:"timestamp"`
}

// Handoff is emitted when a handoff rule fires.
type Handoff struct {
	Rule      string    `json:"rule"`
	Action    string    `json:"action"`
	Scope     string    `json:"scope"`
	Factor    float64   `json:"factor,omitempty"`
	Succeeded bool      `json:"succeeded"`
	Timestamp time.Time `json:"timestamp"`
}

// Envelope wraps a payload with identity and correlation metadata.
type Envelope struct {
	ID            string    `json:"id"`
	Type          Type      `json:"type"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Timestamp     time.Time `json:"ts"`
	Payload       any       `json:"payload"`
}

// NewEnvelope stamps a payload with a fresh UUID. CorrelationID groups all
// events emitted by one tick.
func NewEnvelope(t Type, correlationID string, payload any) Envelope {
	return Envelope{
		ID:            uuid.NewString(),
		Type:          t,
		CorrelationID: correlationID,
		Timestamp:     time.Now().UTC(),
		Payload:       payload,
	}
}

// Publisher is a fire-and-forget sink for orchestrator events. Publish
// returns an error so callers can count failures, but the orchestrator
// never blocks its control flow on a sink.
type Publisher interface {
	Publish(ctx context.Context, ev Envelope) error
}

// LogPublisher writes every event as a structured log line.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, ev Envelope) error {
	observ.Log("event_published", map[string]any{
		"id":             ev.ID,
		"type":           string(ev.Type),
		"correlation_id": ev.CorrelationID,
		"payload":        ev.Payload,
	})
	return nil
}

// Multi fans an event out to several sinks. A failing sink is counted and
// skipped; it never blocks the others.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Envelope) error {
	var firstErr error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			observ.IncCounter("event_publish_errors_total", map[string]string{"type": string(ev.Type)})
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
