package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tradeops/session-orchestrator/internal/sessions"
)

type sink struct {
	count int
	err   error
}

func (s *sink) Publish(ctx context.Context, ev Envelope) error {
	if s.err != nil {
		return s.err
	}
	s.count++
	return nil
}

func statusEnvelope() Envelope {
	return NewEnvelope(TypeSessionStatus, "corr", SessionStatus{
		SessionID: "EU_MORNING",
		Phase:     sessions.PhaseOpen,
		Timestamp: time.Now().UTC(),
	})
}

func TestNewEnvelope_StampsIdentity(t *testing.T) {
	a := statusEnvelope()
	b := statusEnvelope()
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("envelope ids must be unique and non-empty: %q vs %q", a.ID, b.ID)
	}
	if a.Type != TypeSessionStatus || a.CorrelationID != "corr" {
		t.Fatalf("envelope metadata wrong: %+v", a)
	}
	if a.Timestamp.IsZero() {
		t.Fatal("timestamp not stamped")
	}
}

func TestMulti_IsolatesFailingSink(t *testing.T) {
	good1 := &sink{}
	bad := &sink{err: errors.New("sink down")}
	good2 := &sink{}

	m := Multi{good1, bad, good2}
	err := m.Publish(context.Background(), statusEnvelope())
	if err == nil {
		t.Fatal("failing sink error must be surfaced")
	}
	if good1.count != 1 || good2.count != 1 {
		t.Fatalf("healthy sinks must still receive the event: %d/%d", good1.count, good2.count)
	}
}

func TestLogPublisher_NeverErrors(t *testing.T) {
	if err := (LogPublisher{}).Publish(context.Background(), statusEnvelope()); err != nil {
		t.Fatalf("log publisher returned error: %v", err)
	}
}
