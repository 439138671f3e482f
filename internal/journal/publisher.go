package journal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tradeops/session-orchestrator/internal/events"
)

// Publisher adapts a Journal into an event sink so journaling rides the
// same fan-out path as every other consumer.
type Publisher struct {
	j Journal
}

func NewPublisher(j Journal) *Publisher { return &Publisher{j: j} }

func (p *Publisher) Publish(ctx context.Context, ev events.Envelope) error {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return err
	}
	rec := Record{
		ID:            ulid.Make().String(),
		Type:          string(ev.Type),
		CorrelationID: ev.CorrelationID,
		Payload:       string(payload),
		Timestamp:     ev.Timestamp,
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	switch body := ev.Payload.(type) {
	case events.SessionStatus:
		rec.SessionID = body.SessionID
		rec.Phase = string(body.Phase)
	case events.Handoff:
		rec.Scope = body.Scope
		rec.Action = body.Action
	}
	return p.j.Append(ctx, rec)
}
