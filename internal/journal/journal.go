// Package journal persists orchestrator events to an embedded store so the
// dashboard and post-mortems can query recent session activity.
package journal

import (
	"context"
	"time"
)

// Record is one journaled event row.
type Record struct {
	ID            string    // ULID, sorts by time
	Type          string    // "session_status" | "handoff"
	SessionID     string    // empty for handoff records
	Phase         string    // empty for handoff records
	Scope         string    // handoff scope, empty for status records
	Action        string    // handoff action, empty for status records
	CorrelationID string
	Payload       string // full event JSON
	Timestamp     time.Time
}

type Journal interface {
	Append(ctx context.Context, rec Record) error
	// RecentBySession returns the newest records for a session, most recent
	// first, up to limit.
	RecentBySession(ctx context.Context, sessionID string, limit int) ([]Record, error)
	Close() error
}
