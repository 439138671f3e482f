package journal

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id             TEXT PRIMARY KEY,
	type           TEXT NOT NULL,
	session_id     TEXT,
	phase          TEXT,
	scope          TEXT,
	action         TEXT,
	correlation_id TEXT,
	payload        TEXT,
	ts             TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_session_ts ON events(session_id, ts);
`

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) Append(ctx context.Context, rec Record) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO events
		(id, type, session_id, phase, scope, action, correlation_id, payload, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Type, rec.SessionID, rec.Phase, rec.Scope, rec.Action,
		rec.CorrelationID, rec.Payload, rec.Timestamp,
	)
	return err
}

func (j *SQLiteJournal) RecentBySession(ctx context.Context, sessionID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, type, session_id, phase, scope, action, correlation_id, payload, ts
		FROM events WHERE session_id = ? ORDER BY ts DESC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var ts time.Time
		if err := rows.Scan(&rec.ID, &rec.Type, &rec.SessionID, &rec.Phase,
			&rec.Scope, &rec.Action, &rec.CorrelationID, &rec.Payload, &ts); err != nil {
			return nil, err
		}
		rec.Timestamp = ts
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
