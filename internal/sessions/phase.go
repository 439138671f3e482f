package sessions

import "time"

// Phase is the per-tick classification of a session's tradability. It is
// derived from scratch every tick and never persisted.
type Phase string

const (
	PhaseOutOfWindow    Phase = "OUT_OF_WINDOW"
	PhaseAuction        Phase = "AUCTION"
	PhaseClosedExchange Phase = "CLOSED_EXCHANGE"
	PhaseOpen           Phase = "OPEN"
)

// InWindow reports whether now falls inside the session's trading window on
// a weekday the session runs. The comparison is start-inclusive,
// end-exclusive. now must already be in the master time zone.
func InWindow(now time.Time, s Session) bool {
	if !s.Weekdays.Contains(now.Weekday()) {
		return false
	}
	minute := now.Hour()*60 + now.Minute()
	return minute >= s.WindowStart.MinuteOfDay() && minute < s.WindowEnd.MinuteOfDay()
}

// EvaluatePhase classifies a session given the current time and the
// exchange status already resolved by the caller. Pure function; the
// priority order is fixed: out-of-window beats auction beats closed.
func EvaluatePhase(now time.Time, s Session, exchangesOpen, inAuction bool) Phase {
	if !InWindow(now, s) {
		return PhaseOutOfWindow
	}
	if s.SkipAuctions && inAuction {
		return PhaseAuction
	}
	if !exchangesOpen {
		return PhaseClosedExchange
	}
	return PhaseOpen
}
