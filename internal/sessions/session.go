package sessions

import (
	"fmt"
	"strings"
	"time"
)

// Session is one configured regional trading window. Sessions are
// configuration: built once at startup, never mutated at runtime.
type Session struct {
	ID                  string
	Active              bool
	Weekdays            WeekdaySet
	WindowStart         TimeOfDay // master time zone, same calendar day
	WindowEnd           TimeOfDay // exclusive; always after WindowStart
	Exchanges           []string
	Universe            string
	MaxGrossExposurePct float64 // fraction of total capital, (0,1]
	MaxOrderNotional    float64 // hard per-order ceiling, base currency
	Cooldown            time.Duration // minimum order spacing, enforced by callers
	SkipAuctions        bool
}

// TimeOfDay is a wall-clock minute within a day.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var t TimeOfDay
	if _, err := fmt.Sscanf(s, "%d:%d", &t.Hour, &t.Minute); err != nil {
		return t, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
		return t, fmt.Errorf("time of day %q out of range", s)
	}
	return t, nil
}

// MinuteOfDay returns minutes since midnight.
func (t TimeOfDay) MinuteOfDay() int { return t.Hour*60 + t.Minute }

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

// WeekdaySet is a bitmask of weekdays, bit n = time.Weekday(n).
type WeekdaySet uint8

// Weekdays builds a set from individual days.
func Weekdays(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s |= 1 << uint(d)
	}
	return s
}

// MonThroughFri is the default trading-day mask.
var MonThroughFri = Weekdays(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)

func (s WeekdaySet) Contains(d time.Weekday) bool { return s&(1<<uint(d)) != 0 }

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// ParseWeekdays parses names like "Mon" or "monday" into a set.
func ParseWeekdays(names []string) (WeekdaySet, error) {
	var s WeekdaySet
	for _, n := range names {
		key := strings.ToLower(strings.TrimSpace(n))
		if len(key) > 3 {
			key = key[:3]
		}
		d, ok := weekdayNames[key]
		if !ok {
			return 0, fmt.Errorf("unknown weekday %q", n)
		}
		s |= 1 << uint(d)
	}
	return s, nil
}

// Registry is the immutable set of configured sessions plus the master time
// zone every scheduling decision is made in.
type Registry struct {
	sessions []Session
	byID     map[string]int
	loc      *time.Location
}

// NewRegistry validates the configured sessions and freezes them. Any
// configuration error here is fatal: the scheduler must not start with a
// malformed registry.
func NewRegistry(list []Session, loc *time.Location) (*Registry, error) {
	if loc == nil {
		return nil, fmt.Errorf("registry: master time zone is required")
	}
	byID := make(map[string]int, len(list))
	sessions := make([]Session, len(list))
	copy(sessions, list)
	for i, s := range sessions {
		if s.ID == "" {
			return nil, fmt.Errorf("registry: session %d has empty id", i)
		}
		if _, dup := byID[s.ID]; dup {
			return nil, fmt.Errorf("registry: duplicate session id %q", s.ID)
		}
		if s.WindowStart.MinuteOfDay() >= s.WindowEnd.MinuteOfDay() {
			return nil, fmt.Errorf("registry: session %q window %s-%s is empty or inverted",
				s.ID, s.WindowStart, s.WindowEnd)
		}
		if len(s.Exchanges) == 0 {
			return nil, fmt.Errorf("registry: session %q has no exchanges", s.ID)
		}
		if s.MaxGrossExposurePct <= 0 || s.MaxGrossExposurePct > 1 {
			return nil, fmt.Errorf("registry: session %q max_gross_exposure_pct %.4f outside (0,1]",
				s.ID, s.MaxGrossExposurePct)
		}
		if s.MaxOrderNotional <= 0 {
			return nil, fmt.Errorf("registry: session %q max_order_notional must be positive", s.ID)
		}
		if s.Weekdays == 0 {
			sessions[i].Weekdays = MonThroughFri
		}
		byID[s.ID] = i
	}
	return &Registry{sessions: sessions, byID: byID, loc: loc}, nil
}

// List returns a snapshot copy of all sessions, in registry order.
func (r *Registry) List() []Session {
	out := make([]Session, len(r.sessions))
	copy(out, r.sessions)
	return out
}

// Get returns the session with the given id.
func (r *Registry) Get(id string) (Session, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Session{}, false
	}
	return r.sessions[i], true
}

// Location returns the master time zone.
func (r *Registry) Location() *time.Location { return r.loc }

// Len returns the number of configured sessions.
func (r *Registry) Len() int { return len(r.sessions) }
