package scheduler

import "time"

// Clock abstracts the master wall clock so ticks can be driven from fixture
// times in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the real wall clock.
func SystemClock() Clock { return systemClock{} }

// FixedClock always returns the same instant.
type FixedClock struct{ T time.Time }

func (f FixedClock) Now() time.Time { return f.T }
