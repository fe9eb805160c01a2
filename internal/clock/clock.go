// Package clock abstracts wall-clock access so lifecycle logic and the
// retention sweeps can run against simulated time in tests.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns a Clock backed by the OS clock.
func System() Clock { return systemClock{} }

// Fixed is a manually advanced Clock for tests.
type Fixed struct {
	Current time.Time
}

func NewFixed(t time.Time) *Fixed { return &Fixed{Current: t} }

func (f *Fixed) Now() time.Time { return f.Current }

func (f *Fixed) Advance(d time.Duration) { f.Current = f.Current.Add(d) }

func (f *Fixed) Set(t time.Time) { f.Current = t }
