// Package clock abstracts wall-clock reads and timer scheduling so the session
// manager's expiry logic can be driven deterministically in tests.
//
// Production code uses [Real]; tests use [Fake] and move time with
// [FakeClock.Advance].
package clock

import "time"

// Clock is the time source consumed by the session manager.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc waits for d, then calls f. The returned Timer cancels the
	// pending call with Stop. If d <= 0, f runs immediately (in a new
	// goroutine for Real, synchronously for Fake).
	AfterFunc(d time.Duration, f func()) *Timer
}

// Timer is a scheduled callback created by AfterFunc.
type Timer struct {
	stopFunc func() bool
}

// Stop prevents the Timer from firing. It reports whether the call stopped
// the timer; false means it already fired or was already stopped.
func (t *Timer) Stop() bool {
	if t == nil || t.stopFunc == nil {
		return false
	}
	return t.stopFunc()
}
