package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeClockNowAdvances(t *testing.T) {
	c := Fake(epoch)
	if got := c.Now(); !got.Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", got, epoch)
	}
	c.Advance(5 * time.Second)
	if got, want := c.Now(), epoch.Add(5*time.Second); !got.Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", got, want)
	}
}

func TestFakeClockAfterFuncFiresOnDeadline(t *testing.T) {
	c := Fake(epoch)
	fired := 0
	c.AfterFunc(3*time.Second, func() { fired++ })

	c.Advance(2 * time.Second)
	if fired != 0 {
		t.Fatalf("callback fired early")
	}
	c.Advance(time.Second)
	if fired != 1 {
		t.Fatalf("expected 1 call, got %d", fired)
	}
	c.Advance(time.Hour)
	if fired != 1 {
		t.Fatalf("one-shot callback fired again: %d", fired)
	}
}

func TestFakeClockAfterFuncZeroRunsImmediately(t *testing.T) {
	c := Fake(epoch)
	fired := false
	timer := c.AfterFunc(0, func() { fired = true })
	if !fired {
		t.Fatal("AfterFunc(0) should run synchronously")
	}
	if timer.Stop() {
		t.Fatal("Stop on an already-run timer should report false")
	}
}

func TestFakeClockStopPreventsFire(t *testing.T) {
	c := Fake(epoch)
	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })
	if !timer.Stop() {
		t.Fatal("expected Stop to report an active timer")
	}
	c.Advance(time.Minute)
	if fired {
		t.Fatal("stopped timer fired")
	}
	if c.Pending() != 0 {
		t.Fatalf("expected no pending waiters, got %d", c.Pending())
	}
}

func TestFakeClockRescheduleWithinAdvance(t *testing.T) {
	c := Fake(epoch)
	var seen []time.Time
	var tick func()
	tick = func() {
		seen = append(seen, c.Now())
		c.AfterFunc(time.Second, tick)
	}
	c.AfterFunc(time.Second, tick)

	c.Advance(3 * time.Second)
	if len(seen) != 3 {
		t.Fatalf("expected 3 ticks, got %d", len(seen))
	}
	for i, at := range seen {
		if want := epoch.Add(time.Duration(i+1) * time.Second); !at.Equal(want) {
			t.Fatalf("tick %d observed %v, want %v", i, at, want)
		}
	}
	if c.Pending() != 1 {
		t.Fatalf("expected the next tick to stay pending, got %d", c.Pending())
	}
}

func TestFakeClockDeadlineOrder(t *testing.T) {
	c := Fake(epoch)
	var order []int
	c.AfterFunc(3*time.Second, func() { order = append(order, 3) })
	c.AfterFunc(1*time.Second, func() { order = append(order, 1) })
	c.AfterFunc(2*time.Second, func() { order = append(order, 2) })

	c.Advance(5 * time.Second)
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("unexpected firing order %v", order)
	}
}

func TestRealClockAfterFuncStop(t *testing.T) {
	c := Real()
	timer := c.AfterFunc(time.Hour, func() {})
	if !timer.Stop() {
		t.Fatal("expected Stop to cancel the pending real timer")
	}
}
