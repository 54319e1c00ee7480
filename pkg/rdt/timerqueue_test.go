package rdt

import (
	"time"

	"github.com/hashicorp/go-hclog"
)

// fakeClock is a manually-advanced Clock for deterministic tests.
type fakeClock struct{ t float64 }

func (c *fakeClock) Now() float64 { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t += d.Seconds() }

// fakeHostTimer is a HostTimer that just records what it was told to do;
// tests drive expiry explicitly rather than relying on a real goroutine.
type fakeHostTimer struct {
	set        bool
	deadline   time.Duration // absolute clock time: the clock's value at TimerStart plus d
	startCount int
	stopCount  int
	clock      *fakeClock
}

func (t *fakeHostTimer) TimerStart(d time.Duration) {
	t.set = true
	t.startCount++
	t.deadline = time.Duration(t.clock.t*float64(time.Second)) + d
}

func (t *fakeHostTimer) TimerStop() {
	t.set = false
	t.stopCount++
}

func (t *fakeHostTimer) TimerIsSet() bool { return t.set }

func testLogger() hclog.Logger {
	return hclog.NewNullLogger()
}
