package clock

import (
	"sort"
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is the subset of *time.Timer the scheduler needs.
type Timer interface {
	Stop() bool
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// FakeClock is deterministic and test-friendly.
// Timers fire synchronously from Set/Advance, in deadline order.
type FakeClock struct {
	mu     sync.Mutex
	t      time.Time
	seq    int
	timers []*fakeTimer
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{t: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *FakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	ft := &fakeTimer{clock: c, at: c.t.Add(d), seq: c.seq, fn: f}
	c.timers = append(c.timers, ft)
	return ft
}

func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	due := c.popDueLocked()
	c.mu.Unlock()

	for _, ft := range due {
		ft.fn()
	}
}

func (c *FakeClock) Advance(d time.Duration) {
	c.Set(c.Now().Add(d))
}

// Pending reports how many timers are armed and not yet fired.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (c *FakeClock) popDueLocked() []*fakeTimer {
	var due, keep []*fakeTimer
	for _, ft := range c.timers {
		if !ft.at.After(c.t) {
			due = append(due, ft)
		} else {
			keep = append(keep, ft)
		}
	}
	c.timers = keep
	sort.SliceStable(due, func(i, j int) bool {
		if due[i].at.Equal(due[j].at) {
			return due[i].seq < due[j].seq
		}
		return due[i].at.Before(due[j].at)
	})
	return due
}

type fakeTimer struct {
	clock *FakeClock
	at    time.Time
	seq   int
	fn    func()
}

func (ft *fakeTimer) Stop() bool {
	c := ft.clock
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, t := range c.timers {
		if t == ft {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			return true
		}
	}
	return false
}
