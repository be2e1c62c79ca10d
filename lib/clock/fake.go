// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"time"
)

// Fake returns a FakeClock frozen at the given time. Nothing fires
// until Advance moves the clock past a deadline.
//
// FakeClock is safe for concurrent use.
func Fake(initial time.Time) *FakeClock {
	c := &FakeClock{now: initial}
	c.changed = sync.NewCond(&c.mu)
	return c
}

// FakeClock is a deterministic Clock for tests. Time moves only under
// Advance, which fires due timers in deadline order.
//
// AfterFunc callbacks run synchronously inside Advance. A callback
// must not call Advance or Sleep on the same clock: Advance would
// nest, and Sleep would block forever waiting for an Advance that is
// suspended inside the callback.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	changed *sync.Cond

	// scheduled holds pending entries ordered by deadline, earliest
	// first. Entries with equal deadlines keep registration order.
	scheduled []*fakeTimer
}

// fakeTimer is one pending After, AfterFunc, Sleep, or Ticker entry.
type fakeTimer struct {
	when time.Time

	// ch receives the fire time for After, Sleep, and Ticker
	// entries. fn runs for AfterFunc entries. Exactly one is set.
	ch chan time.Time
	fn func()

	// period is positive for tickers, which reschedule themselves
	// after firing.
	period time.Duration

	stopped bool
	fired   bool
}

// Now reports the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After returns a channel that receives once the clock advances past
// the deadline. A non-positive d delivers immediately.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	c.mu.Lock()
	defer c.mu.Unlock()
	if d <= 0 {
		ch <- c.now
		return ch
	}
	c.insertLocked(&fakeTimer{when: c.now.Add(d), ch: ch})
	return ch
}

// AfterFunc schedules f to run when the clock advances past the
// deadline. A non-positive d runs f synchronously before AfterFunc
// returns, and the returned Timer is inert.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	if d <= 0 {
		f()
		return &Timer{
			stop:  func() bool { return false },
			reset: func(time.Duration) bool { return false },
		}
	}

	entry := &fakeTimer{fn: f}
	c.mu.Lock()
	entry.when = c.now.Add(d)
	c.insertLocked(entry)
	c.mu.Unlock()

	return &Timer{
		stop: func() bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			if entry.stopped || entry.fired {
				return false
			}
			entry.stopped = true
			return true
		},
		reset: func(d time.Duration) bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			wasPending := !entry.stopped && !entry.fired
			entry.stopped = false
			entry.fired = false
			entry.when = c.now.Add(d)
			c.removeLocked(entry)
			c.insertLocked(entry)
			return wasPending
		},
	}
}

// NewTicker returns a Ticker that fires each time the clock advances
// past another interval boundary. Panics if d is not positive.
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: NewTicker interval must be positive")
	}

	ch := make(chan time.Time, 1)
	entry := &fakeTimer{ch: ch, period: d}
	c.mu.Lock()
	entry.when = c.now.Add(d)
	c.insertLocked(entry)
	c.mu.Unlock()

	return &Ticker{
		C: ch,
		stop: func() {
			c.mu.Lock()
			entry.stopped = true
			c.mu.Unlock()
		},
		reset: func(d time.Duration) {
			c.mu.Lock()
			entry.period = d
			entry.when = c.now.Add(d)
			entry.stopped = false
			c.removeLocked(entry)
			c.insertLocked(entry)
			c.mu.Unlock()
		},
	}
}

// Sleep blocks the calling goroutine until the clock advances past
// the deadline. A non-positive d returns immediately.
func (c *FakeClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	<-c.After(d)
}

// Advance moves the clock forward by d and fires every entry whose
// deadline falls within the new time, earliest deadline first.
//
// Channel deliveries are non-blocking: a ticker whose consumer has
// not drained the previous tick drops the new one, matching
// time.Ticker. A ticker spanning several intervals in one Advance
// fires once per interval, subject to the same drop rule.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	target := c.now
	for {
		entry := c.popDueLocked(target)
		if entry == nil {
			break
		}
		if entry.fn != nil {
			// Run callbacks without the lock so they can register
			// new timers on this clock.
			c.mu.Unlock()
			entry.fn()
			c.mu.Lock()
		} else {
			select {
			case entry.ch <- target:
			default:
			}
		}
	}
	c.mu.Unlock()
}

// popDueLocked removes and returns the earliest live entry whose
// deadline has been reached, discarding stopped entries along the
// way. Tickers are rescheduled one period ahead before being
// returned. Returns nil when nothing else is due.
func (c *FakeClock) popDueLocked(target time.Time) *fakeTimer {
	for len(c.scheduled) > 0 {
		entry := c.scheduled[0]
		if entry.stopped {
			c.scheduled = c.scheduled[1:]
			continue
		}
		if entry.when.After(target) {
			return nil
		}
		c.scheduled = c.scheduled[1:]
		if entry.period > 0 {
			entry.when = entry.when.Add(entry.period)
			c.insertLocked(entry)
		} else {
			entry.fired = true
		}
		return entry
	}
	return nil
}

// insertLocked places entry into the schedule, keeping deadline
// order. Entries with equal deadlines stay in registration order.
func (c *FakeClock) insertLocked(entry *fakeTimer) {
	position := len(c.scheduled)
	for i, existing := range c.scheduled {
		if existing.when.After(entry.when) {
			position = i
			break
		}
	}
	c.scheduled = append(c.scheduled, nil)
	copy(c.scheduled[position+1:], c.scheduled[position:])
	c.scheduled[position] = entry
	c.changed.Broadcast()
}

// removeLocked deletes entry from the schedule if present.
func (c *FakeClock) removeLocked(entry *fakeTimer) {
	for i, existing := range c.scheduled {
		if existing == entry {
			c.scheduled = append(c.scheduled[:i], c.scheduled[i+1:]...)
			return
		}
	}
}

// WaitForTimers blocks until at least n entries are pending. Tests
// use it to wait for a goroutine to register its timer or sleep
// before advancing the clock, which removes the registration race
// without resorting to real sleeps.
//
//	go func() { fake.Sleep(time.Minute) }()
//	fake.WaitForTimers(1)
//	fake.Advance(time.Minute)
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.pendingLocked() < n {
		c.changed.Wait()
	}
}

// PendingCount reports how many entries are pending.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingLocked()
}

func (c *FakeClock) pendingLocked() int {
	count := 0
	for _, entry := range c.scheduled {
		if !entry.stopped {
			count++
		}
	}
	return count
}
