// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock is the time source injected into code that would otherwise
// call the time package directly. Production wiring uses Real();
// tests use Fake() and drive time forward explicitly with Advance.
type Clock interface {
	// Now reports the current time.
	Now() time.Time

	// After returns a channel that receives the fire time once d has
	// elapsed. A non-positive d delivers immediately.
	After(d time.Duration) <-chan time.Time

	// AfterFunc arranges for f to run once d has elapsed and returns
	// a Timer whose Stop cancels the pending call. The Timer's C is
	// nil, as with time.AfterFunc. A non-positive d runs f without
	// waiting: in a new goroutine for Real, synchronously for Fake.
	AfterFunc(d time.Duration, f func()) *Timer

	// NewTicker returns a Ticker delivering a tick every d. Panics
	// if d is not positive, matching time.NewTicker.
	NewTicker(d time.Duration) *Ticker

	// Sleep blocks the calling goroutine for at least d.
	Sleep(d time.Duration)
}

// Ticker delivers periodic ticks on C. Stop it when done; a stopped
// Ticker sends no further ticks but its channel stays open.
//
// C is buffered with capacity 1. A consumer that falls behind loses
// ticks instead of queueing them, matching time.Ticker.
type Ticker struct {
	// C delivers ticks.
	C <-chan time.Time

	stop  func()
	reset func(time.Duration)
}

// Stop ends tick delivery. It does not close C.
func (t *Ticker) Stop() { t.stop() }

// Reset changes the tick interval and restarts the cycle; the next
// tick arrives after the new interval.
func (t *Ticker) Reset(d time.Duration) { t.reset(d) }

// Timer is a single scheduled event. Timers returned by AfterFunc
// carry a nil C; the event is the callback itself.
type Timer struct {
	// C delivers the fire time. Nil for AfterFunc timers.
	C <-chan time.Time

	stop  func() bool
	reset func(time.Duration) bool
}

// Stop cancels the timer. It reports true if the timer was still
// pending, false if it had already fired or been stopped.
func (t *Timer) Stop() bool { return t.stop() }

// Reset reschedules the timer to fire after d and reports whether it
// was still pending at the time of the call.
func (t *Timer) Reset(d time.Duration) bool { return t.reset(d) }
