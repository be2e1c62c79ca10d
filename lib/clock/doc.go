// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Code that needs the current time, timers, tickers, or sleeps takes
// a [Clock] instead of calling the time package directly. The cache
// sweeper ticks on one, and the upstream client waits out rate-limit
// windows on one. In production both receive Real(); in tests they
// receive Fake(), whose time moves only when the test calls Advance.
//
// # Wiring
//
// Give the struct a Clock field and pass Real() at construction:
//
//	sweeper := &Sweeper{clock: clock.Real()}
//
// In tests, construct a FakeClock and drive it:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	sweeper := &Sweeper{clock: fake}
//	// start the goroutine under test ...
//	fake.WaitForTimers(1)
//	fake.Advance(time.Hour)
//
// WaitForTimers blocks until the goroutine has registered its timer,
// so the Advance that follows is guaranteed to fire it. This replaces
// the usual time.Sleep guesswork in concurrent tests.
package clock
