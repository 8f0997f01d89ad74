// Copyright (c) 2025 Hartline Specialty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package debounce provides a most-recent-wins deferred trigger. A second
// Trigger within the delay window cancels the pending fire and re-arms, so
// a burst of triggers produces exactly one execution.
package debounce

import (
	"sync"
	"time"
)

// DefaultDelay matches the portal's search and stats-refresh debounce.
const DefaultDelay = 300 * time.Millisecond

type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
}

// New returns a Debouncer with the given delay; zero or negative falls back
// to DefaultDelay.
func New(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{delay: delay}
}

// Trigger schedules fn after the delay, cancelling any pending schedule.
// Only the most recent fn runs.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop cancels any pending trigger.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
