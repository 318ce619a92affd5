// Package uiloop serializes engine work onto the platform UI thread. Native
// window and panel creation must happen there, so every public engine
// operation is posted to the loop and awaited. Timers re-enter the loop the
// same way, which keeps all registry state single-threaded.
package uiloop

import (
	"sync"
	"time"
)

// Scheduler marshals a function onto the UI thread. The native backend
// provides the real implementation; tests provide an inline one.
type Scheduler interface {
	Schedule(fn func())
}

// Loop posts work to a Scheduler and provides call-and-wait semantics.
type Loop struct {
	sched Scheduler
}

// New returns a loop over the given scheduler.
func New(sched Scheduler) *Loop {
	return &Loop{sched: sched}
}

// Post schedules fn without waiting for it.
func (l *Loop) Post(fn func()) {
	l.sched.Schedule(fn)
}

// Call schedules fn and blocks until it has run. Callers on other threads
// use this for every operation that touches native surfaces; fn must not
// Call back into the loop.
func (l *Loop) Call(fn func()) {
	done := make(chan struct{})
	l.sched.Schedule(func() {
		defer close(done)
		fn()
	})
	<-done
}

// Timer is a single-slot re-armable timer whose callback runs on the loop.
// Re-arming overwrites the pending slot; a stopped or superseded arm never
// fires. The zero value is unusable; construct with NewTimer.
type Timer struct {
	loop *Loop

	mu    sync.Mutex
	gen   uint64
	timer *time.Timer
}

// NewTimer returns a timer bound to the loop.
func NewTimer(loop *Loop) *Timer {
	return &Timer{loop: loop}
}

// Arm schedules fn to run on the loop after d, cancelling any pending arm.
func (t *Timer) Arm(d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.timer = time.AfterFunc(d, func() {
		t.loop.Post(func() {
			t.mu.Lock()
			live := t.gen == gen
			t.mu.Unlock()
			if live {
				fn()
			}
		})
	})
}

// Stop cancels any pending arm.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
