package scan

import (
	"sync"
	"time"
)

// Stopper cancels a pending callback scheduled by a Scheduler.
type Stopper interface {
	// Stop prevents the callback from running if it has not started yet.
	// It reports whether the call stopped the callback.
	Stop() bool
}

// Scheduler runs a callback after a delay.
// The default implementation is backed by time.AfterFunc; tests inject a
// manual clock.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Stopper
}

// realScheduler schedules callbacks on the runtime timer heap.
type realScheduler struct{}

// AfterFunc implements Scheduler.
func (realScheduler) AfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// SystemScheduler returns a Scheduler backed by the runtime's timers.
func SystemScheduler() Scheduler {
	return realScheduler{}
}

// Timer owns the two delayed triggers of a session: the warm-up that arms
// the camera and the deadline that gives up waiting for a scan.
//
// The deadline is measured from the arming instant, so the total time to
// a timeout is warm-up + deadline. A Timer is single-use.
type Timer struct {
	sched Scheduler

	mu        sync.Mutex
	started   bool
	cancelled bool
	warmup    Stopper
	deadline  Stopper
}

// NewTimer creates a Timer that schedules through sched.
// A nil sched uses SystemScheduler.
func NewTimer(sched Scheduler) *Timer {
	if sched == nil {
		sched = SystemScheduler()
	}
	return &Timer{sched: sched}
}

// Start schedules onArmed after warmup and, once onArmed has returned,
// onDeadline after a further deadline. A deadline <= 0 disables the second trigger.
// Callbacks run on the scheduler's goroutine, never while the Timer's own
// lock is held.
func (t *Timer) Start(warmup, deadline time.Duration, onArmed, onDeadline func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return ErrTimerStarted
	}
	t.started = true
	if t.cancelled {
		return nil
	}

	t.warmup = t.sched.AfterFunc(warmup, func() {
		t.mu.Lock()
		if t.cancelled {
			t.mu.Unlock()
			return
		}
		t.mu.Unlock()

		if onArmed != nil {
			onArmed()
		}
		if deadline <= 0 {
			return
		}

		// Deadline counts from the end of onArmed.
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.cancelled {
			return
		}
		t.deadline = t.sched.AfterFunc(deadline, func() {
			t.mu.Lock()
			if t.cancelled {
				t.mu.Unlock()
				return
			}
			t.mu.Unlock()
			if onDeadline != nil {
				onDeadline()
			}
		})
	})

	return nil
}

// CancelAll cancels both triggers, whichever of them already fired.
// It is idempotent. A callback that has not started by the time CancelAll
// returns never runs, even if its underlying timer had already expired.
func (t *Timer) CancelAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancelled {
		return
	}
	t.cancelled = true

	if t.warmup != nil {
		t.warmup.Stop()
	}
	if t.deadline != nil {
		t.deadline.Stop()
	}
}

// Cancelled reports whether CancelAll has been called.
func (t *Timer) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}
