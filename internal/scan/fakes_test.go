package scan

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeScheduler is a manual clock. Callbacks run synchronously inside
// Advance, in due-time order, including callbacks scheduled while advancing.
type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	sched   *fakeScheduler
	at      time.Duration
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{}
}

// AfterFunc implements Scheduler.
func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Stopper {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	t := &fakeTimer{sched: s, at: s.now + d, seq: s.seq, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Stop implements Stopper.
func (t *fakeTimer) Stop() bool {
	t.sched.mu.Lock()
	defer t.sched.mu.Unlock()

	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward by d and fires every due callback.
func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		var next *fakeTimer
		for _, t := range s.timers {
			if t.stopped || t.fired || t.at > target {
				continue
			}
			if next == nil || t.at < next.at || (t.at == next.at && t.seq < next.seq) {
				next = t
			}
		}
		if next == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		next.fired = true
		s.now = next.at
		s.mu.Unlock()

		next.f()
	}
}

// pending returns the number of callbacks that are neither fired nor stopped.
func (s *fakeScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// fakeCamera delivers scan events to its single subscriber on demand.
type fakeCamera struct {
	mu           sync.Mutex
	handler      func(Event)
	err          error
	subscribed   int
	unsubscribed int
}

// Subscribe implements Camera.
func (c *fakeCamera) Subscribe(onEvent func(Event)) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return nil, c.err
	}
	c.handler = onEvent
	c.subscribed++

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.handler = nil
		c.unsubscribed++
	}, nil
}

// emit delivers payload to the subscriber, if any. It reports whether a
// subscriber was attached.
func (c *fakeCamera) emit(payload string) bool {
	c.mu.Lock()
	h := c.handler
	c.mu.Unlock()

	if h == nil {
		return false
	}
	h(Event{Payload: payload})
	return true
}

func (c *fakeCamera) counts() (subscribed, unsubscribed int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subscribed, c.unsubscribed
}

// fakeSubmitter records payloads. If release is set, Submit blocks until it
// is closed.
type fakeSubmitter struct {
	mu       sync.Mutex
	payloads []string
	err      error
	release  chan struct{}
}

// Submit implements Submitter.
func (f *fakeSubmitter) Submit(ctx context.Context, payload string) error {
	f.mu.Lock()
	f.payloads = append(f.payloads, payload)
	release := f.release
	err := f.err
	f.mu.Unlock()

	if release != nil {
		<-release
	}
	return err
}

func (f *fakeSubmitter) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.payloads...)
}

// recorder captures hook invocations in order.
type recorder struct {
	mu    sync.Mutex
	calls []string
	ch    chan string
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan string, 256)}
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()
	r.ch <- call
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		OnArmed:    func() { r.add("armed") },
		OnScanned:  func(payload string) { r.add("scanned:" + payload) },
		OnTimedOut: func() { r.add("timed_out") },
		OnClosed:   func(reason CloseReason) { r.add("closed:" + reason.String()) },
		OnSubmissionResult: func(result SubmissionResult) {
			if result.OK {
				r.add("result:ok")
				return
			}
			r.add("result:error")
		},
	}
}

// waitFor blocks until want has been recorded.
func (r *recorder) waitFor(t *testing.T, want string) {
	t.Helper()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case got := <-r.ch:
			if got == want {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for hook %q, got %v", want, r.snapshot())
		}
	}
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// waitDone blocks until the session is finished.
func waitDone(t *testing.T, s *Session) {
	t.Helper()

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("session did not finish, state %s", s.State())
	}
}
