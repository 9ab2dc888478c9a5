package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/boletoscan/internal/model"
)

// Default lifecycle timings.
const (
	// DefaultWarmup is the delay between opening the camera and accepting
	// scan events, long enough for the lens to settle.
	DefaultWarmup = 1 * time.Second

	// DefaultDeadline is how long an armed session waits for a scan before
	// it cancels itself.
	DefaultDeadline = 1 * time.Second
)

// Camera is the scanning capability. Subscribe registers onEvent for raw
// scan events and returns a function that stops delivery. Implementations
// must not call onEvent from inside Subscribe.
type Camera interface {
	Subscribe(onEvent func(Event)) (unsubscribe func(), err error)
}

// Submitter delivers an accepted payload to the backend.
// It is called at most once per session, on its own goroutine, and is not
// cancelled when the session closes.
type Submitter interface {
	Submit(ctx context.Context, payload string) error
}

// SubmitterFunc adapts a function to the Submitter interface.
type SubmitterFunc func(ctx context.Context, payload string) error

// Submit implements Submitter.
func (f SubmitterFunc) Submit(ctx context.Context, payload string) error {
	return f(ctx, payload)
}

// Hooks are the callbacks a host receives from a Session.
// Nil hooks are skipped.
type Hooks struct {
	// OnArmed fires once when the warm-up elapsed and scans are accepted.
	OnArmed func()

	// OnScanned fires once with the accepted payload, before submission.
	OnScanned func(payload string)

	// OnTimedOut fires when the deadline elapsed with no accepted scan.
	OnTimedOut func()

	// OnClosed fires exactly once when the session reaches StateClosed.
	OnClosed func(reason CloseReason)

	// OnSubmissionResult fires once per accepted scan, even when the
	// session was closed while the submission was in flight.
	OnSubmissionResult func(result SubmissionResult)
}

// settings holds the tunables shared by Scanner and Session.
type settings struct {
	warmup   time.Duration
	deadline time.Duration
	sched    Scheduler
	logger   *slog.Logger
}

// Option configures a Session or a Scanner.
type Option func(*settings)

// WithWarmup sets the warm-up delay. Negative values are treated as zero.
func WithWarmup(d time.Duration) Option {
	return func(s *settings) {
		s.warmup = max(d, 0)
	}
}

// WithDeadline sets how long an armed session waits for a scan.
// Zero or a negative value disables the deadline.
func WithDeadline(d time.Duration) Option {
	return func(s *settings) {
		s.deadline = max(d, 0)
	}
}

// WithScheduler sets the Scheduler used by the session's Timer.
func WithScheduler(sched Scheduler) Option {
	return func(s *settings) {
		s.sched = sched
	}
}

// WithLogger sets a custom logger. If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// newSettings applies opts over the defaults.
func newSettings(opts ...Option) settings {
	s := settings{
		warmup:   DefaultWarmup,
		deadline: DefaultDeadline,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.sched == nil {
		s.sched = SystemScheduler()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Session is one scan attempt, from Start to StateClosed.
// All methods are safe for concurrent use.
type Session struct {
	id        string
	camera    Camera
	submitter Submitter
	hooks     Hooks
	settings  settings
	logger    *slog.Logger

	gate   gate
	timer  *Timer
	events dispatcher
	done   chan struct{}

	// mu pairs every transition with the enqueueing of its hooks so that
	// hooks are dispatched in transition order.
	mu          sync.Mutex
	unsubscribe func()
	stopCtx     func() bool
	submitCtx   context.Context
	inflight    bool
	cameraHeld  bool
	finished    bool
	scanned     bool
	payload     string
	reason      CloseReason
	cameraErr   error
	result      *SubmissionResult
	startedAt   time.Time
	closedAt    time.Time
}

// NewSession creates an idle session. submitter must not be nil.
func NewSession(camera Camera, submitter Submitter, hooks Hooks, opts ...Option) *Session {
	st := newSettings(opts...)
	id := uuid.NewString()

	return &Session{
		id:        id,
		camera:    camera,
		submitter: submitter,
		hooks:     hooks,
		settings:  st,
		logger:    st.logger.With("session", id),
		timer:     NewTimer(st.sched),
		done:      make(chan struct{}),
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.gate.load()
}

// Accepting reports whether a scan event delivered now would be accepted.
// Hosts that can switch their camera callback on and off use it as the
// delivery predicate.
func (s *Session) Accepting() bool {
	return s.gate.shouldAccept()
}

// Done is closed once the session is closed, the camera is released, no
// submission is in flight and every hook has returned.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Start opens the camera and schedules the warm-up and deadline triggers.
// If ctx is cancelled before the session closes, the session closes with
// CloseCancelled. The in-flight submission, if any, is not cancelled.
//
// If the camera cannot be subscribed to, the session closes with
// CloseCameraUnavailable and the camera error is returned wrapped.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if !s.gate.advance(StateIdle, StateWarmup) {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.startedAt = time.Now()
	s.submitCtx = context.WithoutCancel(ctx)
	s.cameraHeld = true
	s.logger.Debug("scan session started",
		"warmup", s.settings.warmup,
		"deadline", s.settings.deadline,
	)
	s.mu.Unlock()

	unsubscribe, err := s.camera.Subscribe(s.HandleScan)
	if err != nil {
		s.mu.Lock()
		s.cameraErr = err
		s.cameraHeld = false
		s.mu.Unlock()
		s.closeWith(CloseCameraUnavailable)
		return fmt.Errorf("subscribe to camera: %w", err)
	}

	s.mu.Lock()
	if s.gate.load() == StateClosed {
		// Closed while subscribing.
		s.mu.Unlock()
		unsubscribe()
		s.releaseCamera()
		return nil
	}
	s.unsubscribe = unsubscribe
	s.mu.Unlock()

	if err := s.timer.Start(s.settings.warmup, s.settings.deadline, s.arm, s.expire); err != nil {
		s.closeWith(CloseManual)
		return err
	}

	stop := context.AfterFunc(ctx, func() {
		s.closeWith(CloseCancelled)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		stop()
		return nil
	}
	s.stopCtx = stop

	return nil
}

// HandleScan delivers a raw scan event. Only the first event that arrives
// while the session is armed is accepted; every other event is dropped.
func (s *Session) HandleScan(ev Event) {
	s.mu.Lock()
	if !s.gate.admit() {
		state := s.gate.load()
		s.mu.Unlock()
		s.logger.Debug("scan event ignored", "state", state)
		return
	}

	s.timer.CancelAll()
	s.scanned = true
	s.payload = ev.Payload
	s.inflight = true
	unsubscribe := s.takeUnsubscribeLocked()
	ctx := s.submitCtx
	s.logger.Info("scan accepted", "payload", ev.Payload)
	s.notify(func() {
		if s.hooks.OnScanned != nil {
			s.hooks.OnScanned(ev.Payload)
		}
	})
	s.mu.Unlock()

	unsubscribe()
	go s.submit(ctx, ev.Payload)
}

// Close closes the session. It is idempotent. Closing after a scan was
// accepted does not cancel the submission; its result is still reported
// through OnSubmissionResult.
func (s *Session) Close() {
	s.closeWith(CloseManual)
}

// Record returns a snapshot of the session suitable for reporting and
// persistence.
func (s *Session) Record() *model.SessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &model.SessionRecord{
		ID:             s.id,
		StartedAt:      s.startedAt,
		ClosedAt:       s.closedAt,
		State:          s.gate.load().String(),
		Payload:        s.payload,
		Scanned:        s.scanned,
		WarmupMillis:   s.settings.warmup.Milliseconds(),
		DeadlineMillis: s.settings.deadline.Milliseconds(),
	}
	if s.gate.load() == StateClosed {
		rec.CloseReason = s.reason.String()
	}
	if s.result != nil {
		rec.Submitted = true
		rec.OK = s.result.OK
		rec.Rejected = errors.Is(s.result.Err, ErrMalformedPayload)
	}
	if err := s.errLocked(); err != nil {
		rec.ErrorMessage = err.Error()
	}

	return rec
}

// Err returns the error that ended the session, or nil if it ended
// normally (manual close, successful submission) or is still open.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errLocked()
}

func (s *Session) errLocked() error {
	switch {
	case s.result != nil:
		return s.result.Err
	case s.cameraErr != nil:
		return s.cameraErr
	case s.gate.load() == StateClosed && s.reason == CloseTimedOut:
		return ErrTimeout
	default:
		return nil
	}
}

// arm is the Timer's warm-up callback.
func (s *Session) arm() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.gate.advance(StateWarmup, StateArmed) {
		return
	}
	s.logger.Debug("scan session armed")
	s.notify(func() {
		if s.hooks.OnArmed != nil {
			s.hooks.OnArmed()
		}
	})
}

// expire is the Timer's deadline callback.
func (s *Session) expire() {
	s.mu.Lock()
	if !s.gate.advance(StateArmed, StateTimedOut) {
		s.mu.Unlock()
		return
	}

	s.timer.CancelAll()
	unsubscribe := s.takeUnsubscribeLocked()
	s.logger.Info("scan session timed out")
	s.notify(func() {
		if s.hooks.OnTimedOut != nil {
			s.hooks.OnTimedOut()
		}
	})
	s.gate.advance(StateTimedOut, StateClosed)
	s.closedLocked(CloseTimedOut)
	s.mu.Unlock()

	unsubscribe()
}

// submit runs the Submitter and feeds its outcome back into the session.
func (s *Session) submit(ctx context.Context, payload string) {
	err := s.submitter.Submit(ctx, payload)
	s.complete(err)
}

// complete records the submission outcome.
func (s *Session) complete(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := newSubmissionResult(err)
	s.inflight = false
	s.result = &result

	if result.OK {
		s.logger.Info("submission succeeded")
	} else {
		s.logger.Warn("submission failed", "error", err)
	}
	s.notify(func() {
		if s.hooks.OnSubmissionResult != nil {
			s.hooks.OnSubmissionResult(result)
		}
	})

	if s.gate.advance(StateScanned, StateClosed) {
		s.closedLocked(CloseSubmitted)
		return
	}
	s.finishLocked()
}

// closeWith moves any non-terminal state to StateClosed.
func (s *Session) closeWith(reason CloseReason) {
	s.mu.Lock()
	state := s.gate.load()
	if state.IsTerminal() || !s.gate.advance(state, StateClosed) {
		s.mu.Unlock()
		return
	}

	s.timer.CancelAll()
	unsubscribe := s.takeUnsubscribeLocked()
	s.closedLocked(reason)
	s.mu.Unlock()

	unsubscribe()
}

// closedLocked records the close and notifies the host. The gate must
// already be in StateClosed.
func (s *Session) closedLocked(reason CloseReason) {
	s.reason = reason
	s.closedAt = time.Now()
	s.logger.Debug("scan session closed", "reason", reason)
	s.notify(func() {
		if s.hooks.OnClosed != nil {
			s.hooks.OnClosed(reason)
		}
	})
	s.finishLocked()
}

// holdsCamera reports whether the camera subscription may still be live.
func (s *Session) holdsCamera() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cameraHeld
}

// releaseCamera records that the camera subscription is gone.
func (s *Session) releaseCamera() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cameraHeld = false
	s.finishLocked()
}

// finishLocked releases the session once nothing is left to report.
func (s *Session) finishLocked() {
	if s.finished || s.inflight || s.cameraHeld || s.gate.load() != StateClosed {
		return
	}
	s.finished = true
	if s.stopCtx != nil {
		s.stopCtx()
		s.stopCtx = nil
	}
	s.notify(func() {
		close(s.done)
	})
}

// takeUnsubscribeLocked detaches the camera subscription. The returned
// function is never nil and must be called without holding s.mu; the
// session cannot finish before it returns.
func (s *Session) takeUnsubscribeLocked() func() {
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	if unsubscribe == nil {
		return func() {}
	}
	return func() {
		unsubscribe()
		s.releaseCamera()
	}
}

// notify queues fn on the session's dispatcher.
func (s *Session) notify(fn func()) {
	s.events.post(fn)
}
