package scan

import (
	"context"
	"sync"
)

// Scanner owns a camera capability and hands it to one session at a time.
type Scanner struct {
	camera    Camera
	submitter Submitter
	opts      []Option

	mu     sync.Mutex
	active *Session
}

// NewScanner creates a Scanner. opts are applied to every session it opens.
func NewScanner(camera Camera, submitter Submitter, opts ...Option) *Scanner {
	return &Scanner{
		camera:    camera,
		submitter: submitter,
		opts:      opts,
	}
}

// Open starts a fresh session. It returns ErrSessionActive while the
// previous session has not reached StateClosed or has not yet released the
// camera. A session that is Scanned with its submission in flight counts as
// active; one closed by the host during its submission does not.
func (sc *Scanner) Open(ctx context.Context, hooks Hooks) (*Session, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.active != nil && (sc.active.State() != StateClosed || sc.active.holdsCamera()) {
		return nil, ErrSessionActive
	}

	s := NewSession(sc.camera, sc.submitter, hooks, sc.opts...)
	sc.active = s
	if err := s.Start(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Active returns the most recently opened session, or nil.
func (sc *Scanner) Active() *Session {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.active
}
