package scan

import "sync/atomic"

// gate holds the session state and decides whether a scan event may be
// accepted. Every transition is a compare-and-swap against the expected
// prior state, so a stale timer or a late camera callback cannot move the
// machine once another transition has won.
type gate struct {
	state atomic.Int32
}

// load returns the current state.
func (g *gate) load() State {
	return State(g.state.Load())
}

// advance moves the gate from one state to another. It returns false and
// leaves the state untouched when the current state is not from or when
// the transition is not allowed.
func (g *gate) advance(from, to State) bool {
	if !isAllowedTransition(from, to) {
		return false
	}
	return g.state.CompareAndSwap(int32(from), int32(to))
}

// shouldAccept reports whether a scan event arriving now would be admitted:
// armed, not yet scanned and not closed.
func (g *gate) shouldAccept() bool {
	return g.load() == StateArmed
}

// admit evaluates shouldAccept and flips Armed to Scanned in one atomic
// step. At most one caller per session ever gets true.
func (g *gate) admit() bool {
	return g.advance(StateArmed, StateScanned)
}

// isAllowedTransition lists the edges of the lifecycle graph.
func isAllowedTransition(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StateWarmup || to == StateClosed
	case StateWarmup:
		return to == StateArmed || to == StateClosed
	case StateArmed:
		return to == StateScanned || to == StateTimedOut || to == StateClosed
	case StateScanned, StateTimedOut:
		return to == StateClosed
	default:
		return false
	}
}
