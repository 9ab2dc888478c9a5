package scan

// State is the lifecycle state of a Session.
type State int32

const (
	// StateIdle is the state of a session that has not been started.
	StateIdle State = iota

	// StateWarmup means the camera is open but scan events are ignored
	// until the warm-up delay elapses.
	StateWarmup

	// StateArmed means the first admissible scan event will be accepted.
	StateArmed

	// StateScanned means a payload was accepted and its submission is in
	// flight. No further scan event can be accepted.
	StateScanned

	// StateTimedOut means the deadline elapsed without an accepted scan.
	// The session moves on to StateClosed immediately.
	StateTimedOut

	// StateClosed is terminal.
	StateClosed
)

// String returns the lower-case name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWarmup:
		return "warmup"
	case StateArmed:
		return "armed"
	case StateScanned:
		return "scanned"
	case StateTimedOut:
		return "timed_out"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transition can leave s.
func (s State) IsTerminal() bool {
	return s == StateClosed
}

// CloseReason tells the host why a session reached StateClosed.
type CloseReason int

const (
	// CloseManual means the host called Close.
	CloseManual CloseReason = iota

	// CloseTimedOut means the deadline elapsed with no accepted scan.
	CloseTimedOut

	// CloseSubmitted means the accepted payload's submission completed,
	// successfully or not.
	CloseSubmitted

	// CloseCancelled means the context passed to Start was cancelled.
	CloseCancelled

	// CloseCameraUnavailable means the camera capability could not be
	// subscribed to, typically because permission was denied.
	CloseCameraUnavailable
)

// String returns the lower-case name of the close reason.
func (r CloseReason) String() string {
	switch r {
	case CloseManual:
		return "manual"
	case CloseTimedOut:
		return "timed_out"
	case CloseSubmitted:
		return "submitted"
	case CloseCancelled:
		return "cancelled"
	case CloseCameraUnavailable:
		return "camera_unavailable"
	default:
		return "unknown"
	}
}

// Event is a raw scan event delivered by the camera capability.
type Event struct {
	// Payload is the decoded QR content.
	Payload string
}

// SubmissionResult is reported once per accepted scan.
type SubmissionResult struct {
	// OK is true when the backend acknowledged the payload with a 2xx status.
	OK bool

	// ErrorMessage is a user-facing description of the failure. Empty when OK.
	ErrorMessage string

	// Err is the underlying error, for errors.Is checks. Nil when OK.
	Err error
}

// newSubmissionResult converts a Submitter error into a SubmissionResult.
func newSubmissionResult(err error) SubmissionResult {
	if err == nil {
		return SubmissionResult{OK: true}
	}
	return SubmissionResult{
		OK:           false,
		ErrorMessage: err.Error(),
		Err:          err,
	}
}
