package model

// Outcome classifies how a scan session ended.
// It is derived from a SessionRecord and never stored on its own.
type Outcome int

const (
	// OutcomeOpen means the session has not closed yet.
	OutcomeOpen Outcome = iota

	// OutcomeSaved means the payload was accepted by the backend.
	OutcomeSaved

	// OutcomeFailed means the payload could not be delivered, either
	// because the backend was unreachable or because it answered with a
	// non-2xx status.
	OutcomeFailed

	// OutcomeRejected means the payload was not a number and no request
	// was sent.
	OutcomeRejected

	// OutcomeTimedOut means no QR code was read before the deadline.
	OutcomeTimedOut

	// OutcomeAbandoned means the session was closed or cancelled before
	// any QR code was read.
	OutcomeAbandoned

	// OutcomeCameraUnavailable means the camera could not be opened.
	OutcomeCameraUnavailable
)

// String returns a lower-case identifier for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeOpen:
		return "open"
	case OutcomeSaved:
		return "saved"
	case OutcomeFailed:
		return "failed"
	case OutcomeRejected:
		return "rejected"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeAbandoned:
		return "abandoned"
	case OutcomeCameraUnavailable:
		return "camera_unavailable"
	default:
		return "unknown"
	}
}

// Message returns the user-facing text for the outcome.
func (o Outcome) Message() string {
	if msg, ok := outcomeMessages[o]; ok {
		return msg
	}
	return "Unknown result"
}

// outcomeMessages maps outcomes to the text shown to the person holding the
// camera.
var outcomeMessages = map[Outcome]string{
	OutcomeOpen:              "Scan in progress",
	OutcomeSaved:             "Saved",
	OutcomeFailed:            "Connection error: could not reach the server",
	OutcomeRejected:          "Invalid QR code: expected a number",
	OutcomeTimedOut:          "Timed out: no QR code detected. Please try again.",
	OutcomeAbandoned:         "Scan cancelled",
	OutcomeCameraUnavailable: "Camera unavailable: permission denied or device missing",
}
