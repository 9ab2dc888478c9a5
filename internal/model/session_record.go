package model

import "time"

// Close reasons as recorded in SessionRecord.CloseReason. They mirror the
// String values of the scan package's CloseReason.
const (
	CloseReasonManual            = "manual"
	CloseReasonTimedOut          = "timed_out"
	CloseReasonSubmitted         = "submitted"
	CloseReasonCancelled         = "cancelled"
	CloseReasonCameraUnavailable = "camera_unavailable"
)

// SessionRecord is the outcome of one scan session.
// It is produced by the scan session, enriched by the host and then
// written to reports and the history database.
type SessionRecord struct {
	// ID is the session's UUID.
	ID string `json:"id"`

	// StartedAt is when the camera was opened.
	StartedAt time.Time `json:"started_at"`

	// ClosedAt is when the session reached its terminal state.
	// Zero while the session is open.
	ClosedAt time.Time `json:"closed_at,omitzero"`

	// State is the lifecycle state at the time the record was taken.
	State string `json:"state"`

	// CloseReason tells why the session closed. Empty while open.
	CloseReason string `json:"close_reason,omitempty"`

	// Payload is the accepted QR content, if any.
	Payload string `json:"payload,omitempty"`

	// Numero is the integer that was sent to the backend.
	// Nil when no request was made.
	Numero *int64 `json:"numero,omitempty"`

	// Scanned reports whether a payload was accepted.
	Scanned bool `json:"scanned"`

	// Submitted reports whether the submission finished, successfully or not.
	Submitted bool `json:"submitted"`

	// OK reports whether the backend acknowledged the payload.
	OK bool `json:"ok"`

	// ErrorMessage describes why the session failed, if it did.
	ErrorMessage string `json:"error_message,omitempty"`

	// Rejected reports that the payload was refused locally as malformed.
	Rejected bool `json:"rejected,omitempty"`

	// Duplicate reports that the same number had already been saved
	// shortly before this session.
	Duplicate bool `json:"duplicate,omitempty"`

	// WarmupMillis is the warm-up delay used by the session.
	WarmupMillis int64 `json:"warmup_ms"`

	// DeadlineMillis is the scan deadline used by the session.
	// Zero means the deadline was disabled.
	DeadlineMillis int64 `json:"deadline_ms"`
}

// Closed reports whether the session reached its terminal state.
func (r *SessionRecord) Closed() bool {
	return r.CloseReason != ""
}

// Duration returns how long the session was open.
// It returns zero for a session that has not closed.
func (r *SessionRecord) Duration() time.Duration {
	if r.ClosedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.ClosedAt.Sub(r.StartedAt)
}

// Outcome classifies the record.
func (r *SessionRecord) Outcome() Outcome {
	switch {
	case r.Submitted && r.OK:
		return OutcomeSaved
	case r.Rejected:
		return OutcomeRejected
	case r.Submitted:
		return OutcomeFailed
	case r.Scanned:
		// Accepted but the result has not arrived yet.
		return OutcomeOpen
	}

	switch r.CloseReason {
	case "":
		return OutcomeOpen
	case CloseReasonTimedOut:
		return OutcomeTimedOut
	case CloseReasonCameraUnavailable:
		return OutcomeCameraUnavailable
	default:
		return OutcomeAbandoned
	}
}
