package scan

import "errors"

// Scan lifecycle errors.
// Every error path of a session ends in StateClosed; none of these errors
// is fatal to the process, and a fresh session can always be opened after
// the previous one closed.
var (
	// ErrPermissionDenied is returned when the camera capability refuses
	// access. The host is expected to surface it to the user; the session
	// never retries on its own.
	ErrPermissionDenied = errors.New("camera permission denied")

	// ErrTimeout is recorded on sessions that closed because no scan
	// arrived before the deadline.
	ErrTimeout = errors.New("no scan within deadline")

	// ErrSubmissionFailed is returned when the accepted payload could not
	// be delivered to the backend (transport error or non-2xx status).
	ErrSubmissionFailed = errors.New("submission failed")

	// ErrMalformedPayload is returned when a scanned payload cannot be
	// converted to the number the backend expects. No request is sent.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrSessionActive is returned by Scanner.Open while the previous
	// session still holds the camera.
	ErrSessionActive = errors.New("a scan session is already open")

	// ErrAlreadyStarted is returned when Start is called on a session that
	// has already left StateIdle.
	ErrAlreadyStarted = errors.New("scan session already started")

	// ErrTimerStarted is returned when Start is called twice on a Timer.
	ErrTimerStarted = errors.New("scan timer already started")
)
