// Package scan implements the lifecycle of a single QR scan attempt.
//
// A Session moves through a small finite-state machine:
//
//	Idle -> Warmup -> Armed -> {Scanned | TimedOut} -> Closed
//
// The camera is armed only after a warm-up delay so that garbage reads taken
// while the lens is still focusing are ignored. Once armed, the first scan
// event that passes the gate is accepted, every pending timer is cancelled
// and the payload is handed to a Submitter exactly once. If nothing is
// scanned before the deadline the session times out and closes itself.
//
// The package is split into three cooperating pieces:
//   - Timer owns the warm-up and deadline triggers and their cancellation
//   - gate holds the session state and admits at most one scan event
//   - Session composes both, talks to the camera capability and notifies
//     the host through Hooks
//
// Scanner sits on top and hands the camera to one open Session at a time.
//
// # Hooks
//
// Hooks are invoked on a per-session serial dispatcher in the same order as
// the transitions that produced them. A hook may call back into the
// session (for example Close from OnScanned).
//
// # Usage
//
//	scanner := scan.NewScanner(cam, client,
//	    scan.WithWarmup(time.Second),
//	    scan.WithDeadline(time.Second),
//	)
//	session, err := scanner.Open(ctx, scan.Hooks{
//	    OnScanned: func(payload string) { fmt.Println("scanned", payload) },
//	})
//	if err != nil {
//	    return err
//	}
//	<-session.Done()
package scan
