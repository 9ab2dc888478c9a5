// Package submit delivers accepted QR payloads to the boleto backend.
//
// Client implements scan.Submitter. Each accepted payload is converted to
// an integer according to a Policy and sent as
//
//	POST {baseURL}/user/boleto
//	Content-Type: application/json
//
//	{"numero": 12345}
//
// A 2xx response is success. Any other status is reported as a
// *StatusError, and transport failures are wrapped with
// scan.ErrSubmissionFailed. A payload that does not contain a number is
// rejected with scan.ErrMalformedPayload before any request is made.
//
// The client never retries. Closing a scan session does not cancel a
// request that is already in flight; only the client timeout bounds it.
package submit
