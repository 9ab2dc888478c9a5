// Package stubserver is a local stand-in for the boleto backend.
//
// It accepts POST /user/boleto with a {"numero": <integer>} body, answers
// with a receipt and remembers what it received. It can be told to answer
// every submission with a fixed status to exercise the failure paths of
// the scan command.
package stubserver
