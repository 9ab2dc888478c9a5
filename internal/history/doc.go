// Package history provides SQLite-based storage of finished scan sessions.
//
// Each closed session is stored as a row holding the JSON-encoded
// model.SessionRecord plus a few indexed columns (start time, numero,
// outcome) used for listing, duplicate detection and summaries.
//
// We use SQLite through modernc.org/sqlite: the database is a single file
// in the XDG data directory and the driver is CGO-free, so the binary
// cross-compiles for the small machines a scanner station runs on.
package history
