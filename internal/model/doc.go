// Package model defines the data structures shared by the scan, report,
// history and pipeline packages.
//
// This package contains the following main types:
//   - SessionRecord: the serializable outcome of one scan session
//   - Outcome: a coarse classification of a SessionRecord for display
//
// The models are kept in their own package so that the scan core, the
// report writers and the history store can share them without import
// cycles. They serialize to JSON for report output and database storage.
package model
