// Package pipeline runs post-session steps over a finished scan session.
//
// When a scan session closes, its SessionRecord is passed through a short
// sequence of steps: resolving the submitted number, flagging repeated
// numbers, writing the report and saving the record to the history
// database. Each stage is a Step that receives the record and may enrich it.
//
// A Processor drains a channel of records so that sessions opened in a
// loop are processed in order while the next session is already scanning.
package pipeline
