// Package report renders scan session records.
//
// This package contains writers for different output formats:
//   - SimpleWriter: human-readable text for the terminal
//   - JSONWriter: structured JSON for scripts
//   - MarkdownWriter: Markdown for sharing session logs
//
// Record types live in the model package. Writers implement the Writer
// interface so they can be combined with MultiWriter.
package report
