package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/boletoscan/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs a single session record.
	// Returns the number of bytes written and any error encountered.
	Write(rec *model.SessionRecord) (int, error)

	// WriteHistory outputs a list of stored session records, newest first.
	WriteHistory(recs []*model.SessionRecord) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the record to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(rec *model.SessionRecord) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(rec)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteHistory outputs the records to all configured Writers.
func (m *MultiWriter) WriteHistory(recs []*model.SessionRecord) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteHistory(recs)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// outcomeOrder is the display order for outcome counts.
var outcomeOrder = []model.Outcome{
	model.OutcomeSaved,
	model.OutcomeFailed,
	model.OutcomeRejected,
	model.OutcomeTimedOut,
	model.OutcomeAbandoned,
	model.OutcomeCameraUnavailable,
	model.OutcomeOpen,
}

// countOutcomes tallies records by outcome.
func countOutcomes(recs []*model.SessionRecord) map[model.Outcome]int {
	counts := make(map[model.Outcome]int, len(outcomeOrder))
	for _, rec := range recs {
		counts[rec.Outcome()]++
	}
	return counts
}

// displayTimeFormat is used for timestamps in text and Markdown output.
const displayTimeFormat = "2006-01-02 15:04:05 MST"

// numeroText renders the submitted number, or "-" when none was sent.
func numeroText(rec *model.SessionRecord) string {
	if rec.Numero == nil {
		return "-"
	}
	return strconv.FormatInt(*rec.Numero, 10)
}

// timeText renders a timestamp for display, or "-" when unset.
func timeText(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(displayTimeFormat)
}

// payloadText renders the accepted payload, or "-" when nothing was read.
func payloadText(rec *model.SessionRecord) string {
	if rec.Payload == "" {
		return "-"
	}
	return rec.Payload
}
