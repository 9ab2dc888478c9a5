package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/boletoscan/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose adds timings and the session ID to the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs a single session result.
// The first line is always the outcome message shown to the user.
func (w *SimpleWriter) Write(rec *model.SessionRecord) (int, error) {
	var sb strings.Builder

	outcome := rec.Outcome()
	sb.WriteString(outcome.Message())
	sb.WriteString("\n")

	if rec.Scanned {
		sb.WriteString(fmt.Sprintf("  Payload:  %s\n", rec.Payload))
		sb.WriteString(fmt.Sprintf("  Numero:   %s\n", numeroText(rec)))
	}
	if rec.Duplicate {
		sb.WriteString("  Note:     this number was already saved recently\n")
	}
	if rec.ErrorMessage != "" && outcome != model.OutcomeTimedOut {
		sb.WriteString(fmt.Sprintf("  Error:    %s\n", rec.ErrorMessage))
	}

	if w.verbose {
		sb.WriteString(fmt.Sprintf("  Session:  %s\n", rec.ID))
		sb.WriteString(fmt.Sprintf("  Started:  %s\n", timeText(rec.StartedAt)))
		sb.WriteString(fmt.Sprintf("  Duration: %s\n", rec.Duration()))
		sb.WriteString(fmt.Sprintf("  Reason:   %s\n", rec.CloseReason))
	}

	return w.output.Write([]byte(sb.String()))
}

// WriteHistory outputs stored sessions as an aligned list with a summary.
func (w *SimpleWriter) WriteHistory(recs []*model.SessionRecord) (int, error) {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                       BOLETOSCAN HISTORY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	if len(recs) == 0 {
		sb.WriteString("  No sessions recorded\n\n")
		return w.output.Write([]byte(sb.String()))
	}

	for _, rec := range recs {
		sb.WriteString(fmt.Sprintf("  %s  %-18s  %-20s  %s\n",
			timeText(rec.StartedAt),
			rec.Outcome().String(),
			numeroText(rec),
			rec.ID,
		))
		if w.verbose && rec.ErrorMessage != "" {
			sb.WriteString(fmt.Sprintf("      %s\n", rec.ErrorMessage))
		}
	}
	sb.WriteString("\n")

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	counts := countOutcomes(recs)
	for _, o := range outcomeOrder {
		if counts[o] == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("  %-20s %d\n", strings.ToUpper(o.String())+":", counts[o]))
	}
	sb.WriteString(fmt.Sprintf("\n  TOTAL:               %d sessions\n\n", len(recs)))

	return w.output.Write([]byte(sb.String()))
}
