package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/boletoscan/internal/model"
)

// JSONWriter outputs reports in JSON format.
// Single sessions are written as one object per line so that
// `scan --loop --json` produces newline-delimited JSON.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter:   newBaseWriter(output),
		indent:       false,
		indentPrefix: "",
		indentString: "",
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// SessionReport wraps a record with its derived outcome.
type SessionReport struct {
	*model.SessionRecord

	// Outcome is the derived classification of the record.
	Outcome string `json:"outcome"`

	// Message is the text that was shown to the user.
	Message string `json:"message"`
}

// NewSessionReport creates a SessionReport for rec.
func NewSessionReport(rec *model.SessionRecord) *SessionReport {
	outcome := rec.Outcome()
	return &SessionReport{
		SessionRecord: rec,
		Outcome:       outcome.String(),
		Message:       outcome.Message(),
	}
}

// HistoryReport is the JSON shape of the history command.
type HistoryReport struct {
	// Total is the number of sessions in the list.
	Total int `json:"total"`

	// Outcomes counts sessions by outcome name.
	Outcomes map[string]int `json:"outcomes"`

	// Sessions lists the stored sessions, newest first.
	Sessions []*SessionReport `json:"sessions"`
}

// NewHistoryReport creates a HistoryReport for recs.
func NewHistoryReport(recs []*model.SessionRecord) *HistoryReport {
	counts := countOutcomes(recs)
	h := &HistoryReport{
		Total:    len(recs),
		Outcomes: make(map[string]int, len(counts)),
		Sessions: make([]*SessionReport, 0, len(recs)),
	}
	for o, n := range counts {
		h.Outcomes[o.String()] = n
	}
	for _, rec := range recs {
		h.Sessions = append(h.Sessions, NewSessionReport(rec))
	}
	return h
}

// Write outputs a single session in JSON format.
func (w *JSONWriter) Write(rec *model.SessionRecord) (int, error) {
	return w.writeJSON(NewSessionReport(rec))
}

// WriteHistory outputs stored sessions in JSON format.
func (w *JSONWriter) WriteHistory(recs []*model.SessionRecord) (int, error) {
	return w.writeJSON(NewHistoryReport(recs))
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
