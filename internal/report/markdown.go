package report

import (
	"io"
	"strconv"

	"github.com/nao1215/boletoscan/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in Markdown format using nao1215/markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs a single session in Markdown format.
func (w *MarkdownWriter) Write(rec *model.SessionRecord) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Scan Session")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Session", "`" + rec.ID + "`"},
			{"Started", timeText(rec.StartedAt)},
			{"Closed", timeText(rec.ClosedAt)},
			{"Duration", rec.Duration().String()},
			{"Close Reason", rec.CloseReason},
			{"Payload", payloadText(rec)},
			{"Numero", numeroText(rec)},
			{"Outcome", statusText(rec.Outcome())},
		},
	})
	md.PlainText("")

	w.writeAlert(md, rec)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteHistory outputs stored sessions in Markdown format.
func (w *MarkdownWriter) WriteHistory(recs []*model.SessionRecord) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Scan History")
	md.PlainText("")

	if len(recs) == 0 {
		md.PlainText("No sessions recorded.")
		md.PlainText("")
		w.writeFooter(md)
		return len(md.String()), md.Build()
	}

	w.writeSummary(md, recs)

	md.H2("Sessions")
	md.PlainText("")

	rows := make([][]string, len(recs))
	for i, rec := range recs {
		rows[i] = []string{
			timeText(rec.StartedAt),
			statusText(rec.Outcome()),
			numeroText(rec),
			"`" + rec.ID + "`",
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Started", "Outcome", "Numero", "Session"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeSummary writes the outcome summary table and chart.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, recs []*model.SessionRecord) {
	md.H2("Summary")
	md.PlainText("")

	counts := countOutcomes(recs)
	rows := make([][]string, 0, len(outcomeOrder)+1)
	for _, o := range outcomeOrder {
		if counts[o] == 0 {
			continue
		}
		rows = append(rows, []string{statusText(o), strconv.Itoa(counts[o])})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(len(recs)) + "**"})

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writePieChart(md, counts)
}

// writePieChart writes a mermaid pie chart for the outcome distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, counts map[model.Outcome]int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Session Outcomes"),
		piechart.WithShowData(true),
	)

	for _, o := range outcomeOrder {
		if counts[o] > 0 {
			chart.LabelAndIntValue(o.String(), uint64(counts[o]))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes the user-facing message as a GitHub alert.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, rec *model.SessionRecord) {
	outcome := rec.Outcome()
	switch outcome {
	case model.OutcomeSaved:
		md.Tip(outcome.Message())
	case model.OutcomeFailed:
		if rec.ErrorMessage != "" {
			md.Cautionf("%s (%s)", outcome.Message(), rec.ErrorMessage)
		} else {
			md.Cautionf("%s", outcome.Message())
		}
	case model.OutcomeRejected, model.OutcomeCameraUnavailable:
		md.Warningf("%s", outcome.Message())
	case model.OutcomeTimedOut:
		md.Importantf("%s", outcome.Message())
	default:
		md.Note(outcome.Message())
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by boletoscan*")
}

// statusText returns the outcome label with an indicator.
func statusText(o model.Outcome) string {
	switch o {
	case model.OutcomeSaved:
		return "✅ saved"
	case model.OutcomeFailed:
		return "❌ failed"
	case model.OutcomeRejected:
		return "🚫 rejected"
	case model.OutcomeTimedOut:
		return "⏱️ timed_out"
	case model.OutcomeCameraUnavailable:
		return "📷 camera_unavailable"
	default:
		return o.String()
	}
}
