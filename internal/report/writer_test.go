package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/boletoscan/internal/model"
)

// createSavedRecord creates a record for a session whose payload was saved.
func createSavedRecord() *model.SessionRecord {
	numero := int64(123456)
	started := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return &model.SessionRecord{
		ID:             "0b9f6a2e-7f6e-4c3a-9d59-6a1c2b3d4e5f",
		StartedAt:      started,
		ClosedAt:       started.Add(1500 * time.Millisecond),
		State:          "closed",
		CloseReason:    model.CloseReasonSubmitted,
		Payload:        "123456",
		Numero:         &numero,
		Scanned:        true,
		Submitted:      true,
		OK:             true,
		WarmupMillis:   1000,
		DeadlineMillis: 1000,
	}
}

// createTimedOutRecord creates a record for a session that saw no QR code.
func createTimedOutRecord() *model.SessionRecord {
	started := time.Date(2026, 3, 14, 9, 31, 0, 0, time.UTC)
	return &model.SessionRecord{
		ID:             "5d1c1f7a-3c2b-4e0d-8f11-2a9b8c7d6e5f",
		StartedAt:      started,
		ClosedAt:       started.Add(2 * time.Second),
		State:          "closed",
		CloseReason:    model.CloseReasonTimedOut,
		ErrorMessage:   "scan timed out",
		WarmupMillis:   1000,
		DeadlineMillis: 1000,
	}
}

// createFailedRecord creates a record for a session whose submission failed.
func createFailedRecord() *model.SessionRecord {
	rec := createSavedRecord()
	rec.ID = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"
	rec.OK = false
	rec.ErrorMessage = "backend returned 503"
	return rec
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		rec      *model.SessionRecord
		want     []string
		dontWant []string
	}{
		{
			name: "saved session",
			rec:  createSavedRecord(),
			want: []string{"Saved\n", "Payload:  123456", "Numero:   123456"},
		},
		{
			name:     "timed out session",
			rec:      createTimedOutRecord(),
			want:     []string{"Timed out: no QR code detected. Please try again."},
			dontWant: []string{"Payload:", "Error:"},
		},
		{
			name: "failed session",
			rec:  createFailedRecord(),
			want: []string{"Connection error: could not reach the server", "Error:    backend returned 503"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			w := NewSimpleWriter(&buf)

			if _, err := w.Write(tt.rec); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			output := buf.String()
			for _, s := range tt.want {
				if !strings.Contains(output, s) {
					t.Errorf("expected output to contain %q, got:\n%s", s, output)
				}
			}
			for _, s := range tt.dontWant {
				if strings.Contains(output, s) {
					t.Errorf("expected output not to contain %q, got:\n%s", s, output)
				}
			}
		})
	}

	t.Run("verbose mode includes session details", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true))

		if _, err := w.Write(createSavedRecord()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "0b9f6a2e-7f6e-4c3a-9d59-6a1c2b3d4e5f") {
			t.Error("expected output to contain session ID")
		}
		if !strings.Contains(output, "Duration: 1.5s") {
			t.Errorf("expected output to contain duration, got:\n%s", output)
		}
	})
}

// TestSimpleWriterHistory tests the text history listing.
func TestSimpleWriterHistory(t *testing.T) {
	t.Parallel()

	t.Run("lists sessions with summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		recs := []*model.SessionRecord{createTimedOutRecord(), createSavedRecord(), createFailedRecord()}
		if _, err := w.WriteHistory(recs); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, s := range []string{"BOLETOSCAN HISTORY", "SAVED:", "FAILED:", "TIMED_OUT:", "TOTAL:               3 sessions"} {
			if !strings.Contains(output, s) {
				t.Errorf("expected output to contain %q, got:\n%s", s, output)
			}
		}
	})

	t.Run("empty history", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.WriteHistory(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No sessions recorded") {
			t.Errorf("expected empty history message, got:\n%s", buf.String())
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("outputs valid JSON with outcome", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		if _, err := w.Write(createSavedRecord()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var result map[string]any
		if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
			t.Fatalf("invalid JSON output: %v", err)
		}
		if result["outcome"] != "saved" {
			t.Errorf("expected outcome saved, got %v", result["outcome"])
		}
		if result["message"] != "Saved" {
			t.Errorf("expected message Saved, got %v", result["message"])
		}
		if result["numero"] != float64(123456) {
			t.Errorf("expected numero 123456, got %v", result["numero"])
		}
	})

	t.Run("compact output by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		if _, err := w.Write(createTimedOutRecord()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := strings.TrimSuffix(buf.String(), "\n")
		if strings.Contains(output, "\n") {
			t.Error("expected compact single-line output")
		}
		if strings.Contains(output, `"numero"`) {
			t.Error("expected numero to be omitted when no request was sent")
		}
	})

	t.Run("pretty print with indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint())

		if _, err := w.Write(createSavedRecord()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "\n  \"id\"") {
			t.Errorf("expected indented output, got:\n%s", buf.String())
		}
	})

	t.Run("history counts outcomes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		recs := []*model.SessionRecord{createSavedRecord(), createSavedRecord(), createTimedOutRecord()}
		if _, err := w.WriteHistory(recs); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var result HistoryReport
		if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
			t.Fatalf("invalid JSON output: %v", err)
		}
		if result.Total != 3 {
			t.Errorf("expected total 3, got %d", result.Total)
		}
		if result.Outcomes["saved"] != 2 || result.Outcomes["timed_out"] != 1 {
			t.Errorf("unexpected outcome counts: %v", result.Outcomes)
		}
		if len(result.Sessions) != 3 {
			t.Errorf("expected 3 sessions, got %d", len(result.Sessions))
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes session table and alert", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createFailedRecord()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, s := range []string{"# Scan Session", "Numero", "[!CAUTION]", "backend returned 503"} {
			if !strings.Contains(output, s) {
				t.Errorf("expected output to contain %q, got:\n%s", s, output)
			}
		}
	})

	t.Run("writes history with pie chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		recs := []*model.SessionRecord{createSavedRecord(), createTimedOutRecord()}
		if _, err := w.WriteHistory(recs); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, s := range []string{"# Scan History", "## Summary", "```mermaid", "pie", "**Total**"} {
			if !strings.Contains(output, s) {
				t.Errorf("expected output to contain %q, got:\n%s", s, output)
			}
		}
	})

	t.Run("empty history", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.WriteHistory(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No sessions recorded.") {
			t.Errorf("expected empty history message, got:\n%s", buf.String())
		}
	})
}

// TestMultiWriter tests writing to multiple writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var textBuf, jsonBuf bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&textBuf), NewJSONWriter(&jsonBuf))

		n, err := mw.Write(createSavedRecord())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != textBuf.Len()+jsonBuf.Len() {
			t.Errorf("expected %d bytes, got %d", textBuf.Len()+jsonBuf.Len(), n)
		}
		if textBuf.Len() == 0 || jsonBuf.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
	})
}
