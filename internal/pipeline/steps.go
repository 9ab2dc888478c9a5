package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/boletoscan/internal/model"
	"github.com/nao1215/boletoscan/internal/report"
)

// DefaultDuplicateWindow is how far back DuplicateCheckStep looks for an
// earlier successful submission of the same number.
const DefaultDuplicateWindow = 24 * time.Hour

// NumeroFunc converts an accepted payload to the number sent to the backend.
type NumeroFunc func(payload string) (int64, error)

// NumeroStep records the number derived from the accepted payload.
// Payloads that were rejected as malformed are left without a number.
type NumeroStep struct {
	numero NumeroFunc
}

// NewNumeroStep creates a NumeroStep using fn to parse payloads.
func NewNumeroStep(fn NumeroFunc) *NumeroStep {
	return &NumeroStep{numero: fn}
}

// Name returns the step name.
func (s *NumeroStep) Name() string {
	return "numero"
}

// Do sets rec.Numero when a payload was accepted and sent.
func (s *NumeroStep) Do(_ context.Context, rec *model.SessionRecord) error {
	if !rec.Scanned || rec.Rejected || rec.Numero != nil {
		return nil
	}
	n, err := s.numero(rec.Payload)
	if err != nil {
		// The session already reported the rejection.
		return nil //nolint:nilerr
	}
	rec.Numero = &n
	return nil
}

// RecentChecker reports whether a number was saved successfully within a
// window. *history.DB implements it.
type RecentChecker interface {
	HasRecentSubmission(ctx context.Context, numero int64, within time.Duration) (bool, error)
}

// DuplicateCheckStep flags records whose number was already saved recently.
// It must run before SaveStep, otherwise every record finds itself.
type DuplicateCheckStep struct {
	checker RecentChecker
	window  time.Duration
	logger  *slog.Logger
}

// DuplicateCheckStepOption configures a DuplicateCheckStep.
type DuplicateCheckStepOption func(*DuplicateCheckStep)

// WithDuplicateWindow sets how far back to look. Non-positive values are
// ignored.
func WithDuplicateWindow(d time.Duration) DuplicateCheckStepOption {
	return func(s *DuplicateCheckStep) {
		if d > 0 {
			s.window = d
		}
	}
}

// WithDuplicateLogger sets a custom logger for the step.
func WithDuplicateLogger(logger *slog.Logger) DuplicateCheckStepOption {
	return func(s *DuplicateCheckStep) {
		s.logger = logger
	}
}

// NewDuplicateCheckStep creates a DuplicateCheckStep backed by checker.
func NewDuplicateCheckStep(checker RecentChecker, opts ...DuplicateCheckStepOption) *DuplicateCheckStep {
	s := &DuplicateCheckStep{
		checker: checker,
		window:  DefaultDuplicateWindow,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *DuplicateCheckStep) Name() string {
	return "duplicate_check"
}

// Do marks rec as a duplicate when its number was saved within the window.
func (s *DuplicateCheckStep) Do(ctx context.Context, rec *model.SessionRecord) error {
	if rec.Numero == nil || !rec.OK {
		return nil
	}

	dup, err := s.checker.HasRecentSubmission(ctx, *rec.Numero, s.window)
	if err != nil {
		return fmt.Errorf("failed to check for duplicate submission: %w", err)
	}
	if dup {
		s.logger.Warn("number already saved recently",
			"numero", *rec.Numero,
			"window", s.window,
		)
		rec.Duplicate = true
	}
	return nil
}

// ReportStep writes the record with a report.Writer.
type ReportStep struct {
	writer report.Writer
}

// NewReportStep creates a ReportStep that writes to w.
func NewReportStep(w report.Writer) *ReportStep {
	return &ReportStep{writer: w}
}

// Name returns the step name.
func (s *ReportStep) Name() string {
	return "report"
}

// Do writes the record.
func (s *ReportStep) Do(_ context.Context, rec *model.SessionRecord) error {
	if _, err := s.writer.Write(rec); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// SessionSaver persists session records. *history.DB implements it.
type SessionSaver interface {
	SaveSession(ctx context.Context, rec *model.SessionRecord) error
}

// SaveStep stores the record in the history database.
type SaveStep struct {
	saver SessionSaver
}

// NewSaveStep creates a SaveStep backed by saver.
func NewSaveStep(saver SessionSaver) *SaveStep {
	return &SaveStep{saver: saver}
}

// Name returns the step name.
func (s *SaveStep) Name() string {
	return "save_history"
}

// Do saves the record.
func (s *SaveStep) Do(ctx context.Context, rec *model.SessionRecord) error {
	if err := s.saver.SaveSession(ctx, rec); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Store is the history database as used by the scan command.
type Store interface {
	RecentChecker
	SessionSaver
}

// DefaultPipeline builds the steps run after each scan session.
// store may be nil, in which case history is neither checked nor saved.
func DefaultPipeline(numero NumeroFunc, w report.Writer, store Store, opts ...Option) *Pipeline {
	p := New(opts...)
	p.AddStep(NewNumeroStep(numero))
	if store != nil {
		p.AddStep(NewDuplicateCheckStep(store, WithDuplicateLogger(p.logger)))
	}
	p.AddStep(NewReportStep(w))
	if store != nil {
		p.AddStep(NewSaveStep(store))
	}
	return p
}
