package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/boletoscan/internal/model"
)

// Processor runs a pipeline for every record received on a channel.
type Processor struct {
	// pipelineFactory creates a new pipeline for each record.
	pipelineFactory func() *Pipeline

	// logger is used for processor-level logging.
	logger *slog.Logger

	// processed counts records passed through the pipeline.
	processed int

	// failed counts records whose pipeline returned an error.
	failed int

	// onProcessed is called after each record, from Run's goroutine.
	onProcessed func(rec *model.SessionRecord, err error)
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithProcessorLogger sets a custom logger for the processor.
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithProcessedCallback sets a function called after each record has been
// through the pipeline, with the pipeline's error.
func WithProcessedCallback(fn func(rec *model.SessionRecord, err error)) ProcessorOption {
	return func(p *Processor) {
		p.onProcessed = fn
	}
}

// NewProcessor creates a new Processor.
func NewProcessor(pipelineFactory func() *Pipeline, opts ...ProcessorOption) *Processor {
	p := &Processor{
		pipelineFactory: pipelineFactory,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// Run processes records until the channel is closed.
//
// Records are processed in arrival order. Cancelling ctx does not stop
// Run: the session closed by the cancellation still has to be reported
// and saved, so steps run with a context detached from ctx's
// cancellation and Run returns once the producer closes the channel.
// Step errors are logged and do not stop later records.
func (p *Processor) Run(ctx context.Context, records <-chan *model.SessionRecord) error {
	stepCtx := context.WithoutCancel(ctx)
	startTime := time.Now()

	for rec := range records {
		pipeline := p.pipelineFactory()
		err := pipeline.Execute(stepCtx, rec)
		if err != nil {
			p.failed++
			p.logger.Warn("post-session pipeline failed",
				"session", rec.ID,
				"error", err,
			)
		}
		p.processed++

		if p.onProcessed != nil {
			p.onProcessed(rec, err)
		}
	}

	p.logger.Debug("processor finished",
		"processed", p.processed,
		"failed", p.failed,
		"elapsed", time.Since(startTime),
	)
	return nil
}

// Processed returns how many records Run has handled.
// It must not be called while Run is executing.
func (p *Processor) Processed() int {
	return p.processed
}

// Failed returns how many records had a failing pipeline.
// It must not be called while Run is executing.
func (p *Processor) Failed() int {
	return p.failed
}
