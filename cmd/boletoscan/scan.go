package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/nao1215/boletoscan/internal/camera"
	"github.com/nao1215/boletoscan/internal/config"
	"github.com/nao1215/boletoscan/internal/history"
	"github.com/nao1215/boletoscan/internal/model"
	"github.com/nao1215/boletoscan/internal/pipeline"
	"github.com/nao1215/boletoscan/internal/report"
	"github.com/nao1215/boletoscan/internal/scan"
	"github.com/nao1215/boletoscan/internal/submit"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a boleto QR code and submit it",
		Long: `Scan opens the camera input and waits for a QR code.

The camera input is a stream of decoded QR payloads, one per line, such as
a keyboard-wedge barcode reader or another program's output. Codes read
during the warm-up are ignored. The first code read afterwards is converted
to a number and posted to {api-url}/user/boleto as {"numero": <number>}.
If no code is read before the deadline the session times out.

Examples:
  # Scan one code from standard input
  boletoscan scan --api-url http://localhost:8080

  # Keep scanning until the input ends or Ctrl+C
  boletoscan scan --loop

  # Read a device and print JSON results
  boletoscan scan --device /dev/hidraw0 --json

  # Give the user more time per code
  boletoscan scan --deadline 10s

  # Disable the deadline entirely
  boletoscan scan --deadline 0`,
		Args: cobra.NoArgs,
		RunE: runScanCmd,
	}

	// Camera flags
	cmd.Flags().StringP("device", "d", camera.StdinPath,
		`Camera input path ("-" for standard input)`)

	// Backend flags
	cmd.Flags().StringP("api-url", "u", "",
		"Backend base URL (default: $"+config.EnvAPIURL+")")
	cmd.Flags().StringP("policy", "p", config.DefaultPayloadPolicy,
		"Payload conversion policy: strict or lenient")
	cmd.Flags().Duration("submit-timeout", config.DefaultSubmitTimeout,
		"Timeout for one submission")

	// Session flags
	cmd.Flags().Duration("warmup", config.DefaultWarmup,
		"Delay before codes are accepted")
	cmd.Flags().Duration("deadline", config.DefaultDeadline,
		"Time allowed to read a code after the warm-up (0 disables)")
	cmd.Flags().BoolP("loop", "l", false,
		"Start a new session after each one closes")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON results (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown results (mutually exclusive with --json)")

	// History flags
	cmd.Flags().Bool("no-history", false,
		"Do not record sessions in the history database")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildScanConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose)

	input, err := openCameraInput(cmd, cfg.DevicePath)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), model.OutcomeCameraUnavailable.Message())
		return err
	}
	defer input.Close()

	return runScan(cmd.Context(), cfg, input, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
}

// buildScanConfig loads the configuration and applies explicitly set flags.
func buildScanConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("device") || cfg.DevicePath == "" {
		if cfg.DevicePath, err = flags.GetString("device"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("api-url") {
		if cfg.APIURL, err = flags.GetString("api-url"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("policy") {
		if cfg.PayloadPolicy, err = flags.GetString("policy"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("submit-timeout") {
		if cfg.SubmitTimeout, err = flags.GetDuration("submit-timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("warmup") {
		if cfg.Warmup, err = flags.GetDuration("warmup"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("deadline") {
		if cfg.Deadline, err = flags.GetDuration("deadline"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return nil, err
		}
	}

	if cfg.Loop, err = flags.GetBool("loop"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noHistory
	cfg.UserAgent = config.AppName + "/" + getVersion()

	return cfg, nil
}

// openCameraInput opens the camera device. Standard input is taken from
// the command so that it can be replaced in tests.
func openCameraInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "" || path == camera.StdinPath {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return camera.OpenDevice(path)
}

// runScan runs scan sessions against input until one session closes, or,
// in loop mode, until the input ends or ctx is cancelled.
//
// Three goroutines cooperate: the camera reader, the session loop and the
// post-session processor that reports and stores each closed session.
func runScan(ctx context.Context, cfg *config.Config, input io.Reader, out, errOut io.Writer, logger *slog.Logger) error {
	policy, err := submit.ParsePolicy(cfg.PayloadPolicy)
	if err != nil {
		return err
	}

	client, err := submit.NewClient(cfg.APIURL,
		submit.WithToken(cfg.APIToken),
		submit.WithUserAgent(cfg.UserAgent),
		submit.WithTimeout(cfg.SubmitTimeout),
		submit.WithPolicy(policy),
		submit.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	var store pipeline.Store
	if cfg.SaveToDB {
		db, err := history.Open(cfg.DBDir, history.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer db.Close()
		store = db
		logger.Debug("history database opened", "path", db.Path())
	}

	// Hooks and the processor write concurrently.
	var mu sync.Mutex
	out = &lockedWriter{mu: &mu, w: out}
	errOut = &lockedWriter{mu: &mu, w: errOut}

	// Progress messages go to stderr when stdout carries a machine format.
	progress := out
	if cfg.JSONReport || cfg.MarkdownReport {
		progress = errOut
	}
	writer := newReportWriter(cfg, out)

	cam := camera.NewLineCamera(input, camera.WithLogger(logger))
	scanner := scan.NewScanner(cam, client,
		scan.WithWarmup(cfg.Warmup),
		scan.WithDeadline(cfg.Deadline),
		scan.WithLogger(logger),
	)

	processed := make(chan struct{}, 1)
	processor := pipeline.NewProcessor(
		func() *pipeline.Pipeline {
			return pipeline.DefaultPipeline(client.Numero, writer, store,
				pipeline.WithLogger(logger),
				pipeline.WithContinueOnError(true),
			)
		},
		pipeline.WithProcessorLogger(logger),
		pipeline.WithProcessedCallback(func(*model.SessionRecord, error) {
			select {
			case processed <- struct{}{}:
			default:
			}
		}),
	)

	g, gctx := errgroup.WithContext(ctx)
	camCtx, stopCamera := context.WithCancel(gctx)
	defer stopCamera()

	camDone := make(chan struct{})
	g.Go(func() error {
		defer close(camDone)
		if err := cam.Run(camCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	records := make(chan *model.SessionRecord, 1)
	g.Go(func() error {
		return processor.Run(gctx, records)
	})

	var sessionErr error
	g.Go(func() error {
		defer close(records)
		defer stopCamera()

		loop := &sessionLoop{
			scanner:   scanner,
			progress:  progress,
			camDone:   camDone,
			records:   records,
			processed: processed,
			repeat:    cfg.Loop,
		}
		var err error
		sessionErr, err = loop.run(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return nil
	}
	return sessionErr
}

// sessionLoop opens scan sessions one after another.
type sessionLoop struct {
	scanner   *scan.Scanner
	progress  io.Writer
	camDone   <-chan struct{}
	records   chan<- *model.SessionRecord
	processed <-chan struct{}
	repeat    bool
}

// run opens sessions until one closes (or, when repeating, until the camera
// input ends or ctx is done). It returns the error of the last session and
// any error that prevented a session from running.
func (l *sessionLoop) run(ctx context.Context) (sessionErr, err error) {
	for {
		fmt.Fprintln(l.progress, "Preparing scanner...")

		s, openErr := l.scanner.Open(ctx, l.hooks())
		if openErr != nil {
			return nil, openErr
		}

		select {
		case <-s.Done():
		case <-l.camDone:
			// No more codes can arrive.
			s.Close()
			<-s.Done()
		}

		l.records <- s.Record()
		sessionErr = s.Err()

		if !l.repeat || ctx.Err() != nil {
			return sessionErr, nil
		}
		// Let the result be printed before the next prompt.
		<-l.processed
		select {
		case <-l.camDone:
			return sessionErr, nil
		default:
		}
	}
}

// hooks prints the session progress for the person holding the camera.
// Hooks run one at a time on the session's dispatcher.
func (l *sessionLoop) hooks() scan.Hooks {
	return scan.Hooks{
		OnArmed: func() {
			fmt.Fprintln(l.progress, "Scan a QR code")
		},
		OnScanned: func(payload string) {
			fmt.Fprintf(l.progress, "QR scanned: %s\n", payload)
		},
	}
}

// newReportWriter selects the report writer for the configured format.
func newReportWriter(cfg *config.Config, out io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(out)
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	}
}

// lockedWriter serializes writes to w. Writers sharing mu never interleave.
type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

// Write implements io.Writer.
func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}
