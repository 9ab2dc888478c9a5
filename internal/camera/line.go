package camera

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/nao1215/boletoscan/internal/scan"
)

// StdinPath selects standard input in OpenDevice.
const StdinPath = "-"

// maxLineSize bounds a single decoded value.
const maxLineSize = 64 * 1024

// symbologyPrefixes are stripped from the start of each line.
var symbologyPrefixes = []string{"QR-Code:", "QR Code:"}

// LineCamera reads decoded values, one per line, and delivers them to its
// subscriber. Lines that arrive while nobody is subscribed are dropped.
type LineCamera struct {
	r      io.Reader
	logger *slog.Logger

	mu      sync.Mutex
	handler func(scan.Event)
	subID   uint64
	dropped int
}

// Option configures a LineCamera.
type Option func(*LineCamera)

// WithLogger sets a custom logger. If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *LineCamera) {
		c.logger = logger
	}
}

// NewLineCamera creates a camera reading from r.
func NewLineCamera(r io.Reader, opts ...Option) *LineCamera {
	c := &LineCamera{
		r:      r,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe implements scan.Camera.
func (c *LineCamera) Subscribe(onEvent func(scan.Event)) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handler != nil {
		return nil, ErrCameraBusy
	}
	c.handler = onEvent
	c.subID++
	id := c.subID

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.subID == id {
				c.handler = nil
			}
		})
	}, nil
}

// Dropped returns how many lines arrived with no subscriber attached.
func (c *LineCamera) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Run reads lines until the reader is exhausted or ctx is done.
// It returns nil at end of input and ctx.Err() on cancellation. When
// cancelled, a reader that implements io.Closer is closed to unblock the
// pending read.
func (c *LineCamera) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		sc := bufio.NewScanner(c.r)
		sc.Buffer(make([]byte, 0, 4096), maxLineSize)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			if closer, ok := c.r.(io.Closer); ok {
				_ = closer.Close() //nolint:errcheck // unblocking the reader
			}
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("failed to read camera input: %w", err)
					}
				default:
				}
				return nil
			}
			c.deliver(line)
		}
	}
}

// deliver hands one line to the subscriber.
func (c *LineCamera) deliver(line string) {
	payload := normalize(line)
	if payload == "" {
		return
	}

	c.mu.Lock()
	handler := c.handler
	if handler == nil {
		c.dropped++
	}
	c.mu.Unlock()

	if handler == nil {
		c.logger.Debug("camera event dropped, no subscriber")
		return
	}
	handler(scan.Event{Payload: payload})
}

// normalize trims a line and strips a symbology prefix.
func normalize(line string) string {
	s := strings.TrimSpace(line)
	for _, prefix := range symbologyPrefixes {
		if rest, ok := strings.CutPrefix(s, prefix); ok {
			s = strings.TrimSpace(rest)
			break
		}
	}
	return s
}

// OpenDevice opens the input of a LineCamera. StdinPath or an empty path
// selects standard input. A permission failure is reported as
// scan.ErrPermissionDenied.
func OpenDevice(path string) (io.ReadCloser, error) {
	if path == "" || path == StdinPath {
		return io.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(path) //nolint:gosec // path is chosen by the operator
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %s", scan.ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to open camera device: %w", err)
	}
	return f, nil
}
