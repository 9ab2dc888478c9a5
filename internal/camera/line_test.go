package camera

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/boletoscan/internal/scan"
)

// collector gathers delivered payloads.
type collector struct {
	mu       sync.Mutex
	payloads []string
}

func (c *collector) onEvent(ev scan.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads = append(c.payloads, ev.Payload)
}

func (c *collector) got() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.payloads...)
}

// TestLineCameraRun tests that each line becomes one event.
func TestLineCameraRun(t *testing.T) {
	t.Parallel()

	input := "42\n\n  QR-Code:1234  \nQR Code: 77\r\n99"
	cam := NewLineCamera(strings.NewReader(input))

	var c collector
	if _, err := cam.Subscribe(c.onEvent); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := cam.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{"42", "1234", "77", "99"}
	if got := c.got(); !slices.Equal(got, want) {
		t.Errorf("got %v, expected %v", got, want)
	}
}

// TestLineCameraSubscribe tests exclusive subscription.
func TestLineCameraSubscribe(t *testing.T) {
	t.Parallel()

	t.Run("second subscriber is rejected", func(t *testing.T) {
		t.Parallel()

		cam := NewLineCamera(strings.NewReader(""))
		unsubscribe, err := cam.Subscribe(func(scan.Event) {})
		if err != nil {
			t.Fatalf("Subscribe() error = %v", err)
		}
		if _, err := cam.Subscribe(func(scan.Event) {}); !errors.Is(err, ErrCameraBusy) {
			t.Fatalf("expected ErrCameraBusy, got %v", err)
		}

		unsubscribe()
		if _, err := cam.Subscribe(func(scan.Event) {}); err != nil {
			t.Errorf("Subscribe() after unsubscribe error = %v", err)
		}
	})

	t.Run("stale unsubscribe does not detach the next subscriber", func(t *testing.T) {
		t.Parallel()

		cam := NewLineCamera(strings.NewReader("1\n"))
		first, err := cam.Subscribe(func(scan.Event) {})
		if err != nil {
			t.Fatalf("Subscribe() error = %v", err)
		}
		first()

		var c collector
		if _, err := cam.Subscribe(c.onEvent); err != nil {
			t.Fatalf("Subscribe() error = %v", err)
		}
		first()

		if err := cam.Run(context.Background()); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if got := c.got(); !slices.Equal(got, []string{"1"}) {
			t.Errorf("got %v, expected [1]", got)
		}
	})

	t.Run("lines without subscriber are dropped", func(t *testing.T) {
		t.Parallel()

		cam := NewLineCamera(strings.NewReader("1\n2\n3\n"))
		if err := cam.Run(context.Background()); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if cam.Dropped() != 3 {
			t.Errorf("Dropped() = %d, expected 3", cam.Dropped())
		}
	})
}

// TestLineCameraCancel tests that Run stops when its context is done.
func TestLineCameraCancel(t *testing.T) {
	t.Parallel()

	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })

	cam := NewLineCamera(pr)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- cam.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

// TestLineCameraWithSession tests the camera as a session's capability.
func TestLineCameraWithSession(t *testing.T) {
	t.Parallel()

	pr, pw := io.Pipe()
	cam := NewLineCamera(pr)

	payloads := make(chan string, 4)
	sub := scan.SubmitterFunc(func(_ context.Context, payload string) error {
		payloads <- payload
		return nil
	})
	armed := make(chan struct{})
	s := scan.NewSession(cam, sub, scan.Hooks{OnArmed: func() { close(armed) }},
		scan.WithWarmup(0), scan.WithDeadline(0))

	runErr := make(chan error, 1)
	go func() { runErr <- cam.Run(context.Background()) }()

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	<-armed

	if _, err := io.WriteString(pw, "QR-Code:555\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not finish")
	}
	if got := <-payloads; got != "555" {
		t.Errorf("submitted %q, expected 555", got)
	}

	// The session released the camera.
	if _, err := cam.Subscribe(func(scan.Event) {}); err != nil {
		t.Errorf("camera still held after the session closed: %v", err)
	}

	_ = pw.Close()
	if err := <-runErr; err != nil {
		t.Errorf("Run() error = %v", err)
	}
}

// TestOpenDevice tests opening camera inputs.
func TestOpenDevice(t *testing.T) {
	t.Parallel()

	t.Run("stdin", func(t *testing.T) {
		t.Parallel()

		r, err := OpenDevice(StdinPath)
		if err != nil {
			t.Fatalf("OpenDevice() error = %v", err)
		}
		_ = r.Close()
	})

	t.Run("regular file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "codes.txt")
		if err := os.WriteFile(path, []byte("1\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		r, err := OpenDevice(path)
		if err != nil {
			t.Fatalf("OpenDevice() error = %v", err)
		}
		_ = r.Close()
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := OpenDevice(filepath.Join(t.TempDir(), "missing"))
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if errors.Is(err, scan.ErrPermissionDenied) {
			t.Error("missing file reported as permission denied")
		}
	})

	t.Run("permission denied", func(t *testing.T) {
		t.Parallel()

		if runtime.GOOS == "windows" || os.Geteuid() == 0 {
			t.Skip("file permissions are not enforced for this user")
		}
		path := filepath.Join(t.TempDir(), "video0")
		if err := os.WriteFile(path, nil, 0o000); err != nil {
			t.Fatal(err)
		}
		if _, err := OpenDevice(path); !errors.Is(err, scan.ErrPermissionDenied) {
			t.Errorf("expected ErrPermissionDenied, got %v", err)
		}
	})
}
