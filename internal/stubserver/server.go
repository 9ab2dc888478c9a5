package stubserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	// BoletoPath is where submissions are accepted.
	BoletoPath = "/user/boleto"

	// HealthPath answers GET with "OK".
	HealthPath = "/health"

	// maxBodySize bounds a submission body.
	maxBodySize = 4 << 10

	// shutdownTimeout bounds graceful shutdown after the context ends.
	shutdownTimeout = 5 * time.Second
)

// ErrInvalidStatus is returned by NewServer when the forced status is not
// a valid HTTP status code.
var ErrInvalidStatus = errors.New("invalid HTTP status code")

// Receipt records one accepted submission.
type Receipt struct {
	// ID identifies the submission.
	ID string `json:"id"`

	// Numero is the submitted number.
	Numero int64 `json:"numero"`

	// ReceivedAt is when the server accepted the submission.
	ReceivedAt time.Time `json:"received_at"`
}

// errorResponse is the JSON body of a rejected request.
type errorResponse struct {
	Error string `json:"error"`
}

// Server is the stub backend.
type Server struct {
	status int
	token  string
	logger *slog.Logger

	mu       sync.Mutex
	receipts []Receipt
}

// Option configures a Server.
type Option func(*Server)

// WithStatus makes every submission answer with code instead of 201.
// A non-2xx code rejects the submission. Zero restores the default.
func WithStatus(code int) Option {
	return func(s *Server) {
		s.status = code
	}
}

// WithToken requires "Authorization: Bearer <token>" on submissions.
func WithToken(token string) Option {
	return func(s *Server) {
		s.token = token
	}
}

// WithLogger sets a custom logger. If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a stub backend.
func NewServer(opts ...Option) (*Server, error) {
	s := &Server{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.status != 0 && (s.status < 100 || s.status > 599) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatus, s.status)
	}
	return s, nil
}

// Router returns the HTTP handler of the stub.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc(HealthPath, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprintln(w, "OK")
	}).Methods(http.MethodGet)
	r.HandleFunc(BoletoPath, s.handleSubmit).Methods(http.MethodPost)
	r.HandleFunc(BoletoPath, s.handleList).Methods(http.MethodGet)
	return r
}

// Received returns a copy of the accepted submissions, oldest first.
func (s *Server) Received() []Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Receipt, len(s.receipts))
	copy(out, s.receipts)
	return out
}

// ListenAndServe serves on addr until ctx is cancelled. ready, if not nil,
// is called with the bound address once the listener is open.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready func(net.Addr)) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("stub server shutdown failed", "error", err)
		}
	})
	defer stop()

	if ready != nil {
		ready(ln.Addr())
	}
	s.logger.Info("stub server listening", "addr", ln.Addr().String())

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleSubmit accepts {"numero": <integer>}.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
		s.writeError(w, http.StatusUnauthorized, "missing or invalid token")
		return
	}

	numero, err := decodeNumero(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	status := http.StatusCreated
	if s.status != 0 {
		status = s.status
	}
	if status < 200 || status > 299 {
		s.logger.Info("forcing status", "numero", numero, "status", status)
		s.writeError(w, status, http.StatusText(status))
		return
	}

	receipt := Receipt{
		ID:         uuid.New().String(),
		Numero:     numero,
		ReceivedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.receipts = append(s.receipts, receipt)
	s.mu.Unlock()

	s.logger.Info("boleto received", "numero", numero, "id", receipt.ID)
	writeJSON(w, status, receipt)
}

// handleList returns every accepted submission.
func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Received())
}

// decodeNumero reads a body of the form {"numero": <integer>}.
func decodeNumero(r io.Reader) (int64, error) {
	var body struct {
		Numero *json.Number `json:"numero"`
	}
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return 0, fmt.Errorf("invalid JSON body: %w", err)
	}
	if body.Numero == nil {
		return 0, errors.New(`missing "numero"`)
	}
	if strings.ContainsAny(body.Numero.String(), ".eE") {
		return 0, errors.New(`"numero" must be an integer`)
	}
	n, err := body.Numero.Int64()
	if err != nil {
		return 0, errors.New(`"numero" must be an integer`)
	}
	return n, nil
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
