package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/boletoscan/internal/scan"
)

const (
	// EndpointPath is the path, relative to the base URL, that receives
	// scanned boletos.
	EndpointPath = "/user/boleto"

	// DefaultTimeout bounds a single submission, including reading the
	// response.
	DefaultTimeout = 10 * time.Second

	// DefaultUserAgent is sent when no other User-Agent is configured.
	DefaultUserAgent = "boletoscan"

	// maxErrorBody is how much of a non-2xx response body is kept in a
	// StatusError.
	maxErrorBody = 512
)

// boletoRequest is the JSON body of a submission.
type boletoRequest struct {
	Numero int64 `json:"numero"`
}

// Client posts scanned payloads to the backend.
// It is safe for concurrent use.
type Client struct {
	endpoint   string
	httpClient *http.Client
	policy     Policy
	logger     *slog.Logger
}

// options holds the optional settings of a Client.
type options struct {
	token      string
	userAgent  string
	timeout    time.Duration
	policy     Policy
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*options)

// WithToken sends "Authorization: Bearer <token>" on every request.
func WithToken(token string) Option {
	return func(o *options) {
		o.token = token
	}
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// WithTimeout overrides DefaultTimeout. Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithPolicy sets the payload conversion policy. The default is PolicyStrict.
func WithPolicy(p Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithHTTPClient sets the underlying HTTP client. Its Transport is wrapped
// and its Timeout is replaced by the configured timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithLogger sets a custom logger. If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// NewClient creates a Client for the backend at baseURL.
// baseURL must be an absolute http or https URL; a trailing slash is
// allowed.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	o := options{
		userAgent: DefaultUserAgent,
		timeout:   DefaultTimeout,
		policy:    PolicyStrict,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}
	endpoint := u.JoinPath(EndpointPath).String()

	headers := map[string]string{
		"User-Agent": o.userAgent,
	}
	if o.token != "" {
		headers["Authorization"] = "Bearer " + o.token
	}

	var httpClient http.Client
	if o.httpClient != nil {
		httpClient = *o.httpClient
	}
	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	httpClient.Transport = &headerInjectingTransport{
		base:    base,
		headers: headers,
	}
	httpClient.Timeout = o.timeout

	return &Client{
		endpoint:   endpoint,
		httpClient: &httpClient,
		policy:     o.policy,
		logger:     o.logger,
	}, nil
}

// Endpoint returns the full URL requests are sent to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Policy returns the payload conversion policy.
func (c *Client) Policy() Policy {
	return c.policy
}

// Numero converts payload with the client's policy.
func (c *Client) Numero(payload string) (int64, error) {
	return ParseNumero(payload, c.policy)
}

// Submit implements scan.Submitter. A malformed payload is rejected
// without sending a request.
func (c *Client) Submit(ctx context.Context, payload string) error {
	n, err := c.Numero(payload)
	if err != nil {
		c.logger.Warn("payload rejected", "error", err)
		return err
	}
	return c.SubmitNumero(ctx, n)
}

// SubmitNumero posts n to the backend.
func (c *Client) SubmitNumero(ctx context.Context, n int64) error {
	body, err := json.Marshal(boletoRequest{Numero: n})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("submitting boleto", "url", c.endpoint, "numero", n)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", scan.ErrSubmissionFailed, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("backend responded",
		"status", resp.StatusCode,
		"elapsed", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)) //nolint:errcheck // best effort
		return &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // best effort

	return nil
}

// headerInjectingTransport wraps an http.RoundTripper to inject fixed
// headers into every request.
type headerInjectingTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	clone := req.Clone(req.Context())

	for key, value := range t.headers {
		clone.Header.Set(key, value)
	}

	return t.base.RoundTrip(clone)
}

// compile-time check
var _ scan.Submitter = (*Client)(nil)
