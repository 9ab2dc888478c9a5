package config

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "boletoscan"

	// DefaultWarmup gives the camera time to focus before scans count.
	DefaultWarmup = 1 * time.Second

	// DefaultDeadline is how long an armed session waits for a QR code.
	DefaultDeadline = 1 * time.Second

	// DefaultSubmitTimeout bounds one POST to the backend.
	DefaultSubmitTimeout = 10 * time.Second

	// DefaultPayloadPolicy requires the whole QR payload to be a number.
	DefaultPayloadPolicy = "strict"

	// DefaultHistoryLimit is how many sessions `boletoscan history` lists.
	DefaultHistoryLimit = 20

	// DefaultStubAddr is where `boletoscan stub` listens.
	DefaultStubAddr = "127.0.0.1:8080"
)

// Environment variables read by ApplyEnv.
const (
	// EnvAPIURL overrides the backend base URL.
	EnvAPIURL = "BOLETOSCAN_API_URL"

	// EnvAPIToken overrides the bearer token.
	EnvAPIToken = "BOLETOSCAN_API_TOKEN"

	// EnvWarmup overrides the warm-up delay, e.g. "1500ms".
	EnvWarmup = "BOLETOSCAN_WARMUP"

	// EnvDeadline overrides the scan deadline, e.g. "5s".
	EnvDeadline = "BOLETOSCAN_DEADLINE"
)

// Config holds all configuration options for boletoscan.
// It is populated once at startup and passed down explicitly.
type Config struct {
	// APIURL is the backend base URL. Submissions go to APIURL/user/boleto.
	APIURL string

	// APIToken is sent as a bearer token when set.
	APIToken string

	// Warmup is the delay between opening the camera and accepting scans.
	Warmup time.Duration

	// Deadline is how long an armed session waits for a scan.
	// Zero disables the deadline.
	Deadline time.Duration

	// SubmitTimeout bounds a single submission.
	SubmitTimeout time.Duration

	// PayloadPolicy is "strict" or "lenient".
	PayloadPolicy string

	// DevicePath is the camera input. Empty or "-" reads stdin.
	DevicePath string

	// Loop opens a new session after each one closes, until the camera
	// input ends.
	Loop bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile searches the usual locations.
	ConfigFilePath string

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// DBDir is the directory of the history database.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveToDB records finished sessions in the history database.
	SaveToDB bool

	// UserAgent is sent with every submission.
	UserAgent string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Warmup:        DefaultWarmup,
		Deadline:      DefaultDeadline,
		SubmitTimeout: DefaultSubmitTimeout,
		PayloadPolicy: DefaultPayloadPolicy,
		DBDir:         XDGDataDir(),
		SaveToDB:      true,
		UserAgent:     AppName,
	}
}

// XDGDataDir returns the XDG data directory for boletoscan.
// On Linux: ~/.local/share/boletoscan
// On macOS: ~/Library/Application Support/boletoscan
// On Windows: %LOCALAPPDATA%\boletoscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for boletoscan.
// On Linux: ~/.config/boletoscan
// On macOS: ~/Library/Application Support/boletoscan
// On Windows: %APPDATA%\boletoscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the package's sentinel
// errors.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return ErrNoBaseURL
	}
	u, err := url.Parse(strings.TrimSpace(c.APIURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBaseURL
	}

	if c.Warmup < 0 {
		return ErrInvalidWarmup
	}
	if c.Deadline < 0 {
		return ErrInvalidDeadline
	}
	if c.SubmitTimeout <= 0 {
		return ErrInvalidSubmitTimeout
	}

	switch strings.ToLower(strings.TrimSpace(c.PayloadPolicy)) {
	case "", "strict", "lenient":
	default:
		return ErrInvalidPolicy
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}

// ValidateOutput checks only the report options. It is used by commands
// that never talk to the backend.
func (c *Config) ValidateOutput() error {
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}
