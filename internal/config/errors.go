package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
var (
	// ErrNoBaseURL is returned when no backend URL was configured through the
	// config file, BOLETOSCAN_API_URL or --api-url.
	ErrNoBaseURL = errors.New("no backend URL: set api_url, BOLETOSCAN_API_URL or --api-url")

	// ErrInvalidBaseURL is returned when the backend URL is not an absolute
	// http or https URL.
	ErrInvalidBaseURL = errors.New("invalid backend URL: expected http:// or https://")

	// ErrInvalidWarmup is returned when the warm-up delay is negative.
	ErrInvalidWarmup = errors.New("invalid warm-up: must be non-negative")

	// ErrInvalidDeadline is returned when the scan deadline is negative.
	// Use 0 to disable the deadline.
	ErrInvalidDeadline = errors.New("invalid deadline: must be non-negative, 0 disables it")

	// ErrInvalidSubmitTimeout is returned when the submission timeout is not
	// positive.
	ErrInvalidSubmitTimeout = errors.New("invalid submit timeout: must be positive")

	// ErrInvalidPolicy is returned for a payload policy other than strict or
	// lenient.
	ErrInvalidPolicy = errors.New("invalid payload policy: expected strict or lenient")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidDuration is returned when a duration in the config file or
	// the environment cannot be parsed.
	ErrInvalidDuration = errors.New("invalid duration")
)
