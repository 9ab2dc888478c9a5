package submit

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/nao1215/boletoscan/internal/scan"
)

// Client configuration errors.
var (
	// ErrInvalidBaseURL is returned by NewClient when the base URL is not an
	// absolute http or https URL.
	ErrInvalidBaseURL = errors.New("invalid base URL: expected http:// or https://")

	// ErrInvalidPolicy is returned by ParsePolicy for an unknown policy name.
	ErrInvalidPolicy = errors.New("invalid payload policy: expected strict or lenient")
)

// StatusError is returned when the backend answers with a non-2xx status.
// It wraps scan.ErrSubmissionFailed.
type StatusError struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int

	// Body is the beginning of the response body, for diagnostics.
	Body string
}

// Error implements error.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("backend returned %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// Unwrap returns scan.ErrSubmissionFailed.
func (e *StatusError) Unwrap() error {
	return scan.ErrSubmissionFailed
}
