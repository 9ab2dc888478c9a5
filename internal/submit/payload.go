package submit

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/width"

	"github.com/nao1215/boletoscan/internal/scan"
)

// Policy decides how a scanned payload is turned into the integer the
// backend expects.
type Policy int

const (
	// PolicyStrict requires the whole payload, after trimming whitespace
	// and folding full-width characters, to be a base-10 integer.
	PolicyStrict Policy = iota

	// PolicyLenient reads an optional sign and the leading digits and drops
	// whatever follows. A leading 0x switches to hexadecimal.
	PolicyLenient
)

// String returns the policy name as used in configuration.
func (p Policy) String() string {
	switch p {
	case PolicyStrict:
		return "strict"
	case PolicyLenient:
		return "lenient"
	default:
		return "unknown"
	}
}

// ParsePolicy parses a policy name. The empty string selects PolicyStrict.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "strict":
		return PolicyStrict, nil
	case "lenient":
		return PolicyLenient, nil
	default:
		return PolicyStrict, fmt.Errorf("%w: %q", ErrInvalidPolicy, name)
	}
}

// ParseNumero converts a scanned payload into the value of the numero
// field. Errors wrap scan.ErrMalformedPayload.
func ParseNumero(payload string, policy Policy) (int64, error) {
	s := strings.TrimSpace(width.Narrow.String(payload))
	if s == "" {
		return 0, fmt.Errorf("%w: empty payload", scan.ErrMalformedPayload)
	}

	if policy == PolicyLenient {
		return parseLeading(s)
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		return 0, outOfRange(payload)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", scan.ErrMalformedPayload, payload)
	}
	return n, nil
}

// outOfRange reports a numeric payload that does not fit in an int64.
func outOfRange(payload string) error {
	return fmt.Errorf("%w: %q is outside the int64 range [%d, %d]",
		scan.ErrMalformedPayload, payload, int64(math.MinInt64), int64(math.MaxInt64))
}

// parseLeading parses a sign and the longest run of leading digits.
func parseLeading(s string) (int64, error) {
	sign := ""
	if s[0] == '+' || s[0] == '-' {
		if s[0] == '-' {
			sign = "-"
		}
		s = s[1:]
	}

	base := 10
	isDigit := func(c byte) bool { return c >= '0' && c <= '9' }
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base = 16
		s = s[2:]
		isDigit = func(c byte) bool {
			return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
		}
	}

	end := 0
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	if end == 0 {
		return 0, fmt.Errorf("%w: no leading digits", scan.ErrMalformedPayload)
	}

	n, err := strconv.ParseInt(sign+s[:end], base, 64)
	if errors.Is(err, strconv.ErrRange) {
		return 0, outOfRange(sign + s[:end])
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %w", scan.ErrMalformedPayload, err)
	}
	return n, nil
}
