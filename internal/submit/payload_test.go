package submit

import (
	"errors"
	"strings"
	"testing"

	"github.com/nao1215/boletoscan/internal/scan"
)

// TestParseNumero tests payload conversion under both policies.
func TestParseNumero(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		payload string
		policy  Policy
		want    int64
		wantErr bool
	}{
		{"strict plain", "42", PolicyStrict, 42, false},
		{"strict surrounding space", "  12345\n", PolicyStrict, 12345, false},
		{"strict negative", "-7", PolicyStrict, -7, false},
		{"strict full-width digits", "１２３", PolicyStrict, 123, false},
		{"strict trailing junk", "123abc", PolicyStrict, 0, true},
		{"strict url", "https://example.com/42", PolicyStrict, 0, true},
		{"strict empty", "", PolicyStrict, 0, true},
		{"strict blank", "   ", PolicyStrict, 0, true},
		{"strict overflow", "99999999999999999999", PolicyStrict, 0, true},
		{"lenient plain", "42", PolicyLenient, 42, false},
		{"lenient trailing junk", "123abc", PolicyLenient, 123, false},
		{"lenient leading space", "  88 99", PolicyLenient, 88, false},
		{"lenient sign", "-15kg", PolicyLenient, -15, false},
		{"lenient hex", "0x1A", PolicyLenient, 26, false},
		{"lenient full-width", "４２円", PolicyLenient, 42, false},
		{"lenient no digits", "abc", PolicyLenient, 0, true},
		{"lenient sign only", "-", PolicyLenient, 0, true},
		{"lenient overflow", "99999999999999999999x", PolicyLenient, 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseNumero(tc.payload, tc.policy)
			if tc.wantErr {
				if !errors.Is(err, scan.ErrMalformedPayload) {
					t.Fatalf("expected ErrMalformedPayload, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %d, expected %d", got, tc.want)
			}
		})
	}
}

// TestParseNumeroOutOfRange tests that an overflowing payload names the
// int64 range instead of calling it a non-integer.
func TestParseNumeroOutOfRange(t *testing.T) {
	t.Parallel()

	for _, policy := range []Policy{PolicyStrict, PolicyLenient} {
		t.Run(policy.String(), func(t *testing.T) {
			t.Parallel()

			_, err := ParseNumero("9223372036854775808", policy)
			if !errors.Is(err, scan.ErrMalformedPayload) {
				t.Fatalf("expected ErrMalformedPayload, got %v", err)
			}
			msg := err.Error()
			if !strings.Contains(msg, "int64 range") || !strings.Contains(msg, "9223372036854775807") {
				t.Errorf("error %q does not state the int64 range", msg)
			}
			if strings.Contains(msg, "not an integer") {
				t.Errorf("error %q calls an integer a non-integer", msg)
			}
		})
	}

	if _, err := ParseNumero("9223372036854775807", PolicyStrict); err != nil {
		t.Errorf("max int64 rejected: %v", err)
	}
}

// TestParsePolicy tests policy name parsing.
func TestParsePolicy(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		want    Policy
		wantErr bool
	}{
		{"", PolicyStrict, false},
		{"strict", PolicyStrict, false},
		{"Lenient", PolicyLenient, false},
		{" lenient ", PolicyLenient, false},
		{"loose", PolicyStrict, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParsePolicy(tc.name)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidPolicy) {
					t.Fatalf("expected ErrInvalidPolicy, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %s, expected %s", got, tc.want)
			}
			if got.String() != tc.want.String() {
				t.Errorf("String() = %q", got.String())
			}
		})
	}
}
