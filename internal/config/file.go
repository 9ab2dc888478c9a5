package config

import (
	"fmt"
	"strings"
	"time"
)

// File represents the structure of the .boletoscan configuration file.
// Every key is optional; durations use Go syntax ("1s", "1500ms").
type File struct {
	// APIURL is the backend base URL.
	APIURL string `yaml:"api_url,omitempty"`

	// APIToken is the bearer token sent with submissions.
	APIToken string `yaml:"api_token,omitempty"`

	// Warmup is the warm-up delay.
	Warmup string `yaml:"warmup,omitempty"`

	// Deadline is the scan deadline. "0" disables it.
	Deadline string `yaml:"deadline,omitempty"`

	// SubmitTimeout bounds one submission.
	SubmitTimeout string `yaml:"submit_timeout,omitempty"`

	// PayloadPolicy is "strict" or "lenient".
	PayloadPolicy string `yaml:"payload_policy,omitempty"`

	// Device is the camera input path.
	Device string `yaml:"device,omitempty"`

	// DBDir is the history database directory.
	DBDir string `yaml:"db_dir,omitempty"`
}

// Apply copies every key set in the file onto cfg.
func (f *File) Apply(cfg *Config) error {
	if f.APIURL != "" {
		cfg.APIURL = f.APIURL
	}
	if f.APIToken != "" {
		cfg.APIToken = f.APIToken
	}
	if f.PayloadPolicy != "" {
		cfg.PayloadPolicy = f.PayloadPolicy
	}
	if f.Device != "" {
		cfg.DevicePath = f.Device
	}
	if f.DBDir != "" {
		cfg.DBDir = f.DBDir
	}

	durations := []struct {
		key   string
		value string
		dst   *time.Duration
	}{
		{"warmup", f.Warmup, &cfg.Warmup},
		{"deadline", f.Deadline, &cfg.Deadline},
		{"submit_timeout", f.SubmitTimeout, &cfg.SubmitTimeout},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		v, err := parseDuration(d.value)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = v
	}

	return nil
}

// parseDuration accepts Go duration syntax and a bare "0".
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	return d, nil
}
