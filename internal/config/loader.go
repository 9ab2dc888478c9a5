package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".boletoscan"

// XDGConfigFile is the configuration file name inside XDGConfigDir.
const XDGConfigFile = "config.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile loads a YAML configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .boletoscan in the current directory
// 3. Look for .boletoscan in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), XDGConfigFile))

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}

	return ""
}

// ApplyEnv overrides cfg with the BOLETOSCAN_* variables found by lookup.
// Pass os.LookupEnv in production.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAPIURL); ok && v != "" {
		cfg.APIURL = v
	}
	if v, ok := lookup(EnvAPIToken); ok && v != "" {
		cfg.APIToken = v
	}
	if v, ok := lookup(EnvWarmup); ok && v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWarmup, err)
		}
		cfg.Warmup = d
	}
	if v, ok := lookup(EnvDeadline); ok && v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDeadline, err)
		}
		cfg.Deadline = d
	}
	return nil
}

// Load builds the configuration from defaults, the configuration file and
// the environment. An explicitly requested file that does not exist is an
// error; a missing file in the default locations is not.
// It returns the path of the file that was applied, if any.
func Load(configPath string, lookup func(string) (string, bool)) (*Config, string, error) {
	cfg := NewConfig()
	cfg.ConfigFilePath = configPath

	path := FindConfigFile(configPath)
	if configPath != "" && path == "" {
		return nil, "", fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
	}

	if path != "" {
		cf, err := LoadConfigFile(path)
		if err != nil {
			return nil, "", err
		}
		if err := cf.Apply(cfg); err != nil {
			return nil, "", fmt.Errorf("invalid config file %s: %w", path, err)
		}
	}

	if lookup != nil {
		if err := ApplyEnv(cfg, lookup); err != nil {
			return nil, "", err
		}
	}

	return cfg, path, nil
}
