// Package config provides configuration structures and utilities for
// boletoscan. It defines the backend endpoint, the scan lifecycle timings,
// payload handling and report preferences, and resolves them from defaults,
// the .boletoscan file, the environment and command-line flags, in that
// order of increasing precedence.
package config
