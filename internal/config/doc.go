// Package config loads, normalizes, and validates the TOML configuration
// for the evidence pipeline. A Config is constructed once at startup and
// handed to components explicitly; nothing reads configuration globally.
package config
