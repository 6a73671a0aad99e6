// Package config loads, validates, and normalizes the TOML configuration
// controlling dataset layout, classification labels, duplicate detection
// parameters, and logging.
package config
