package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks configuration invariants after normalization.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.DatasetRoot) == "" {
		problems = append(problems, "paths.dataset_root must be set")
	}

	switch c.Dedup.KeepPolicy {
	case "manifest-order", "largest-file":
	default:
		problems = append(problems, fmt.Sprintf("dedup.keep_policy: unsupported value %q (expected manifest-order or largest-file)", c.Dedup.KeepPolicy))
	}

	switch c.Dedup.RedundantAction {
	case "quarantine", "delete":
	default:
		problems = append(problems, fmt.Sprintf("dedup.redundant_action: unsupported value %q (expected quarantine or delete)", c.Dedup.RedundantAction))
	}

	if c.Dedup.SampleRate <= 0 {
		problems = append(problems, "dedup.sample_rate must be positive")
	}
	if c.Dedup.HashSampleRate <= 0 {
		problems = append(problems, "dedup.hash_sample_rate must be positive")
	}
	if c.Dedup.HashSampleRate > c.Dedup.SampleRate {
		problems = append(problems, "dedup.hash_sample_rate must not exceed dedup.sample_rate")
	}
	if c.Dedup.QuantizeLevels < 2 || c.Dedup.QuantizeLevels > 256 {
		problems = append(problems, "dedup.quantize_levels must be between 2 and 256")
	}
	if c.Dedup.TrimThresholdDB <= 0 {
		problems = append(problems, "dedup.trim_threshold_db must be positive")
	}
	if c.Dedup.Tolerance < 0 {
		problems = append(problems, "dedup.tolerance must not be negative")
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format: unsupported value %q", c.Logging.Format))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
