// Package testsupport provides fixture helpers shared across package
// tests: temp-dir configs, dataset layouts, and store setup.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kenafu/voice-dataset-organizer/internal/config"
)

// ConfigOption customizes the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config rooted in a unique temp dataset per test.
// The dataset root and audio directory exist when it returns.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DatasetRoot = filepath.Join(base, "dataset")
	cfg.Paths.BackupDir = filepath.Join(base, "backups")
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := os.MkdirAll(cfg.AudioPath(), 0o755); err != nil {
		t.Fatalf("create audio dir: %v", err)
	}
	return &cfg
}

// WithEmotions overrides the label set on the test config.
func WithEmotions(emotions ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Labels.Emotions = emotions
	}
}

// WithWorkers sets the scan worker count.
func WithWorkers(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Dedup.Workers = n
	}
}
