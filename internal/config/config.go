package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains dataset directory configuration.
type Paths struct {
	// DatasetRoot is the directory containing the manifest and audio tree.
	DatasetRoot string `toml:"dataset_root"`
	// AudioDir is the audio subdirectory name under DatasetRoot.
	AudioDir string `toml:"audio_dir"`
	// ManifestName is the manifest filename under DatasetRoot.
	ManifestName string `toml:"manifest_name"`
	// BackupDir overrides where backup runs are created. Empty means
	// DatasetRoot.
	BackupDir string `toml:"backup_dir"`
	LogDir    string `toml:"log_dir"`
	CacheDir  string `toml:"cache_dir"`
}

// Labels contains the closed emotion label set used for classification.
type Labels struct {
	Emotions []string `toml:"emotions"`
	// Fallback is used when a classification row carries an empty label.
	Fallback string `toml:"fallback"`
}

// Dedup contains content fingerprinting and duplicate grouping parameters.
type Dedup struct {
	SampleRate      int     `toml:"sample_rate"`
	TrimThresholdDB float64 `toml:"trim_threshold_db"`
	HashSampleRate  int     `toml:"hash_sample_rate"`
	QuantizeLevels  int     `toml:"quantize_levels"`
	// Tolerance enables envelope-distance grouping when greater than zero.
	// Zero keeps the exact-hash default.
	Tolerance         float64 `toml:"tolerance"`
	GroupByTranscript bool    `toml:"group_by_transcript"`
	// KeepPolicy selects the cluster member to retain: "manifest-order"
	// or "largest-file".
	KeepPolicy string `toml:"keep_policy"`
	// RedundantAction is "quarantine" or "delete".
	RedundantAction string `toml:"redundant_action"`
	Workers         int    `toml:"workers"`
	FFmpegBinary    string `toml:"ffmpeg_binary"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the organizer.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Labels  Labels  `toml:"labels"`
	Dedup   Dedup   `toml:"dedup"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/vdo/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vdo.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// ManifestPath returns the absolute manifest file path.
func (c *Config) ManifestPath() string {
	return filepath.Join(c.Paths.DatasetRoot, c.Paths.ManifestName)
}

// AudioPath returns the absolute audio directory path.
func (c *Config) AudioPath() string {
	return filepath.Join(c.Paths.DatasetRoot, c.Paths.AudioDir)
}

// BackupRoot returns the directory under which backup runs are created.
func (c *Config) BackupRoot() string {
	if strings.TrimSpace(c.Paths.BackupDir) != "" {
		return c.Paths.BackupDir
	}
	return c.Paths.DatasetRoot
}

// LockPath returns the dataset lock file guarding plan-through-apply.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DatasetRoot, ".vdo.lock")
}

// DatabasePath returns the sqlite database backing the signature cache and
// run history.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.CacheDir, "vdo.db")
}

// EnsureDirectories creates directories the tool needs to operate.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.CacheDir}
	if strings.TrimSpace(c.Paths.LogDir) != "" {
		dirs = append(dirs, c.Paths.LogDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
