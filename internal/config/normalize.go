package config

import (
	"runtime"
	"strings"
)

// normalize expands path fields, trims free-form strings, and fills
// derived defaults after decoding.
func (c *Config) normalize() error {
	var err error

	if c.Paths.DatasetRoot = strings.TrimSpace(c.Paths.DatasetRoot); c.Paths.DatasetRoot != "" {
		if c.Paths.DatasetRoot, err = expandPath(c.Paths.DatasetRoot); err != nil {
			return err
		}
	}
	if c.Paths.BackupDir = strings.TrimSpace(c.Paths.BackupDir); c.Paths.BackupDir != "" {
		if c.Paths.BackupDir, err = expandPath(c.Paths.BackupDir); err != nil {
			return err
		}
	}
	if c.Paths.LogDir = strings.TrimSpace(c.Paths.LogDir); c.Paths.LogDir != "" {
		if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
			return err
		}
	}
	if c.Paths.CacheDir = strings.TrimSpace(c.Paths.CacheDir); c.Paths.CacheDir == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return err
	}

	if c.Paths.AudioDir = strings.TrimSpace(c.Paths.AudioDir); c.Paths.AudioDir == "" {
		c.Paths.AudioDir = defaultAudioDir
	}
	if c.Paths.ManifestName = strings.TrimSpace(c.Paths.ManifestName); c.Paths.ManifestName == "" {
		c.Paths.ManifestName = defaultManifestName
	}

	labels := make([]string, 0, len(c.Labels.Emotions))
	seen := map[string]struct{}{}
	for _, label := range c.Labels.Emotions {
		trimmed := strings.TrimSpace(label)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		labels = append(labels, trimmed)
	}
	if len(labels) == 0 {
		labels = defaultEmotions()
	}
	c.Labels.Emotions = labels
	if c.Labels.Fallback = strings.TrimSpace(c.Labels.Fallback); c.Labels.Fallback == "" {
		c.Labels.Fallback = defaultFallbackLabel
	}

	c.Dedup.KeepPolicy = strings.ToLower(strings.TrimSpace(c.Dedup.KeepPolicy))
	if c.Dedup.KeepPolicy == "" {
		c.Dedup.KeepPolicy = defaultKeepPolicy
	}
	c.Dedup.RedundantAction = strings.ToLower(strings.TrimSpace(c.Dedup.RedundantAction))
	if c.Dedup.RedundantAction == "" {
		c.Dedup.RedundantAction = defaultRedundantAction
	}
	if c.Dedup.FFmpegBinary = strings.TrimSpace(c.Dedup.FFmpegBinary); c.Dedup.FFmpegBinary == "" {
		c.Dedup.FFmpegBinary = defaultFFmpegBinary
	}
	if c.Dedup.Workers <= 0 {
		c.Dedup.Workers = runtime.NumCPU()
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	return nil
}
