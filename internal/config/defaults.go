package config

const (
	defaultAudioDir        = "raw"
	defaultManifestName    = "esd.list"
	defaultCacheDir        = "~/.cache/vdo"
	defaultFallbackLabel   = "Neutral"
	defaultSampleRate      = 16000
	defaultTrimThresholdDB = 40
	defaultHashSampleRate  = 2000
	defaultQuantizeLevels  = 15
	defaultKeepPolicy      = "manifest-order"
	defaultRedundantAction = "quarantine"
	defaultFFmpegBinary    = "ffmpeg"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

func defaultEmotions() []string {
	return []string{"Neutral", "Happy", "Sad", "Angry", "Surprised", "Fearful", "Disgusted"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			AudioDir:     defaultAudioDir,
			ManifestName: defaultManifestName,
			CacheDir:     defaultCacheDir,
		},
		Labels: Labels{
			Emotions: defaultEmotions(),
			Fallback: defaultFallbackLabel,
		},
		Dedup: Dedup{
			SampleRate:        defaultSampleRate,
			TrimThresholdDB:   defaultTrimThresholdDB,
			HashSampleRate:    defaultHashSampleRate,
			QuantizeLevels:    defaultQuantizeLevels,
			Tolerance:         0,
			GroupByTranscript: true,
			KeepPolicy:        defaultKeepPolicy,
			RedundantAction:   defaultRedundantAction,
			FFmpegBinary:      defaultFFmpegBinary,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
