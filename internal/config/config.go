// Package config provides the configuration schema and loader for the
// sonavox CLI.
package config

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure, typically loaded from a YAML
// file using [Load] or [LoadFromReader].
type Config struct {
	LogLevel  LogLevel        `yaml:"log_level"`
	Recording RecordingConfig `yaml:"recording"`
	Playback  PlaybackConfig  `yaml:"playback"`
	Providers ProvidersConfig `yaml:"providers"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// RecordingConfig holds the microphone capture settings.
type RecordingConfig struct {
	// Channels to capture, 1 or 2.
	Channels int `yaml:"channels"`

	// SampleRate in Hz.
	SampleRate int `yaml:"sample_rate"`

	// BitsPerSample, 8 or 16.
	BitsPerSample int `yaml:"bits_per_sample"`

	// MaxSeconds stops a recording after this much audio. 0 disables it.
	MaxSeconds float64 `yaml:"max_seconds"`

	// MaxQuietSeconds stops a recording after this much continuous trailing
	// silence. 0 disables it.
	MaxQuietSeconds float64 `yaml:"max_quiet_seconds"`

	// QuietThreshold is the normalised RMS amplitude below which audio
	// counts as silence. 0 means calibrate at startup.
	QuietThreshold float64 `yaml:"quiet_threshold"`

	// SecondsPerChunk sizes each capture buffer.
	SecondsPerChunk float64 `yaml:"seconds_per_chunk"`

	// WaitForSound discards leading silence until the first active chunk.
	WaitForSound *bool `yaml:"wait_for_sound"`

	// Device selects the capture device by id. Empty means the default.
	Device string `yaml:"device"`
}

// PlaybackConfig holds the output device settings.
type PlaybackConfig struct {
	// Device selects the playback device by id. Empty means the default.
	Device string `yaml:"device"`
}

// ProvidersConfig holds credentials and endpoints for the cloud services.
type ProvidersConfig struct {
	Speech   SpeechConfig   `yaml:"speech"`
	Language LanguageConfig `yaml:"language"`
	Emotion  EmotionConfig  `yaml:"emotion"`
}

// SpeechConfig configures the speech synthesis/recognition client.
type SpeechConfig struct {
	// APIKey is the subscription key. Required for say/listen.
	APIKey string `yaml:"api_key"`

	// Locale for synthesis and recognition, e.g. "en-US".
	Locale string `yaml:"locale"`

	// Gender of the synthesis voice, "Female" or "Male".
	Gender string `yaml:"gender"`
}

// LanguageConfig configures the language understanding client.
type LanguageConfig struct {
	// URL is the full deployment URL, ending in "&q=".
	URL string `yaml:"url"`
}

// EmotionConfig configures the emotion recognition client.
type EmotionConfig struct {
	// APIKey is the subscription key.
	APIKey string `yaml:"api_key"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	// ListenAddr is the address the /metrics endpoint listens on
	// (e.g. ":9090"). Empty disables metrics serving.
	ListenAddr string `yaml:"listen_addr"`
}

// Default returns the configuration used when no file is given: mono 8-bit
// 11025 Hz capture, one second trailing-silence limit, no duration limit.
func Default() *Config {
	wait := true
	return &Config{
		LogLevel: LogInfo,
		Recording: RecordingConfig{
			Channels:        1,
			SampleRate:      11025,
			BitsPerSample:   8,
			MaxQuietSeconds: 1,
			QuietThreshold:  0.005,
			SecondsPerChunk: 0.5,
			WaitForSound:    &wait,
		},
		Providers: ProvidersConfig{
			Speech: SpeechConfig{
				Locale: "en-US",
				Gender: "Female",
			},
		},
	}
}
