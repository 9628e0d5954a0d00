package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and
// [Validate]. Fields absent from the file keep the [Default] values.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r over the defaults and
// validates the result. Unknown fields are rejected. Useful in tests where
// configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	rec := cfg.Recording
	if rec.Channels != 1 && rec.Channels != 2 {
		errs = append(errs, fmt.Errorf("recording.channels %d is invalid; valid values: 1, 2", rec.Channels))
	}
	if rec.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("recording.sample_rate %d must be positive", rec.SampleRate))
	}
	if rec.BitsPerSample != 8 && rec.BitsPerSample != 16 {
		errs = append(errs, fmt.Errorf("recording.bits_per_sample %d is invalid; valid values: 8, 16", rec.BitsPerSample))
	}
	if rec.MaxSeconds < 0 {
		errs = append(errs, fmt.Errorf("recording.max_seconds %.2f must not be negative", rec.MaxSeconds))
	}
	if rec.MaxQuietSeconds < 0 {
		errs = append(errs, fmt.Errorf("recording.max_quiet_seconds %.2f must not be negative", rec.MaxQuietSeconds))
	}
	if rec.QuietThreshold < 0 || rec.QuietThreshold >= 1 {
		errs = append(errs, fmt.Errorf("recording.quiet_threshold %.4f is out of range [0, 1)", rec.QuietThreshold))
	}
	if rec.SecondsPerChunk <= 0 {
		errs = append(errs, fmt.Errorf("recording.seconds_per_chunk %.2f must be positive", rec.SecondsPerChunk))
	}

	if rec.MaxSeconds == 0 && rec.MaxQuietSeconds == 0 {
		slog.Warn("recording.max_seconds and recording.max_quiet_seconds are both disabled; recordings will run until the device fails")
	}

	if cfg.Providers.Language.URL != "" && !strings.HasSuffix(cfg.Providers.Language.URL, "&q=") {
		errs = append(errs, fmt.Errorf(`providers.language.url must end with "&q="`))
	}
	if cfg.Providers.Speech.Gender != "" &&
		cfg.Providers.Speech.Gender != "Female" && cfg.Providers.Speech.Gender != "Male" {
		errs = append(errs, fmt.Errorf("providers.speech.gender %q is invalid; valid values: Female, Male", cfg.Providers.Speech.Gender))
	}

	return errors.Join(errs...)
}
