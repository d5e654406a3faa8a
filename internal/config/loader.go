package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if SNAPDECK_CONFIG is set
//  3. env (prefix SNAPDECK_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("SNAPDECK_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: SNAPDECK_CAPTURE_BACKEND, SNAPDECK_DEDUP_STRATEGY, ...
	// Keys keep their underscores to match the koanf tags on the struct;
	// nested sections use double underscores (SNAPDECK_STORAGE__DATA_DIR).
	envProvider := env.Provider("SNAPDECK_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "snapdeck_")
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the pipeline could not start with.
func (c *Config) Validate() error {
	if c.CaptureBackend == "" {
		return fmt.Errorf("%w: capture_backend must not be empty", ErrInvalidConfig)
	}
	if c.DedupStrategy == "" {
		return fmt.Errorf("%w: dedup_strategy must not be empty", ErrInvalidConfig)
	}
	if c.CaptureIntervalSeconds <= 0 {
		return fmt.Errorf("%w: capture_interval_seconds must be positive", ErrInvalidConfig)
	}
	if c.CaptureTimeoutSeconds <= 0 {
		return fmt.Errorf("%w: capture_timeout_seconds must be positive", ErrInvalidConfig)
	}
	if c.Dedup.Threshold <= 0 || c.Dedup.Threshold > 1 {
		return fmt.Errorf("%w: dedup.threshold must be in (0, 1]", ErrInvalidConfig)
	}
	if c.Dedup.HashSize != 8 && c.Dedup.HashSize != 16 {
		return fmt.Errorf("%w: dedup.hash_size must be 8 or 16", ErrInvalidConfig)
	}
	if c.MetricsAddr == "" {
		return fmt.Errorf("%w: metrics_addr must not be empty", ErrInvalidConfig)
	}
	return nil
}
