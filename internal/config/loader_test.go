package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/snapdeck/snapdeck/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SNAPDECK_CONFIG", "")

	Convey("Given no file and no environment overrides", t, func() {
		cfg, err := config.Load(context.Background())

		Convey("Then the defaults load and validate", func() {
			So(err, ShouldBeNil)
			So(cfg.LogLevel, ShouldEqual, "info")
			So(cfg.MetricsAddr, ShouldEqual, ":9090")
			So(cfg.CaptureBackend, ShouldEqual, "synthetic")
			So(cfg.DedupStrategy, ShouldEqual, "hybrid")
			So(cfg.CaptureIntervalSeconds, ShouldEqual, 5.0)
			So(cfg.CaptureTimeoutSeconds, ShouldEqual, 10.0)
			So(cfg.Dedup.Threshold, ShouldEqual, 0.95)
			So(cfg.Dedup.HashSize, ShouldEqual, 8)
			So(cfg.Dedup.HashAlgorithm, ShouldEqual, "sha256")
			So(cfg.EngineQueueSize, ShouldEqual, 256)
			So(cfg.Storage.DataDir, ShouldEqual, "./slides")
		})
	})
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapdeck.yaml")
	yaml := `
capture_backend: directory
capture_config:
  path: /decks/demo
  loop: true
dedup_strategy: perceptual
dedup:
  threshold: 0.9
  hash_size: 16
session:
  name: launch rehearsal
  presenter: jo
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SNAPDECK_CONFIG", path)

	Convey("Given a YAML config file", t, func() {
		cfg, err := config.Load(context.Background())

		Convey("Then file values override the defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.CaptureBackend, ShouldEqual, "directory")
			So(cfg.CaptureConfig["path"], ShouldEqual, "/decks/demo")
			So(cfg.CaptureConfig["loop"], ShouldEqual, true)
			So(cfg.DedupStrategy, ShouldEqual, "perceptual")
			So(cfg.Dedup.Threshold, ShouldEqual, 0.9)
			So(cfg.Dedup.HashSize, ShouldEqual, 16)
			So(cfg.Session.Name, ShouldEqual, "launch rehearsal")
			So(cfg.Session.Presenter, ShouldEqual, "jo")
		})

		Convey("And untouched settings keep their defaults", func() {
			So(cfg.MetricsAddr, ShouldEqual, ":9090")
			So(cfg.EngineQueueSize, ShouldEqual, 256)
		})
	})

	Convey("Given a config path that does not exist", t, func() {
		t.Setenv("SNAPDECK_CONFIG", filepath.Join(dir, "missing.yaml"))
		_, err := config.Load(context.Background())

		Convey("Then loading fails with ErrLoadConfig", func() {
			So(errors.Is(err, config.ErrLoadConfig), ShouldBeTrue)
		})
	})
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SNAPDECK_CONFIG", "")
	t.Setenv("SNAPDECK_DEDUP_STRATEGY", "exact")
	t.Setenv("SNAPDECK_CAPTURE_BACKEND", "directory")
	t.Setenv("SNAPDECK_STORAGE__DATA_DIR", "/var/lib/snapdeck/slides")

	Convey("Given environment overrides", t, func() {
		cfg, err := config.Load(context.Background())

		Convey("Then they take precedence over the defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.DedupStrategy, ShouldEqual, "exact")
			So(cfg.CaptureBackend, ShouldEqual, "directory")
			So(cfg.Storage.DataDir, ShouldEqual, "/var/lib/snapdeck/slides")
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given configurations the pipeline cannot start with", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty backend", func(c *config.Config) { c.CaptureBackend = "" }},
			{"empty strategy", func(c *config.Config) { c.DedupStrategy = "" }},
			{"non-positive interval", func(c *config.Config) { c.CaptureIntervalSeconds = 0 }},
			{"non-positive timeout", func(c *config.Config) { c.CaptureTimeoutSeconds = -1 }},
			{"threshold too low", func(c *config.Config) { c.Dedup.Threshold = 0 }},
			{"threshold too high", func(c *config.Config) { c.Dedup.Threshold = 1.5 }},
			{"unsupported hash size", func(c *config.Config) { c.Dedup.HashSize = 12 }},
			{"empty metrics addr", func(c *config.Config) { c.MetricsAddr = "" }},
		}

		for _, tc := range cases {
			Convey("Then validation rejects "+tc.name, func() {
				cfg := config.New()
				tc.mutate(cfg)
				err := cfg.Validate()
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		}
	})

	Convey("Given the default configuration", t, func() {
		Convey("Then it validates", func() {
			So(config.New().Validate(), ShouldBeNil)
		})
	})
}
