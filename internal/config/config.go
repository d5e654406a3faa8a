// Package config defines pipeline configuration structures and loading.
//
// Conventions:
// - Provide New() defaults and Load(ctx) layering file and env on top.
// - External errors are wrapped via this package's sentinel errors.
package config

// DedupConfig carries strategy settings.
type DedupConfig struct {
	// Threshold is the perceptual similarity cutoff in (0, 1]; the
	// operator-facing tolerance control maps onto it.
	Threshold float64 `koanf:"threshold"`

	// HashSize selects the perceptual fingerprint resolution: 8 or 16.
	HashSize int `koanf:"hash_size"`

	// HashAlgorithm selects the exact-strategy digest: md5, sha1, sha256.
	HashAlgorithm string `koanf:"hash_algorithm"`
}

// StorageConfig locates the slide stores.
type StorageConfig struct {
	// DataDir is the root for slide image files.
	DataDir string `koanf:"data_dir"`

	// DatabasePath is the SQLite metadata database file.
	DatabasePath string `koanf:"database_path"`
}

// SessionConfig names the capture run.
type SessionConfig struct {
	Name      string `koanf:"name"`
	Presenter string `koanf:"presenter"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// MetricsAddr configures the Prometheus/health listen address.
	MetricsAddr string `koanf:"metrics_addr"`

	// CaptureBackend names the registered backend driving captures.
	CaptureBackend string `koanf:"capture_backend"`

	// CaptureConfig carries backend-specific settings.
	CaptureConfig map[string]any `koanf:"capture_config"`

	// MonitorID selects the display to capture.
	MonitorID int `koanf:"monitor_id"`

	// CaptureIntervalSeconds is the cadence between capture ticks.
	CaptureIntervalSeconds float64 `koanf:"capture_interval_seconds"`

	// CaptureTimeoutSeconds bounds a single backend capture call.
	CaptureTimeoutSeconds float64 `koanf:"capture_timeout_seconds"`

	// DedupStrategy names the registered duplicate-detection strategy.
	DedupStrategy string `koanf:"dedup_strategy"`

	// Dedup carries strategy settings.
	Dedup DedupConfig `koanf:"dedup"`

	// EngineQueueSize bounds the engine's internal frame queue.
	EngineQueueSize int `koanf:"engine_queue_size"`

	// BusHistorySize bounds the event bus history.
	BusHistorySize int `koanf:"bus_history_size"`

	// Storage locates the slide stores.
	Storage StorageConfig `koanf:"storage"`

	// Session names the capture run.
	Session SessionConfig `koanf:"session"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		MetricsAddr:            ":9090",
		CaptureBackend:         "synthetic",
		CaptureConfig:          map[string]any{},
		MonitorID:              1,
		CaptureIntervalSeconds: 5.0,
		CaptureTimeoutSeconds:  10.0,
		DedupStrategy:          "hybrid",
		Dedup: DedupConfig{
			Threshold:     0.95,
			HashSize:      8,
			HashAlgorithm: "sha256",
		},
		EngineQueueSize: 256,
		BusHistorySize:  1000,
		Storage: StorageConfig{
			DataDir:      "./slides",
			DatabasePath: "./snapdeck.db",
		},
	}
}
