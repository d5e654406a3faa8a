package app

import (
	"time"

	"github.com/snapdeck/snapdeck/internal/capture"
	"github.com/snapdeck/snapdeck/internal/domain/strategy"
	"github.com/snapdeck/snapdeck/internal/eventbus"
	"github.com/snapdeck/snapdeck/internal/registry"
	"github.com/snapdeck/snapdeck/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithBackend selects the capture backend and its settings.
func WithBackend(name string, cfg capture.Config) Option {
	return func(s *Service) {
		if name != "" {
			s.backendName = name
		}
		if cfg != nil {
			s.backendConfig = cfg
		}
	}
}

// WithStrategy selects the dedup strategy and its settings.
func WithStrategy(name string, cfg strategy.Config) Option {
	return func(s *Service) {
		if name != "" {
			s.strategyName = name
		}
		if cfg != nil {
			s.strategyConfig = cfg
		}
	}
}

// WithCaptureInterval sets the capture cadence.
func WithCaptureInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.captureInterval = d
		}
	}
}

// WithCaptureTimeout bounds a single backend capture call.
func WithCaptureTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.captureTimeout = d
		}
	}
}

// WithMonitorID selects the monitor to capture.
func WithMonitorID(id int) Option {
	return func(s *Service) {
		if id > 0 {
			s.monitorID = id
		}
	}
}

// WithEngineQueueSize bounds the engine's internal frame queue.
func WithEngineQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.engineQueueSize = size
		}
	}
}

// WithBusHistorySize bounds the event bus history.
func WithBusHistorySize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.busHistorySize = size
		}
	}
}

// WithStorage locates the slide stores and enables persistence.
func WithStorage(dataDir, databasePath string) Option {
	return func(s *Service) {
		s.dataDir = dataDir
		s.databasePath = databasePath
		s.storageEnabled = dataDir != "" && databasePath != ""
	}
}

// WithoutStorage disables persistence; classification events still flow.
func WithoutStorage() Option {
	return func(s *Service) {
		s.storageEnabled = false
	}
}

// WithSessionInfo names the capture run.
func WithSessionInfo(name, presenter string) Option {
	return func(s *Service) {
		s.sessionName = name
		s.presenter = presenter
	}
}

// WithBus injects a pre-built event bus, e.g. one a test subscribes to
// before the pipeline starts.
func WithBus(bus *eventbus.Bus) Option {
	return func(s *Service) {
		if bus != nil {
			s.bus = bus
		}
	}
}

// WithRegistry injects a pre-built plugin registry. Builtins are not
// auto-registered on an injected registry.
func WithRegistry(reg *registry.Registry) Option {
	return func(s *Service) {
		if reg != nil {
			s.reg = reg
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}
