// Package app wires the pipeline together: it resolves the configured
// backend and strategy from the registry, builds the bus, capture loop,
// dedup engine and storage coordinator, and owns their lifecycle.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/snapdeck/snapdeck/internal/capture"
	"github.com/snapdeck/snapdeck/internal/config"
	"github.com/snapdeck/snapdeck/internal/dedup"
	"github.com/snapdeck/snapdeck/internal/domain/model"
	"github.com/snapdeck/snapdeck/internal/domain/strategy"
	"github.com/snapdeck/snapdeck/internal/eventbus"
	"github.com/snapdeck/snapdeck/internal/registry"
	"github.com/snapdeck/snapdeck/internal/storage"
	"github.com/snapdeck/snapdeck/pkg/logger"
)

// Service runs one capture session end to end. One active session owns at
// most one capture loop instance; a new run needs a fresh Service.
type Service struct {
	mu sync.Mutex

	// Configuration
	backendName     string
	backendConfig   capture.Config
	strategyName    string
	strategyConfig  strategy.Config
	captureInterval time.Duration
	captureTimeout  time.Duration
	monitorID       int
	engineQueueSize int
	busHistorySize  int
	dataDir         string
	databasePath    string
	sessionName     string
	presenter       string
	storageEnabled  bool

	// Components
	bus         *eventbus.Bus
	reg         *registry.Registry
	loop        *capture.Loop
	engine      *dedup.Engine
	coordinator *storage.Coordinator
	files       *storage.FileStore
	meta        *storage.SQLiteStore
	session     *model.Session
	backend     capture.Backend

	started bool
	log     logger.Logger
}

// New constructs a Service with defaults; options override them.
func New(opts ...Option) *Service {
	s := &Service{
		backendName:     "synthetic",
		backendConfig:   capture.Config{},
		strategyName:    strategy.HybridName,
		strategyConfig:  strategy.Config{},
		captureInterval: 5 * time.Second,
		captureTimeout:  10 * time.Second,
		monitorID:       1,
		engineQueueSize: 256,
		busHistorySize:  1000,
		storageEnabled:  true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FromConfig builds the option set corresponding to a loaded Config.
func FromConfig(cfg *config.Config) []Option {
	return []Option{
		WithBackend(cfg.CaptureBackend, capture.Config(cfg.CaptureConfig)),
		WithStrategy(cfg.DedupStrategy, strategy.Config{
			"threshold":      cfg.Dedup.Threshold,
			"hash_size":      cfg.Dedup.HashSize,
			"hash_algorithm": cfg.Dedup.HashAlgorithm,
		}),
		WithCaptureInterval(secondsToDuration(cfg.CaptureIntervalSeconds)),
		WithCaptureTimeout(secondsToDuration(cfg.CaptureTimeoutSeconds)),
		WithMonitorID(cfg.MonitorID),
		WithEngineQueueSize(cfg.EngineQueueSize),
		WithBusHistorySize(cfg.BusHistorySize),
		WithStorage(cfg.Storage.DataDir, cfg.Storage.DatabasePath),
		WithSessionInfo(cfg.Session.Name, cfg.Session.Presenter),
	}
}

// Start initializes and starts the pipeline components. Initialization
// errors (unknown strategy, backend that cannot start) are hard failures
// surfaced before any capture begins.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.log == nil {
		s.log = logger.Named("app")
	}
	if s.bus == nil {
		s.bus = eventbus.New(eventbus.WithHistorySize(s.busHistorySize))
	}
	if s.reg == nil {
		s.reg = registry.New()
		RegisterBuiltins(s.reg)
	}

	// Resolve and initialize the backend first; a backend that cannot
	// start is fatal and operator-recoverable.
	backendFactory, err := s.reg.Backend(s.backendName)
	if err != nil {
		return fmt.Errorf("%w: %v", capture.ErrBackendUnavailable, err)
	}
	backend := backendFactory()
	if err := backend.Initialize(ctx, s.backendConfig); err != nil {
		return fmt.Errorf("initialize backend %q: %w", s.backendName, err)
	}
	s.backend = backend

	// The strategy must resolve before any capture begins; no fallback.
	s.engine = dedup.New(s.bus, s.reg, dedup.WithQueueSize(s.engineQueueSize))
	if err := s.engine.Initialize(s.strategyName, s.strategyConfig); err != nil {
		_ = backend.Cleanup()
		return err
	}

	s.session = model.NewSession(s.sessionName, s.presenter, s.strategyName, s.captureInterval)

	if s.storageEnabled {
		files, err := storage.NewFileStore(s.dataDir)
		if err != nil {
			return err
		}
		meta, err := storage.OpenSQLite(ctx, s.databasePath)
		if err != nil {
			return err
		}
		s.files = files
		s.meta = meta
		s.coordinator = storage.NewCoordinator(s.bus, files, meta, s.session, nil)
		if err := s.coordinator.Start(ctx); err != nil {
			meta.Close()
			return err
		}
	}

	if err := s.engine.Start(ctx); err != nil {
		return err
	}

	s.loop = capture.NewLoop(s.bus,
		capture.WithInterval(s.captureInterval),
		capture.WithCaptureTimeout(s.captureTimeout),
		capture.WithMonitorID(s.monitorID),
	)
	if err := s.loop.Start(ctx, s.session, backend); err != nil {
		s.engine.Stop()
		return err
	}

	s.started = true
	s.log.Info(ctx, "pipeline started",
		logger.String("session", s.session.SessionID.String()),
		logger.String("backend", s.backendName),
		logger.String("strategy", s.strategyName),
	)
	return nil
}

// Stop tears the pipeline down in data-flow order: loop first so no new
// frames arrive, then the engine drains, then storage unsubscribes.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	if s.loop != nil {
		s.loop.Stop()
	}
	if s.engine != nil {
		s.engine.Stop()
	}
	if s.coordinator != nil {
		s.coordinator.Stop()
	}
	if s.meta != nil {
		_ = s.meta.Close()
	}

	s.started = false
	s.log.Info(context.Background(), "pipeline stopped")
}

// Pause suspends the capture cadence.
func (s *Service) Pause(ctx context.Context) bool {
	s.mu.Lock()
	loop := s.loop
	s.mu.Unlock()
	if loop == nil {
		return false
	}
	return loop.Pause(ctx)
}

// Resume restores the capture cadence.
func (s *Service) Resume(ctx context.Context) bool {
	s.mu.Lock()
	loop := s.loop
	s.mu.Unlock()
	if loop == nil {
		return false
	}
	return loop.Resume(ctx)
}

// Session returns the active session, or nil before Start.
func (s *Service) Session() *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Bus returns the service's event bus for external subscribers.
func (s *Service) Bus() *eventbus.Bus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bus
}

// SlideCount reports the persisted slide count for the active session.
func (s *Service) SlideCount(ctx context.Context) (int64, error) {
	s.mu.Lock()
	coordinator := s.coordinator
	session := s.session
	s.mu.Unlock()
	if coordinator == nil || session == nil {
		return 0, nil
	}
	return coordinator.SlideCount(ctx, session.SessionID)
}

// Stats returns pipeline statistics for monitoring.
func (s *Service) Stats() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := map[string]any{
		"started":  s.started,
		"backend":  s.backendName,
		"strategy": s.strategyName,
	}
	if s.session != nil {
		stats["session_id"] = s.session.SessionID.String()
		stats["status"] = string(s.session.Status())
		stats["total_slides"] = s.session.TotalSlides()
	}
	if s.loop != nil {
		stats["captured"] = s.loop.Captured()
		stats["loop_state"] = s.loop.State().String()
	}
	if s.engine != nil {
		es := s.engine.Stats()
		stats["processed"] = es.Processed
		stats["unique"] = es.Unique
		stats["duplicate"] = es.Duplicate
		stats["invalid"] = es.Invalid
	}
	return stats
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
