package capture

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/snapdeck/snapdeck/internal/domain/model"
	"github.com/snapdeck/snapdeck/internal/eventbus"
	"github.com/snapdeck/snapdeck/pkg/logger"
	"github.com/snapdeck/snapdeck/pkg/metrics"
)

// Default loop configuration constants.
const (
	defaultInterval      = 5 * time.Second
	defaultTimeout       = 10 * time.Second
	defaultMonitorID     = 1
	defaultEscalateAfter = 3

	loopSource = "capture-loop"
)

// State tracks the loop lifecycle: idle -> running -> {paused <-> running}
// -> stopped. Stopped is terminal; a new Start needs a fresh Loop.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Loop drives frame acquisition at a fixed cadence and injects frames into
// the pipeline as frame-captured events. It owns no comparison or storage
// logic.
type Loop struct {
	bus           *eventbus.Bus
	log           logger.Logger
	interval      time.Duration
	timeout       time.Duration
	monitorID     int
	escalateAfter int

	mu      sync.Mutex
	state   State
	session *model.Session
	backend Backend
	stopCh  chan struct{}
	doneCh  chan struct{}

	stopOnce sync.Once
	termOnce sync.Once
	captured atomic.Int64
}

// LoopOption applies a configuration option to the Loop.
type LoopOption func(*Loop)

// WithInterval sets the capture cadence.
func WithInterval(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithCaptureTimeout bounds a single backend capture call. A call that
// does not return within the bound is treated as a capture failure, not a
// hang.
func WithCaptureTimeout(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithMonitorID selects the monitor to capture.
func WithMonitorID(id int) LoopOption {
	return func(l *Loop) {
		l.monitorID = id
	}
}

// WithEscalationThreshold sets how many consecutive failures trigger a
// capture-escalated event.
func WithEscalationThreshold(n int) LoopOption {
	return func(l *Loop) {
		if n > 0 {
			l.escalateAfter = n
		}
	}
}

// WithLoopLogger sets a custom logger for the loop.
func WithLoopLogger(lg logger.Logger) LoopOption {
	return func(l *Loop) {
		if lg != nil {
			l.log = lg
		}
	}
}

// NewLoop creates a capture loop publishing on bus.
func NewLoop(bus *eventbus.Bus, opts ...LoopOption) *Loop {
	l := &Loop{
		bus:           bus,
		interval:      defaultInterval,
		timeout:       defaultTimeout,
		monitorID:     defaultMonitorID,
		escalateAfter: defaultEscalateAfter,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.log == nil {
		l.log = logger.Named("capture")
	}
	return l
}

// Start activates the session, publishes session-started once and begins
// the capture cycle on its own goroutine. The backend must already be
// initialized.
func (l *Loop) Start(ctx context.Context, session *model.Session, backend Backend) error {
	l.mu.Lock()
	if l.state != StateIdle {
		l.mu.Unlock()
		return ErrAlreadyRunning
	}
	l.state = StateRunning
	l.session = session
	l.backend = backend
	l.mu.Unlock()

	session.Activate()
	metrics.UpdateSessionsActive(1)
	l.bus.Publish(ctx, model.NewEvent(model.SessionStarted, loopSource, map[string]any{
		model.KeySessionID: session.SessionID.String(),
		model.KeyMonitorID: l.monitorID,
	}))
	l.log.Info(ctx, "capture loop started",
		logger.String("session", session.SessionID.String()),
		logger.String("backend", backend.Name()),
	)

	go l.run(ctx)
	return nil
}

// Stop requests the loop to end after the current cycle and blocks until
// it has exited. An in-flight capture finishes and its frame is still
// published. Calling Stop twice produces one termination event.
func (l *Loop) Stop() bool {
	l.mu.Lock()
	if l.state == StateIdle {
		l.mu.Unlock()
		return false
	}
	already := l.state == StateStopped
	l.mu.Unlock()

	l.stopOnce.Do(func() { close(l.stopCh) })
	<-l.doneCh
	return !already
}

// Pause suspends the cadence without tearing down backend resources.
func (l *Loop) Pause(ctx context.Context) bool {
	l.mu.Lock()
	if l.state != StateRunning {
		l.mu.Unlock()
		return false
	}
	l.state = StatePaused
	session := l.session
	l.mu.Unlock()

	session.Pause()
	l.bus.Publish(ctx, model.NewEvent(model.SessionPaused, loopSource, map[string]any{
		model.KeySessionID: session.SessionID.String(),
	}))
	return true
}

// Resume restores the cadence after a Pause.
func (l *Loop) Resume(ctx context.Context) bool {
	l.mu.Lock()
	if l.state != StatePaused {
		l.mu.Unlock()
		return false
	}
	l.state = StateRunning
	session := l.session
	l.mu.Unlock()

	session.Resume()
	l.bus.Publish(ctx, model.NewEvent(model.SessionResumed, loopSource, map[string]any{
		model.KeySessionID: session.SessionID.String(),
	}))
	return true
}

// State returns the current loop state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Captured returns the local count of successfully captured frames. The
// persisted slide total belongs to storage, not to the loop.
func (l *Loop) Captured() int64 {
	return l.captured.Load()
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.doneCh)
	consecutive := 0

	for {
		select {
		case <-l.stopCh:
			l.terminate(ctx)
			return
		case <-ctx.Done():
			l.terminate(ctx)
			return
		default:
		}

		if l.State() == StateRunning {
			l.tick(ctx, &consecutive)
		}

		select {
		case <-l.stopCh:
			l.terminate(ctx)
			return
		case <-ctx.Done():
			l.terminate(ctx)
			return
		case <-time.After(l.interval):
		}
	}
}

// tick acquires one frame and publishes the outcome. A single failure is
// logged and published, never fatal to the session.
func (l *Loop) tick(ctx context.Context, consecutive *int) {
	start := time.Now()
	frame, err := l.captureOnce(ctx)
	metrics.RecordCaptureLatency(float64(time.Since(start).Milliseconds()))

	session := l.currentSession()
	if err != nil {
		*consecutive++
		metrics.RecordCaptureFailure()
		l.log.Warn(ctx, "capture tick failed",
			logger.String("session", session.SessionID.String()),
			logger.Int("consecutive", *consecutive),
			logger.Error(err),
		)
		l.bus.Publish(ctx, model.NewEvent(model.CaptureFailed, loopSource, map[string]any{
			model.KeySessionID: session.SessionID.String(),
			model.KeyMonitorID: l.monitorID,
			model.KeyError:     err.Error(),
		}))
		if *consecutive == l.escalateAfter {
			metrics.RecordCaptureEscalation()
			l.bus.Publish(ctx, model.NewEvent(model.CaptureEscalated, loopSource, map[string]any{
				model.KeySessionID: session.SessionID.String(),
				model.KeyFailures:  *consecutive,
			}))
		}
		return
	}

	*consecutive = 0
	l.captured.Add(1)
	metrics.RecordFrameCaptured()
	l.bus.Publish(ctx, model.NewEvent(model.FrameCaptured, loopSource, map[string]any{
		model.KeySessionID: session.SessionID.String(),
		model.KeyFrame:     frame,
		model.KeyFrameID:   frame.FrameID.String(),
		model.KeyMonitorID: frame.MonitorID,
	}))
}

// captureOnce runs the backend call with an explicit bound. The loop has
// no other way to detect a stuck backend.
func (l *Loop) captureOnce(ctx context.Context) (*model.RawFrame, error) {
	type result struct {
		frame *model.RawFrame
		err   error
	}

	backend := l.currentBackend()
	cctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	ch := make(chan result, 1)
	go func() {
		frame, err := backend.Capture(cctx, l.monitorID)
		ch <- result{frame: frame, err: err}
	}()

	select {
	case r := <-ch:
		return r.frame, r.err
	case <-cctx.Done():
		return nil, &CaptureError{Backend: backend.Name(), MonitorID: l.monitorID, Err: cctx.Err()}
	}
}

// terminate runs exactly once regardless of how the loop exits: it marks
// the session completed, publishes session-stopped and releases the
// backend.
func (l *Loop) terminate(ctx context.Context) {
	l.termOnce.Do(func() {
		l.mu.Lock()
		l.state = StateStopped
		session := l.session
		backend := l.backend
		l.mu.Unlock()

		session.Complete()
		metrics.UpdateSessionsActive(0)
		l.bus.Publish(ctx, model.NewEvent(model.SessionStopped, loopSource, map[string]any{
			model.KeySessionID: session.SessionID.String(),
		}))
		if err := backend.Cleanup(); err != nil {
			l.log.Warn(ctx, "backend cleanup failed", logger.Error(err))
		}
		l.log.Info(ctx, "capture loop stopped",
			logger.String("session", session.SessionID.String()),
			logger.Int("captured", int(l.captured.Load())),
		)
	})
}

func (l *Loop) currentSession() *model.Session {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.session
}

func (l *Loop) currentBackend() Backend {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.backend
}
