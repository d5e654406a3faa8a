// Package dedup implements the deduplication engine: it classifies each
// captured frame as duplicate or unique relative to the session's last
// retained frame, using a strategy resolved from the plugin registry.
package dedup

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/snapdeck/snapdeck/internal/domain/model"
	"github.com/snapdeck/snapdeck/internal/domain/strategy"
	"github.com/snapdeck/snapdeck/internal/eventbus"
	"github.com/snapdeck/snapdeck/internal/registry"
	"github.com/snapdeck/snapdeck/pkg/logger"
	"github.com/snapdeck/snapdeck/pkg/metrics"
)

const (
	defaultQueueSize = 256

	engineSource = "dedup-engine"
)

// Stats is a snapshot of engine counters.
type Stats struct {
	Processed int64
	Unique    int64
	Duplicate int64
	Invalid   int64
}

// Engine subscribes to frame-captured events and republishes each frame
// as frame-unique or frame-duplicate. Comparison runs on a single worker
// goroutine fed by a bounded queue, which keeps the capture loop
// unblocked and preserves per-session capture order.
type Engine struct {
	bus       *eventbus.Bus
	reg       *registry.Registry
	log       logger.Logger
	queueSize int

	mu      sync.Mutex
	strat   strategy.Strategy
	running bool
	sub     eventbus.Subscription
	frames  chan model.Event
	stopCh  chan struct{}
	doneCh  chan struct{}

	// Engine-private per-session state, touched only by the worker.
	lastRetained map[string]*model.RawFrame
	nextSeq      map[string]int64

	processed atomic.Int64
	unique    atomic.Int64
	duplicate atomic.Int64
	invalid   atomic.Int64
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithQueueSize bounds the internal frame queue.
func WithQueueSize(size int) Option {
	return func(e *Engine) {
		if size > 0 {
			e.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New creates an engine over the given bus and registry. Initialize must
// succeed before Start.
func New(bus *eventbus.Bus, reg *registry.Registry, opts ...Option) *Engine {
	e := &Engine{
		bus:          bus,
		reg:          reg,
		queueSize:    defaultQueueSize,
		lastRetained: map[string]*model.RawFrame{},
		nextSeq:      map[string]int64{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.Named("dedup")
	}
	return e
}

// Initialize resolves the strategy from the registry and configures it.
// An unregistered name surfaces registry.ErrStrategyNotFound before any
// capture begins; there is no silent fallback to a default.
func (e *Engine) Initialize(strategyName string, cfg strategy.Config) error {
	factory, err := e.reg.Strategy(strategyName)
	if err != nil {
		return err
	}
	s := factory()
	if err := s.Configure(cfg); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.strat = s
	return nil
}

// Start subscribes to frame-captured events and launches the comparison
// worker.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.strat == nil {
		return ErrNotInitialized
	}
	if e.running {
		return ErrAlreadyRunning
	}

	e.frames = make(chan model.Event, e.queueSize)
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})
	e.running = true
	e.sub = e.bus.Subscribe(model.FrameCaptured, e.enqueue)

	go e.worker(ctx)
	e.log.Info(ctx, "dedup engine started",
		logger.String("strategy", e.strat.Name()),
		logger.Int("queue_size", e.queueSize),
	)
	return nil
}

// Stop unsubscribes, drains the remaining queued frames and waits for the
// worker to exit. Safe to call more than once.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	sub := e.sub
	e.mu.Unlock()

	e.bus.Unsubscribe(sub)
	close(e.stopCh)
	<-e.doneCh
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Processed: e.processed.Load(),
		Unique:    e.unique.Load(),
		Duplicate: e.duplicate.Load(),
		Invalid:   e.invalid.Load(),
	}
}

// StrategyName returns the active strategy name, or empty before
// Initialize.
func (e *Engine) StrategyName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.strat == nil {
		return ""
	}
	return e.strat.Name()
}

// enqueue hands a captured frame to the worker. The send applies
// backpressure rather than dropping, so every frame still reaches exactly
// one terminal outcome even when comparison falls behind.
func (e *Engine) enqueue(ctx context.Context, ev model.Event) {
	select {
	case e.frames <- ev:
		metrics.UpdateEngineQueueDepth(len(e.frames))
	case <-e.stopCh:
	case <-ctx.Done():
	}
}

func (e *Engine) worker(ctx context.Context) {
	defer close(e.doneCh)
	for {
		select {
		case ev := <-e.frames:
			e.process(ctx, ev)
		case <-e.stopCh:
			// Drain whatever the capture loop already published.
			for {
				select {
				case ev := <-e.frames:
					e.process(ctx, ev)
				default:
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// process classifies a single captured frame. Errors here are local to
// one comparison and never escalate beyond a logged event.
func (e *Engine) process(ctx context.Context, ev model.Event) {
	metrics.UpdateEngineQueueDepth(len(e.frames))
	e.processed.Add(1)

	sessionID, _ := ev.SessionID()
	frame, ok := ev.Frame()
	if !ok || !frame.Valid() {
		e.markInvalid(ctx, sessionID, frame)
		return
	}

	prev := e.lastRetained[sessionID]
	if prev == nil {
		// First frame of a session is trivially unique and becomes the
		// baseline.
		e.markUnique(ctx, sessionID, frame, model.ComparisonResult{
			SimilarityScore: 0,
			StrategyName:    e.StrategyName(),
		})
		return
	}

	res, err := e.compare(frame, prev)
	if err != nil {
		e.log.Error(ctx, "comparison failed, dropping frame",
			logger.String("session", sessionID),
			logger.String("frame", frame.FrameID.String()),
			logger.Error(err),
		)
		e.markInvalid(ctx, sessionID, frame)
		return
	}
	metrics.RecordComparisonLatency(res.StrategyName, float64(res.Elapsed.Milliseconds()))

	if res.IsDuplicate {
		e.duplicate.Add(1)
		metrics.RecordFrameDuplicate()
		e.bus.Publish(ctx, model.NewEvent(model.FrameDuplicate, engineSource, map[string]any{
			model.KeySessionID: sessionID,
			model.KeyFrameID:   frame.FrameID.String(),
			model.KeyScore:     res.SimilarityScore,
			model.KeyStrategy:  res.StrategyName,
		}))
		return
	}
	e.markUnique(ctx, sessionID, frame, res)
}

func (e *Engine) compare(current, previous *model.RawFrame) (model.ComparisonResult, error) {
	e.mu.Lock()
	s := e.strat
	e.mu.Unlock()
	return s.Compare(current, previous)
}

// markUnique updates the retained baseline, assigns the next gapless
// sequence number for the session and republishes the frame.
func (e *Engine) markUnique(ctx context.Context, sessionID string, frame *model.RawFrame, res model.ComparisonResult) {
	e.lastRetained[sessionID] = frame
	e.nextSeq[sessionID]++
	seq := e.nextSeq[sessionID]

	e.unique.Add(1)
	metrics.RecordFrameUnique()
	e.bus.Publish(ctx, model.NewEvent(model.FrameUnique, engineSource, map[string]any{
		model.KeySessionID: sessionID,
		model.KeyFrame:     frame,
		model.KeyFrameID:   frame.FrameID.String(),
		model.KeySequence:  seq,
		model.KeyScore:     res.SimilarityScore,
		model.KeyStrategy:  res.StrategyName,
	}))
}

// markInvalid drops a corrupt or zero-size frame: neither duplicate nor
// unique, it consumes no sequence number.
func (e *Engine) markInvalid(ctx context.Context, sessionID string, frame *model.RawFrame) {
	e.invalid.Add(1)
	metrics.RecordFrameInvalid()
	id := "unknown"
	if frame != nil {
		id = frame.FrameID.String()
	}
	e.log.Warn(ctx, "invalid capture dropped",
		logger.String("session", sessionID),
		logger.String("frame", id),
	)
}
