package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/snapdeck/snapdeck/internal/domain/model"
	"github.com/snapdeck/snapdeck/internal/eventbus"
	"github.com/snapdeck/snapdeck/pkg/logger"
	"github.com/snapdeck/snapdeck/pkg/metrics"
)

const coordinatorSource = "storage"

// Coordinator subscribes to frame-unique events and persists each slide:
// image bytes through the file store, metadata through the SQLite store.
// Persistence runs on the engine's worker goroutine in sequence order, so
// the UNIQUE(session_id, seq) constraint holds without coordination. It
// never retries on the pipeline's behalf; a failure is logged and
// republished as a storage-error event.
type Coordinator struct {
	bus     *eventbus.Bus
	files   *FileStore
	meta    *SQLiteStore
	session *model.Session
	log     logger.Logger

	mu      sync.Mutex
	running bool
	subs    []eventbus.Subscription
}

// NewCoordinator wires the coordinator to its stores. The session is used
// to keep TotalSlides current after each persisted slide.
func NewCoordinator(bus *eventbus.Bus, files *FileStore, meta *SQLiteStore, session *model.Session, log logger.Logger) *Coordinator {
	if log == nil {
		log = logger.Named("storage")
	}
	return &Coordinator{
		bus:     bus,
		files:   files,
		meta:    meta,
		session: session,
		log:     log,
	}
}

// Start records the session row and subscribes to the pipeline events.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}

	if err := c.meta.UpsertSession(ctx, c.sessionRecord()); err != nil {
		return err
	}
	c.subs = []eventbus.Subscription{
		c.bus.Subscribe(model.FrameUnique, c.handleUnique),
		c.bus.Subscribe(model.SessionStopped, c.handleSessionStopped),
	}
	c.running = true
	return nil
}

// Stop unsubscribes from the bus. The stores stay open for reads until
// the owner closes them.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	for _, sub := range c.subs {
		c.bus.Unsubscribe(sub)
	}
	c.subs = nil
	c.running = false
}

// SlideCount reports the persisted slide count for a session.
func (c *Coordinator) SlideCount(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	return c.meta.SlideCount(ctx, sessionID)
}

func (c *Coordinator) handleUnique(ctx context.Context, ev model.Event) {
	start := time.Now()

	sessionID, _ := ev.SessionID()
	frame, ok := ev.Frame()
	seq, seqOK := ev.Sequence()
	if !ok || !seqOK {
		c.fail(ctx, sessionID, seq, nil)
		return
	}
	score, _ := ev.Payload[model.KeyScore].(float64)

	path, err := c.files.Write(c.session.SessionID, seq, frame.Image)
	if err != nil {
		c.fail(ctx, sessionID, seq, err)
		return
	}
	err = c.meta.InsertSlide(ctx, Slide{
		SessionID:  c.session.SessionID,
		Seq:        seq,
		FrameID:    frame.FrameID,
		Path:       path,
		Width:      frame.Width,
		Height:     frame.Height,
		Score:      score,
		CapturedAt: frame.CapturedAt,
		StoredAt:   time.Now(),
	})
	if err != nil {
		c.fail(ctx, sessionID, seq, err)
		return
	}

	total := c.session.AddSlide()
	if err := c.meta.UpsertSession(ctx, c.sessionRecord()); err != nil {
		c.log.Warn(ctx, "session row refresh failed", logger.Error(err))
	}

	metrics.RecordSlideStored()
	metrics.RecordStoreLatency(float64(time.Since(start).Milliseconds()))
	c.bus.Publish(ctx, model.NewEvent(model.FrameStored, coordinatorSource, map[string]any{
		model.KeySessionID:  sessionID,
		model.KeyFrameID:    frame.FrameID.String(),
		model.KeySequence:   seq,
		model.KeyPath:       path,
		model.KeySlideCount: total,
	}))
}

func (c *Coordinator) handleSessionStopped(ctx context.Context, _ model.Event) {
	if err := c.meta.UpsertSession(ctx, c.sessionRecord()); err != nil {
		c.log.Warn(ctx, "final session row refresh failed", logger.Error(err))
	}
}

// fail logs and republishes a persistence failure. Retry policy belongs
// to storage consumers, not to the pipeline.
func (c *Coordinator) fail(ctx context.Context, sessionID string, seq int64, err error) {
	metrics.RecordStorageError()
	msg := "malformed frame-unique payload"
	if err != nil {
		msg = err.Error()
	}
	c.log.Error(ctx, "slide persistence failed",
		logger.String("session", sessionID),
		logger.Int("sequence", int(seq)),
		logger.String("cause", msg),
	)
	c.bus.Publish(ctx, model.NewEvent(model.StorageError, coordinatorSource, map[string]any{
		model.KeySessionID: sessionID,
		model.KeySequence:  seq,
		model.KeyError:     msg,
	}))
}

func (c *Coordinator) sessionRecord() SessionRecord {
	return SessionRecord{
		SessionID:     c.session.SessionID,
		Name:          c.session.Name,
		Presenter:     c.session.Presenter,
		DedupStrategy: c.session.DedupStrategy,
		Status:        string(c.session.Status()),
		StartedAt:     c.session.StartedAt(),
		EndedAt:       c.session.EndedAt(),
		TotalSlides:   c.session.TotalSlides(),
	}
}
