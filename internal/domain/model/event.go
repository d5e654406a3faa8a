// Package model contains domain models passed between pipeline stages.
package model

import "time"

// Kind identifies a class of pipeline event.
type Kind string

// Event kinds crossing the pipeline boundary. The strings are stable so
// external subscribers can rely on them.
const (
	SessionStarted   Kind = "session-started"
	SessionStopped   Kind = "session-stopped"
	SessionPaused    Kind = "session-paused"
	SessionResumed   Kind = "session-resumed"
	FrameCaptured    Kind = "frame-captured"
	CaptureFailed    Kind = "capture-failed"
	CaptureEscalated Kind = "capture-escalated"
	FrameDuplicate   Kind = "frame-duplicate"
	FrameUnique      Kind = "frame-unique"
	FrameStored      Kind = "frame-stored"
	StorageError     Kind = "storage-error"
)

// Well-known payload keys.
const (
	KeySessionID  = "session_id"
	KeyFrame      = "frame"
	KeyFrameID    = "frame_id"
	KeySequence   = "sequence"
	KeyScore      = "similarity_score"
	KeyStrategy   = "strategy"
	KeyMonitorID  = "monitor_id"
	KeyError      = "error"
	KeyPath       = "path"
	KeyFailures   = "consecutive_failures"
	KeySlideCount = "slide_count"
)

// Event is the unit of communication between pipeline stages. Events are
// immutable once published; payloads must not be mutated by handlers.
type Event struct {
	Kind      Kind
	Payload   map[string]any
	Timestamp time.Time
	Source    string
}

// NewEvent builds an event with the timestamp set to now.
func NewEvent(kind Kind, source string, payload map[string]any) Event {
	if payload == nil {
		payload = map[string]any{}
	}
	return Event{
		Kind:      kind,
		Payload:   payload,
		Timestamp: time.Now(),
		Source:    source,
	}
}

// SessionID extracts the session id from the payload, if present.
func (e Event) SessionID() (string, bool) {
	v, ok := e.Payload[KeySessionID].(string)
	return v, ok
}

// Frame extracts the raw frame from the payload, if present.
func (e Event) Frame() (*RawFrame, bool) {
	v, ok := e.Payload[KeyFrame].(*RawFrame)
	return v, ok
}

// Sequence extracts the slide sequence number from the payload, if present.
func (e Event) Sequence() (int64, bool) {
	v, ok := e.Payload[KeySequence].(int64)
	return v, ok
}
