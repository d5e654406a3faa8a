package model

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionStatus tracks a session through its lifecycle.
type SessionStatus string

const (
	StatusCreated   SessionStatus = "created"
	StatusActive    SessionStatus = "active"
	StatusPaused    SessionStatus = "paused"
	StatusCompleted SessionStatus = "completed"
)

// Session is one bounded capture run, from start to stop. One active
// session owns at most one capture loop instance. Status is mutated by the
// capture loop and TotalSlides by the storage coordinator, so access goes
// through the locked accessors.
type Session struct {
	SessionID       uuid.UUID
	Name            string
	Presenter       string
	CaptureInterval time.Duration
	DedupStrategy   string

	mu          sync.Mutex
	startedAt   time.Time
	endedAt     time.Time
	status      SessionStatus
	totalSlides int64
}

// NewSession creates a session in the created state.
func NewSession(name, presenter, dedupStrategy string, interval time.Duration) *Session {
	return &Session{
		SessionID:       uuid.New(),
		Name:            name,
		Presenter:       presenter,
		CaptureInterval: interval,
		DedupStrategy:   dedupStrategy,
		startedAt:       time.Now(),
		status:          StatusCreated,
	}
}

// Status returns the current lifecycle status.
func (s *Session) Status() SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Activate marks the session active and stamps the start time.
func (s *Session) Activate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusActive
	s.startedAt = time.Now()
}

// Pause marks the session paused. Only an active session can pause.
func (s *Session) Pause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusActive {
		return false
	}
	s.status = StatusPaused
	return true
}

// Resume marks a paused session active again.
func (s *Session) Resume() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusPaused {
		return false
	}
	s.status = StatusActive
	return true
}

// Complete terminates the session and stamps the end time. Completed is
// terminal.
func (s *Session) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusCompleted
	s.endedAt = time.Now()
}

// AddSlide increments the persisted slide count and returns the new total.
// Only the storage coordinator calls this, after a slide is persisted.
func (s *Session) AddSlide() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalSlides++
	return s.totalSlides
}

// TotalSlides returns the number of slides persisted so far.
func (s *Session) TotalSlides() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalSlides
}

// StartedAt returns the session start time.
func (s *Session) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt
}

// EndedAt returns the session end time; zero while the session is running.
func (s *Session) EndedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endedAt
}
