package capture

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session represents one active acquisition: the stream plus its tracks and
// mute state. Exactly one session exists at a time; it is owned by the
// Manager and released on Stop or teardown.
type Session struct {
	ID        string
	Source    Source
	Stream    *Stream
	StartedAt time.Time
	muted     bool
}

// Muted reports whether the session's audio tracks are currently disabled.
func (s *Session) Muted() bool {
	return s.muted
}

// Manager owns the single active capture session. All stream and track
// mutation goes through it; nothing else touches track state directly.
type Manager struct {
	mu      sync.Mutex
	device  Device
	session *Session
}

// NewManager wires a Manager to the platform device it acquires from.
func NewManager(device Device) (*Manager, error) {
	if device == nil {
		return nil, fmt.Errorf("capture device is required")
	}
	return &Manager{device: device}, nil
}

// Start acquires a new stream for the given source. An existing session is
// torn down first, so at most one is ever active. On denial or device
// absence the manager is left with no session and the platform diagnostic is
// returned as a *CaptureError.
func (m *Manager) Start(ctx context.Context, source Source) (*Session, error) {
	if !source.Valid() {
		return nil, &CaptureError{Source: source, Reason: "unknown capture source"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		m.stopLocked()
	}

	constraints := Constraints{Video: true, Audio: source == SourceCamera}
	stream, err := m.device.Acquire(ctx, source, constraints)
	if err != nil {
		if cerr, ok := err.(*CaptureError); ok {
			return nil, cerr
		}
		return nil, &CaptureError{Source: source, Reason: "device acquisition failed", Err: err}
	}

	m.session = &Session{
		ID:        uuid.NewString(),
		Source:    source,
		Stream:    stream,
		StartedAt: time.Now(),
	}
	log.Printf("Capture session %s started (source=%s, tracks=%d)", m.session.ID, source, len(stream.Tracks))
	return m.session, nil
}

// Stop releases every acquired track and drops the session. Safe to call
// when no session is active.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *Manager) stopLocked() {
	if m.session == nil {
		return
	}
	if err := m.session.Stream.Close(); err != nil {
		log.Printf("Capture session %s release error: %v", m.session.ID, err)
	}
	log.Printf("Capture session %s stopped", m.session.ID)
	m.session = nil
}

// ToggleMute flips the enabled flag on every audio track of the active
// session without destroying it. Returns the new muted state; false when no
// session is active.
func (m *Manager) ToggleMute() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return false
	}
	m.session.muted = !m.session.muted
	for _, track := range m.session.Stream.Tracks {
		if track.Kind == TrackAudio {
			track.Enabled = !m.session.muted
		}
	}
	return m.session.muted
}

// Active returns the current session, or nil when idle.
func (m *Manager) Active() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Supports probes the underlying device for an encoding MIME type.
func (m *Manager) Supports(mimeType string) bool {
	return m.device.Supports(mimeType)
}
