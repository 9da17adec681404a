package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/datasciritwik/ai-interview/capture"
	"github.com/datasciritwik/ai-interview/recorder"
	"github.com/datasciritwik/ai-interview/transport"
	"github.com/datasciritwik/ai-interview/workers"
)

// Options configures a coding session.
type Options struct {
	// CollectorURL is the websocket endpoint chunks are forwarded to while
	// recording. Empty disables live forwarding; recording still works
	// locally.
	CollectorURL string

	// Cadence overrides the chunk emission interval (default 1s).
	Cadence time.Duration

	// ReconnectDelay overrides the transport reconnect delay (default 3s).
	ReconnectDelay time.Duration
}

// Session wires the capture manager, the chunked recorder, and the live
// chunk transport together for one coding session. It owns every resource
// the trio acquires and Cleanup releases all of them regardless of state.
type Session struct {
	ID            string
	Manager       *capture.Manager
	Recorder      *recorder.Recorder
	Transport     *transport.Transport
	ForwardWorker *workers.ForwardWorker
	ChunkChannel  chan []byte

	mu          sync.Mutex
	forwardOnce sync.Once
	cleaned     bool
}

// Status is a snapshot of the session for the HTTP surface.
type Status struct {
	SessionID      string          `json:"session_id"`
	Source         capture.Source  `json:"source,omitempty"`
	Recording      recorder.Status `json:"recording"`
	ElapsedSeconds int             `json:"elapsed_seconds"`
	Chunks         int             `json:"chunks"`
	Muted          bool            `json:"muted"`
	Transport      transport.State `json:"transport,omitempty"`
}

// New builds an idle session around the given platform device.
func New(device capture.Device, opts Options) (*Session, error) {
	manager, err := capture.NewManager(device)
	if err != nil {
		return nil, err
	}

	// Buffered so the recorder's fire-and-forget handoff never blocks a
	// cadence tick; a full channel drops the forwarded copy, never the
	// buffered one.
	chunkChannel := make(chan []byte, 16)
	forward := func(data []byte) {
		select {
		case chunkChannel <- data:
		default:
			log.Println("Chunk channel full, dropping forwarded chunk")
		}
	}

	recOpts := []recorder.Option{recorder.WithForward(forward)}
	if opts.Cadence > 0 {
		recOpts = append(recOpts, recorder.WithCadence(opts.Cadence))
	}
	rec, err := recorder.New(manager, recOpts...)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:           uuid.NewString(),
		Manager:      manager,
		Recorder:     rec,
		ChunkChannel: chunkChannel,
	}

	if opts.CollectorURL != "" {
		trOpts := []transport.Option{}
		if opts.ReconnectDelay > 0 {
			trOpts = append(trOpts, transport.WithReconnectDelay(opts.ReconnectDelay))
		}
		tr, err := transport.New(opts.CollectorURL, func() bool {
			return rec.Status() == recorder.StatusRecording
		}, trOpts...)
		if err != nil {
			return nil, err
		}
		fw, err := workers.NewForwardWorker(chunkChannel, tr)
		if err != nil {
			return nil, err
		}
		s.Transport = tr
		s.ForwardWorker = fw
	}

	return s, nil
}

// Start acquires a capture stream for the given source and begins chunked
// recording, opening the live transport when one is configured. Transport
// failure is non-fatal; capture or recorder failure aborts the start and
// leaves the session idle with nothing held.
func (s *Session) Start(ctx context.Context, source capture.Source) error {
	// A second start supersedes the in-flight recording. End finishes it
	// first, cancelling the cadence before the old stream is released, so
	// the recorder never reports a recording whose stream is gone.
	if s.Recorder.Status() == recorder.StatusRecording {
		if _, err := s.Recorder.End(); err != nil {
			return err
		}
	}

	if _, err := s.Manager.Start(ctx, source); err != nil {
		return err
	}

	if s.Transport != nil {
		if err := s.Transport.Open(); err != nil {
			log.Printf("Live transport unavailable, recording locally: %v", err)
		}
		s.forwardOnce.Do(s.ForwardWorker.Start)
	}

	if err := s.Recorder.Begin(ctx); err != nil {
		s.Manager.Stop()
		if s.Transport != nil {
			s.Transport.Close()
		}
		return err
	}
	return nil
}

// Stop finalizes the recording into an artifact, releases the capture
// stream, and closes the live transport. Safe to call repeatedly; later
// calls return the same artifact.
func (s *Session) Stop() (*recorder.Artifact, error) {
	artifact, err := s.Recorder.End()
	if s.Transport != nil {
		s.Transport.Close()
	}
	return artifact, err
}

// Reset discards the current artifact and chunk buffer, returning the
// session to a fresh idle state.
func (s *Session) Reset() {
	s.Recorder.Reset()
}

// ToggleMute flips the audio tracks of the active capture session. Returns
// the new muted state.
func (s *Session) ToggleMute() bool {
	return s.Manager.ToggleMute()
}

// Status reports a snapshot of the whole session.
func (s *Session) Status() Status {
	status := Status{
		SessionID:      s.ID,
		Recording:      s.Recorder.Status(),
		ElapsedSeconds: s.Recorder.Elapsed(),
		Chunks:         s.Recorder.ChunkCount(),
	}
	if active := s.Manager.Active(); active != nil {
		status.Source = active.Source
		status.Muted = active.Muted()
	}
	if s.Transport != nil {
		status.Transport = s.Transport.State()
	}
	return status
}

// Cleanup gracefully releases every resource the session holds: the cadence
// timer, the capture stream, the forward worker, and the transport. It runs
// on teardown regardless of current state and is idempotent.
func (s *Session) Cleanup() {
	s.mu.Lock()
	if s.cleaned {
		s.mu.Unlock()
		return
	}
	s.cleaned = true
	s.mu.Unlock()

	// Reset ends an in-flight recording first, which cancels the cadence
	// before the stream is released.
	s.Recorder.Reset()

	if s.ForwardWorker != nil {
		s.ForwardWorker.Stop()
	}
	if s.Transport != nil {
		s.Transport.Close()
	}
	s.Manager.Stop()
	log.Printf("Session %s cleaned up", s.ID)
}
