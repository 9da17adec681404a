package recorder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/datasciritwik/ai-interview/capture"
	"github.com/datasciritwik/ai-interview/queue"
)

// DefaultCadence is the fixed interval at which chunks are emitted.
const DefaultCadence = time.Second

// Status is the recorder's lifecycle state. A stop always leads back toward
// idle; there is no paused state.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRecording Status = "recording"
	StatusStopped   Status = "stopped"
)

// ErrNoSession is returned (wrapped in a RecorderError) when Begin is called
// without an active capture session.
var ErrNoSession = errors.New("no active capture session")

// RecorderError is a recoverable recording failure. It aborts the start
// attempt and leaves the recorder restartable.
type RecorderError struct {
	Op  string
	Err error
}

func (e *RecorderError) Error() string {
	return fmt.Sprintf("recorder %s: %v", e.Op, e.Err)
}

func (e *RecorderError) Unwrap() error {
	return e.Err
}

// Chunk is one timed slice of encoded media emitted during recording.
type Chunk struct {
	Seq  int
	Data []byte
}

// Recorder drives the active capture stream, emitting one chunk per cadence
// tick into an ordered buffer and, optionally, to a forward hook. On End the
// buffered chunks become a single Artifact.
type Recorder struct {
	mu       sync.Mutex
	manager  *capture.Manager
	cadence  time.Duration
	profiles []Profile
	forward  func([]byte)

	status   Status
	profile  Profile
	buffer   *queue.Queue[Chunk]
	elapsed  int
	seq      int
	artifact *Artifact
	cancel   context.CancelFunc
	loopDone chan struct{}
}

// Option customizes a Recorder.
type Option func(*Recorder)

// WithCadence overrides the chunk emission interval.
func WithCadence(d time.Duration) Option {
	return func(r *Recorder) {
		if d > 0 {
			r.cadence = d
		}
	}
}

// WithProfiles overrides the encoding-profile preference list.
func WithProfiles(profiles []Profile) Option {
	return func(r *Recorder) {
		if len(profiles) > 0 {
			r.profiles = profiles
		}
	}
}

// WithForward installs a per-chunk forward hook. The hook runs after the
// chunk is buffered and must not block; the live transport path hands the
// bytes off with a non-blocking channel send.
func WithForward(forward func([]byte)) Option {
	return func(r *Recorder) {
		r.forward = forward
	}
}

// New creates an idle Recorder bound to the capture manager that owns its
// stream.
func New(manager *capture.Manager, opts ...Option) (*Recorder, error) {
	if manager == nil {
		return nil, fmt.Errorf("capture manager is required")
	}
	r := &Recorder{
		manager:  manager,
		cadence:  DefaultCadence,
		profiles: DefaultProfiles,
		status:   StatusIdle,
		buffer:   queue.New[Chunk](),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Begin negotiates an encoding profile and starts emitting chunks from the
// active capture session on the cadence. Any previous artifact is superseded
// and released. Fails with a *RecorderError when no session is active or a
// recording is already running.
func (r *Recorder) Begin(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status == StatusRecording {
		return &RecorderError{Op: "begin", Err: errors.New("recording already in progress")}
	}
	session := r.manager.Active()
	if session == nil {
		return &RecorderError{Op: "begin", Err: ErrNoSession}
	}

	r.profile = Negotiate(r.profiles, r.manager.Supports)
	r.artifact = nil
	r.buffer.Clear()
	r.elapsed = 0
	r.seq = 0

	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.loopDone = make(chan struct{})
	r.status = StatusRecording

	log.Printf("Recording started (profile=%s, cadence=%s)", r.profile.MIMEType, r.cadence)
	go r.captureLoop(loopCtx, session.Stream, r.loopDone)
	return nil
}

func (r *Recorder) captureLoop(ctx context.Context, stream *capture.Stream, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.cadence)
	defer ticker.Stop()

	buf := make([]byte, 64<<10)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := stream.Read(buf)
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				r.record(data)
			}
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("Capture stream ended mid-recording: %v", err)
				}
				return
			}
		}
	}
}

// record appends one chunk to the ordered buffer, then hands the same bytes
// to the forward hook. Buffering always happens before the forward attempt.
func (r *Recorder) record(data []byte) {
	r.mu.Lock()
	if r.status != StatusRecording {
		r.mu.Unlock()
		return
	}
	r.seq++
	r.buffer.Enqueue(Chunk{Seq: r.seq, Data: data})
	r.elapsed++
	forward := r.forward
	r.mu.Unlock()

	if forward != nil {
		forward(data)
	}
}

// End cancels the cadence, releases the stream back through the capture
// manager, and materializes the Artifact from every buffered chunk in
// production order. Calling it again without an intervening Begin is a no-op
// that returns the existing artifact. Zero chunks yield an empty artifact,
// never an error.
func (r *Recorder) End() (*Artifact, error) {
	r.mu.Lock()
	if r.status != StatusRecording {
		artifact := r.artifact
		r.mu.Unlock()
		return artifact, nil
	}
	cancel := r.cancel
	done := r.loopDone
	r.mu.Unlock()

	// The cadence must be dead before the stream is torn down, so a tick
	// never fires against a released stream.
	cancel()
	<-done

	r.manager.Stop()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != StatusRecording {
		// A concurrent End won the race and already built the artifact.
		return r.artifact, nil
	}
	r.artifact = newArtifact(r.buffer.Drain(), r.profile)
	r.status = StatusStopped
	log.Printf("Recording stopped (%d bytes, %s)", r.artifact.Size(), r.artifact.Filename())
	return r.artifact, nil
}

// Reset discards the current artifact, clears the chunk buffer, and returns
// to a fresh idle state ready for a new Begin. A still-running recording is
// ended first.
func (r *Recorder) Reset() {
	if r.Status() == StatusRecording {
		_, _ = r.End()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.artifact = nil
	r.buffer.Clear()
	r.elapsed = 0
	r.seq = 0
	r.status = StatusIdle
}

// Status returns the recorder's current lifecycle state.
func (r *Recorder) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Elapsed returns the number of cadence intervals completed in the current
// recording; at the default cadence this counts seconds.
func (r *Recorder) Elapsed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elapsed
}

// ChunkCount returns how many chunks are currently buffered.
func (r *Recorder) ChunkCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buffer.Len()
}

// Artifact returns the finished recording, or nil if none has been produced
// since the last Reset.
func (r *Recorder) Artifact() *Artifact {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.artifact
}

// Profile returns the encoding profile negotiated for the current or most
// recent recording.
func (r *Recorder) Profile() Profile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.profile
}
