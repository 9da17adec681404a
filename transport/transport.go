package transport

import (
	"fmt"
	"log"
	"sync"
	"time"

	gws "github.com/gorilla/websocket"
)

// DefaultReconnectDelay is how long a dropped connection waits before its
// single scheduled reconnect attempt.
const DefaultReconnectDelay = 3 * time.Second

// State is the connection lifecycle state.
type State string

const (
	StateConnecting State = "connecting"
	StateOpen       State = "open"
	StateClosed     State = "closed"
)

// TransportError is a connection failure. It is logged and retried per the
// reconnect policy, never surfaced as a failure of the recording itself.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Transport forwards recorded chunks to a remote collector over a single
// websocket connection: one binary message per chunk, best effort, no
// acknowledgment. While a recording is active, an unexpected drop schedules
// exactly one reconnect attempt after the configured delay.
type Transport struct {
	mu       sync.Mutex
	endpoint string
	active   func() bool
	delay    time.Duration
	dialer   *gws.Dialer

	conn      *gws.Conn
	state     State
	closed    bool
	reconnect *time.Timer
	gen       int
}

// Option customizes a Transport.
type Option func(*Transport)

// WithReconnectDelay overrides the delay before a reconnect attempt.
func WithReconnectDelay(d time.Duration) Option {
	return func(t *Transport) {
		if d > 0 {
			t.delay = d
		}
	}
}

// WithDialer overrides the websocket dialer.
func WithDialer(d *gws.Dialer) Option {
	return func(t *Transport) {
		if d != nil {
			t.dialer = d
		}
	}
}

// New creates a closed Transport for the given collector endpoint. active
// reports whether a recording is currently in progress; reconnects are only
// scheduled while it returns true.
func New(endpoint string, active func() bool, opts ...Option) (*Transport, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("transport endpoint is required")
	}
	if active == nil {
		return nil, fmt.Errorf("recording-active probe is required")
	}
	t := &Transport{
		endpoint: endpoint,
		active:   active,
		delay:    DefaultReconnectDelay,
		dialer:   gws.DefaultDialer,
		state:    StateClosed,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Open dials the collector endpoint. A dial failure is non-fatal: it is
// logged, the next attempt is scheduled if a recording is active, and the
// error is returned for the caller to observe.
func (t *Transport) Open() error {
	t.mu.Lock()
	if t.state == StateOpen {
		t.mu.Unlock()
		return nil
	}
	t.closed = false
	t.state = StateConnecting
	endpoint := t.endpoint
	dialer := t.dialer
	t.mu.Unlock()

	conn, _, err := dialer.Dial(endpoint, nil)
	if err != nil {
		terr := &TransportError{Endpoint: endpoint, Err: err}
		log.Printf("Transport dial error: %v", terr)
		t.mu.Lock()
		t.state = StateClosed
		t.scheduleReconnectLocked()
		t.mu.Unlock()
		return terr
	}

	t.mu.Lock()
	if t.closed {
		// Close raced the dial; drop the fresh connection.
		t.mu.Unlock()
		conn.Close()
		return nil
	}
	t.conn = conn
	t.state = StateOpen
	t.gen++
	gen := t.gen
	t.mu.Unlock()

	log.Printf("Transport connected to %s", endpoint)
	go t.readLoop(conn, gen)
	return nil
}

// readLoop watches for the peer closing the connection. Chunk forwarding is
// one-way; inbound frames are drained and discarded.
func (t *Transport) readLoop(conn *gws.Conn, gen int) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			t.handleDrop(gen, err)
			return
		}
	}
}

func (t *Transport) handleDrop(gen int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.gen || t.closed {
		// Deliberate Close, or a stale loop from a superseded connection.
		return
	}
	t.conn = nil
	t.state = StateClosed
	log.Printf("Transport connection dropped: %v", &TransportError{Endpoint: t.endpoint, Err: err})
	t.scheduleReconnectLocked()
}

// scheduleReconnectLocked arms the single reconnect timer if a recording is
// active and none is already pending. The stored timer handle is what Close
// cancels, so attempts can never pile up faster than the delay.
func (t *Transport) scheduleReconnectLocked() {
	if t.closed || t.reconnect != nil {
		return
	}
	if !t.active() {
		return
	}
	t.reconnect = time.AfterFunc(t.delay, func() {
		t.mu.Lock()
		t.reconnect = nil
		closed := t.closed
		t.mu.Unlock()
		if closed {
			return
		}
		// A failed dial schedules the next attempt itself.
		_ = t.Open()
	})
	log.Printf("Transport reconnect to %s scheduled in %s", t.endpoint, t.delay)
}

// Send transmits one chunk as a binary message. Chunks are silently dropped
// unless the connection is open: at-most-once, best-effort delivery. A write
// failure never propagates; the read loop observes the broken connection and
// applies the reconnect policy.
func (t *Transport) Send(chunk []byte) {
	t.mu.Lock()
	conn := t.conn
	open := t.state == StateOpen
	t.mu.Unlock()

	if !open || conn == nil {
		return
	}
	if err := conn.WriteMessage(gws.BinaryMessage, chunk); err != nil {
		log.Printf("Transport write error: %v", &TransportError{Endpoint: t.endpoint, Err: err})
	}
}

// Close transitions to closed, cancels any pending reconnect, and releases
// the connection. Idempotent.
func (t *Transport) Close() {
	t.mu.Lock()
	if t.closed && t.conn == nil && t.reconnect == nil {
		t.mu.Unlock()
		return
	}
	t.closed = true
	if t.reconnect != nil {
		t.reconnect.Stop()
		t.reconnect = nil
	}
	conn := t.conn
	t.conn = nil
	t.state = StateClosed
	t.gen++
	t.mu.Unlock()

	if conn != nil {
		// WriteControl is safe alongside a concurrent Send writer.
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(gws.CloseMessage, gws.FormatCloseMessage(gws.CloseNormalClosure, "closing connection"), deadline)
		conn.Close()
	}
}

// State returns the current connection state.
func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// ReconnectPending reports whether a reconnect attempt is currently
// scheduled.
func (t *Transport) ReconnectPending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reconnect != nil
}
