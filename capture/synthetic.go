package capture

import (
	"context"
	"io"
	"strings"
	"sync"
)

// SyntheticDevice is a hardware-free Device that generates a deterministic
// test-pattern byte stream. It backs the service when no real capture
// hardware is configured and every test that needs a live stream.
type SyntheticDevice struct {
	// ChunkSize bounds how many bytes a single Read returns. Zero means
	// the default of 4096.
	ChunkSize int

	// Deny, when set, makes Acquire fail with a permission-denied
	// CaptureError carrying this message. Models the user rejecting the
	// device prompt.
	Deny string
}

func (d *SyntheticDevice) Acquire(ctx context.Context, source Source, constraints Constraints) (*Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, &CaptureError{Source: source, Reason: "acquisition cancelled", Err: err}
	}
	if d.Deny != "" {
		return nil, &CaptureError{Source: source, Reason: d.Deny}
	}

	size := d.ChunkSize
	if size <= 0 {
		size = 4096
	}

	tracks := []*Track{{Kind: TrackVideo, Enabled: true}}
	if constraints.Audio {
		tracks = append(tracks, &Track{Kind: TrackAudio, Enabled: true})
	}

	return NewStream(source, &patternReader{size: size}, nil, tracks...), nil
}

// Supports reports webm container support, matching what the pattern stream
// pretends to emit.
func (d *SyntheticDevice) Supports(mimeType string) bool {
	return strings.HasPrefix(mimeType, "video/webm")
}

// patternReader emits an endless deterministic byte pattern. Reads never
// block and never hit EOF until the stream is closed, so each recorder tick
// always finds data.
type patternReader struct {
	mu     sync.Mutex
	size   int
	seq    byte
	closed bool
}

func (r *patternReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, io.EOF
	}
	n := len(p)
	if n > r.size {
		n = r.size
	}
	for i := 0; i < n; i++ {
		p[i] = r.seq + byte(i)
	}
	r.seq++
	return n, nil
}

func (r *patternReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}
