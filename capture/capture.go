package capture

import (
	"context"
	"fmt"
	"io"
)

// Source identifies the kind of media being captured.
type Source string

const (
	SourceCamera  Source = "camera"
	SourceDisplay Source = "display"
)

// Valid reports whether s is a known capture source.
func (s Source) Valid() bool {
	return s == SourceCamera || s == SourceDisplay
}

// TrackKind identifies the media kind of a single track.
type TrackKind string

const (
	TrackAudio TrackKind = "audio"
	TrackVideo TrackKind = "video"
)

// Track is one audio or video handle inside an acquired stream. Enabled is
// the mute flag for audio tracks; only the Manager mutates it.
type Track struct {
	Kind    TrackKind
	Enabled bool
}

// Constraints describes what the caller wants from the platform when
// acquiring a stream.
type Constraints struct {
	Audio     bool
	Video     bool
	Width     int
	Height    int
	FrameRate int
}

// Stream is a live, encoded media stream acquired from a Device. Reading
// yields encoded bytes as the device produces them; Close releases the
// underlying platform resource and unblocks any in-flight Read.
type Stream struct {
	Source Source
	Tracks []*Track

	r       io.ReadCloser
	release func() error
}

// NewStream wraps a device's byte stream. release, if non-nil, runs after the
// reader is closed and should free whatever platform resource backs it.
func NewStream(source Source, r io.ReadCloser, release func() error, tracks ...*Track) *Stream {
	return &Stream{
		Source:  source,
		Tracks:  tracks,
		r:       r,
		release: release,
	}
}

func (s *Stream) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

// Close releases every track and the platform resource behind the stream.
func (s *Stream) Close() error {
	err := s.r.Close()
	if s.release != nil {
		if rerr := s.release(); err == nil {
			err = rerr
		}
	}
	return err
}

//go:generate mockgen -source=capture.go -destination=mocks/device.go -package=mocks Device

// Device abstracts the platform media-capture API: a camera/display grab that
// either hands back a live stream or a denial error.
type Device interface {
	// Acquire requests a live stream for the given source. A permission
	// denial or missing device surfaces as an error; implementations wrap
	// the platform diagnostic so it reaches the user unchanged.
	Acquire(ctx context.Context, source Source, constraints Constraints) (*Stream, error)

	// Supports reports whether the device can encode the given MIME type,
	// used to probe encoding profiles in preference order.
	Supports(mimeType string) bool
}

// CaptureError is a recoverable acquisition failure: permission denied or
// device missing. It carries the platform's diagnostic message and always
// leaves the manager with no session.
type CaptureError struct {
	Source Source
	Reason string
	Err    error
}

func (e *CaptureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("capture %s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("capture %s: %s", e.Source, e.Reason)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}
