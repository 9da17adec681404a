package capture_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/golang/mock/gomock"

	"github.com/datasciritwik/ai-interview/capture"
	"github.com/datasciritwik/ai-interview/capture/mocks"
)

// closeTracker records whether the stream backing it was released.
type closeTracker struct {
	closed bool
}

func (c *closeTracker) Read(p []byte) (int, error) {
	if c.closed {
		return 0, io.EOF
	}
	if len(p) > 0 {
		p[0] = 0x42
		return 1, nil
	}
	return 0, nil
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func newManager(t *testing.T, device capture.Device) *capture.Manager {
	t.Helper()
	m, err := capture.NewManager(device)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestStartDeniedLeavesNoSession(t *testing.T) {
	m := newManager(t, &capture.SyntheticDevice{Deny: "Permission denied by user"})

	_, err := m.Start(context.Background(), capture.SourceCamera)
	if err == nil {
		t.Fatal("expected denial error")
	}
	var cerr *capture.CaptureError
	if !errors.As(err, &cerr) {
		t.Fatalf("error type = %T, want *CaptureError", err)
	}
	if cerr.Reason != "Permission denied by user" {
		t.Errorf("reason = %q, want platform diagnostic", cerr.Reason)
	}
	if m.Active() != nil {
		t.Error("denied start must leave no active session")
	}
}

func TestStartUnknownSource(t *testing.T) {
	m := newManager(t, &capture.SyntheticDevice{})

	if _, err := m.Start(context.Background(), capture.Source("microwave")); err == nil {
		t.Fatal("expected error for unknown source")
	}
	if m.Active() != nil {
		t.Error("failed start must leave no active session")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	m := newManager(t, &capture.SyntheticDevice{})

	if _, err := m.Start(context.Background(), capture.SourceCamera); err != nil {
		t.Fatalf("start: %v", err)
	}
	m.Stop()
	if m.Active() != nil {
		t.Fatal("session still active after stop")
	}
	// Second stop with no session must be a no-op.
	m.Stop()
}

func TestStartTearsDownExistingSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	device := mocks.NewMockDevice(ctrl)

	first := &closeTracker{}
	second := &closeTracker{}
	device.EXPECT().
		Acquire(gomock.Any(), capture.SourceCamera, gomock.Any()).
		Return(capture.NewStream(capture.SourceCamera, first, nil, &capture.Track{Kind: capture.TrackVideo, Enabled: true}), nil)
	device.EXPECT().
		Acquire(gomock.Any(), capture.SourceDisplay, gomock.Any()).
		Return(capture.NewStream(capture.SourceDisplay, second, nil, &capture.Track{Kind: capture.TrackVideo, Enabled: true}), nil)

	m := newManager(t, device)

	s1, err := m.Start(context.Background(), capture.SourceCamera)
	if err != nil {
		t.Fatalf("first start: %v", err)
	}
	s2, err := m.Start(context.Background(), capture.SourceDisplay)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}

	if !first.closed {
		t.Error("first stream must be released before the second acquisition")
	}
	if second.closed {
		t.Error("second stream should still be live")
	}
	if s1.ID == s2.ID {
		t.Error("sessions must get distinct IDs")
	}
	if active := m.Active(); active == nil || active.ID != s2.ID {
		t.Error("active session should be the second one")
	}
}

func TestCameraConstraintsRequestAudio(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	device := mocks.NewMockDevice(ctrl)
	device.EXPECT().
		Acquire(gomock.Any(), capture.SourceCamera, capture.Constraints{Video: true, Audio: true}).
		Return(capture.NewStream(capture.SourceCamera, &closeTracker{}, nil), nil)

	m := newManager(t, device)
	if _, err := m.Start(context.Background(), capture.SourceCamera); err != nil {
		t.Fatalf("start: %v", err)
	}
}

func TestToggleMuteFlipsAudioTracksOnly(t *testing.T) {
	m := newManager(t, &capture.SyntheticDevice{})

	session, err := m.Start(context.Background(), capture.SourceCamera)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	var audio, video *capture.Track
	for _, track := range session.Stream.Tracks {
		switch track.Kind {
		case capture.TrackAudio:
			audio = track
		case capture.TrackVideo:
			video = track
		}
	}
	if audio == nil || video == nil {
		t.Fatal("camera session should carry audio and video tracks")
	}

	if muted := m.ToggleMute(); !muted {
		t.Error("first toggle should mute")
	}
	if audio.Enabled {
		t.Error("audio track should be disabled while muted")
	}
	if !video.Enabled {
		t.Error("video track must not be touched by mute")
	}

	if muted := m.ToggleMute(); muted {
		t.Error("second toggle should unmute")
	}
	if !audio.Enabled {
		t.Error("audio track should be re-enabled after unmute")
	}
}

func TestToggleMuteWithoutSession(t *testing.T) {
	m := newManager(t, &capture.SyntheticDevice{})
	if m.ToggleMute() {
		t.Error("toggle without a session should report unmuted")
	}
}

func TestDisplayCaptureHasNoAudioTrack(t *testing.T) {
	m := newManager(t, &capture.SyntheticDevice{})

	session, err := m.Start(context.Background(), capture.SourceDisplay)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for _, track := range session.Stream.Tracks {
		if track.Kind == capture.TrackAudio {
			t.Error("display capture should not request audio by default")
		}
	}
}
