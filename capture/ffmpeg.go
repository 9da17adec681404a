package capture

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// FFmpegDevice acquires real camera or display streams by spawning ffmpeg
// and reading the encoder's stdout. Camera capture grabs v4l2 video plus alsa
// audio; display capture grabs the X11 root window.
type FFmpegDevice struct {
	// VideoInput is the v4l2 device path for camera capture. Defaults to
	// /dev/video0.
	VideoInput string

	// AudioInput is the alsa input for camera capture. Defaults to "default".
	AudioInput string

	// DisplayInput is the x11grab input for display capture. Defaults to ":0.0".
	DisplayInput string
}

// CheckFFmpeg verifies the ffmpeg binary is installed.
func (d *FFmpegDevice) CheckFFmpeg() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found in PATH")
	}
	return nil
}

func (d *FFmpegDevice) Acquire(ctx context.Context, source Source, constraints Constraints) (*Stream, error) {
	if err := d.CheckFFmpeg(); err != nil {
		return nil, &CaptureError{Source: source, Reason: "device missing", Err: err}
	}

	args := d.buildArgs(source, constraints)
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &CaptureError{Source: source, Reason: "encoder pipe failed", Err: err}
	}
	if err := cmd.Start(); err != nil {
		// ffmpeg prints the denial/absence diagnostic on stderr; keep it.
		return nil, &CaptureError{
			Source: source,
			Reason: "device acquisition denied",
			Err:    errors.Wrap(err, strings.TrimSpace(stderr.String())),
		}
	}

	tracks := []*Track{{Kind: TrackVideo, Enabled: true}}
	if constraints.Audio {
		tracks = append(tracks, &Track{Kind: TrackAudio, Enabled: true})
	}

	release := func() error {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		// Reap the process; a kill error here is expected.
		_ = cmd.Wait()
		return nil
	}

	return NewStream(source, stdout, release, tracks...), nil
}

// Supports reports the containers the ffmpeg invocation can produce.
func (d *FFmpegDevice) Supports(mimeType string) bool {
	return strings.HasPrefix(mimeType, "video/webm") || strings.HasPrefix(mimeType, "video/mp4")
}

func (d *FFmpegDevice) buildArgs(source Source, constraints Constraints) []string {
	var args []string

	switch source {
	case SourceDisplay:
		input := d.DisplayInput
		if input == "" {
			input = ":0.0"
		}
		args = append(args, "-f", "x11grab", "-i", input)
	default:
		input := d.VideoInput
		if input == "" {
			input = "/dev/video0"
		}
		args = append(args, "-f", "v4l2", "-i", input)
		if constraints.Audio {
			audio := d.AudioInput
			if audio == "" {
				audio = "default"
			}
			args = append(args, "-f", "alsa", "-i", audio)
		}
	}

	if constraints.FrameRate > 0 {
		args = append(args, "-r", fmt.Sprint(constraints.FrameRate))
	}
	if constraints.Width > 0 && constraints.Height > 0 {
		args = append(args, "-s", fmt.Sprintf("%dx%d", constraints.Width, constraints.Height))
	}

	args = append(args,
		"-c:v", "libvpx",
		"-deadline", "realtime",
		"-f", "webm",
		"pipe:1",
	)
	return args
}
