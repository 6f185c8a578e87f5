package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os/exec"
)

// FrameSource yields still frames from a decodable media source. Seek
// blocks until the source is positioned; a frame is only sampled after the
// seek completes, never mid-seek, which is what makes export frame-accurate.
type FrameSource interface {
	Seek(ctx context.Context, t float64) error
	Frame() (image.Image, error)
	Close() error
}

// SourceOpener opens a frame source for a local media path.
type SourceOpener func(path string) (FrameSource, error)

// ffmpegFrameSource extracts single frames with an ffmpeg invocation per
// sample. Seek records the target; Frame performs the synchronous
// seek-and-decode.
type ffmpegFrameSource struct {
	path string
	at   float64
}

// OpenFFmpegSource is the default SourceOpener.
func OpenFFmpegSource(path string) (FrameSource, error) {
	if path == "" {
		return nil, fmt.Errorf("empty source path")
	}
	return &ffmpegFrameSource{path: path}, nil
}

func (s *ffmpegFrameSource) Seek(_ context.Context, t float64) error {
	if t < 0 {
		t = 0
	}
	s.at = t
	return nil
}

func (s *ffmpegFrameSource) Frame() (image.Image, error) {
	cmd := exec.Command("ffmpeg",
		"-ss", ffSecs(s.at),
		"-i", s.path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, newFFmpegError(cmd, stderr.Bytes(), err)
	}
	img, err := png.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("decode frame from %s at %s: %w", s.path, ffSecs(s.at), err)
	}
	return img, nil
}

func (s *ffmpegFrameSource) Close() error { return nil }
