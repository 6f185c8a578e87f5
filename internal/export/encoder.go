package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Encoder turns composited frames into an MP4 byte buffer. Frames must be
// written in strictly increasing index order; encoders never reorder.
type Encoder interface {
	Start(ctx context.Context) error
	WriteFrame(ctx context.Context, frame *image.RGBA, index int) error
	// Finish finalizes the muxer and returns the whole container. Any
	// encoder failure makes the entire export invalid; there is no partial
	// output.
	Finish(ctx context.Context) ([]byte, error)
	// Cleanup removes intermediate artifacts. Safe to call repeatedly and
	// on a never-started encoder.
	Cleanup() error
}

const workDirPattern = "framecut_export_"

// CleanupStaleWorkDirs removes leftover intermediate directories from
// exports that crashed before cleaning up. Called defensively before every
// export attempt.
func CleanupStaleWorkDirs(parent string) {
	entries, err := os.ReadDir(parent)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), workDirPattern) {
			os.RemoveAll(filepath.Join(parent, e.Name()))
		}
	}
}

// SoftwareEncoder rasterizes to an intermediate PNG sequence and invokes
// ffmpeg once to encode and mux, including the audio filter graph when the
// project has audible clips. This is the only path that mixes audio.
type SoftwareEncoder struct {
	opts    Options
	audio   *AudioGraph
	parent  string
	workDir string
	frames  int
}

// NewSoftwareEncoder creates the software path. audio may be nil or empty
// for a silent export; parent is where the intermediate directory lives
// (empty means the system temp dir).
func NewSoftwareEncoder(opts Options, audio *AudioGraph, parent string) *SoftwareEncoder {
	return &SoftwareEncoder{opts: opts, audio: audio, parent: parent}
}

func (e *SoftwareEncoder) Start(context.Context) error {
	dir, err := os.MkdirTemp(e.parent, workDirPattern+"*")
	if err != nil {
		return fmt.Errorf("failed to create export work directory: %w", err)
	}
	e.workDir = dir
	return nil
}

func (e *SoftwareEncoder) WriteFrame(ctx context.Context, frame *image.RGBA, index int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if index != e.frames {
		return fmt.Errorf("frame %d written out of order, expected %d", index, e.frames)
	}
	path := filepath.Join(e.workDir, fmt.Sprintf("frame_%06d.png", index))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create frame file: %w", err)
	}
	if err := png.Encode(f, frame); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode frame %d: %w", index, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	e.frames++
	return nil
}

func (e *SoftwareEncoder) Finish(ctx context.Context) ([]byte, error) {
	if e.frames == 0 {
		return nil, fmt.Errorf("no frames were rendered")
	}
	q := e.opts.Quality.settings()
	outPath := filepath.Join(e.workDir, "out.mp4")

	args := []string{
		"-y",
		"-framerate", ffSecs(e.opts.FPS),
		"-i", filepath.Join(e.workDir, "frame_%06d.png"),
	}
	withAudio := e.audio != nil && !e.audio.Empty()
	if withAudio {
		for _, in := range e.audio.Inputs() {
			args = append(args, "-i", in.Path)
		}
		// Audio inputs start at ffmpeg index 1; the frame sequence is 0.
		args = append(args,
			"-filter_complex", shiftInputIndexes(e.audio.FilterComplex(), 1),
			"-map", "0:v",
			"-map", "[aout]",
			"-c:a", "aac",
			"-b:a", "192k",
		)
	}
	args = append(args,
		"-c:v", "libx264",
		"-preset", q.preset,
		"-crf", fmt.Sprintf("%d", q.crf),
		"-pix_fmt", "yuv420p",
		"-g", fmt.Sprintf("%d", keyframeInterval(e.opts.FPS)),
		"-movflags", "+faststart",
		outPath,
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, newFFmpegError(cmd, output, err)
	}
	return os.ReadFile(outPath)
}

func (e *SoftwareEncoder) Cleanup() error {
	if e.workDir == "" {
		return nil
	}
	err := os.RemoveAll(e.workDir)
	e.workDir = ""
	e.frames = 0
	return err
}

// shiftInputIndexes rebases the [N:a] input labels of a filter graph by
// delta, because the encoder's frame sequence occupies input 0.
func shiftInputIndexes(graph string, delta int) string {
	var b strings.Builder
	for i := 0; i < len(graph); i++ {
		if graph[i] == '[' {
			j := i + 1
			for j < len(graph) && graph[j] >= '0' && graph[j] <= '9' {
				j++
			}
			if j > i+1 && j+1 < len(graph) && graph[j] == ':' && graph[j+1] == 'a' {
				var n int
				fmt.Sscanf(graph[i+1:j], "%d", &n)
				fmt.Fprintf(&b, "[%d:a", n+delta)
				i = j + 1
				continue
			}
		}
		b.WriteByte(graph[i])
	}
	return b.String()
}

// keyframeInterval forces a key frame every two seconds of output to bound
// seek cost in the result.
func keyframeInterval(fps float64) int {
	iv := int(2 * fps)
	if iv < 1 {
		iv = 1
	}
	return iv
}

var hardwareBitrates = map[Quality]string{
	QualityLow:    "2M",
	QualityMedium: "5M",
	QualityHigh:   "10M",
}

// HardwareEncoder pipes raw RGBA frames into a platform H.264 encoder. It
// produces video only; callers needing the audio graph use the software
// path. For the same input frames both paths produce the same visual
// composition.
type HardwareEncoder struct {
	opts        Options
	encoderName string
	parent      string

	workDir string
	outPath string
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stderr  bytes.Buffer
	frames  int
}

// NewHardwareEncoder creates the hardware path for a detected encoder name
// (see DetectHardwareEncoder).
func NewHardwareEncoder(opts Options, encoderName, parent string) *HardwareEncoder {
	return &HardwareEncoder{opts: opts, encoderName: encoderName, parent: parent}
}

func (e *HardwareEncoder) Start(ctx context.Context) error {
	dir, err := os.MkdirTemp(e.parent, workDirPattern+"*")
	if err != nil {
		return fmt.Errorf("failed to create export work directory: %w", err)
	}
	e.workDir = dir
	e.outPath = filepath.Join(dir, "out.mp4")

	bitrate, ok := hardwareBitrates[e.opts.Quality]
	if !ok {
		bitrate = hardwareBitrates[QualityMedium]
	}

	e.cmd = exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", e.opts.Width, e.opts.Height),
		"-framerate", ffSecs(e.opts.FPS),
		"-i", "-",
		"-c:v", e.encoderName,
		"-b:v", bitrate,
		"-g", fmt.Sprintf("%d", keyframeInterval(e.opts.FPS)),
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		e.outPath,
	)
	e.cmd.Stderr = &e.stderr
	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		return err
	}
	e.stdin = stdin
	if err := e.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start hardware encoder %s: %w", e.encoderName, err)
	}
	return nil
}

func (e *HardwareEncoder) WriteFrame(ctx context.Context, frame *image.RGBA, index int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if index != e.frames {
		return fmt.Errorf("frame %d written out of order, expected %d", index, e.frames)
	}
	b := frame.Bounds()
	rowBytes := b.Dx() * 4
	if frame.Stride == rowBytes {
		if _, err := e.stdin.Write(frame.Pix); err != nil {
			return fmt.Errorf("encoder pipe write failed: %w", err)
		}
	} else {
		for y := 0; y < b.Dy(); y++ {
			row := frame.Pix[y*frame.Stride : y*frame.Stride+rowBytes]
			if _, err := e.stdin.Write(row); err != nil {
				return fmt.Errorf("encoder pipe write failed: %w", err)
			}
		}
	}
	e.frames++
	return nil
}

func (e *HardwareEncoder) Finish(ctx context.Context) ([]byte, error) {
	if e.stdin != nil {
		e.stdin.Close()
	}
	if err := e.cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, newFFmpegError(e.cmd, e.stderr.Bytes(), err)
	}
	return os.ReadFile(e.outPath)
}

func (e *HardwareEncoder) Cleanup() error {
	if e.cmd != nil && e.cmd.Process != nil && e.cmd.ProcessState == nil {
		e.cmd.Process.Kill()
		e.cmd.Wait()
	}
	if e.workDir == "" {
		return nil
	}
	err := os.RemoveAll(e.workDir)
	e.workDir = ""
	e.frames = 0
	return err
}
