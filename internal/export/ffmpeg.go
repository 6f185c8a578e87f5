package export

import (
	"fmt"
	"os/exec"
	"strings"
)

// ffmpegError wraps an FFmpeg command failure with the truncated command
// line and its output, so encoder failures surface their likely cause.
type ffmpegError struct {
	cmd     string
	output  string
	wrapped error
}

func (e *ffmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %s\nCommand: %s\nOutput: %s", e.wrapped, e.cmd, e.output)
}

func (e *ffmpegError) Unwrap() error {
	return e.wrapped
}

func newFFmpegError(cmd *exec.Cmd, output []byte, err error) error {
	cmdStr := cmd.String()
	if len(cmdStr) > 200 {
		cmdStr = cmdStr[:200] + "..."
	}
	out := string(output)
	if len(out) > 2000 {
		out = out[len(out)-2000:]
	}
	return &ffmpegError{cmd: cmdStr, output: out, wrapped: err}
}

// hardwareEncoders lists the platform H.264 encoder names probed for, in
// preference order.
var hardwareEncoders = []string{"h264_videotoolbox", "h264_nvenc", "h264_vaapi", "h264_qsv"}

// DetectHardwareEncoder returns the first available platform H.264 encoder
// name, or "" when none is present.
func DetectHardwareEncoder() string {
	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return ""
	}
	listing := string(out)
	for _, name := range hardwareEncoders {
		if strings.Contains(listing, name) {
			return name
		}
	}
	return ""
}
