// Package media imports sources into the project's media library: probing
// metadata with ffprobe, fetching remote sources into a local cache, and
// watching a directory for files to auto-import.
package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// Info is the probed metadata of a media file.
type Info struct {
	Duration float64
	Width    int
	Height   int
	HasVideo bool
	HasAudio bool
	Codec    string
}

// ffprobe JSON output shapes, trimmed to the fields used.
type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

// Probe runs ffprobe against the given path and parses its JSON output.
func Probe(ctx context.Context, path string) (Info, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return Info{}, ctx.Err()
		}
		return Info{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return ParseProbeOutput(out)
}

// ParseProbeOutput parses raw ffprobe JSON into an Info.
func ParseProbeOutput(data []byte) (Info, error) {
	var po probeOutput
	if err := json.Unmarshal(data, &po); err != nil {
		return Info{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	info := Info{}
	if po.Format.Duration != "" {
		d, err := strconv.ParseFloat(po.Format.Duration, 64)
		if err != nil {
			return Info{}, fmt.Errorf("parse duration %q: %w", po.Format.Duration, err)
		}
		info.Duration = d
	}
	for _, s := range po.Streams {
		switch s.CodecType {
		case "video":
			info.HasVideo = true
			if s.Width > 0 {
				info.Width = s.Width
				info.Height = s.Height
			}
			if info.Codec == "" {
				info.Codec = s.CodecName
			}
		case "audio":
			info.HasAudio = true
			if info.Codec == "" {
				info.Codec = s.CodecName
			}
		}
	}
	return info, nil
}
