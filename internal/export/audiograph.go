package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/framecut/framecut/internal/interp"
	"github.com/framecut/framecut/internal/timeline"
)

// AudioInput is one source file feeding the audio filter graph. Index is
// the ffmpeg input index the filter chain reads from.
type AudioInput struct {
	Path  string
	Index int
}

// audioClip pairs a clip with the resolved input carrying its source.
type audioClip struct {
	clip  timeline.Clip
	input AudioInput
}

// AudioGraph builds the -filter_complex expression that trims, delays,
// scales and fades each clip's audio, then sums everything with amix. The
// mixed stream is labelled [aout].
type AudioGraph struct {
	clips []audioClip
}

// NewAudioGraph collects the audio-bearing clips of a project: audio clips
// plus video clips with audible volume, skipping muted clips and clips on
// muted tracks. Resolve maps a source URL to a local path; each distinct
// source becomes one ffmpeg input.
func NewAudioGraph(p timeline.Project, resolve func(string) (string, error)) (*AudioGraph, error) {
	muted := make(map[string]bool, len(p.Tracks))
	for _, t := range p.Tracks {
		muted[t.ID] = t.Muted
	}

	inputs := make(map[string]AudioInput)
	g := &AudioGraph{}
	for _, c := range p.Clips {
		if !hasAudio(c) || c.Muted || muted[c.TrackID] {
			continue
		}
		src := c.SourceURL()
		in, ok := inputs[src]
		if !ok {
			path, err := resolve(src)
			if err != nil {
				return nil, fmt.Errorf("resolve audio source %s: %w", src, err)
			}
			in = AudioInput{Path: path, Index: len(inputs)}
			inputs[src] = in
		}
		g.clips = append(g.clips, audioClip{clip: c, input: in})
	}
	return g, nil
}

func hasAudio(c timeline.Clip) bool {
	switch c.Kind {
	case timeline.KindAudio:
		return c.Audio != nil
	case timeline.KindVideo:
		return c.Video != nil
	case timeline.KindText, timeline.KindSticker:
	}
	return false
}

// Empty reports whether there is nothing to mix.
func (g *AudioGraph) Empty() bool { return len(g.clips) == 0 }

// Inputs returns the distinct source files in input-index order.
func (g *AudioGraph) Inputs() []AudioInput {
	out := make([]AudioInput, 0, len(g.clips))
	seen := make(map[int]bool)
	for _, ac := range g.clips {
		if !seen[ac.input.Index] {
			seen[ac.input.Index] = true
			out = append(out, ac.input)
		}
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Index < out[i].Index {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

// FilterComplex renders the whole filter graph expression.
func (g *AudioGraph) FilterComplex() string {
	var chains []string
	var labels []string
	for i, ac := range g.clips {
		label := fmt.Sprintf("a%d", i)
		chains = append(chains, g.clipChain(ac, label))
		labels = append(labels, "["+label+"]")
	}
	mix := fmt.Sprintf("%samix=inputs=%d:duration=longest:normalize=0[aout]",
		strings.Join(labels, ""), len(labels))
	return strings.Join(append(chains, mix), ";")
}

// clipChain renders one clip's trim/tempo/volume/pan/fade/delay chain.
func (g *AudioGraph) clipChain(ac audioClip, label string) string {
	c := ac.clip
	rate := playbackRate(c)
	srcLen := c.Duration * rate

	filters := []string{
		fmt.Sprintf("atrim=start=%s:end=%s", ffSecs(c.SourceStart), ffSecs(c.SourceStart+srcLen)),
		"asetpts=PTS-STARTPTS",
	}
	filters = append(filters, atempoChain(rate)...)

	props := interp.AnimatedProperties(c, c.StartTime)
	if v := props.Volume; v != 1 {
		filters = append(filters, fmt.Sprintf("volume=%s", ffSecs(v)))
	}
	if c.Kind == timeline.KindAudio && c.Audio != nil {
		if p := props.Pan; p != 0 {
			l := math.Min(1, 1-p)
			r := math.Min(1, 1+p)
			filters = append(filters, fmt.Sprintf("pan=stereo|c0=%s*c0|c1=%s*c1", ffSecs(l), ffSecs(r)))
		}
		if f := c.Audio.FadeIn; f > 0 {
			filters = append(filters, fmt.Sprintf("afade=t=in:st=0:d=%s", ffSecs(f)))
		}
		if f := c.Audio.FadeOut; f > 0 {
			filters = append(filters, fmt.Sprintf("afade=t=out:st=%s:d=%s", ffSecs(c.Duration-f), ffSecs(f)))
		}
	}

	if c.StartTime > 0 {
		ms := int(math.Round(c.StartTime * 1000))
		filters = append(filters, fmt.Sprintf("adelay=%d|%d", ms, ms))
	}

	return fmt.Sprintf("[%d:a]%s[%s]", ac.input.Index, strings.Join(filters, ","), label)
}

func playbackRate(c timeline.Clip) float64 {
	switch c.Kind {
	case timeline.KindVideo:
		if c.Video != nil && c.Video.PlaybackRate > 0 {
			return c.Video.PlaybackRate
		}
	case timeline.KindAudio:
		if c.Audio != nil && c.Audio.PlaybackRate > 0 {
			return c.Audio.PlaybackRate
		}
	case timeline.KindText, timeline.KindSticker:
	}
	return 1
}

// atempoChain renders a playback-rate change as one or more atempo filters.
// A single atempo only accepts rates in [0.5, 2]; rates outside that range
// are factored into a chain.
func atempoChain(rate float64) []string {
	if rate == 1 {
		return nil
	}
	var out []string
	for rate > 2 {
		out = append(out, "atempo=2.0")
		rate /= 2
	}
	for rate < 0.5 {
		out = append(out, "atempo=0.5")
		rate /= 0.5
	}
	out = append(out, fmt.Sprintf("atempo=%s", ffSecs(rate)))
	return out
}

// ffSecs formats a float the way ffmpeg filter arguments expect: plain
// decimal, no exponent, trimmed trailing zeros.
func ffSecs(v float64) string {
	s := fmt.Sprintf("%.6f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
