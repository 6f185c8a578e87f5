package interp

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/framecut/framecut/internal/timeline"
)

// Animatable property names. Keyframes address properties by these keys.
const (
	PropOpacity  = "opacity"
	PropScale    = "scale"
	PropRotation = "rotation"
	PropPosition = "position"
	PropVolume   = "volume"
	PropPan      = "pan"
	PropFontSize = "fontSize"
	PropColor    = "color"
)

// Sample evaluates one property at a clip-relative time. The clip's full
// keyframe list is filtered by property and re-sorted by time on every call;
// keyframe counts are expected to be tens, not thousands, so no sorted
// structure is cached. Returns false when the property has no keyframes.
//
// Sampling rule: before the first keyframe the first value holds, after the
// last keyframe the last value holds; in between, progress within the
// bracketing pair is shaped by the outgoing keyframe's easing and the value
// is interpolated with the eased progress.
func Sample(keyframes []timeline.Keyframe, property string, t float64) (timeline.Value, bool) {
	var kfs []timeline.Keyframe
	for _, kf := range keyframes {
		if kf.Property == property {
			kfs = append(kfs, kf)
		}
	}
	if len(kfs) == 0 {
		return timeline.Value{}, false
	}
	sort.SliceStable(kfs, func(i, j int) bool { return kfs[i].Time < kfs[j].Time })

	if t <= kfs[0].Time {
		return kfs[0].Value, true
	}
	last := kfs[len(kfs)-1]
	if t >= last.Time {
		return last.Value, true
	}

	for i := 0; i < len(kfs)-1; i++ {
		prev, next := kfs[i], kfs[i+1]
		if prev.Time <= t && t < next.Time {
			span := next.Time - prev.Time
			if span <= 0 {
				return prev.Value, true
			}
			progress := (t - prev.Time) / span
			eased := Ease(prev.Easing, prev.Bezier, progress)
			return lerpValue(prev.Value, next.Value, eased), true
		}
	}
	return last.Value, true
}

// lerpValue interpolates between two values of the same kind. Numbers lerp
// linearly, colors per RGB channel, positions per axis. A kind mismatch or
// an unparsable color degrades to a step function by returning from.
func lerpValue(from, to timeline.Value, p float64) timeline.Value {
	if from.Kind != to.Kind {
		return from
	}
	switch from.Kind {
	case timeline.ValueNumber:
		return timeline.NumberValue(from.Num + (to.Num-from.Num)*p)
	case timeline.ValueColor:
		c, err := lerpHexColor(from.Color, to.Color, p)
		if err != nil {
			return from
		}
		return timeline.ColorValue(c)
	case timeline.ValuePosition:
		return timeline.PositionValue(
			from.Pos.X+(to.Pos.X-from.Pos.X)*p,
			from.Pos.Y+(to.Pos.Y-from.Pos.Y)*p,
		)
	}
	return from
}

// ParseHexColor parses a #rrggbb string into its channels.
func ParseHexColor(s string) (r, g, b int, err error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return 0, 0, 0, fmt.Errorf("color %q is not 6 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("color %q: %w", s, err)
	}
	return int(v >> 16), int(v >> 8 & 0xff), int(v & 0xff), nil
}

func lerpHexColor(from, to string, p float64) (string, error) {
	fr, fg, fb, err := ParseHexColor(from)
	if err != nil {
		return "", err
	}
	tr, tg, tb, err := ParseHexColor(to)
	if err != nil {
		return "", err
	}
	lerp := func(a, b int) int {
		return int(math.Round(float64(a) + (float64(b)-float64(a))*p))
	}
	return fmt.Sprintf("#%02x%02x%02x", lerp(fr, tr), lerp(fg, tg), lerp(fb, tb)), nil
}

// Properties is the resolved set of animated values for a clip at one point
// in time.
type Properties struct {
	Opacity  float64
	Scale    float64
	Rotation float64
	Position timeline.Position

	// Volume applies to video and audio clips, Pan to audio only.
	Volume float64
	Pan    float64

	// FontSize and Color apply to text clips only.
	FontSize float64
	Color    string
}

// Global defaults used when a property has neither keyframes nor a static
// clip field. A zero static field counts as unset.
var defaults = Properties{
	Opacity:  1,
	Scale:    1,
	Position: timeline.Position{X: 50, Y: 50},
	Volume:   1,
	FontSize: 48,
	Color:    "#ffffff",
}

// AnimatedProperties converts an absolute timeline time to clip-relative
// time and samples the fixed property set relevant to the clip's kind,
// falling back to the clip's static fields and then to global defaults.
func AnimatedProperties(clip timeline.Clip, absoluteTime float64) Properties {
	t := absoluteTime - clip.StartTime

	out := Properties{
		Opacity:  numberOr(clip.Keyframes, PropOpacity, t, staticOr(clip.Opacity, defaults.Opacity)),
		Scale:    numberOr(clip.Keyframes, PropScale, t, staticOr(clip.Scale, defaults.Scale)),
		Rotation: numberOr(clip.Keyframes, PropRotation, t, clip.Rotation),
		Position: positionOr(clip.Keyframes, t, staticPositionOr(clip.Position, defaults.Position)),
	}

	switch clip.Kind {
	case timeline.KindVideo:
		static := defaults.Volume
		if clip.Video != nil && clip.Video.Volume > 0 {
			static = clip.Video.Volume
		}
		out.Volume = numberOr(clip.Keyframes, PropVolume, t, static)
	case timeline.KindAudio:
		static := defaults.Volume
		if clip.Audio != nil && clip.Audio.Volume > 0 {
			static = clip.Audio.Volume
		}
		out.Volume = numberOr(clip.Keyframes, PropVolume, t, static)
		var pan float64
		if clip.Audio != nil {
			pan = clip.Audio.Pan
		}
		out.Pan = numberOr(clip.Keyframes, PropPan, t, pan)
	case timeline.KindText:
		size, color := defaults.FontSize, defaults.Color
		if clip.Text != nil {
			if clip.Text.FontSize > 0 {
				size = clip.Text.FontSize
			}
			if clip.Text.Color != "" {
				color = clip.Text.Color
			}
		}
		out.FontSize = numberOr(clip.Keyframes, PropFontSize, t, size)
		out.Color = colorOr(clip.Keyframes, PropColor, t, color)
	case timeline.KindSticker:
	}
	return out
}

func staticOr(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func staticPositionOr(p, def timeline.Position) timeline.Position {
	if p == (timeline.Position{}) {
		return def
	}
	return p
}

func numberOr(kfs []timeline.Keyframe, prop string, t, fallback float64) float64 {
	if v, ok := Sample(kfs, prop, t); ok && v.Kind == timeline.ValueNumber {
		return v.Num
	}
	return fallback
}

func colorOr(kfs []timeline.Keyframe, prop string, t float64, fallback string) string {
	if v, ok := Sample(kfs, prop, t); ok && v.Kind == timeline.ValueColor {
		return v.Color
	}
	return fallback
}

func positionOr(kfs []timeline.Keyframe, t float64, fallback timeline.Position) timeline.Position {
	if v, ok := Sample(kfs, PropPosition, t); ok && v.Kind == timeline.ValuePosition {
		return v.Pos
	}
	return fallback
}
