// Package timeline holds the canonical data model of a project: tracks,
// clips, keyframes, transitions and the media library, plus the Store that
// owns all mutation of that state.
package timeline

import (
	"encoding/json"
	"fmt"
)

// MinClipDuration is the shortest clip, in seconds, any operation may produce.
const MinClipDuration = 0.1

// EdgeTolerance is the slack, in seconds, used by split and merge when
// deciding whether two points in time count as touching.
const EdgeTolerance = 0.1

// TrackKind identifies the kind of content a track carries.
type TrackKind string

const (
	TrackVideo   TrackKind = "video"
	TrackAudio   TrackKind = "audio"
	TrackText    TrackKind = "text"
	TrackSticker TrackKind = "sticker"
)

// Track is a horizontal lane of clips. Order 0 is the topmost track; orders
// are kept dense and unique among live tracks.
type Track struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Kind    TrackKind `json:"kind"`
	Order   int       `json:"order"`
	Height  float64   `json:"height,omitempty"`
	Locked  bool      `json:"locked,omitempty"`
	Visible bool      `json:"visible"`
	Muted   bool      `json:"muted,omitempty"`
	Solo    bool      `json:"solo,omitempty"`
	Color   string    `json:"color,omitempty"`
}

// ClipKind identifies the payload variant of a clip.
type ClipKind string

const (
	KindVideo   ClipKind = "video"
	KindAudio   ClipKind = "audio"
	KindText    ClipKind = "text"
	KindSticker ClipKind = "sticker"
)

// HasFiniteSource reports whether the kind references a finite-duration
// source, which makes source offsets and max-duration caps meaningful.
func (k ClipKind) HasFiniteSource() bool {
	switch k {
	case KindVideo, KindAudio:
		return true
	case KindText, KindSticker:
		return false
	}
	return false
}

// Position is a percentage pair in [0,100] relative to the output frame.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Clip is a tagged union over the four clip kinds. Exactly one of the
// payload pointers matching Kind is set.
type Clip struct {
	ID          string  `json:"id"`
	TrackID     string  `json:"trackId"`
	StartTime   float64 `json:"startTime"`
	Duration    float64 `json:"duration"`
	SourceStart float64 `json:"sourceStartTime,omitempty"`
	// MaxDuration caps trimming for finite-source kinds; 0 means unbounded.
	MaxDuration float64 `json:"maxDuration,omitempty"`
	Locked      bool    `json:"locked,omitempty"`
	Muted       bool    `json:"muted,omitempty"`

	// Static visual fields, the fallback when a property has no keyframes.
	Opacity  float64  `json:"opacity,omitempty"`
	Scale    float64  `json:"scale,omitempty"`
	Rotation float64  `json:"rotation,omitempty"`
	Position Position `json:"position,omitempty"`

	Keyframes     []Keyframe  `json:"keyframes,omitempty"`
	TransitionIn  *Transition `json:"transitionIn,omitempty"`
	TransitionOut *Transition `json:"transitionOut,omitempty"`

	Kind    ClipKind     `json:"kind"`
	Video   *VideoClip   `json:"video,omitempty"`
	Audio   *AudioClip   `json:"audio,omitempty"`
	Text    *TextClip    `json:"text,omitempty"`
	Sticker *StickerClip `json:"sticker,omitempty"`
}

// EndTime returns the exclusive end of the clip on the timeline.
func (c Clip) EndTime() float64 {
	return c.StartTime + c.Duration
}

// ActiveAt reports whether t falls inside the clip's [start, start+duration)
// window.
func (c Clip) ActiveAt(t float64) bool {
	return t >= c.StartTime && t < c.EndTime()
}

// SourceURL returns the media source reference for finite-source kinds and
// the empty string otherwise.
func (c Clip) SourceURL() string {
	switch c.Kind {
	case KindVideo:
		if c.Video != nil {
			return c.Video.SourceURL
		}
	case KindAudio:
		if c.Audio != nil {
			return c.Audio.SourceURL
		}
	case KindText, KindSticker:
	}
	return ""
}

// Clone returns a deep copy of the clip, including keyframes, transitions
// and the kind payload. History snapshots rely on this being complete.
func (c Clip) Clone() Clip {
	out := c
	if len(c.Keyframes) > 0 {
		out.Keyframes = make([]Keyframe, len(c.Keyframes))
		copy(out.Keyframes, c.Keyframes)
	}
	if c.TransitionIn != nil {
		t := *c.TransitionIn
		out.TransitionIn = &t
	}
	if c.TransitionOut != nil {
		t := *c.TransitionOut
		out.TransitionOut = &t
	}
	switch c.Kind {
	case KindVideo:
		if c.Video != nil {
			v := *c.Video
			out.Video = &v
		}
	case KindAudio:
		if c.Audio != nil {
			a := *c.Audio
			out.Audio = &a
		}
	case KindText:
		if c.Text != nil {
			t := *c.Text
			out.Text = &t
		}
	case KindSticker:
		if c.Sticker != nil {
			s := *c.Sticker
			out.Sticker = &s
		}
	}
	return out
}

// VideoClip carries the payload of a video clip.
type VideoClip struct {
	SourceURL    string  `json:"sourceUrl"`
	Volume       float64 `json:"volume,omitempty"`
	PlaybackRate float64 `json:"playbackRate,omitempty"`
}

// AudioClip carries the payload of an audio clip.
type AudioClip struct {
	SourceURL    string  `json:"sourceUrl"`
	Volume       float64 `json:"volume,omitempty"`
	Pan          float64 `json:"pan,omitempty"`
	PlaybackRate float64 `json:"playbackRate,omitempty"`
	FadeIn       float64 `json:"fadeIn,omitempty"`
	FadeOut      float64 `json:"fadeOut,omitempty"`
}

// TextClip carries the payload of a text clip.
type TextClip struct {
	Text       string  `json:"text"`
	FontFamily string  `json:"fontFamily,omitempty"`
	FontSize   float64 `json:"fontSize,omitempty"`
	FontWeight string  `json:"fontWeight,omitempty"`
	Color      string  `json:"color,omitempty"`
	Background string  `json:"background,omitempty"`
	Align      string  `json:"align,omitempty"` // left, center, right
}

// StickerClip carries the payload of a sticker clip.
type StickerClip struct {
	AssetURL string `json:"assetUrl"`
}

// EasingMode selects the easing curve applied to interpolation progress.
type EasingMode string

const (
	EaseLinear EasingMode = "linear"
	EaseIn     EasingMode = "ease-in"
	EaseOut    EasingMode = "ease-out"
	EaseInOut  EasingMode = "ease-in-out"
	EaseBezier EasingMode = "cubic-bezier"
)

// BezierControl holds the two control points of a cubic-bezier easing curve,
// in the CSS convention where the curve runs from (0,0) to (1,1).
type BezierControl struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Keyframe is one control point of an animated clip property. Time is
// relative to the clip start. Easing belongs to the outgoing keyframe: it
// shapes the segment from this keyframe to the next one.
type Keyframe struct {
	ID       string         `json:"id"`
	Property string         `json:"property"`
	Time     float64        `json:"time"`
	Value    Value          `json:"value"`
	Easing   EasingMode     `json:"easing,omitempty"`
	Bezier   *BezierControl `json:"bezier,omitempty"`
}

// ValueKind discriminates the payload of a keyframe Value.
type ValueKind int

const (
	ValueNumber ValueKind = iota
	ValueColor
	ValuePosition
)

// Value is a keyframe value: a scalar, a #rrggbb color string, or an {x,y}
// percentage pair. On the wire it is a bare number, string or object,
// matching the project interchange format.
type Value struct {
	Kind  ValueKind
	Num   float64
	Color string
	Pos   Position
}

// Num returns a number value.
func NumberValue(n float64) Value { return Value{Kind: ValueNumber, Num: n} }

// ColorValue returns a color value.
func ColorValue(c string) Value { return Value{Kind: ValueColor, Color: c} }

// PositionValue returns a position value.
func PositionValue(x, y float64) Value {
	return Value{Kind: ValuePosition, Pos: Position{X: x, Y: y}}
}

// MarshalJSON emits the bare interchange form.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueNumber:
		return json.Marshal(v.Num)
	case ValueColor:
		return json.Marshal(v.Color)
	case ValuePosition:
		return json.Marshal(v.Pos)
	}
	return nil, fmt.Errorf("unknown value kind %d", v.Kind)
}

// UnmarshalJSON probes the bare interchange form: number, string or {x,y}.
func (v *Value) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*v = NumberValue(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = ColorValue(s)
		return nil
	}
	var p Position
	if err := json.Unmarshal(data, &p); err == nil {
		*v = PositionValue(p.X, p.Y)
		return nil
	}
	return fmt.Errorf("keyframe value %s is not a number, color or position", data)
}

// TransitionType names the visual transition applied at a clip edge.
type TransitionType string

const (
	TransitionFade       TransitionType = "fade"
	TransitionDissolve   TransitionType = "dissolve"
	TransitionSlideLeft  TransitionType = "slide-left"
	TransitionSlideRight TransitionType = "slide-right"
	TransitionWipeLeft   TransitionType = "wipe-left"
	TransitionWipeRight  TransitionType = "wipe-right"
	TransitionZoomIn     TransitionType = "zoom-in"
	TransitionZoomOut    TransitionType = "zoom-out"
	TransitionPushUp     TransitionType = "push-up"
	TransitionPushDown   TransitionType = "push-down"
)

// Transition is attached to a clip's in or out edge. Duration is clamped so
// it never exceeds the clip itself or the available adjacent overlap.
type Transition struct {
	Type     TransitionType `json:"type"`
	Duration float64        `json:"duration"`
	Easing   EasingMode     `json:"easing,omitempty"`
}

// MediaKind identifies the kind of a media library item.
type MediaKind string

const (
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
	MediaSRT   MediaKind = "srt"
)

// MediaItem is an entry in the project's media library. Clips reference
// sources by URL rather than by media id; the library is an independent
// index of what has been imported.
type MediaItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      MediaKind `json:"kind"`
	URL       string    `json:"url"`
	Duration  float64   `json:"duration,omitempty"`
	Width     int       `json:"width,omitempty"`
	Height    int       `json:"height,omitempty"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	Cues      []Cue     `json:"cues,omitempty"`
}

// Cue is one parsed subtitle entry, times in seconds.
type Cue struct {
	Index int     `json:"index"`
	Start float64 `json:"startTime"`
	End   float64 `json:"endTime"`
	Text  string  `json:"text"`
}

// Resolution is the output frame size of a project.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Project is the interchange snapshot of a whole timeline: the shape
// accepted by Store.Load and produced by Store.Export, and the JSON shape
// persisted by save/autosave.
type Project struct {
	FPS          float64     `json:"fps"`
	Duration     float64     `json:"duration"`
	Resolution   Resolution  `json:"resolution"`
	Tracks       []Track     `json:"tracks"`
	Clips        []Clip      `json:"clips"`
	MediaLibrary []MediaItem `json:"mediaLibrary"`
}
