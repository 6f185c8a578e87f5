package export

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"math"
	"sort"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/framecut/framecut/internal/interp"
	"github.com/framecut/framecut/internal/timeline"
)

// Compositor rasterizes one frame of a project at a time. It works from an
// immutable project snapshot, so an export is unaffected by edits made
// while it runs, and renders identically regardless of how fast frames are
// consumed.
type Compositor struct {
	project timeline.Project
	opts    Options
	opener  SourceOpener
	resolve func(string) (string, error)

	tracks  map[string]timeline.Track
	sources map[string]FrameSource
	text    *textRenderer
}

// NewCompositor prepares a compositor for the given snapshot. resolve maps
// a clip source URL to a local path; opener opens the decodable source.
func NewCompositor(p timeline.Project, opts Options, resolve func(string) (string, error), opener SourceOpener) (*Compositor, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.Width, opts.Height = EvenDimensions(opts.Width, opts.Height)

	tr, err := newTextRenderer()
	if err != nil {
		return nil, err
	}
	tracks := make(map[string]timeline.Track, len(p.Tracks))
	for _, t := range p.Tracks {
		tracks[t.ID] = t
	}
	if resolve == nil {
		resolve = func(s string) (string, error) { return s, nil }
	}
	if opener == nil {
		opener = OpenFFmpegSource
	}
	return &Compositor{
		project: p,
		opts:    opts,
		opener:  opener,
		resolve: resolve,
		tracks:  tracks,
		sources: make(map[string]FrameSource),
		text:    tr,
	}, nil
}

// FrameCount is the number of frames the export produces.
func (c *Compositor) FrameCount() int {
	return int(math.Ceil(c.project.Duration * c.opts.FPS))
}

// Size returns the even-adjusted output dimensions.
func (c *Compositor) Size() (int, int) { return c.opts.Width, c.opts.Height }

// ActiveClips returns the video and text clips visible at time t, ordered
// bottom track first so the topmost track (order 0) draws last.
func (c *Compositor) ActiveClips(t float64) []timeline.Clip {
	var active []timeline.Clip
	for _, clip := range c.project.Clips {
		if clip.Kind != timeline.KindVideo && clip.Kind != timeline.KindText {
			continue
		}
		if !clip.ActiveAt(t) {
			continue
		}
		track, ok := c.tracks[clip.TrackID]
		if !ok || !track.Visible {
			continue
		}
		active = append(active, clip)
	}
	sort.SliceStable(active, func(i, j int) bool {
		return c.tracks[active[i].TrackID].Order > c.tracks[active[j].TrackID].Order
	})
	return active
}

// RenderFrame composites frame index into a fresh RGBA surface. The frame's
// time is index / fps.
func (c *Compositor) RenderFrame(ctx context.Context, index int) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t := float64(index) / c.opts.FPS

	canvas := image.NewRGBA(image.Rect(0, 0, c.opts.Width, c.opts.Height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	for _, clip := range c.ActiveClips(t) {
		switch clip.Kind {
		case timeline.KindVideo:
			if err := c.drawVideoClip(ctx, canvas, clip, t); err != nil {
				// A failed seek must not silently become a black frame.
				slog.Warn("video frame sample failed, skipping clip for this frame",
					"clip", clip.ID, "time", t, "error", err)
			}
		case timeline.KindText:
			c.drawTextClip(canvas, clip, t)
		case timeline.KindAudio, timeline.KindSticker:
		}
	}
	return canvas, nil
}

func (c *Compositor) drawVideoClip(ctx context.Context, canvas *image.RGBA, clip timeline.Clip, t float64) error {
	src, err := c.sourceFor(clip)
	if err != nil {
		return err
	}

	// Seek to the exact source time before sampling; frame accuracy
	// requires seek-then-draw, never sampling mid-seek.
	srcTime := clip.SourceStart + (t-clip.StartTime)*playbackRate(clip)
	if err := src.Seek(ctx, srcTime); err != nil {
		return err
	}
	frame, err := src.Frame()
	if err != nil {
		return err
	}

	props := interp.AnimatedProperties(clip, t)
	fx := transitionFXAt(clip, t)
	alpha := props.Opacity * fx.alpha
	if alpha <= 0 {
		return nil
	}

	c.blitFrame(canvas, frame, props, fx, alpha)
	return nil
}

// blitFrame draws a source frame scaled to fit the output while preserving
// aspect ratio, centered at the clip's animated position, with rotation and
// scale applied through one affine transform.
func (c *Compositor) blitFrame(canvas *image.RGBA, frame image.Image, props interp.Properties, fx transitionFX, alpha float64) {
	sb := frame.Bounds()
	sw, sh := float64(sb.Dx()), float64(sb.Dy())
	if sw == 0 || sh == 0 {
		return
	}
	w, h := float64(c.opts.Width), float64(c.opts.Height)

	fit := math.Min(w/sw, h/sh)
	scale := fit * props.Scale * fx.scale
	if scale <= 0 {
		return
	}

	cx := w*props.Position.X/100 + fx.offsetX*w
	cy := h*props.Position.Y/100 + fx.offsetY*h

	theta := props.Rotation * math.Pi / 180
	cos, sin := math.Cos(theta), math.Sin(theta)

	aff := f64.Aff3{
		scale * cos, -scale * sin, cx - scale*(cos*sw/2-sin*sh/2),
		scale * sin, scale * cos, cy - scale*(sin*sw/2+cos*sh/2),
	}

	layer := image.NewRGBA(canvas.Bounds())
	xdraw.BiLinear.Transform(layer, aff, frame, sb, xdraw.Over, nil)

	dst := wipeRect(canvas.Bounds(), fx)
	mask := image.NewUniform(color.Alpha{A: uint8(math.Round(alpha * 255))})
	draw.DrawMask(canvas, dst, layer, dst.Min, mask, dst.Min, draw.Over)
}

func (c *Compositor) drawTextClip(canvas *image.RGBA, clip timeline.Clip, t float64) {
	if clip.Text == nil {
		return
	}
	props := interp.AnimatedProperties(clip, t)
	fx := transitionFXAt(clip, t)
	alpha := props.Opacity * fx.alpha
	if alpha <= 0 {
		return
	}

	layer := image.NewRGBA(canvas.Bounds())
	c.text.draw(layer, *clip.Text, props, fx)

	dst := wipeRect(canvas.Bounds(), fx)
	mask := image.NewUniform(color.Alpha{A: uint8(math.Round(alpha * 255))})
	draw.DrawMask(canvas, dst, layer, dst.Min, mask, dst.Min, draw.Over)
}

func (c *Compositor) sourceFor(clip timeline.Clip) (FrameSource, error) {
	url := clip.SourceURL()
	if src, ok := c.sources[url]; ok {
		return src, nil
	}
	path, err := c.resolve(url)
	if err != nil {
		return nil, err
	}
	src, err := c.opener(path)
	if err != nil {
		return nil, err
	}
	c.sources[url] = src
	return src, nil
}

// Close releases all opened frame sources.
func (c *Compositor) Close() error {
	var first error
	for url, src := range c.sources {
		if err := src.Close(); err != nil && first == nil {
			first = err
		}
		delete(c.sources, url)
	}
	return first
}

// transitionFX is the visual adjustment a clip's edge transitions apply at
// one point in time.
type transitionFX struct {
	alpha   float64
	offsetX float64 // fraction of output width
	offsetY float64 // fraction of output height
	scale   float64
	// wipe is the visible fraction in [0,1]; from selects which edge the
	// reveal grows from.
	wipe     float64
	wipeFrom snapEdge
}

type snapEdge int

const (
	wipeNone snapEdge = iota
	wipeFromLeft
	wipeFromRight
)

func neutralFX() transitionFX {
	return transitionFX{alpha: 1, scale: 1, wipe: 1}
}

// transitionFXAt evaluates the in and out transitions of a clip at time t
// and combines their effects. Easing is fixed per transition type: fade is
// linear, everything else ease-in-out.
func transitionFXAt(clip timeline.Clip, t float64) transitionFX {
	fx := neutralFX()
	if tr := clip.TransitionIn; tr != nil && tr.Duration > 0 {
		elapsed := t - clip.StartTime
		if elapsed < tr.Duration {
			p := easeTransition(tr.Type, elapsed/tr.Duration)
			applyTransition(&fx, tr.Type, p)
		}
	}
	if tr := clip.TransitionOut; tr != nil && tr.Duration > 0 {
		remaining := clip.EndTime() - t
		if remaining < tr.Duration {
			p := easeTransition(tr.Type, remaining/tr.Duration)
			applyTransition(&fx, tr.Type, p)
		}
	}
	return fx
}

func easeTransition(tt timeline.TransitionType, p float64) float64 {
	p = math.Min(math.Max(p, 0), 1)
	if tt == timeline.TransitionFade {
		return p
	}
	return interp.EaseInOut(p)
}

// applyTransition folds one transition's effect at progress p (0 = fully
// transitioned out, 1 = fully visible) into fx.
func applyTransition(fx *transitionFX, tt timeline.TransitionType, p float64) {
	switch tt {
	case timeline.TransitionFade, timeline.TransitionDissolve:
		fx.alpha *= p
	case timeline.TransitionSlideLeft:
		fx.offsetX += 1 - p
	case timeline.TransitionSlideRight:
		fx.offsetX -= 1 - p
	case timeline.TransitionPushUp:
		fx.offsetY += 1 - p
	case timeline.TransitionPushDown:
		fx.offsetY -= 1 - p
	case timeline.TransitionZoomIn:
		fx.scale *= p
	case timeline.TransitionZoomOut:
		fx.scale *= 2 - p
	case timeline.TransitionWipeLeft:
		fx.wipe *= p
		fx.wipeFrom = wipeFromRight
	case timeline.TransitionWipeRight:
		fx.wipe *= p
		fx.wipeFrom = wipeFromLeft
	}
}

// wipeRect restricts the destination rectangle to the visible wipe region.
func wipeRect(bounds image.Rectangle, fx transitionFX) image.Rectangle {
	if fx.wipeFrom == wipeNone || fx.wipe >= 1 {
		return bounds
	}
	visible := int(math.Round(float64(bounds.Dx()) * fx.wipe))
	if fx.wipeFrom == wipeFromLeft {
		return image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Min.X+visible, bounds.Max.Y)
	}
	return image.Rect(bounds.Max.X-visible, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
}
