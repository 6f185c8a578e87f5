package export

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framecut/framecut/internal/timeline"
)

// stubSource serves a fixed image and records the seek times it receives.
type stubSource struct {
	img    image.Image
	seeks  []float64
	closed bool
}

func (s *stubSource) Seek(_ context.Context, t float64) error {
	s.seeks = append(s.seeks, t)
	return nil
}

func (s *stubSource) Frame() (image.Image, error) { return s.img, nil }
func (s *stubSource) Close() error                { s.closed = true; return nil }

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func compositorProject() timeline.Project {
	return timeline.Project{
		FPS: 10, Duration: 2,
		Resolution: timeline.Resolution{Width: 64, Height: 48},
		Tracks: []timeline.Track{
			{ID: "top", Kind: timeline.TrackVideo, Order: 0, Visible: true},
			{ID: "bottom", Kind: timeline.TrackVideo, Order: 1, Visible: true},
			{ID: "hidden", Kind: timeline.TrackVideo, Order: 2, Visible: false},
		},
		Clips: []timeline.Clip{
			{
				ID: "v-top", TrackID: "top", Kind: timeline.KindVideo,
				StartTime: 0, Duration: 1,
				Video: &timeline.VideoClip{SourceURL: "/media/top.mp4"},
			},
			{
				ID: "v-bottom", TrackID: "bottom", Kind: timeline.KindVideo,
				StartTime: 0, Duration: 2,
				Video: &timeline.VideoClip{SourceURL: "/media/bottom.mp4"},
			},
			{
				ID: "v-hidden", TrackID: "hidden", Kind: timeline.KindVideo,
				StartTime: 0, Duration: 2,
				Video: &timeline.VideoClip{SourceURL: "/media/hidden.mp4"},
			},
			{
				ID: "a1", TrackID: "bottom", Kind: timeline.KindAudio,
				StartTime: 0, Duration: 2,
				Audio: &timeline.AudioClip{SourceURL: "/media/a.wav"},
			},
		},
	}
}

func stubOpener(sources map[string]*stubSource) SourceOpener {
	return func(path string) (FrameSource, error) {
		src, ok := sources[path]
		if !ok {
			src = &stubSource{img: solidImage(64, 48, color.RGBA{R: 255, A: 255})}
			sources[path] = src
		}
		return src, nil
	}
}

func TestCompositorFrameCountAndSize(t *testing.T) {
	opts := Options{Width: 65, Height: 49, FPS: 10}
	comp, err := NewCompositor(compositorProject(), opts, nil, stubOpener(map[string]*stubSource{}))
	require.NoError(t, err)

	assert.Equal(t, 20, comp.FrameCount())
	w, h := comp.Size()
	assert.Equal(t, []int{64, 48}, []int{w, h}, "odd dimensions round down")

	// A fractional frame product rounds up, never truncates.
	p := compositorProject()
	p.Duration = 2.05
	comp, err = NewCompositor(p, opts, nil, stubOpener(map[string]*stubSource{}))
	require.NoError(t, err)
	assert.Equal(t, 21, comp.FrameCount())
}

func TestActiveClipsOrderAndVisibility(t *testing.T) {
	comp, err := NewCompositor(compositorProject(), Options{Width: 64, Height: 48, FPS: 10}, nil, stubOpener(map[string]*stubSource{}))
	require.NoError(t, err)

	// At t=0.5 both video clips are active. The bottom track comes first so
	// the topmost track draws last; hidden tracks and audio clips never
	// appear.
	active := comp.ActiveClips(0.5)
	require.Len(t, active, 2)
	assert.Equal(t, "v-bottom", active[0].ID)
	assert.Equal(t, "v-top", active[1].ID)

	// At t=1.5 the top clip has ended.
	active = comp.ActiveClips(1.5)
	require.Len(t, active, 1)
	assert.Equal(t, "v-bottom", active[0].ID)
}

func TestRenderFrameCompositesTopmostLast(t *testing.T) {
	sources := map[string]*stubSource{
		"/media/top.mp4":    {img: solidImage(64, 48, color.RGBA{R: 255, A: 255})},
		"/media/bottom.mp4": {img: solidImage(64, 48, color.RGBA{B: 255, A: 255})},
	}
	comp, err := NewCompositor(compositorProject(), Options{Width: 64, Height: 48, FPS: 10}, nil, stubOpener(sources))
	require.NoError(t, err)

	frame, err := comp.RenderFrame(context.Background(), 5) // t = 0.5
	require.NoError(t, err)

	// The red top-track clip covers the blue bottom-track clip.
	got := frame.RGBAAt(32, 24)
	assert.Equal(t, uint8(255), got.R)
	assert.Equal(t, uint8(0), got.B)

	// Past the top clip's end only the blue clip remains.
	frame, err = comp.RenderFrame(context.Background(), 15) // t = 1.5
	require.NoError(t, err)
	got = frame.RGBAAt(32, 24)
	assert.Equal(t, uint8(0), got.R)
	assert.Equal(t, uint8(255), got.B)
}

func TestRenderFrameSeeksSourceTime(t *testing.T) {
	p := compositorProject()
	p.Clips = []timeline.Clip{{
		ID: "v1", TrackID: "top", Kind: timeline.KindVideo,
		StartTime: 0.5, Duration: 1, SourceStart: 2,
		Video: &timeline.VideoClip{SourceURL: "/media/top.mp4", PlaybackRate: 2},
	}}
	src := &stubSource{img: solidImage(64, 48, color.RGBA{R: 255, A: 255})}
	comp, err := NewCompositor(p, Options{Width: 64, Height: 48, FPS: 10}, nil,
		stubOpener(map[string]*stubSource{"/media/top.mp4": src}))
	require.NoError(t, err)

	_, err = comp.RenderFrame(context.Background(), 10) // t = 1.0
	require.NoError(t, err)

	// sourceStart + (t - start) * rate = 2 + 0.5*2
	require.Len(t, src.seeks, 1)
	assert.InDelta(t, 3.0, src.seeks[0], 1e-9)
}

func TestSingleClipScenarioEveryFrameActive(t *testing.T) {
	p := timeline.Project{
		FPS: 10, Duration: 5,
		Resolution: timeline.Resolution{Width: 64, Height: 48},
		Tracks:     []timeline.Track{{ID: "t1", Kind: timeline.TrackVideo, Order: 0, Visible: true}},
		Clips: []timeline.Clip{{
			ID: "v1", TrackID: "t1", Kind: timeline.KindVideo,
			StartTime: 0, Duration: 5,
			Video: &timeline.VideoClip{SourceURL: "/media/only.mp4"},
		}},
	}
	comp, err := NewCompositor(p, Options{Width: 64, Height: 48, FPS: 10}, nil, stubOpener(map[string]*stubSource{}))
	require.NoError(t, err)

	require.Equal(t, 50, comp.FrameCount())
	for i := 0; i < 50; i++ {
		active := comp.ActiveClips(float64(i) / 10)
		require.Len(t, active, 1, "frame %d", i)
		assert.Equal(t, "v1", active[0].ID)
	}
}

func TestRenderFrameCancelled(t *testing.T) {
	comp, err := NewCompositor(compositorProject(), Options{Width: 64, Height: 48, FPS: 10}, nil, stubOpener(map[string]*stubSource{}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = comp.RenderFrame(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompositorCloseReleasesSources(t *testing.T) {
	sources := map[string]*stubSource{}
	comp, err := NewCompositor(compositorProject(), Options{Width: 64, Height: 48, FPS: 10}, nil, stubOpener(sources))
	require.NoError(t, err)

	_, err = comp.RenderFrame(context.Background(), 0)
	require.NoError(t, err)
	require.NotEmpty(t, sources)

	require.NoError(t, comp.Close())
	for path, src := range sources {
		assert.True(t, src.closed, "source %s not closed", path)
	}
}

func TestTransitionFX(t *testing.T) {
	clip := timeline.Clip{
		StartTime: 2, Duration: 4,
		TransitionIn:  &timeline.Transition{Type: timeline.TransitionFade, Duration: 1},
		TransitionOut: &timeline.Transition{Type: timeline.TransitionFade, Duration: 1},
	}

	// Halfway through the fade-in: linear easing, half transparent.
	fx := transitionFXAt(clip, 2.5)
	assert.InDelta(t, 0.5, fx.alpha, 1e-9)

	// Steady state between the transitions.
	fx = transitionFXAt(clip, 4)
	assert.Equal(t, 1.0, fx.alpha)

	// Halfway through the fade-out.
	fx = transitionFXAt(clip, 5.5)
	assert.InDelta(t, 0.5, fx.alpha, 1e-9)
}

func TestWipeRect(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 50)

	fx := neutralFX()
	assert.Equal(t, bounds, wipeRect(bounds, fx))

	fx.wipe = 0.25
	fx.wipeFrom = wipeFromLeft
	assert.Equal(t, image.Rect(0, 0, 25, 50), wipeRect(bounds, fx))

	fx.wipeFrom = wipeFromRight
	assert.Equal(t, image.Rect(75, 0, 100, 50), wipeRect(bounds, fx))
}
