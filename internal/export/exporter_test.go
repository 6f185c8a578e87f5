package export

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framecut/framecut/internal/progress"
	"github.com/framecut/framecut/internal/timeline"
)

// memEncoder accepts frames in memory; Finish returns a fixed payload.
type memEncoder struct {
	started bool
	frames  int
	cleaned bool
}

func (m *memEncoder) Start(context.Context) error { m.started = true; return nil }

func (m *memEncoder) WriteFrame(_ context.Context, _ *image.RGBA, index int) error {
	if index != m.frames {
		return assert.AnError
	}
	m.frames++
	return nil
}

func (m *memEncoder) Finish(context.Context) ([]byte, error) { return []byte("mp4"), nil }
func (m *memEncoder) Cleanup() error                         { m.cleaned = true; return nil }

func exportStore(t *testing.T) *timeline.Store {
	t.Helper()
	s := timeline.NewStore()
	s.Load(compositorProject())
	return s
}

func TestExporterRun(t *testing.T) {
	store := exportStore(t)
	e := New(store, nil, nil)
	e.SetSourceOpener(stubOpener(map[string]*stubSource{}))

	comp, err := NewCompositor(store.Export(), Options{Width: 64, Height: 48, FPS: 10}, nil, e.opener)
	require.NoError(t, err)
	defer comp.Close()

	enc := &memEncoder{}
	data, err := e.run(context.Background(), comp, enc)
	require.NoError(t, err)
	assert.Equal(t, []byte("mp4"), data)
	assert.Equal(t, 20, enc.frames, "every frame reaches the encoder in order")
	assert.True(t, enc.cleaned)

	ev := e.Tracker().Current()
	assert.Equal(t, progress.StageEncoding, ev.Stage)
}

func TestExporterRunEmptyProject(t *testing.T) {
	store := timeline.NewStore()
	store.Load(timeline.Project{
		FPS: 30, Resolution: timeline.Resolution{Width: 64, Height: 48},
	})
	e := New(store, nil, nil)

	comp, err := NewCompositor(store.Export(), Options{Width: 64, Height: 48, FPS: 10}, nil, stubOpener(map[string]*stubSource{}))
	require.NoError(t, err)

	_, err = e.run(context.Background(), comp, &memEncoder{})
	assert.ErrorContains(t, err, "no duration")
}

func TestExportInvalidOptions(t *testing.T) {
	e := New(exportStore(t), nil, nil)

	_, err := e.Export(context.Background(), Options{Width: 0, Height: 0, FPS: 30})
	require.Error(t, err)
	assert.Equal(t, progress.StageFailed, e.Tracker().Current().Stage)
}

func TestExportCancelled(t *testing.T) {
	e := New(exportStore(t), nil, nil)
	e.SetSourceOpener(stubOpener(map[string]*stubSource{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Export(ctx, Options{Width: 64, Height: 48, FPS: 10})
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestExporterProgressScale(t *testing.T) {
	store := exportStore(t)
	e := New(store, nil, nil)
	e.SetSourceOpener(stubOpener(map[string]*stubSource{}))

	var fractions []float64
	remove := e.Tracker().AddListener(func(ev progress.Event) {
		if ev.Stage == progress.StageRendering {
			fractions = append(fractions, ev.Progress)
		}
	})
	defer remove()

	comp, err := NewCompositor(store.Export(), Options{Width: 64, Height: 48, FPS: 10}, nil, e.opener)
	require.NoError(t, err)
	defer comp.Close()

	_, err = e.run(context.Background(), comp, &memEncoder{})
	require.NoError(t, err)

	require.NotEmpty(t, fractions)
	// Rendering occupies the first 80% of the scale.
	assert.InDelta(t, 0.8, fractions[len(fractions)-1], 1e-9)
	for i := 1; i < len(fractions); i++ {
		assert.Greater(t, fractions[i], fractions[i-1])
	}
}
