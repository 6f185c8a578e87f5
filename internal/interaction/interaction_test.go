package interaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framecut/framecut/internal/snap"
	"github.com/framecut/framecut/internal/timeline"
)

func videoClip(id, track string, start, dur float64) timeline.Clip {
	return timeline.Clip{
		ID: id, TrackID: track, Kind: timeline.KindVideo,
		StartTime: start, Duration: dur, MaxDuration: 60,
		Video: &timeline.VideoClip{SourceURL: "file:///a.mp4", Volume: 1},
	}
}

func newDragStore(t *testing.T, clips ...timeline.Clip) *timeline.Store {
	t.Helper()
	s := timeline.NewStore()
	s.Load(timeline.Project{
		FPS: 30, Duration: 60,
		Resolution: timeline.Resolution{Width: 1920, Height: 1080},
		Tracks:     []timeline.Track{{ID: "t1", Kind: timeline.TrackVideo, Order: 0, Visible: true}},
		Clips:      clips,
	})
	return s
}

// Zoom of 10 px/s keeps the pixel-to-time arithmetic easy to read.
var testCfg = Config{Zoom: 10}

func TestClipDragBeginErrors(t *testing.T) {
	s := newDragStore(t, videoClip("c1", "t1", 0, 2))
	d := NewClipDrag(s, testCfg, nil)

	assert.Error(t, d.Begin("ghost"))

	locked := videoClip("c2", "t1", 5, 2)
	locked.Locked = true
	s.AddClip(locked)
	assert.Error(t, d.Begin("c2"), "locked clips refuse the gesture")
}

func TestClipDragBeginSelects(t *testing.T) {
	s := newDragStore(t, videoClip("c1", "t1", 0, 2))
	d := NewClipDrag(s, testCfg, nil)

	require.NoError(t, d.Begin("c1"))
	assert.True(t, s.IsSelected("c1"))
}

func TestClipDragCommit(t *testing.T) {
	s := newDragStore(t, videoClip("c1", "t1", 0, 2))
	d := NewClipDrag(s, testCfg, nil)

	require.NoError(t, d.Begin("c1"))
	d.Move(30, "t1") // 30 px at zoom 10 = 3 s
	trackID, committed := d.End()

	assert.True(t, committed)
	assert.Equal(t, "t1", trackID)
	assert.Equal(t, StateCommitted, d.State())

	c, _ := s.Clip("c1")
	assert.Equal(t, 3.0, c.StartTime)

	// One gesture, one history entry.
	assert.True(t, s.Undo())
	c, _ = s.Clip("c1")
	assert.Equal(t, 0.0, c.StartTime)
	assert.False(t, s.Undo())
}

func TestClipDragClampsToZero(t *testing.T) {
	s := newDragStore(t, videoClip("c1", "t1", 4, 2))
	d := NewClipDrag(s, testCfg, nil)

	require.NoError(t, d.Begin("c1"))
	d.Move(-100, "t1")
	_, committed := d.End()
	require.True(t, committed)

	c, _ := s.Clip("c1")
	assert.Equal(t, 0.0, c.StartTime)
}

func TestClipDragCollisionRedirectsToNewTrack(t *testing.T) {
	s := newDragStore(t,
		videoClip("c1", "t1", 0, 2),
		videoClip("c2", "t1", 5, 2),
	)
	var last DragFeedback
	d := NewClipDrag(s, testCfg, func(f DragFeedback) { last = f })

	require.NoError(t, d.Begin("c1"))
	d.Move(50, "t1") // candidate 5..7 overlaps c2
	assert.True(t, last.Collision)

	trackID, committed := d.End()
	require.True(t, committed)
	assert.NotEqual(t, "t1", trackID, "overlapping drop lands on a fresh track")

	created, ok := s.Track(trackID)
	require.True(t, ok)
	assert.Equal(t, timeline.TrackVideo, created.Kind)

	moved, _ := s.Clip("c1")
	assert.Equal(t, trackID, moved.TrackID)
	assert.Equal(t, 5.0, moved.StartTime)

	// The stationary clip is untouched.
	other, _ := s.Clip("c2")
	assert.Equal(t, "t1", other.TrackID)
	assert.Equal(t, 5.0, other.StartTime)
}

func TestClipDragSnapsToNeighborEdge(t *testing.T) {
	s := newDragStore(t,
		videoClip("c1", "t1", 0, 2),
		videoClip("c2", "t1", 5, 2),
	)
	cfg := Config{Zoom: 10, SnapPixels: DefaultSnapPixels}
	var last DragFeedback
	d := NewClipDrag(s, cfg, func(f DragFeedback) { last = f })

	require.NoError(t, d.Begin("c1"))
	// Candidate start 2.5 puts the end edge at 4.5, within the 0.8 s
	// threshold of c2's start; snapping aligns end-to-start at 5.
	d.Move(25, "t1")

	assert.True(t, last.Snap.Snapped)
	assert.Equal(t, 3.0, last.CandidateStart)
	assert.False(t, last.Collision, "touching edges do not collide")
}

func TestClipDragUnknownTargetFallsBack(t *testing.T) {
	s := newDragStore(t, videoClip("c1", "t1", 0, 2))
	d := NewClipDrag(s, testCfg, nil)

	require.NoError(t, d.Begin("c1"))
	d.Move(10, "nope")
	trackID, committed := d.End()
	require.True(t, committed)
	assert.Equal(t, "t1", trackID)
}

func TestClipDragCancelLeavesStoreUntouched(t *testing.T) {
	s := newDragStore(t, videoClip("c1", "t1", 0, 2))
	d := NewClipDrag(s, testCfg, nil)

	require.NoError(t, d.Begin("c1"))
	d.Move(30, "t1")
	d.Cancel()

	c, _ := s.Clip("c1")
	assert.Equal(t, 0.0, c.StartTime)
	assert.False(t, s.Undo(), "a cancelled gesture pushes no history entry")
	assert.Equal(t, StateCancelled, d.State())

	// Samples after cancel are ignored.
	d.Move(50, "t1")
	c, _ = s.Clip("c1")
	assert.Equal(t, 0.0, c.StartTime)
}

func TestClipDragEndWithoutMove(t *testing.T) {
	s := newDragStore(t, videoClip("c1", "t1", 0, 2))
	d := NewClipDrag(s, testCfg, nil)

	require.NoError(t, d.Begin("c1"))
	_, committed := d.End()

	assert.False(t, committed, "a click without movement mutates nothing")
	assert.False(t, s.Undo())
}

func TestClipTrimRightEdge(t *testing.T) {
	c := videoClip("c1", "t1", 2, 3)
	s := newDragStore(t, c)
	tr := NewClipTrim(s, testCfg, nil)

	require.NoError(t, tr.Begin("c1", snap.EdgeRight))
	tr.Move(20) // end 5 -> 7
	require.True(t, tr.End())

	got, _ := s.Clip("c1")
	assert.Equal(t, 2.0, got.StartTime)
	assert.Equal(t, 5.0, got.Duration)
	assert.Equal(t, 0.0, got.SourceStart, "right trims never touch the source offset")
}

func TestClipTrimRightCappedBySource(t *testing.T) {
	c := videoClip("c1", "t1", 0, 3)
	c.SourceStart = 2
	c.MaxDuration = 8
	s := newDragStore(t, c)
	tr := NewClipTrim(s, testCfg, nil)

	require.NoError(t, tr.Begin("c1", snap.EdgeRight))
	tr.Move(500)
	require.True(t, tr.End())

	// Only 6 s of source remain past the offset.
	got, _ := s.Clip("c1")
	assert.Equal(t, 6.0, got.Duration)
}

func TestClipTrimRightMinDuration(t *testing.T) {
	s := newDragStore(t, videoClip("c1", "t1", 0, 3))
	tr := NewClipTrim(s, testCfg, nil)

	require.NoError(t, tr.Begin("c1", snap.EdgeRight))
	tr.Move(-500)
	require.True(t, tr.End())

	got, _ := s.Clip("c1")
	assert.Equal(t, timeline.MinClipDuration, got.Duration)
}

func TestClipTrimLeftEdge(t *testing.T) {
	c := videoClip("c1", "t1", 4, 4)
	c.SourceStart = 1
	s := newDragStore(t, c)
	tr := NewClipTrim(s, testCfg, nil)

	require.NoError(t, tr.Begin("c1", snap.EdgeLeft))
	tr.Move(10) // start 4 -> 5
	require.True(t, tr.End())

	got, _ := s.Clip("c1")
	assert.Equal(t, 5.0, got.StartTime)
	assert.Equal(t, 3.0, got.Duration)
	assert.Equal(t, 2.0, got.SourceStart, "source offset shifts with the start")
	assert.Equal(t, 8.0, got.EndTime(), "the end edge stays put")
}

func TestClipTrimLeftFlooredBySourceStart(t *testing.T) {
	c := videoClip("c1", "t1", 5, 3)
	c.SourceStart = 2
	s := newDragStore(t, c)
	tr := NewClipTrim(s, testCfg, nil)

	require.NoError(t, tr.Begin("c1", snap.EdgeLeft))
	tr.Move(-500)
	require.True(t, tr.End())

	// The source offset bottoms out at zero, so the start stops at 3.
	got, _ := s.Clip("c1")
	assert.Equal(t, 3.0, got.StartTime)
	assert.Equal(t, 5.0, got.Duration)
	assert.Equal(t, 0.0, got.SourceStart)
}

func TestClipTrimCancel(t *testing.T) {
	s := newDragStore(t, videoClip("c1", "t1", 0, 3))
	tr := NewClipTrim(s, testCfg, nil)

	require.NoError(t, tr.Begin("c1", snap.EdgeRight))
	tr.Move(20)
	tr.Cancel()

	got, _ := s.Clip("c1")
	assert.Equal(t, 3.0, got.Duration)
	assert.False(t, s.Undo())
}

func TestKeyframeDragCommit(t *testing.T) {
	c := videoClip("c1", "t1", 0, 4)
	c.Keyframes = []timeline.Keyframe{
		{ID: "k1", Property: "opacity", Time: 1, Value: timeline.NumberValue(0.5)},
	}
	s := newDragStore(t, c)
	k := NewKeyframeDrag(s, testCfg)

	require.NoError(t, k.Begin("c1", "k1"))
	k.Move(15) // 1 s -> 2.5 s
	assert.Equal(t, 2.5, k.Candidate())
	require.True(t, k.End())

	got, _ := s.Clip("c1")
	assert.Equal(t, 2.5, got.Keyframes[0].Time)

	assert.True(t, s.Undo())
	got, _ = s.Clip("c1")
	assert.Equal(t, 1.0, got.Keyframes[0].Time)
}

func TestKeyframeDragClampsToClip(t *testing.T) {
	c := videoClip("c1", "t1", 0, 4)
	c.Keyframes = []timeline.Keyframe{
		{ID: "k1", Property: "opacity", Time: 1, Value: timeline.NumberValue(0.5)},
	}
	s := newDragStore(t, c)
	k := NewKeyframeDrag(s, testCfg)

	require.NoError(t, k.Begin("c1", "k1"))
	k.Move(1000)
	assert.Equal(t, 4.0, k.Candidate(), "clamped to the clip duration")
	k.Move(-1000)
	assert.Equal(t, 0.0, k.Candidate())
}

func TestKeyframeDragBeginErrors(t *testing.T) {
	s := newDragStore(t, videoClip("c1", "t1", 0, 4))
	k := NewKeyframeDrag(s, testCfg)

	assert.Error(t, k.Begin("ghost", "k1"))
	assert.Error(t, k.Begin("c1", "k1"), "keyframe must exist on the clip")
}

func TestKeyframeDragCancel(t *testing.T) {
	c := videoClip("c1", "t1", 0, 4)
	c.Keyframes = []timeline.Keyframe{
		{ID: "k1", Property: "opacity", Time: 1, Value: timeline.NumberValue(0.5)},
	}
	s := newDragStore(t, c)
	k := NewKeyframeDrag(s, testCfg)

	require.NoError(t, k.Begin("c1", "k1"))
	k.Move(15)
	k.Cancel()

	got, _ := s.Clip("c1")
	assert.Equal(t, 1.0, got.Keyframes[0].Time)
	assert.False(t, s.Undo())
}
