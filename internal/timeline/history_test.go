package timeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUndoRedoRoundTrip(t *testing.T) {
	s := storeWithTrack(t)
	s.AddClip(videoClip("c1", "t1", 0, 2))

	s.SaveToHistory()
	require.True(t, s.MoveClip("c1", 5, ""))

	require.True(t, s.Undo())
	c, _ := s.Clip("c1")
	assert.Equal(t, 0.0, c.StartTime)

	require.True(t, s.Redo())
	c, _ = s.Clip("c1")
	assert.Equal(t, 5.0, c.StartTime)
}

func TestUndoAtEarliestIsNoOp(t *testing.T) {
	s := storeWithTrack(t)
	s.AddClip(videoClip("c1", "t1", 0, 2))

	assert.False(t, s.Undo())
	c, exists := s.Clip("c1")
	require.True(t, exists)
	assert.Equal(t, 2.0, c.Duration)
}

func TestRedoAtNewestIsNoOp(t *testing.T) {
	s := storeWithTrack(t)
	assert.False(t, s.Redo())

	s.SaveToHistory()
	s.AddClip(videoClip("c1", "t1", 0, 2))
	assert.False(t, s.Redo(), "redo without a preceding undo is a no-op")
}

func TestNewEditTruncatesRedo(t *testing.T) {
	s := storeWithTrack(t)
	s.AddClip(videoClip("c1", "t1", 0, 2))

	s.SaveToHistory()
	s.MoveClip("c1", 5, "")

	require.True(t, s.Undo())

	// A new checkpoint after undo discards the redo side.
	s.SaveToHistory()
	s.MoveClip("c1", 8, "")

	assert.False(t, s.Redo())
	c, _ := s.Clip("c1")
	assert.Equal(t, 8.0, c.StartTime)
}

func TestRepeatedUndoRedoIsIdempotent(t *testing.T) {
	s := storeWithTrack(t)
	s.AddClip(videoClip("c1", "t1", 0, 2))
	s.SaveToHistory()
	s.MoveClip("c1", 5, "")

	require.True(t, s.Undo())
	assert.False(t, s.Undo(), "second undo has nothing left to restore")
	c, _ := s.Clip("c1")
	assert.Equal(t, 0.0, c.StartTime)

	require.True(t, s.Redo())
	assert.False(t, s.Redo())
	c, _ = s.Clip("c1")
	assert.Equal(t, 5.0, c.StartTime)
}

func TestHistoryBounded(t *testing.T) {
	s := storeWithTrack(t)
	s.AddClip(videoClip("c1", "t1", 0, 2))

	for i := 0; i < maxHistoryEntries+10; i++ {
		s.SaveToHistory()
		s.MoveClip("c1", float64(i+1), "")
	}

	undone := 0
	for s.Undo() {
		undone++
	}
	assert.Equal(t, maxHistoryEntries, undone, "oldest checkpoints are dropped past the cap")
}

func TestUndoRestoresStructureNotSelection(t *testing.T) {
	s := storeWithTrack(t)
	s.AddClip(videoClip("c1", "t1", 0, 2))
	s.Select("c1")

	s.SaveToHistory()
	s.RemoveClip("c1")

	require.True(t, s.Undo())
	_, exists := s.Clip("c1")
	assert.True(t, exists)
	// Selection is transient state; the removed clip does not rejoin it.
	assert.Empty(t, s.SelectedIDs())
}

func TestUndoRestoresDeletedTrackAndClips(t *testing.T) {
	s := storeWithTrack(t)
	for i := 0; i < 3; i++ {
		s.AddClip(videoClip(fmt.Sprintf("c%d", i), "t1", float64(i*2), 2))
	}

	s.SaveToHistory()
	s.RemoveTrack("t1")
	assert.Empty(t, s.Clips())

	require.True(t, s.Undo())
	assert.Len(t, s.Clips(), 3)
	_, ok := s.Track("t1")
	assert.True(t, ok)
}

func TestLoadClearsHistory(t *testing.T) {
	s := storeWithTrack(t)
	s.AddClip(videoClip("c1", "t1", 0, 2))
	s.SaveToHistory()
	s.MoveClip("c1", 5, "")

	s.Load(Project{
		FPS:        30,
		Resolution: Resolution{Width: 1920, Height: 1080},
		Tracks:     []Track{{ID: "t1", Kind: TrackVideo, Order: 0, Visible: true}},
	})

	assert.False(t, s.Undo(), "loading a project clears undo history")
}
