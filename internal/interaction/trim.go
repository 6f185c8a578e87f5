package interaction

import (
	"fmt"
	"math"

	"github.com/framecut/framecut/internal/geometry"
	"github.com/framecut/framecut/internal/snap"
	"github.com/framecut/framecut/internal/timeline"
)

// TrimFeedback is the transient state of an in-flight trim.
type TrimFeedback struct {
	Snap     snap.Result
	EdgeTime float64
}

// ClipTrim adjusts one edge of a clip. The controller solves all the
// constraints (minimum duration, non-negative start and source offset, the
// max-source-duration cap) and hands the store a precomputed field set; the
// store applies it verbatim.
//
// A left-edge trim moves the start, changes duration inversely, and shifts
// the source offset by the same amount for finite-source kinds, so the
// visible source content stays anchored. A right-edge trim only changes
// duration.
type ClipTrim struct {
	store *timeline.Store
	cfg   Config

	state      State
	clipID     string
	edge       snap.Edge
	origin     timeline.Clip
	points     []snap.Point
	update     timeline.TrimUpdate
	lastSnap   snap.Result
	onFeedback func(TrimFeedback)
}

// NewClipTrim returns a trim controller bound to the store. The feedback
// callback may be nil.
func NewClipTrim(store *timeline.Store, cfg Config, onFeedback func(TrimFeedback)) *ClipTrim {
	return &ClipTrim{store: store, cfg: cfg, state: StateIdle, onFeedback: onFeedback}
}

// State returns the gesture state.
func (t *ClipTrim) State() State { return t.state }

// Begin captures the baseline for trimming the given edge.
func (t *ClipTrim) Begin(clipID string, edge snap.Edge) error {
	if t.state == StateActive {
		return fmt.Errorf("trim already in progress")
	}
	clip, ok := t.store.Clip(clipID)
	if !ok {
		return fmt.Errorf("clip %s not found", clipID)
	}
	if clip.Locked {
		return fmt.Errorf("clip %s is locked", clipID)
	}
	t.clipID = clipID
	t.edge = edge
	t.origin = clip
	t.update = timeline.TrimUpdate{Duration: clip.Duration}
	t.points = snap.GeneratePoints(t.store.Clips(), clipID, t.store.CurrentTime(), t.store.TotalDuration(), nil)
	t.state = StateIdle
	return nil
}

// Move consumes one pointer sample for the edge being trimmed.
func (t *ClipTrim) Move(deltaXPixels float64) {
	if t.state == StateCommitted || t.state == StateCancelled {
		return
	}
	t.state = StateActive

	delta := geometry.PixelsToTime(deltaXPixels, t.cfg.Zoom)
	var edgeTime float64
	if t.edge == snap.EdgeLeft {
		edgeTime = t.origin.StartTime + delta
	} else {
		edgeTime = t.origin.EndTime() + delta
	}

	t.lastSnap = snap.Result{Time: edgeTime}
	if t.cfg.SnapPixels > 0 {
		threshold := snap.Threshold(t.cfg.Zoom, t.cfg.SnapPixels)
		if res := snap.SnapTrim(t.edge, edgeTime, t.points, threshold); res.Snapped {
			edgeTime = res.Time
			t.lastSnap = res
		}
	}

	if t.edge == snap.EdgeLeft {
		t.update = t.solveLeft(edgeTime)
	} else {
		t.update = t.solveRight(edgeTime)
	}

	if t.onFeedback != nil {
		t.onFeedback(TrimFeedback{Snap: t.lastSnap, EdgeTime: edgeTime})
	}
}

func (t *ClipTrim) solveLeft(newStart float64) timeline.TrimUpdate {
	lo := 0.0
	if t.origin.Kind.HasFiniteSource() {
		// Source offset shifts with the start and cannot go negative.
		lo = math.Max(lo, t.origin.StartTime-t.origin.SourceStart)
	}
	hi := t.origin.EndTime() - timeline.MinClipDuration
	newStart = geometry.ClampTime(newStart, lo, hi)

	shift := newStart - t.origin.StartTime
	u := timeline.TrimUpdate{
		Duration:  t.origin.Duration - shift,
		StartTime: &newStart,
	}
	if t.origin.Kind.HasFiniteSource() {
		ss := t.origin.SourceStart + shift
		u.SourceStart = &ss
	}
	return u
}

func (t *ClipTrim) solveRight(newEnd float64) timeline.TrimUpdate {
	lo := t.origin.StartTime + timeline.MinClipDuration
	hi := math.Inf(1)
	if t.origin.Kind.HasFiniteSource() && t.origin.MaxDuration > 0 {
		hi = t.origin.StartTime + (t.origin.MaxDuration - t.origin.SourceStart)
	}
	newEnd = geometry.ClampTime(newEnd, lo, hi)
	return timeline.TrimUpdate{Duration: newEnd - t.origin.StartTime}
}

// End commits the trim: one history checkpoint, then one trim mutation with
// the last solved field set.
func (t *ClipTrim) End() bool {
	if t.state != StateActive {
		t.state = StateCommitted
		t.clearTransient()
		return false
	}
	t.store.SaveToHistory()
	t.store.TrimClip(t.clipID, t.update)
	t.state = StateCommitted
	t.clearTransient()
	return true
}

// Cancel abandons the gesture without mutating the store.
func (t *ClipTrim) Cancel() {
	t.state = StateCancelled
	t.clearTransient()
}

func (t *ClipTrim) clearTransient() {
	t.points = nil
	t.lastSnap = snap.Result{}
}

// Update returns the currently solved trim, for preview rendering.
func (t *ClipTrim) Update() timeline.TrimUpdate { return t.update }
