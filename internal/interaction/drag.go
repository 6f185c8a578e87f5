package interaction

import (
	"fmt"
	"math"

	"github.com/framecut/framecut/internal/geometry"
	"github.com/framecut/framecut/internal/snap"
	"github.com/framecut/framecut/internal/timeline"
)

// DragFeedback is the transient visual-aid state of an in-flight drag,
// delivered through an explicit callback rather than shared globals.
type DragFeedback struct {
	Snap           snap.Result
	Collision      bool
	CandidateStart float64
	TargetTrackID  string
}

// ClipDrag moves a clip along the time axis and between tracks. A candidate
// placement that would overlap an existing clip on the target track is not
// rejected: at commit it is redirected into a freshly created track directly
// above the target, so the same-track non-overlap invariant holds for every
// drag-driven move.
type ClipDrag struct {
	store *timeline.Store
	cfg   Config

	state      State
	clipID     string
	origin     timeline.Clip
	points     []snap.Point
	all        []timeline.Clip
	candidate  float64
	target     string
	collision  bool
	lastSnap   snap.Result
	onFeedback func(DragFeedback)
}

// NewClipDrag returns a drag controller bound to the store. The feedback
// callback may be nil.
func NewClipDrag(store *timeline.Store, cfg Config, onFeedback func(DragFeedback)) *ClipDrag {
	return &ClipDrag{store: store, cfg: cfg, state: StateIdle, onFeedback: onFeedback}
}

// State returns the gesture state.
func (d *ClipDrag) State() State { return d.state }

// Begin captures the baseline for a drag of the given clip and makes sure
// the clip is part of the selection. Locked clips refuse the gesture.
func (d *ClipDrag) Begin(clipID string) error {
	if d.state == StateActive {
		return fmt.Errorf("drag already in progress")
	}
	clip, ok := d.store.Clip(clipID)
	if !ok {
		return fmt.Errorf("clip %s not found", clipID)
	}
	if clip.Locked {
		return fmt.Errorf("clip %s is locked", clipID)
	}
	d.clipID = clipID
	d.origin = clip
	d.candidate = clip.StartTime
	d.target = clip.TrackID
	d.all = d.store.Clips()
	d.points = snap.GeneratePoints(d.all, clipID, d.store.CurrentTime(), d.store.TotalDuration(), nil)
	d.state = StateIdle
	if !d.store.IsSelected(clipID) {
		d.store.Select(clipID)
	}
	return nil
}

// Move consumes one pointer sample: a horizontal pixel delta from the
// gesture origin and the track currently under the pointer. It recomputes
// the candidate placement, consults the snap engine, runs collision
// detection, and reports the transient state through the feedback callback.
func (d *ClipDrag) Move(deltaXPixels float64, targetTrackID string) {
	if d.state == StateCommitted || d.state == StateCancelled {
		return
	}
	d.state = StateActive

	candidate := d.origin.StartTime + geometry.PixelsToTime(deltaXPixels, d.cfg.Zoom)
	candidate = math.Max(0, candidate)

	d.lastSnap = snap.Result{Time: candidate}
	if d.cfg.SnapPixels > 0 {
		threshold := snap.Threshold(d.cfg.Zoom, d.cfg.SnapPixels)
		if res := snap.SnapClip(candidate, d.origin.Duration, d.points, threshold); res.Snapped && res.Time >= 0 {
			candidate = res.Time
			d.lastSnap = res
		}
	}

	if targetTrackID == "" {
		targetTrackID = d.origin.TrackID
	}
	if _, ok := d.store.Track(targetTrackID); !ok {
		targetTrackID = d.origin.TrackID
	}

	d.candidate = candidate
	d.target = targetTrackID
	d.collision = snap.WouldOverlap(d.origin, candidate, d.all, targetTrackID)

	if d.onFeedback != nil {
		d.onFeedback(DragFeedback{
			Snap:           d.lastSnap,
			Collision:      d.collision,
			CandidateStart: d.candidate,
			TargetTrackID:  d.target,
		})
	}
}

// End commits the drag: one history checkpoint, then one move mutation
// reflecting the last computed candidate. An overlapping placement is
// redirected into a new track above the target. Returns the track the clip
// ended up on.
func (d *ClipDrag) End() (trackID string, committed bool) {
	if d.state != StateActive {
		d.state = StateCommitted
		d.clearTransient()
		return d.origin.TrackID, false
	}

	d.store.SaveToHistory()
	target := d.target
	if d.collision {
		created := d.store.InsertTrackAbove(trackKindFor(d.origin.Kind), d.target)
		target = created.ID
	}
	d.store.MoveClip(d.clipID, d.candidate, target)

	d.state = StateCommitted
	d.clearTransient()
	return target, true
}

// Cancel abandons the gesture without mutating the store.
func (d *ClipDrag) Cancel() {
	d.state = StateCancelled
	d.clearTransient()
}

func (d *ClipDrag) clearTransient() {
	d.points = nil
	d.all = nil
	d.collision = false
	d.lastSnap = snap.Result{}
	if d.onFeedback != nil {
		d.onFeedback(DragFeedback{CandidateStart: d.candidate, TargetTrackID: d.target})
	}
}

func trackKindFor(kind timeline.ClipKind) timeline.TrackKind {
	switch kind {
	case timeline.KindVideo:
		return timeline.TrackVideo
	case timeline.KindAudio:
		return timeline.TrackAudio
	case timeline.KindText:
		return timeline.TrackText
	case timeline.KindSticker:
		return timeline.TrackSticker
	}
	return timeline.TrackVideo
}
