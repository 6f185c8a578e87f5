package interaction

import (
	"fmt"

	"github.com/framecut/framecut/internal/geometry"
	"github.com/framecut/framecut/internal/timeline"
)

// KeyframeDrag moves a keyframe along its clip's local time axis. The
// candidate time is clamped to [0, clip duration]. Duplicate times with a
// neighboring keyframe are tolerated; consumers re-sort by time before
// sampling.
type KeyframeDrag struct {
	store *timeline.Store
	cfg   Config

	state      State
	clipID     string
	keyframeID string
	origin     timeline.Keyframe
	clipDur    float64
	candidate  float64
}

// NewKeyframeDrag returns a keyframe drag controller bound to the store.
func NewKeyframeDrag(store *timeline.Store, cfg Config) *KeyframeDrag {
	return &KeyframeDrag{store: store, cfg: cfg, state: StateIdle}
}

// State returns the gesture state.
func (k *KeyframeDrag) State() State { return k.state }

// Begin captures the baseline for dragging one keyframe of a clip.
func (k *KeyframeDrag) Begin(clipID, keyframeID string) error {
	if k.state == StateActive {
		return fmt.Errorf("keyframe drag already in progress")
	}
	clip, ok := k.store.Clip(clipID)
	if !ok {
		return fmt.Errorf("clip %s not found", clipID)
	}
	for _, kf := range clip.Keyframes {
		if kf.ID == keyframeID {
			k.clipID = clipID
			k.keyframeID = keyframeID
			k.origin = kf
			k.clipDur = clip.Duration
			k.candidate = kf.Time
			k.state = StateIdle
			return nil
		}
	}
	return fmt.Errorf("keyframe %s not found on clip %s", keyframeID, clipID)
}

// Move consumes one pointer sample.
func (k *KeyframeDrag) Move(deltaXPixels float64) {
	if k.state == StateCommitted || k.state == StateCancelled {
		return
	}
	k.state = StateActive
	t := k.origin.Time + geometry.PixelsToTime(deltaXPixels, k.cfg.Zoom)
	k.candidate = geometry.ClampTime(t, 0, k.clipDur)
}

// Candidate returns the current candidate time, for preview rendering.
func (k *KeyframeDrag) Candidate() float64 { return k.candidate }

// End commits the drag: one history checkpoint, then one clip update moving
// the keyframe to the last candidate time.
func (k *KeyframeDrag) End() bool {
	if k.state != StateActive {
		k.state = StateCommitted
		return false
	}
	k.store.SaveToHistory()
	k.store.UpdateClip(k.clipID, func(c *timeline.Clip) {
		for i := range c.Keyframes {
			if c.Keyframes[i].ID == k.keyframeID {
				c.Keyframes[i].Time = k.candidate
				return
			}
		}
	})
	k.state = StateCommitted
	return true
}

// Cancel abandons the gesture without mutating the store.
func (k *KeyframeDrag) Cancel() {
	k.state = StateCancelled
}
