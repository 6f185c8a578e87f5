package timeline

import (
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ValidateProject checks an incoming project snapshot before it is allowed
// into the store. Malformed data is rejected here with a specific message;
// no partial load ever happens. Mutation-time operations deliberately do not
// re-validate.
func ValidateProject(p Project) error {
	if err := validation.ValidateStruct(&p,
		validation.Field(&p.FPS, validation.Required, validation.Min(1.0), validation.Max(240.0)),
		validation.Field(&p.Duration, validation.Min(0.0)),
	); err != nil {
		return fmt.Errorf("project: %w", err)
	}
	if err := validation.ValidateStruct(&p.Resolution,
		validation.Field(&p.Resolution.Width, validation.Required, validation.Min(2)),
		validation.Field(&p.Resolution.Height, validation.Required, validation.Min(2)),
	); err != nil {
		return fmt.Errorf("resolution: %w", err)
	}

	trackIDs := make(map[string]struct{}, len(p.Tracks))
	for i, t := range p.Tracks {
		if err := validateTrack(t); err != nil {
			return fmt.Errorf("track %d (%s): %w", i, t.ID, err)
		}
		if _, dup := trackIDs[t.ID]; dup {
			return fmt.Errorf("track %d: duplicate id %s", i, t.ID)
		}
		trackIDs[t.ID] = struct{}{}
	}

	clipIDs := make(map[string]struct{}, len(p.Clips))
	for i, c := range p.Clips {
		if err := ValidateClip(c); err != nil {
			return fmt.Errorf("clip %d (%s): %w", i, c.ID, err)
		}
		if _, dup := clipIDs[c.ID]; dup {
			return fmt.Errorf("clip %d: duplicate id %s", i, c.ID)
		}
		clipIDs[c.ID] = struct{}{}
		if _, ok := trackIDs[c.TrackID]; !ok {
			return fmt.Errorf("clip %d (%s): unknown track %s", i, c.ID, c.TrackID)
		}
	}

	for i, m := range p.MediaLibrary {
		if err := validation.ValidateStruct(&m,
			validation.Field(&m.ID, validation.Required),
			validation.Field(&m.Kind, validation.Required, validation.In(MediaVideo, MediaAudio, MediaSRT)),
			validation.Field(&m.URL, validation.Required),
		); err != nil {
			return fmt.Errorf("media %d (%s): %w", i, m.ID, err)
		}
	}
	return nil
}

func validateTrack(t Track) error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.ID, validation.Required),
		validation.Field(&t.Kind, validation.Required, validation.In(TrackVideo, TrackAudio, TrackText, TrackSticker)),
		validation.Field(&t.Order, validation.Min(0)),
	)
}

// ValidateClip checks a single clip's structural invariants: positive
// duration of at least MinClipDuration, non-negative start and source
// offset, a payload matching the declared kind, the source window fitting
// inside MaxDuration when one is set, and edge transitions no longer than
// the clip itself.
func ValidateClip(c Clip) error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.TrackID, validation.Required),
		validation.Field(&c.StartTime, validation.Min(0.0)),
		validation.Field(&c.Duration, validation.Required, validation.Min(MinClipDuration)),
		validation.Field(&c.SourceStart, validation.Min(0.0)),
		validation.Field(&c.Kind, validation.Required, validation.In(KindVideo, KindAudio, KindText, KindSticker)),
	); err != nil {
		return err
	}

	switch c.Kind {
	case KindVideo:
		if c.Video == nil || c.Video.SourceURL == "" {
			return fmt.Errorf("video clip missing source url")
		}
	case KindAudio:
		if c.Audio == nil || c.Audio.SourceURL == "" {
			return fmt.Errorf("audio clip missing source url")
		}
	case KindText:
		if c.Text == nil {
			return fmt.Errorf("text clip missing payload")
		}
	case KindSticker:
		if c.Sticker == nil || c.Sticker.AssetURL == "" {
			return fmt.Errorf("sticker clip missing asset url")
		}
	}

	if c.Kind.HasFiniteSource() && c.MaxDuration > 0 {
		if c.SourceStart+c.Duration > c.MaxDuration+1e-9 {
			return fmt.Errorf("source window %.3f+%.3f exceeds max duration %.3f",
				c.SourceStart, c.Duration, c.MaxDuration)
		}
	}

	if err := validateTransition(c.TransitionIn, c.Duration); err != nil {
		return fmt.Errorf("transition in: %w", err)
	}
	if err := validateTransition(c.TransitionOut, c.Duration); err != nil {
		return fmt.Errorf("transition out: %w", err)
	}

	for i, kf := range c.Keyframes {
		if err := validateKeyframe(kf); err != nil {
			return fmt.Errorf("keyframe %d: %w", i, err)
		}
	}
	return nil
}

// validateTransition bounds an edge transition to its clip: a transition
// longer than the clip would keep it from ever fully appearing.
func validateTransition(tr *Transition, clipDuration float64) error {
	if tr == nil {
		return nil
	}
	if tr.Duration < 0 {
		return fmt.Errorf("negative duration %.3f", tr.Duration)
	}
	if tr.Duration > clipDuration {
		return fmt.Errorf("duration %.3f exceeds clip duration %.3f", tr.Duration, clipDuration)
	}
	return nil
}

func validateKeyframe(kf Keyframe) error {
	if err := validation.ValidateStruct(&kf,
		validation.Field(&kf.Property, validation.Required),
		validation.Field(&kf.Time, validation.Min(0.0)),
	); err != nil {
		return err
	}
	if kf.Value.Kind == ValueColor && !hexColorRe.MatchString(kf.Value.Color) {
		return fmt.Errorf("color %q is not a #rrggbb value", kf.Value.Color)
	}
	if kf.Easing == EaseBezier && kf.Bezier == nil {
		return fmt.Errorf("cubic-bezier easing without control points")
	}
	return nil
}
