// Package export renders a timeline to an H.264/MP4 file. The compositor
// walks time at fixed frame steps, composites active clips onto a raster
// surface using the same interpolation engine as the live preview, and
// feeds frames to an encoder in strictly increasing timestamp order.
package export

import (
	"errors"
	"fmt"
)

// Quality selects an encoder preset and quality-factor pair.
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

type qualitySettings struct {
	crf    int
	preset string
}

var qualityTiers = map[Quality]qualitySettings{
	QualityLow:    {crf: 28, preset: "veryfast"},
	QualityMedium: {crf: 23, preset: "medium"},
	QualityHigh:   {crf: 18, preset: "slow"},
}

// Settings resolves the tier, defaulting to medium for unknown values.
func (q Quality) settings() qualitySettings {
	if s, ok := qualityTiers[q]; ok {
		return s
	}
	return qualityTiers[QualityMedium]
}

// Options is the configuration surface the compositor consumes.
type Options struct {
	Width    int
	Height   int
	FPS      float64
	Quality  Quality
	Filename string
	// UseHardware requests the platform H.264 encoder when available. The
	// hardware path is video-only; audio mixing requires the software path.
	UseHardware bool
}

// Validate rejects unusable options before any resources are allocated.
func (o Options) Validate() error {
	if o.Width < 2 || o.Height < 2 {
		return fmt.Errorf("output dimensions %dx%d too small", o.Width, o.Height)
	}
	if o.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %g", o.FPS)
	}
	return nil
}

// EvenDimensions rounds odd dimensions down by one pixel. H.264 encoders
// require even width and height.
func EvenDimensions(w, h int) (int, int) {
	return w &^ 1, h &^ 1
}

// ErrCancelled reports an export abandoned through its context.
var ErrCancelled = errors.New("export cancelled")

// renderPhaseFraction is where the progress scale switches from the
// rendering phase to encoding/muxing, so callers can distinguish "building
// frames" from "compressing".
const renderPhaseFraction = 0.8
