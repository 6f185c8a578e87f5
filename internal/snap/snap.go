// Package snap is a stateless function library for positional assist during
// clip manipulation: it generates anchor points, converts a pixel threshold
// into a time threshold at the current zoom, and decides whether a candidate
// position snaps to an anchor.
package snap

import (
	"math"

	"github.com/framecut/framecut/internal/geometry"
	"github.com/framecut/framecut/internal/timeline"
)

// PointKind identifies what an anchor point was generated from.
type PointKind string

const (
	PointClipStart     PointKind = "clip-start"
	PointClipEnd       PointKind = "clip-end"
	PointPlayhead      PointKind = "playhead"
	PointTimelineStart PointKind = "timeline-start"
	PointTimelineEnd   PointKind = "timeline-end"
)

// Point is one snap anchor on the time axis.
type Point struct {
	Time   float64
	Kind   PointKind
	ClipID string
}

// Range is a visible time window used to restrict anchor generation.
type Range struct {
	Start float64
	End   float64
}

// GeneratePoints produces anchors at every clip's start and end (excluding
// the clip being manipulated), the playhead, time zero and the total
// duration. When visible is non-nil, clip anchors outside the window are
// skipped. Anchor enumeration order is significant: equal-distance snap ties
// resolve to the first anchor generated.
func GeneratePoints(clips []timeline.Clip, excludeID string, playhead, totalDuration float64, visible *Range) []Point {
	points := make([]Point, 0, len(clips)*2+3)
	for _, c := range clips {
		if c.ID == excludeID {
			continue
		}
		if visible == nil || (c.StartTime >= visible.Start && c.StartTime <= visible.End) {
			points = append(points, Point{Time: c.StartTime, Kind: PointClipStart, ClipID: c.ID})
		}
		if visible == nil || (c.EndTime() >= visible.Start && c.EndTime() <= visible.End) {
			points = append(points, Point{Time: c.EndTime(), Kind: PointClipEnd, ClipID: c.ID})
		}
	}
	points = append(points,
		Point{Time: playhead, Kind: PointPlayhead},
		Point{Time: 0, Kind: PointTimelineStart},
		Point{Time: totalDuration, Kind: PointTimelineEnd},
	)
	return points
}

// Threshold converts a constant pixel distance into a time distance at the
// given zoom, so snap feel is resolution independent.
func Threshold(zoom, pixels float64) float64 {
	return geometry.PixelsToTime(pixels, zoom)
}

// Result reports a snap decision.
type Result struct {
	Snapped bool
	// Time is the snapped candidate time: for clip snapping, the resulting
	// clip start; for trim snapping, the resulting edge time.
	Time  float64
	Point Point
}

// SnapClip finds the nearest anchor within threshold to either the clip's
// start or its end and returns the start time that aligns that edge with the
// anchor. Ties on distance resolve to the first anchor in generation order,
// the start edge winning over the end edge.
func SnapClip(startTime, duration float64, points []Point, threshold float64) Result {
	best := Result{Time: startTime}
	bestDist := math.Inf(1)
	endTime := startTime + duration

	for _, p := range points {
		if d := math.Abs(startTime - p.Time); d <= threshold && d < bestDist {
			bestDist = d
			best = Result{Snapped: true, Time: p.Time, Point: p}
		}
	}
	for _, p := range points {
		if d := math.Abs(endTime - p.Time); d <= threshold && d < bestDist {
			bestDist = d
			best = Result{Snapped: true, Time: p.Time - duration, Point: p}
		}
	}
	return best
}

// Edge identifies which clip edge a trim manipulates.
type Edge string

const (
	EdgeLeft  Edge = "left"
	EdgeRight Edge = "right"
)

// SnapTrim finds the nearest anchor within threshold to a single edge being
// trimmed.
func SnapTrim(_ Edge, t float64, points []Point, threshold float64) Result {
	best := Result{Time: t}
	bestDist := math.Inf(1)
	for _, p := range points {
		if d := math.Abs(t - p.Time); d <= threshold && d < bestDist {
			bestDist = d
			best = Result{Snapped: true, Time: p.Time, Point: p}
		}
	}
	return best
}

// WouldOverlap reports whether placing the clip at candidateStart on the
// target track would overlap any other clip's [start, start+duration)
// interval there. The drag controller uses this to redirect an overlapping
// move into new-track creation; two clips never share time on one track.
func WouldOverlap(clip timeline.Clip, candidateStart float64, all []timeline.Clip, targetTrackID string) bool {
	candidateEnd := candidateStart + clip.Duration
	for _, other := range all {
		if other.ID == clip.ID || other.TrackID != targetTrackID {
			continue
		}
		if candidateStart < other.EndTime() && other.StartTime < candidateEnd {
			return true
		}
	}
	return false
}
