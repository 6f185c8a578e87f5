// Package interp samples animated clip properties at arbitrary times. Live
// preview and export both go through this package, so a frame rendered at
// time t is identical in either path.
package interp

import "github.com/framecut/framecut/internal/timeline"

// Linear returns t unchanged.
func Linear(t float64) float64 { return t }

// EaseIn is the cubic ease-in curve.
func EaseIn(t float64) float64 { return t * t * t }

// EaseOut is the cubic ease-out curve.
func EaseOut(t float64) float64 {
	u := 1 - t
	return 1 - u*u*u
}

// EaseInOut is the cubic ease-in-out curve, split at 0.5.
func EaseInOut(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}

const (
	bezierIterations = 20
	bezierTolerance  = 0.001
)

// CubicBezier evaluates a CSS-style cubic-bezier easing curve running from
// (0,0) to (1,1) through the two control points. The parameter matching
// x(u) = t is found by binary search, then y(u) is returned.
func CubicBezier(x1, y1, x2, y2, t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	lo, hi := 0.0, 1.0
	u := t
	for i := 0; i < bezierIterations; i++ {
		x := bezierAxis(x1, x2, u)
		if diff := x - t; diff > bezierTolerance {
			hi = u
		} else if diff < -bezierTolerance {
			lo = u
		} else {
			break
		}
		u = (lo + hi) / 2
	}
	return bezierAxis(y1, y2, u)
}

// bezierAxis evaluates one axis of the curve at parameter u, with implicit
// endpoints 0 and 1.
func bezierAxis(p1, p2, u float64) float64 {
	v := 1 - u
	return 3*v*v*u*p1 + 3*v*u*u*p2 + u*u*u
}

// Ease applies the keyframe's easing mode to a progress value in [0,1].
// Unknown modes fall back to linear.
func Ease(mode timeline.EasingMode, bez *timeline.BezierControl, t float64) float64 {
	switch mode {
	case timeline.EaseIn:
		return EaseIn(t)
	case timeline.EaseOut:
		return EaseOut(t)
	case timeline.EaseInOut:
		return EaseInOut(t)
	case timeline.EaseBezier:
		if bez != nil {
			return CubicBezier(bez.X1, bez.Y1, bez.X2, bez.Y2, t)
		}
		return Linear(t)
	case timeline.EaseLinear:
		return Linear(t)
	}
	return Linear(t)
}
