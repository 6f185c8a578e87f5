package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/framecut/framecut/internal/timeline"
)

func TestEasingBoundaries(t *testing.T) {
	curves := map[string]func(float64) float64{
		"linear":      Linear,
		"ease-in":     EaseIn,
		"ease-out":    EaseOut,
		"ease-in-out": EaseInOut,
	}
	for name, fn := range curves {
		t.Run(name, func(t *testing.T) {
			assert.InDelta(t, 0.0, fn(0), 1e-9, "easing must preserve 0")
			assert.InDelta(t, 1.0, fn(1), 1e-9, "easing must preserve 1")
		})
	}
}

func TestEasingMonotonic(t *testing.T) {
	curves := map[string]func(float64) float64{
		"ease-in":     EaseIn,
		"ease-out":    EaseOut,
		"ease-in-out": EaseInOut,
	}
	for name, fn := range curves {
		t.Run(name, func(t *testing.T) {
			prev := fn(0)
			for i := 1; i <= 100; i++ {
				v := fn(float64(i) / 100)
				assert.GreaterOrEqual(t, v, prev)
				prev = v
			}
		})
	}
}

func TestEaseInBelowLinear(t *testing.T) {
	for i := 1; i < 100; i++ {
		p := float64(i) / 100
		assert.LessOrEqual(t, EaseIn(p), p)
	}
}

func TestEaseInOutSymmetry(t *testing.T) {
	for _, p := range []float64{0.1, 0.25, 0.4} {
		assert.InDelta(t, 1-EaseInOut(1-p), EaseInOut(p), 1e-9)
	}
}

func TestCubicBezier(t *testing.T) {
	// Control points (0,0)/(1,1) degenerate to the identity.
	for _, p := range []float64{0, 0.25, 0.5, 0.75, 1} {
		assert.InDelta(t, p, CubicBezier(0, 0, 1, 1, p), 0.01)
	}

	// The CSS "ease" curve: starts fast-ish and settles.
	assert.InDelta(t, 0.0, CubicBezier(0.25, 0.1, 0.25, 1, 0), 1e-9)
	assert.InDelta(t, 1.0, CubicBezier(0.25, 0.1, 0.25, 1, 1), 1e-9)
	mid := CubicBezier(0.25, 0.1, 0.25, 1, 0.5)
	assert.Greater(t, mid, 0.5, "the ease curve is above the diagonal at t=0.5")

	// Clamp outside [0,1].
	assert.Equal(t, 0.0, CubicBezier(0.25, 0.1, 0.25, 1, -2))
	assert.Equal(t, 1.0, CubicBezier(0.25, 0.1, 0.25, 1, 3))
}

func TestEaseDispatch(t *testing.T) {
	bez := &timeline.BezierControl{X1: 0.25, Y1: 0.1, X2: 0.25, Y2: 1}

	assert.Equal(t, 0.5, Ease(timeline.EaseLinear, nil, 0.5))
	assert.Equal(t, EaseIn(0.5), Ease(timeline.EaseIn, nil, 0.5))
	assert.Equal(t, EaseOut(0.5), Ease(timeline.EaseOut, nil, 0.5))
	assert.Equal(t, EaseInOut(0.5), Ease(timeline.EaseInOut, nil, 0.5))
	assert.Equal(t, CubicBezier(0.25, 0.1, 0.25, 1, 0.5), Ease(timeline.EaseBezier, bez, 0.5))

	// Bezier without control points and unknown modes fall back to linear.
	assert.Equal(t, 0.5, Ease(timeline.EaseBezier, nil, 0.5))
	assert.Equal(t, 0.5, Ease(timeline.EasingMode("bounce"), nil, 0.5))
}
