// Package geometry converts between pixel and time coordinates at a given
// zoom level. Zoom is expressed in pixels per second.
package geometry

// TimeToPixels converts a time in seconds to a pixel offset.
func TimeToPixels(t, zoom float64) float64 {
	return t * zoom
}

// PixelsToTime converts a pixel offset to a time in seconds. A non-positive
// zoom yields zero rather than dividing by it.
func PixelsToTime(px, zoom float64) float64 {
	if zoom <= 0 {
		return 0
	}
	return px / zoom
}

// ClampTime limits t to the [min, max] range.
func ClampTime(t, min, max float64) float64 {
	if t < min {
		return min
	}
	if t > max {
		return max
	}
	return t
}
