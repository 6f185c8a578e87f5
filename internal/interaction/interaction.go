// Package interaction translates continuous pointer gestures into discrete
// store mutations. Each controller runs the same state machine: Idle until
// the first movement sample, Active while samples arrive, then Committed on
// release or Cancelled when interrupted. Exactly one store mutation happens,
// at commit time, with one history checkpoint pushed immediately before it.
package interaction

// State is the lifecycle of a gesture controller.
type State string

const (
	StateIdle      State = "idle"
	StateActive    State = "active"
	StateCommitted State = "committed"
	StateCancelled State = "cancelled"
)

// Config carries the view parameters a gesture needs to turn pixel deltas
// into time deltas.
type Config struct {
	// Zoom is the timeline zoom at gesture start, in pixels per second.
	Zoom float64
	// SnapPixels is the snap assist distance in pixels; zero disables
	// snapping.
	SnapPixels float64
}

// DefaultSnapPixels is the snap assist distance used when callers have no
// preference.
const DefaultSnapPixels = 8
