// Package progress tracks the stage and completion fraction of a running
// export and fans events out to registered listeners.
package progress

import (
	"sync"
	"time"
)

// Stage is the export state machine: Idle until Start, then Initializing
// while codec resources load, Rendering during the frame loop, Encoding
// while the muxer finishes, and finally Complete. Failed is reachable from
// any non-terminal stage.
type Stage string

const (
	StageIdle         Stage = "idle"
	StageInitializing Stage = "initializing"
	StageRendering    Stage = "rendering"
	StageEncoding     Stage = "encoding"
	StageComplete     Stage = "complete"
	StageFailed       Stage = "failed"
)

// Event is one progress notification.
type Event struct {
	Stage     Stage     `json:"stage"`
	Progress  float64   `json:"progress"`
	Message   string    `json:"message"`
	Frame     int       `json:"frame,omitempty"`
	Frames    int       `json:"frames,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Tracker manages progress state for one export and notifies listeners of
// every update. Listeners run synchronously on the updating goroutine.
type Tracker struct {
	mu        sync.RWMutex
	stage     Stage
	progress  float64
	message   string
	frame     int
	frames    int
	err       error
	listeners map[int]func(Event)
	nextID    int
}

// NewTracker returns a tracker in the idle stage.
func NewTracker() *Tracker {
	return &Tracker{stage: StageIdle, listeners: make(map[int]func(Event))}
}

// AddListener registers a listener and returns a func that removes it.
func (t *Tracker) AddListener(fn func(Event)) func() {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.listeners[id] = fn
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		delete(t.listeners, id)
		t.mu.Unlock()
	}
}

// Update sets the stage, overall fraction and message, then notifies.
func (t *Tracker) Update(stage Stage, fraction float64, message string) {
	t.mu.Lock()
	t.stage = stage
	t.progress = fraction
	t.message = message
	ev := t.eventLocked()
	t.mu.Unlock()
	t.notify(ev)
}

// UpdateFrame records per-frame rendering progress.
func (t *Tracker) UpdateFrame(frame, total int, fraction float64) {
	t.mu.Lock()
	t.stage = StageRendering
	t.frame = frame
	t.frames = total
	t.progress = fraction
	ev := t.eventLocked()
	t.mu.Unlock()
	t.notify(ev)
}

// Fail moves the tracker to the failed stage with the given error.
func (t *Tracker) Fail(err error) {
	t.mu.Lock()
	t.stage = StageFailed
	t.err = err
	t.message = err.Error()
	ev := t.eventLocked()
	t.mu.Unlock()
	t.notify(ev)
}

// Current returns the latest state as an event.
func (t *Tracker) Current() Event {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.eventLocked()
}

func (t *Tracker) eventLocked() Event {
	ev := Event{
		Stage:     t.stage,
		Progress:  t.progress,
		Message:   t.message,
		Frame:     t.frame,
		Frames:    t.frames,
		Timestamp: time.Now(),
	}
	if t.err != nil {
		ev.Error = t.err.Error()
	}
	return ev
}

func (t *Tracker) notify(ev Event) {
	t.mu.RLock()
	fns := make([]func(Event), 0, len(t.listeners))
	for _, fn := range t.listeners {
		fns = append(fns, fn)
	}
	t.mu.RUnlock()
	for _, fn := range fns {
		fn(ev)
	}
}
