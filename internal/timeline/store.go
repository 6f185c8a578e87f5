package timeline

import (
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ChangeOp names the mutation that triggered a change notification.
type ChangeOp string

const (
	OpLoad        ChangeOp = "load"
	OpAddTrack    ChangeOp = "add-track"
	OpUpdateTrack ChangeOp = "update-track"
	OpRemoveTrack ChangeOp = "remove-track"
	OpAddClip     ChangeOp = "add-clip"
	OpUpdateClip  ChangeOp = "update-clip"
	OpRemoveClip  ChangeOp = "remove-clip"
	OpMoveClip    ChangeOp = "move-clip"
	OpTrimClip    ChangeOp = "trim-clip"
	OpSplitClip   ChangeOp = "split-clip"
	OpMergeClips  ChangeOp = "merge-clips"
	OpAddMedia    ChangeOp = "add-media"
	OpRemoveMedia ChangeOp = "remove-media"
	OpSetDuration ChangeOp = "set-duration"
	OpUndo        ChangeOp = "undo"
	OpRedo        ChangeOp = "redo"
)

// Change is the payload of a store notification. Consumers re-derive their
// view from the store; the payload only says what kind of edit happened.
type Change struct {
	Op ChangeOp
	ID string
}

// Store is the sole writer of timeline state. Every read used for rendering
// is a copy taken under the read lock; nothing hands out references into the
// internal maps. Map entries are replaced wholesale on update rather than
// mutated in place, so history snapshots can share unchanged values.
type Store struct {
	mu sync.RWMutex

	fps        float64
	duration   float64
	resolution Resolution

	tracks map[string]Track
	clips  map[string]Clip
	media  map[string]MediaItem

	selection map[string]struct{}

	currentTime  float64
	playing      bool
	looping      bool
	playbackRate float64

	zoom    float64
	scrollX float64

	hist history

	listenerMu   sync.Mutex
	listeners    map[int]func(Change)
	nextListener int
}

// NewStore returns an empty store with default project settings.
func NewStore() *Store {
	return &Store{
		fps:          30,
		duration:     10,
		resolution:   Resolution{Width: 1920, Height: 1080},
		tracks:       make(map[string]Track),
		clips:        make(map[string]Clip),
		media:        make(map[string]MediaItem),
		selection:    make(map[string]struct{}),
		playbackRate: 1,
		zoom:         50,
		listeners:    make(map[int]func(Change)),
	}
}

// NewID returns a fresh identifier for tracks, clips and media items.
func NewID() string { return uuid.NewString() }

// Subscribe registers a change listener and returns its unsubscribe func.
// Listeners run synchronously after the mutation completes, outside the
// store lock.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	return func() {
		s.listenerMu.Lock()
		defer s.listenerMu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) notify(c Change) {
	s.listenerMu.Lock()
	fns := make([]func(Change), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenerMu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}

// --- Project snapshot ---

// Load replaces all state with the given project and clears history and
// selection. Callers validate the project at the boundary before loading.
func (s *Store) Load(p Project) {
	s.mu.Lock()
	s.fps = p.FPS
	if s.fps <= 0 {
		s.fps = 30
	}
	s.resolution = p.Resolution
	s.tracks = make(map[string]Track, len(p.Tracks))
	for _, t := range p.Tracks {
		s.tracks[t.ID] = t
	}
	s.clips = make(map[string]Clip, len(p.Clips))
	for _, c := range p.Clips {
		s.clips[c.ID] = c.Clone()
	}
	s.media = make(map[string]MediaItem, len(p.MediaLibrary))
	for _, m := range p.MediaLibrary {
		s.media[m.ID] = m
	}
	s.selection = make(map[string]struct{})
	s.currentTime = 0
	s.playing = false
	s.duration = math.Max(math.Max(p.Duration, 1), s.maxClipEndLocked())
	s.hist.reset()
	s.mu.Unlock()
	s.notify(Change{Op: OpLoad})
}

// Export returns the project snapshot in the interchange shape: a pure read
// projection with deterministic ordering.
func (s *Store) Export() Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := Project{
		FPS:        s.fps,
		Duration:   s.duration,
		Resolution: s.resolution,
	}
	p.Tracks = make([]Track, 0, len(s.tracks))
	for _, t := range s.tracks {
		p.Tracks = append(p.Tracks, t)
	}
	sort.Slice(p.Tracks, func(i, j int) bool { return p.Tracks[i].Order < p.Tracks[j].Order })

	p.Clips = make([]Clip, 0, len(s.clips))
	for _, c := range s.clips {
		p.Clips = append(p.Clips, c.Clone())
	}
	sort.Slice(p.Clips, func(i, j int) bool {
		if p.Clips[i].StartTime != p.Clips[j].StartTime {
			return p.Clips[i].StartTime < p.Clips[j].StartTime
		}
		return p.Clips[i].ID < p.Clips[j].ID
	})

	p.MediaLibrary = make([]MediaItem, 0, len(s.media))
	for _, m := range s.media {
		p.MediaLibrary = append(p.MediaLibrary, m)
	}
	sort.Slice(p.MediaLibrary, func(i, j int) bool { return p.MediaLibrary[i].ID < p.MediaLibrary[j].ID })

	return p
}

// --- Tracks ---

// AddTrack inserts a track by id; an existing id is overwritten.
func (s *Store) AddTrack(t Track) {
	s.mu.Lock()
	s.tracks[t.ID] = t
	s.mu.Unlock()
	s.notify(Change{Op: OpAddTrack, ID: t.ID})
}

// UpdateTrack applies fn to a copy of the track and stores it back.
func (s *Store) UpdateTrack(id string, fn func(*Track)) bool {
	s.mu.Lock()
	t, ok := s.tracks[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	fn(&t)
	t.ID = id
	s.tracks[id] = t
	s.mu.Unlock()
	s.notify(Change{Op: OpUpdateTrack, ID: id})
	return true
}

// RemoveTrack deletes the track and cascades to every clip on it.
func (s *Store) RemoveTrack(id string) bool {
	s.mu.Lock()
	if _, ok := s.tracks[id]; !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.tracks, id)
	for cid, c := range s.clips {
		if c.TrackID == id {
			delete(s.clips, cid)
			delete(s.selection, cid)
		}
	}
	s.normalizeOrdersLocked()
	s.mu.Unlock()
	s.notify(Change{Op: OpRemoveTrack, ID: id})
	return true
}

// ReorderTrack moves the track to the requested order and renormalizes all
// orders to be dense and unique.
func (s *Store) ReorderTrack(id string, newOrder int) bool {
	s.mu.Lock()
	t, ok := s.tracks[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	ordered := s.tracksByOrderLocked()
	if newOrder < 0 {
		newOrder = 0
	}
	if newOrder >= len(ordered) {
		newOrder = len(ordered) - 1
	}
	without := make([]Track, 0, len(ordered)-1)
	for _, o := range ordered {
		if o.ID != t.ID {
			without = append(without, o)
		}
	}
	reordered := make([]Track, 0, len(ordered))
	reordered = append(reordered, without[:newOrder]...)
	reordered = append(reordered, t)
	reordered = append(reordered, without[newOrder:]...)
	for i, o := range reordered {
		o.Order = i
		s.tracks[o.ID] = o
	}
	s.mu.Unlock()
	s.notify(Change{Op: OpUpdateTrack, ID: id})
	return true
}

// InsertTrackAbove creates a new track of the given kind directly above the
// reference track (or at the top when ref is unknown) and returns it. Used
// by the drag controller when a move would overlap.
func (s *Store) InsertTrackAbove(kind TrackKind, refTrackID string) Track {
	s.mu.Lock()
	order := 0
	if ref, ok := s.tracks[refTrackID]; ok {
		order = ref.Order
	}
	for id, t := range s.tracks {
		if t.Order >= order {
			t.Order++
			s.tracks[id] = t
		}
	}
	t := Track{
		ID:      NewID(),
		Name:    string(kind),
		Kind:    kind,
		Order:   order,
		Visible: true,
	}
	s.tracks[t.ID] = t
	s.mu.Unlock()
	s.notify(Change{Op: OpAddTrack, ID: t.ID})
	return t
}

// Track returns a copy of the track.
func (s *Store) Track(id string) (Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tracks[id]
	return t, ok
}

// Tracks returns all tracks sorted by vertical order.
func (s *Store) Tracks() []Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracksByOrderLocked()
}

func (s *Store) tracksByOrderLocked() []Track {
	out := make([]Track, 0, len(s.tracks))
	for _, t := range s.tracks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) normalizeOrdersLocked() {
	for i, t := range s.tracksByOrderLocked() {
		t.Order = i
		s.tracks[t.ID] = t
	}
}

// --- Clips ---

// AddClip inserts a clip by id; an existing id is overwritten. Total
// duration is extended if the clip ends beyond it.
func (s *Store) AddClip(c Clip) {
	s.mu.Lock()
	s.clips[c.ID] = c.Clone()
	s.extendDurationLocked(c.EndTime())
	s.mu.Unlock()
	s.notify(Change{Op: OpAddClip, ID: c.ID})
}

// Clip returns a deep copy of the clip.
func (s *Store) Clip(id string) (Clip, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clips[id]
	if !ok {
		return Clip{}, false
	}
	return c.Clone(), true
}

// Clips returns copies of all clips, ordered by start time then id.
func (s *Store) Clips() []Clip {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Clip, 0, len(s.clips))
	for _, c := range s.clips {
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ClipsOnTrack returns copies of the clips on one track, ordered by start.
func (s *Store) ClipsOnTrack(trackID string) []Clip {
	out := s.Clips()
	filtered := out[:0]
	for _, c := range out {
		if c.TrackID == trackID {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// UpdateClip applies fn to a copy of the clip and stores it back. No schema
// re-validation happens here; constraint solving is the caller's concern.
func (s *Store) UpdateClip(id string, fn func(*Clip)) bool {
	s.mu.Lock()
	c, ok := s.clips[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	cp := c.Clone()
	fn(&cp)
	cp.ID = id
	s.clips[id] = cp
	s.mu.Unlock()
	s.notify(Change{Op: OpUpdateClip, ID: id})
	return true
}

// RemoveClip deletes the clip and drops it from the selection.
func (s *Store) RemoveClip(id string) bool {
	s.mu.Lock()
	if _, ok := s.clips[id]; !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.clips, id)
	delete(s.selection, id)
	s.mu.Unlock()
	s.notify(Change{Op: OpRemoveClip, ID: id})
	return true
}

// MoveClip repositions a clip in time and optionally onto another track.
// Start is clamped to zero; an unknown target track leaves the track
// unchanged. This operation does not check for overlap; that is the drag
// controller's job.
func (s *Store) MoveClip(id string, newStart float64, newTrackID string) bool {
	s.mu.Lock()
	c, ok := s.clips[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	cp := c.Clone()
	cp.StartTime = math.Max(0, newStart)
	if newTrackID != "" {
		if _, ok := s.tracks[newTrackID]; ok {
			cp.TrackID = newTrackID
		}
	}
	s.clips[id] = cp
	s.extendDurationLocked(cp.EndTime())
	s.mu.Unlock()
	s.notify(Change{Op: OpMoveClip, ID: id})
	return true
}

// TrimUpdate is the precomputed field set applied by TrimClip. The
// constraint solving (minimum duration, source bounds) is done by the trim
// controller before calling in.
type TrimUpdate struct {
	Duration    float64
	StartTime   *float64
	SourceStart *float64
}

// TrimClip applies a precomputed trim to the clip and extends total duration
// when the new end runs past it.
func (s *Store) TrimClip(id string, u TrimUpdate) bool {
	s.mu.Lock()
	c, ok := s.clips[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	cp := c.Clone()
	cp.Duration = u.Duration
	if u.StartTime != nil {
		cp.StartTime = *u.StartTime
	}
	if u.SourceStart != nil {
		cp.SourceStart = *u.SourceStart
	}
	s.clips[id] = cp
	s.extendDurationLocked(cp.EndTime())
	s.mu.Unlock()
	s.notify(Change{Op: OpTrimClip, ID: id})
	return true
}

// SplitClip replaces the clip with two clips meeting at splitTime. It fails
// without mutating when the split point sits within EdgeTolerance of either
// clip edge. For finite-source kinds the right half's source offset advances
// by the left half's duration so the source reference stays continuous.
// Both new clips become selected in place of the original.
func (s *Store) SplitClip(id string, splitTime float64) (leftID, rightID string, ok bool) {
	s.mu.Lock()
	c, exists := s.clips[id]
	if !exists {
		s.mu.Unlock()
		return "", "", false
	}
	if splitTime-c.StartTime < EdgeTolerance || c.EndTime()-splitTime < EdgeTolerance {
		s.mu.Unlock()
		return "", "", false
	}

	leftDur := splitTime - c.StartTime
	rightDur := c.Duration - leftDur

	left := c.Clone()
	left.ID = NewID()
	left.Duration = leftDur
	left.TransitionOut = nil

	right := c.Clone()
	right.ID = NewID()
	right.StartTime = splitTime
	right.Duration = rightDur
	right.TransitionIn = nil
	if c.Kind.HasFiniteSource() {
		right.SourceStart = c.SourceStart + leftDur
	}

	// Keyframes follow the half they fall into; right-half times rebase to
	// the new clip start.
	left.Keyframes = nil
	right.Keyframes = nil
	for _, kf := range c.Keyframes {
		if kf.Time <= leftDur {
			left.Keyframes = append(left.Keyframes, kf)
		} else {
			kf.Time -= leftDur
			right.Keyframes = append(right.Keyframes, kf)
		}
	}

	delete(s.clips, id)
	delete(s.selection, id)
	s.clips[left.ID] = left
	s.clips[right.ID] = right
	s.selection[left.ID] = struct{}{}
	s.selection[right.ID] = struct{}{}
	s.mu.Unlock()
	s.notify(Change{Op: OpSplitClip, ID: id})
	return left.ID, right.ID, true
}

// MergeClips replaces two or more clips of the same kind on the same track
// with a single clip spanning their combined range, keeping the earliest
// clip's other fields. Preconditions: every adjacent timeline gap is within
// EdgeTolerance, and for finite-source kinds the clips reference the same
// source with continuous source windows. Returns false without mutating on
// any precondition failure.
func (s *Store) MergeClips(ids []string) (string, bool) {
	s.mu.Lock()
	if len(ids) < 2 {
		s.mu.Unlock()
		return "", false
	}
	clips := make([]Clip, 0, len(ids))
	for _, id := range ids {
		c, ok := s.clips[id]
		if !ok {
			s.mu.Unlock()
			return "", false
		}
		clips = append(clips, c)
	}
	first := clips[0]
	for _, c := range clips[1:] {
		if c.Kind != first.Kind || c.TrackID != first.TrackID {
			s.mu.Unlock()
			return "", false
		}
	}
	sort.Slice(clips, func(i, j int) bool { return clips[i].StartTime < clips[j].StartTime })
	for i := 1; i < len(clips); i++ {
		prev, cur := clips[i-1], clips[i]
		if cur.StartTime-prev.EndTime() > EdgeTolerance {
			s.mu.Unlock()
			return "", false
		}
		if first.Kind.HasFiniteSource() {
			if cur.SourceURL() != prev.SourceURL() {
				s.mu.Unlock()
				return "", false
			}
			if math.Abs(cur.SourceStart-(prev.SourceStart+prev.Duration)) > EdgeTolerance {
				s.mu.Unlock()
				return "", false
			}
		}
	}

	earliest := clips[0]
	last := clips[len(clips)-1]
	merged := earliest.Clone()
	merged.ID = NewID()
	merged.Duration = last.EndTime() - earliest.StartTime
	merged.TransitionOut = nil
	if last.TransitionOut != nil {
		t := *last.TransitionOut
		merged.TransitionOut = &t
	}

	for _, c := range clips {
		delete(s.clips, c.ID)
		delete(s.selection, c.ID)
	}
	s.clips[merged.ID] = merged
	s.selection[merged.ID] = struct{}{}
	s.mu.Unlock()
	s.notify(Change{Op: OpMergeClips, ID: merged.ID})
	return merged.ID, true
}

// --- Media library ---

// AddMedia inserts a media item by id.
func (s *Store) AddMedia(m MediaItem) {
	s.mu.Lock()
	s.media[m.ID] = m
	s.mu.Unlock()
	s.notify(Change{Op: OpAddMedia, ID: m.ID})
}

// RemoveMedia deletes a media item. Clips referencing its URL keep the raw
// reference; there is no foreign key between clips and the library.
func (s *Store) RemoveMedia(id string) bool {
	s.mu.Lock()
	if _, ok := s.media[id]; !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.media, id)
	s.mu.Unlock()
	s.notify(Change{Op: OpRemoveMedia, ID: id})
	return true
}

// Media returns all library items sorted by id.
func (s *Store) Media() []MediaItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]MediaItem, 0, len(s.media))
	for _, m := range s.media {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// --- Selection ---

// Select adds a clip to the selection.
func (s *Store) Select(id string) {
	s.mu.Lock()
	if _, ok := s.clips[id]; ok {
		s.selection[id] = struct{}{}
	}
	s.mu.Unlock()
}

// Deselect removes a clip from the selection.
func (s *Store) Deselect(id string) {
	s.mu.Lock()
	delete(s.selection, id)
	s.mu.Unlock()
}

// ClearSelection empties the selection.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	s.selection = make(map[string]struct{})
	s.mu.Unlock()
}

// SelectedIDs returns the selected clip ids, sorted.
func (s *Store) SelectedIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.selection))
	for id := range s.selection {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// IsSelected reports whether the clip is in the selection.
func (s *Store) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.selection[id]
	return ok
}

// --- Duration ---

// TotalDuration returns the timeline's total duration in seconds.
func (s *Store) TotalDuration() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.duration
}

// SetDuration sets the total duration. Without trimClips it can never
// silently truncate content: the result is the max of the requested value,
// one second, and the furthest clip end. With trimClips the request is
// authoritative: clips wholly beyond it are deleted and straddling clips are
// shortened in place.
func (s *Store) SetDuration(d float64, trimClips bool) {
	s.mu.Lock()
	if trimClips {
		target := math.Max(d, 1)
		for id, c := range s.clips {
			switch {
			case c.StartTime >= target:
				delete(s.clips, id)
				delete(s.selection, id)
			case c.EndTime() > target:
				cp := c.Clone()
				cp.Duration = target - cp.StartTime
				s.clips[id] = cp
			}
		}
		s.duration = target
	} else {
		s.duration = math.Max(math.Max(d, 1), s.maxClipEndLocked())
	}
	s.mu.Unlock()
	s.notify(Change{Op: OpSetDuration})
}

func (s *Store) maxClipEndLocked() float64 {
	var end float64
	for _, c := range s.clips {
		if e := c.EndTime(); e > end {
			end = e
		}
	}
	return end
}

// extendDurationLocked grows total duration so the given end fits, rounded
// up to a whole second. It never shrinks the duration.
func (s *Store) extendDurationLocked(end float64) {
	if end > s.duration {
		s.duration = math.Ceil(end)
	}
}

// --- History ---

// SaveToHistory pushes a structural checkpoint. Interaction controllers call
// this once, immediately before the first mutation of a logical gesture, so
// each undo step matches one user-perceived action. Pushing after an undo
// discards the redo side.
func (s *Store) SaveToHistory() {
	s.mu.Lock()
	s.hist.push(takeSnapshot(s.tracks, s.clips))
	s.mu.Unlock()
}

// Undo restores the most recent checkpoint. At the earliest entry it is a
// no-op and returns false.
func (s *Store) Undo() bool {
	s.mu.Lock()
	snap, ok := s.hist.stepBack(takeSnapshot(s.tracks, s.clips))
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.restoreLocked(snap)
	s.mu.Unlock()
	s.notify(Change{Op: OpUndo})
	return true
}

// Redo re-applies the most recently undone edit. Past the newest entry it is
// a no-op and returns false.
func (s *Store) Redo() bool {
	s.mu.Lock()
	snap, ok := s.hist.stepForward(takeSnapshot(s.tracks, s.clips))
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.restoreLocked(snap)
	s.mu.Unlock()
	s.notify(Change{Op: OpRedo})
	return true
}

func (s *Store) restoreLocked(snap snapshot) {
	s.tracks = cloneTracks(snap.tracks)
	s.clips = cloneClips(snap.clips)
	for id := range s.selection {
		if _, ok := s.clips[id]; !ok {
			delete(s.selection, id)
		}
	}
}

// --- Playback & viewport ---

// CurrentTime returns the playhead position.
func (s *Store) CurrentTime() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentTime
}

// SetCurrentTime moves the playhead, clamped to [0, duration].
func (s *Store) SetCurrentTime(t float64) {
	s.mu.Lock()
	s.currentTime = math.Min(math.Max(t, 0), s.duration)
	s.mu.Unlock()
}

// Play starts the playback clock.
func (s *Store) Play() {
	s.mu.Lock()
	s.playing = true
	s.mu.Unlock()
}

// Pause stops the playback clock.
func (s *Store) Pause() {
	s.mu.Lock()
	s.playing = false
	s.mu.Unlock()
}

// Playing reports whether the playback clock is running.
func (s *Store) Playing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playing
}

// SetLooping toggles wrap-around at the timeline end.
func (s *Store) SetLooping(loop bool) {
	s.mu.Lock()
	s.looping = loop
	s.mu.Unlock()
}

// SetPlaybackRate sets the playback speed multiplier.
func (s *Store) SetPlaybackRate(rate float64) {
	s.mu.Lock()
	if rate > 0 {
		s.playbackRate = rate
	}
	s.mu.Unlock()
}

// Advance moves the playhead by elapsed wall-clock seconds scaled by the
// playback rate. At the timeline end it wraps when looping and otherwise
// clamps and stops. Each tick is a single atomic state transition.
func (s *Store) Advance(elapsed float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing || elapsed <= 0 {
		return
	}
	t := s.currentTime + elapsed*s.playbackRate
	if t >= s.duration {
		if s.looping && s.duration > 0 {
			t = math.Mod(t, s.duration)
		} else {
			t = s.duration
			s.playing = false
		}
	}
	s.currentTime = t
}

// Zoom returns the viewport zoom in pixels per second.
func (s *Store) Zoom() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.zoom
}

// SetZoom sets the viewport zoom in pixels per second.
func (s *Store) SetZoom(z float64) {
	s.mu.Lock()
	if z > 0 {
		s.zoom = z
	}
	s.mu.Unlock()
}

// ScrollX returns the viewport's horizontal scroll offset in pixels.
func (s *Store) ScrollX() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scrollX
}

// SetScrollX sets the viewport's horizontal scroll offset.
func (s *Store) SetScrollX(px float64) {
	s.mu.Lock()
	s.scrollX = math.Max(0, px)
	s.mu.Unlock()
}

// FPS returns the project frame rate.
func (s *Store) FPS() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fps
}

// SetFPS sets the project frame rate.
func (s *Store) SetFPS(fps float64) {
	s.mu.Lock()
	if fps > 0 {
		s.fps = fps
	}
	s.mu.Unlock()
}

// Resolution returns the output frame size.
func (s *Store) Resolution() Resolution {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolution
}

// SetResolution sets the output frame size.
func (s *Store) SetResolution(r Resolution) {
	s.mu.Lock()
	if r.Width > 0 && r.Height > 0 {
		s.resolution = r
	}
	s.mu.Unlock()
}
