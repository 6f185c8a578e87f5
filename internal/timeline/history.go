package timeline

// maxHistoryEntries bounds undo memory. The oldest snapshot is dropped once
// the limit is reached.
const maxHistoryEntries = 50

// snapshot is one structural history entry: the tracks and clips as they
// were before a logical edit began.
type snapshot struct {
	tracks map[string]Track
	clips  map[string]Clip
}

// history is a bounded undo/redo stack of structural snapshots. Pushing a
// new checkpoint discards any redo entries.
type history struct {
	undo []snapshot
	redo []snapshot
}

func cloneTracks(src map[string]Track) map[string]Track {
	out := make(map[string]Track, len(src))
	for id, t := range src {
		out[id] = t
	}
	return out
}

func cloneClips(src map[string]Clip) map[string]Clip {
	out := make(map[string]Clip, len(src))
	for id, c := range src {
		out[id] = c.Clone()
	}
	return out
}

func takeSnapshot(tracks map[string]Track, clips map[string]Clip) snapshot {
	return snapshot{tracks: cloneTracks(tracks), clips: cloneClips(clips)}
}

// push records a checkpoint and truncates the redo side.
func (h *history) push(s snapshot) {
	h.undo = append(h.undo, s)
	if len(h.undo) > maxHistoryEntries {
		h.undo = h.undo[1:]
	}
	h.redo = h.redo[:0]
}

// stepBack restores the most recent checkpoint, recording the current state
// so it can be redone. Returns false at the earliest entry.
func (h *history) stepBack(current snapshot) (snapshot, bool) {
	if len(h.undo) == 0 {
		return snapshot{}, false
	}
	top := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, current)
	return top, true
}

// stepForward re-applies the most recently undone state. Returns false past
// the newest entry.
func (h *history) stepForward(current snapshot) (snapshot, bool) {
	if len(h.redo) == 0 {
		return snapshot{}, false
	}
	top := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, current)
	return top, true
}

func (h *history) reset() {
	h.undo = h.undo[:0]
	h.redo = h.redo[:0]
}
