// Package autosave persists the working project in the background. Saves
// are debounced so a burst of edits produces one write, but a continuously
// editing user is still saved at a bounded interval.
package autosave

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/framecut/framecut/internal/storage"
	"github.com/framecut/framecut/internal/timeline"
)

const (
	// quietDelay is how long after the last edit a save fires.
	quietDelay = 2 * time.Second
	// maxDelay bounds how long continuous editing can postpone a save.
	maxDelay = 10 * time.Second
)

// Saver watches a store and writes the project to storage after edits
// settle.
type Saver struct {
	store     *timeline.Store
	backend   storage.Storage
	projectID string

	mu          sync.Mutex
	dirty       bool
	lastEdit    time.Time
	oldestDirty time.Time

	unsubscribe func()
	done        chan struct{}
	stopOnce    sync.Once
}

// New creates a saver for the given project ID. Call Start to begin
// watching.
func New(store *timeline.Store, backend storage.Storage, projectID string) *Saver {
	return &Saver{
		store:     store,
		backend:   backend,
		projectID: projectID,
		done:      make(chan struct{}),
	}
}

// Start subscribes to store changes and launches the save loop.
func (s *Saver) Start() {
	s.unsubscribe = s.store.Subscribe(func(timeline.Change) {
		s.mu.Lock()
		now := time.Now()
		if !s.dirty {
			s.oldestDirty = now
		}
		s.dirty = true
		s.lastEdit = now
		s.mu.Unlock()
	})
	go s.loop()
}

func (s *Saver) loop() {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if s.due(time.Now()) {
				s.save()
			}
		}
	}
}

// due reports whether a pending save should fire: either the quiet period
// elapsed since the last edit, or edits have been arriving for longer than
// the max delay.
func (s *Saver) due(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return false
	}
	return now.Sub(s.lastEdit) >= quietDelay || now.Sub(s.oldestDirty) >= maxDelay
}

func (s *Saver) save() {
	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()

	project := s.store.Export()
	data, err := json.Marshal(project)
	if err != nil {
		slog.Error("failed to serialize project for autosave", "project", s.projectID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.backend.SaveProject(ctx, s.projectID, data); err != nil {
		slog.Error("autosave failed", "project", s.projectID, "error", err)
		// Try again on the next tick.
		s.mu.Lock()
		if !s.dirty {
			s.dirty = true
			s.oldestDirty = time.Now().Add(-maxDelay)
		}
		s.mu.Unlock()
		return
	}
	slog.Debug("project autosaved", "project", s.projectID)
}

// Flush saves immediately if there are unsaved edits.
func (s *Saver) Flush() {
	s.mu.Lock()
	dirty := s.dirty
	s.mu.Unlock()
	if dirty {
		s.save()
	}
}

// Stop unsubscribes, flushes pending edits, and stops the loop. Safe to
// call more than once.
func (s *Saver) Stop() {
	s.stopOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		close(s.done)
		s.Flush()
	})
}
